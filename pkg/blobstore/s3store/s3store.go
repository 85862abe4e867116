/*
Copyright 2024 The Blockkv Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package s3store is a Blobstore backed by Amazon S3. It is the concrete
// object-store adapter everything else in this module decorates.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/brewsterkv/blockkv/pkg/blobstore"
)

// api is the subset of *s3.Client this package calls, narrowed to an
// interface so tests can substitute a fake instead of talking to a real (or
// locally-hosted) S3 endpoint.
type api interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Store stores blobs as objects in a single S3 bucket, one object per key,
// uploaded in a single PutObject request (no multipart).
type Store struct {
	client api
	bucket string
}

// New constructs a Store for bucket using an S3 client built from ambient
// AWS configuration (environment variables, shared config/credentials
// files, EC2/ECS instance metadata) resolved at call time, per the AWS SDK's
// usual default provider chain.
func New(ctx context.Context, bucket string) (*Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3store: loading AWS config: %w", err)
	}
	return NewWithClient(s3.NewFromConfig(cfg), bucket), nil
}

// NewWithClient constructs a Store for bucket using an already-configured S3
// client, for callers that need custom endpoints, retries, or credentials
// (and for tests, against a fake or local S3-compatible endpoint).
func NewWithClient(client api, bucket string) *Store {
	return &Store{client: client, bucket: bucket}
}

func (s *Store) String() string {
	return fmt.Sprintf("s3 blob storage at bucket %q", s.bucket)
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		var apiErr smithy.APIError
		if errors.As(err, &noKey) {
			return nil, nil
		}
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchKey" {
			return nil, nil
		}
		return nil, fmt.Errorf("s3store: get %q: %w", key, err)
	}
	defer out.Body.Close()
	b, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3store: reading body of %q: %w", key, err)
	}
	return b, nil
}

func (s *Store) Put(ctx context.Context, key string, blob []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(blob),
	})
	if err != nil {
		return fmt.Errorf("s3store: put %q: %w", key, err)
	}
	return nil
}

func (s *Store) MustGet(ctx context.Context, key string) ([]byte, error) {
	return blobstore.MustGet(ctx, s.Get, key)
}
