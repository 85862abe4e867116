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

// Package compressed implements the Compressed blobstore decorator: zstd
// encoding on put, decoding on get. A blob written through this decorator is
// only readable through a corresponding decompression layer.
package compressed

import (
	"context"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/brewsterkv/blockkv/pkg/blobstore"
)

// Store zstd-compresses blobs on the way into inner and decompresses them on
// the way out. It adds no framing of its own beyond zstd's native framing.
type Store struct {
	inner blobstore.Blobstore
	enc   *zstd.Encoder
	dec   *zstd.Decoder
}

// New returns a Store wrapping inner with default-level zstd compression.
func New(inner blobstore.Blobstore) (*Store, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("compressed: creating encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("compressed: creating decoder: %w", err)
	}
	return &Store{inner: inner, enc: enc, dec: dec}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.inner.Get(ctx, key)
	if err != nil || raw == nil {
		return raw, err
	}
	out, err := s.dec.DecodeAll(raw, nil)
	if err != nil {
		return nil, &blobstore.CodecError{Key: key, Err: fmt.Errorf("zstd decode: %w", err)}
	}
	return out, nil
}

func (s *Store) Put(ctx context.Context, key string, blob []byte) error {
	compressed := s.enc.EncodeAll(blob, nil)
	return s.inner.Put(ctx, key, compressed)
}

func (s *Store) MustGet(ctx context.Context, key string) ([]byte, error) {
	return blobstore.MustGet(ctx, s.Get, key)
}

// Close releases the decoder's background resources. The encoder has none
// to release beyond what garbage collection handles.
func (s *Store) Close() {
	s.dec.Close()
}
