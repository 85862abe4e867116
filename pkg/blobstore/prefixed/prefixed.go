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

// Package prefixed implements the Prefixed blobstore decorator: it rewrites
// every key by prepending a namespace before delegating to an inner store.
package prefixed

import (
	"context"

	"github.com/brewsterkv/blockkv/pkg/blobstore"
)

// Store rewrites key to "prefix/key" before delegating to inner. Wrapping a
// Store in another Store is associative: New(New(s, "p1"), "p2") observes
// keys as "p1/p2/k".
type Store struct {
	inner  blobstore.Blobstore
	prefix string
}

// New returns a Store that prepends prefix (without a trailing slash) to
// every key before delegating to inner.
func New(inner blobstore.Blobstore, prefix string) *Store {
	return &Store{inner: inner, prefix: prefix}
}

func (s *Store) key(k string) string {
	return s.prefix + "/" + k
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	return s.inner.Get(ctx, s.key(key))
}

func (s *Store) Put(ctx context.Context, key string, blob []byte) error {
	return s.inner.Put(ctx, s.key(key), blob)
}

func (s *Store) MustGet(ctx context.Context, key string) ([]byte, error) {
	return s.inner.MustGet(ctx, s.key(key))
}
