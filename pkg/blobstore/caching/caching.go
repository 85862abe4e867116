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

// Package caching implements the Caching blobstore decorator: a bounded LRU
// of Get outcomes, including misses, with a zero-copy hit path.
package caching

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/brewsterkv/blockkv/pkg/blobstore"
)

// entry holds the outcome of one inner Get call. It is always stored and
// returned behind a pointer, so the byte slice it holds never moves and
// never needs to be copied out again on a cache hit: reordering the LRU's
// recency list only touches the pointer, not the bytes it refers to.
type entry struct {
	data  []byte // nil if inner reported "not found"
	found bool
}

// Store wraps inner with a bounded LRU cache of capacity entries. Gets
// (including "not found" results) are cached; Puts are not cache-populating,
// they invalidate the key so a later Get reflects the write.
type Store struct {
	inner blobstore.Blobstore
	lru   *lru.Cache[string, *entry]
}

// New returns a Store caching up to capacity keys of inner. capacity must be
// at least 1.
func New(inner blobstore.Blobstore, capacity int) (*Store, error) {
	if capacity < 1 {
		return nil, &blobstore.UsageError{Msg: "caching: capacity must be >= 1"}
	}
	c, err := lru.New[string, *entry](capacity)
	if err != nil {
		return nil, err
	}
	return &Store{inner: inner, lru: c}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if e, ok := s.lru.Get(key); ok {
		if !e.found {
			return nil, nil
		}
		return e.data, nil
	}

	b, err := s.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	e := &entry{data: b, found: b != nil}
	s.lru.Add(key, e)
	return e.data, nil
}

func (s *Store) Put(ctx context.Context, key string, blob []byte) error {
	if err := s.inner.Put(ctx, key, blob); err != nil {
		return err
	}
	// Write-invalidation: a subsequent Get must eventually reflect the
	// write, which removing the stale cached outcome (hit or miss)
	// guarantees trivially.
	s.lru.Remove(key)
	return nil
}

func (s *Store) MustGet(ctx context.Context, key string) ([]byte, error) {
	return blobstore.MustGet(ctx, s.Get, key)
}

// Len returns the number of entries currently cached.
func (s *Store) Len() int {
	return s.lru.Len()
}
