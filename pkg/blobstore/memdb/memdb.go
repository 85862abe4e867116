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

// Package memdb is an in-memory Blobstore, used both as a lightweight
// concrete backend and, via its GetCount/Gets instrumentation, as a spy for
// tests asserting what the decorator stack above it actually requested.
package memdb

import (
	"context"
	"sync"

	"github.com/brewsterkv/blockkv/pkg/blobstore"
)

// Store is an in-memory map-backed Blobstore, safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	m    map[string][]byte
	gets []string // every key ever passed to Get, in order, for test instrumentation
}

// New returns an empty Store.
func New() *Store {
	return &Store{m: make(map[string][]byte)}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	s.gets = append(s.gets, key)
	s.mu.Unlock()

	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.m[key]
	if !ok {
		return nil, nil
	}
	// Return a copy: Store is the bottom of the stack and makes no
	// zero-copy promise of its own: the Caching decorator is the layer
	// responsible for that guarantee.
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (s *Store) Put(_ context.Context, key string, blob []byte) error {
	cp := make([]byte, len(blob))
	copy(cp, blob)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = cp
	return nil
}

func (s *Store) MustGet(ctx context.Context, key string) ([]byte, error) {
	return blobstore.MustGet(ctx, s.Get, key)
}

// GetCount returns the number of times Get has been called, regardless of
// outcome. Used to observe that a cache hit does not reach this store.
func (s *Store) GetCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.gets)
}

// Gets returns the keys passed to Get, in call order.
func (s *Store) Gets() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.gets))
	copy(out, s.gets)
	return out
}

// Len returns the number of blobs currently stored.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
