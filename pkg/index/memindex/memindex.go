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

// Package memindex is an in-memory index.Index, backed by a sorted slice of
// keys and a parallel map of values. It exists for tests; it is not meant
// to back a long-lived production index.
package memindex

import (
	"sort"
	"sync"

	"github.com/brewsterkv/blockkv/pkg/index"
	"github.com/brewsterkv/blockkv/pkg/location"
)

var _ index.Index = (*Index)(nil)

// Index is a naive in-memory index.Index for test and development purposes
// only.
type Index struct {
	mu   sync.RWMutex
	keys []string // kept sorted
	vals map[string]location.Location
}

// New returns an empty Index.
func New() *Index {
	return &Index{vals: make(map[string]location.Location)}
}

func (idx *Index) Put(key string, loc location.Location) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, exists := idx.vals[key]; !exists {
		i := sort.SearchStrings(idx.keys, key)
		idx.keys = append(idx.keys, "")
		copy(idx.keys[i+1:], idx.keys[i:])
		idx.keys[i] = key
	}
	idx.vals[key] = loc
	return nil
}

func (idx *Index) Get(key string) (location.Location, bool, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	loc, ok := idx.vals[key]
	return loc, ok, nil
}

func (idx *Index) Scan(lower, upper string) (index.Iterator, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	start := sort.SearchStrings(idx.keys, lower)
	keys := make([]string, len(idx.keys)-start)
	copy(keys, idx.keys[start:])

	return &Iterator{idx: idx, keys: keys, upper: upper, pos: -1}, nil
}

func (idx *Index) Close() error { return nil }

// Iterator walks a snapshot of the key list taken at Scan time; keys added
// after Scan are not observed by an in-flight Iterator, but Location reads
// the current value, so an overwrite of a snapshotted key is observed.
type Iterator struct {
	idx   *Index
	keys  []string
	upper string
	pos   int
}

func (it *Iterator) Next() bool {
	it.pos++
	if it.pos >= len(it.keys) {
		return false
	}
	if it.upper != "" && it.keys[it.pos] >= it.upper {
		it.pos = len(it.keys)
		return false
	}
	return true
}

func (it *Iterator) Key() string {
	return it.keys[it.pos]
}

func (it *Iterator) Location() (location.Location, error) {
	it.idx.mu.RLock()
	defer it.idx.mu.RUnlock()
	return it.idx.vals[it.keys[it.pos]], nil
}

func (it *Iterator) Close() error { return nil }
