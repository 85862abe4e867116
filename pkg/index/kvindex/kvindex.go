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

// Package kvindex is an index.Index backed by a single on-disk
// modernc.org/kv file: the sorted, immutable index file the spec describes
// as "{prefix}/index/default.sst". A driver builds one with New, writes
// every (primary_key, Location) pair, closes it, and publishes the file's
// bytes through a Blobstore; a reader downloads those bytes to a local path
// and opens them with Open.
package kvindex

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"modernc.org/kv"

	"github.com/brewsterkv/blockkv/pkg/index"
	"github.com/brewsterkv/blockkv/pkg/location"
)

var _ index.Index = (*Index)(nil)

// Index is a modernc.org/kv-backed index.Index over a single file on disk.
type Index struct {
	path string
	db   *kv.DB
	txmu sync.Mutex
}

// New creates a fresh, empty index file at path; no file of that name may
// already exist. Used by the bulk-ingest driver to build a new index before
// publishing it.
func New(path string) (*Index, error) {
	db, err := kv.Create(path, &kv.Options{})
	if err != nil {
		return nil, fmt.Errorf("kvindex: creating %s: %w", path, err)
	}
	return &Index{path: path, db: db}, nil
}

// Open opens an existing index file at path, such as one just downloaded
// from the blobstore for scanning.
func Open(path string) (*Index, error) {
	db, err := kv.Open(path, &kv.Options{})
	if err != nil {
		return nil, fmt.Errorf("kvindex: opening %s: %w", path, err)
	}
	return &Index{path: path, db: db}, nil
}

// Path returns the on-disk file backing this index, for a driver that needs
// to read the raw bytes to publish them.
func (idx *Index) Path() string {
	return idx.path
}

func (idx *Index) Put(key string, loc location.Location) error {
	return idx.db.Set([]byte(key), loc.Encode())
}

func (idx *Index) Get(key string) (location.Location, bool, error) {
	val, err := idx.db.Get(nil, []byte(key))
	if err != nil {
		return location.Location{}, false, fmt.Errorf("kvindex: get %q: %w", key, err)
	}
	if val == nil {
		return location.Location{}, false, nil
	}
	loc, err := location.Decode(val)
	if err != nil {
		return location.Location{}, false, fmt.Errorf("kvindex: decoding location for %q: %w", key, err)
	}
	return loc, true, nil
}

func (idx *Index) Scan(lower, upper string) (index.Iterator, error) {
	enum, _, err := idx.db.Seek([]byte(lower))
	if err != nil {
		return nil, fmt.Errorf("kvindex: seek %q: %w", lower, err)
	}
	return &iterator{enum: enum, upper: []byte(upper)}, nil
}

func (idx *Index) Close() error {
	return idx.db.Close()
}

// PutBatch writes pairs as a single transaction, for a caller that has
// accumulated a run's worth of (primary_key, Location) pairs and commits
// them together rather than one Set call per record.
func (idx *Index) PutBatch(pairs map[string]location.Location) (err error) {
	idx.txmu.Lock()
	defer idx.txmu.Unlock()

	if err := idx.db.BeginTransaction(); err != nil {
		return fmt.Errorf("kvindex: begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			idx.db.Rollback()
		}
	}()
	for key, loc := range pairs {
		if err = idx.db.Set([]byte(key), loc.Encode()); err != nil {
			return fmt.Errorf("kvindex: set %q: %w", key, err)
		}
	}
	if err = idx.db.Commit(); err != nil {
		return fmt.Errorf("kvindex: commit: %w", err)
	}
	return nil
}

type iterator struct {
	enum  *kv.Enumerator
	upper []byte

	key, val []byte
	valid    bool
	err      error
}

func (it *iterator) Next() bool {
	key, val, err := it.enum.Next()
	if err == io.EOF {
		it.valid = false
		return false
	}
	if err != nil {
		it.err = err
		it.valid = false
		return false
	}
	if len(it.upper) > 0 && bytes.Compare(key, it.upper) >= 0 {
		it.valid = false
		return false
	}
	it.key, it.val = key, val
	it.valid = true
	return true
}

func (it *iterator) Key() string {
	return string(it.key)
}

func (it *iterator) Location() (location.Location, error) {
	return location.Decode(it.val)
}

func (it *iterator) Close() error {
	return it.err
}
