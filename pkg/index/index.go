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

// Package index defines the sorted map of primary key to Location that sits
// above the block layer: point lookups resolve a key straight to the block
// and offset holding its record, and range scans walk keys in order.
package index

import (
	"errors"

	"github.com/brewsterkv/blockkv/pkg/location"
)

// ErrNotFound is returned by nothing in this package directly: Get reports
// a miss via its bool return, matching the spec's "NotFound surfaces only
// as none, never as an error". It is exported for implementations and
// their tests to compare against consistently.
var ErrNotFound = errors.New("index: key not found")

// Index is a sorted string-keyed map from primary key to Location. It is
// the spec's "external sorted key-value map", narrowed to the four
// operations the core needs.
type Index interface {
	// Put records that key resolves to loc. A later Put of the same key
	// overwrites the earlier mapping.
	Put(key string, loc location.Location) error

	// Get returns the Location for key. found is false, err is nil on a
	// miss: NotFound is never an error, per the error-classification
	// design.
	Get(key string) (loc location.Location, found bool, err error)

	// Scan returns an Iterator over keys in [lower, upper) in ascending
	// order. An empty upper means unbounded above.
	Scan(lower, upper string) (Iterator, error)

	// Close releases resources held by the index (open file handles,
	// for a disk-backed implementation).
	Close() error
}

// Iterator walks an Index's entries in key order. An Iterator must be
// closed after use; it need not be exhausted.
type Iterator interface {
	// Next advances to the next entry, returning false when exhausted or
	// on error — call Close to distinguish the two.
	Next() bool

	// Key returns the current entry's key. Valid only after Next returns
	// true.
	Key() string

	// Location returns the current entry's Location. Valid only after
	// Next returns true.
	Location() (location.Location, error)

	// Close closes the iterator and returns any error accumulated during
	// iteration.
	Close() error
}
