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

package block

import (
	"context"
	"fmt"

	"github.com/brewsterkv/blockkv/pkg/blobstore"
	"github.com/brewsterkv/blockkv/pkg/location"
	"github.com/brewsterkv/blockkv/pkg/varint"
)

// Reader fetches blocks via underlying and extracts individual records from
// them. It holds no state of its own — any caching of fetched block bytes
// lives in the Blobstore stack passed in as underlying (typically a Caching
// decorator), so repeated Fetch calls at different offsets within the same
// block can be served from cached uncompressed bytes.
type Reader struct {
	underlying blobstore.Blobstore
}

// NewReader returns a Reader fetching blocks via underlying.
func NewReader(underlying blobstore.Blobstore) *Reader {
	return &Reader{underlying: underlying}
}

// Fetch returns the record at loc.
func (r *Reader) Fetch(ctx context.Context, loc location.Location) ([]byte, error) {
	name := blockName(loc.BlockID)
	b, err := r.underlying.MustGet(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("block: fetching block %s: %w", name, err)
	}

	if loc.Offset > uint64(len(b)) {
		return nil, &blobstore.CodecError{Key: name, Err: fmt.Errorf("offset %d past end of %d-byte block", loc.Offset, len(b))}
	}
	rest := b[loc.Offset:]

	n, consumed := varint.Read(rest)
	if consumed <= 0 {
		return nil, &blobstore.CodecError{Key: name, Err: fmt.Errorf("truncated length varint at offset %d", loc.Offset)}
	}
	rest = rest[consumed:]
	if n > uint64(len(rest)) {
		return nil, &blobstore.CodecError{Key: name, Err: fmt.Errorf("record of length %d exceeds remaining %d bytes", n, len(rest))}
	}
	return rest[:n], nil
}
