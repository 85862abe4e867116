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

// Package block implements the append-only block packing format: Writer
// packs a stream of records into size-bounded blocks and publishes each
// sealed block through a Blobstore; Reader fetches a block and extracts one
// record at a given Location.
package block

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/brewsterkv/blockkv/pkg/blobstore"
	"github.com/brewsterkv/blockkv/pkg/location"
	"github.com/brewsterkv/blockkv/pkg/varint"
)

// Writer packs records into blocks of approximately blockSize bytes and
// emits each sealed block, in ascending block-ID order, via underlying.
//
// A Writer is not safe for concurrent use: it is single-owner, single-task,
// matching the spec's single-writer assumption (block IDs are assigned by a
// local counter with no coordination across writers).
type Writer struct {
	underlying blobstore.Blobstore
	blockSize  int

	buf []byte
	cur location.Location // location the next append will return
}

// NewWriter returns a Writer that publishes sealed blocks through
// underlying, targeting blockSize bytes per block (a target, not a hard
// cap — see Append).
func NewWriter(underlying blobstore.Blobstore, blockSize int) *Writer {
	return &Writer{
		underlying: underlying,
		blockSize:  blockSize,
		buf:        make([]byte, 0, blockSize),
	}
}

// blockName is the blobstore key for a sealed block: the lowercase hex
// encoding of the block ID's varint form.
func blockName(blockID uint64) string {
	return hex.EncodeToString(varint.Append(nil, blockID))
}

// Append packs record into the current block, rolling over to a fresh block
// first if record would overflow blockSize and the current block is
// non-empty. A record larger than blockSize is packed alone into a solo
// block rather than rejected.
func (w *Writer) Append(ctx context.Context, record []byte) (location.Location, error) {
	framedSize := varint.RequiredSpace(uint64(len(record))) + len(record)

	if w.cur.Offset+uint64(framedSize) > uint64(w.blockSize) && len(w.buf) > 0 {
		if err := w.Flush(ctx); err != nil {
			return location.Location{}, err
		}
	}

	loc := w.cur
	w.buf = varint.Append(w.buf, uint64(len(record)))
	w.buf = append(w.buf, record...)
	w.cur.Offset += uint64(framedSize)
	return loc, nil
}

// Flush seals the current block (if non-empty) and publishes it via
// underlying.Put, then advances to a fresh, empty block. Flush on an empty
// buffer is a no-op: no Put call is made.
//
// If Put fails, buf is left intact and cur unchanged, so a caller that
// retries Flush re-sends the same bytes under the same block ID — the
// idempotent-retry policy the spec calls for (rather than silently skipping
// ahead to a fresh block ID on retry).
func (w *Writer) Flush(ctx context.Context) error {
	if len(w.buf) == 0 {
		return nil
	}
	name := blockName(w.cur.BlockID)
	if err := w.underlying.Put(ctx, name, w.buf); err != nil {
		return fmt.Errorf("block: flushing block %s: %w", name, err)
	}
	w.buf = w.buf[:0]
	w.cur = location.Location{BlockID: w.cur.BlockID + 1, Offset: 0}
	return nil
}
