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

// Package location defines the (block_id, offset) coordinate that the index
// maps a primary key to, and its wire encoding.
package location

import (
	"fmt"

	"github.com/brewsterkv/blockkv/pkg/varint"
)

// Location identifies a record's position within a block's uncompressed
// payload: BlockID names the block object, Offset is the byte offset at
// which the record's varint-length framing begins.
type Location struct {
	BlockID uint64
	Offset  uint64
}

// Encode returns varint(BlockID) || varint(Offset), between 2 and 20 bytes.
func (l Location) Encode() []byte {
	buf := make([]byte, 0, varint.RequiredSpace(l.BlockID)+varint.RequiredSpace(l.Offset))
	buf = varint.Append(buf, l.BlockID)
	buf = varint.Append(buf, l.Offset)
	return buf
}

// Decode parses a Location from buf. It is an error for buf to contain
// trailing bytes after the two varints, or to be truncated.
func Decode(buf []byte) (Location, error) {
	blockID, n := varint.Read(buf)
	if n <= 0 {
		return Location{}, fmt.Errorf("location: truncated block_id varint")
	}
	rest := buf[n:]
	offset, n2 := varint.Read(rest)
	if n2 <= 0 {
		return Location{}, fmt.Errorf("location: truncated offset varint")
	}
	if n2 != len(rest) {
		return Location{}, fmt.Errorf("location: %d trailing byte(s) after offset", len(rest)-n2)
	}
	return Location{BlockID: blockID, Offset: offset}, nil
}

func (l Location) String() string {
	return fmt.Sprintf("(block=%d, offset=%d)", l.BlockID, l.Offset)
}
