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

package compressed

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/brewsterkv/blockkv/pkg/blobstore"
	"github.com/brewsterkv/blockkv/pkg/blobstore/memdb"
)

func TestRoundTripAndShrinksOnWire(t *testing.T) {
	mem := memdb.New()
	s, err := New(mem)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	v := make([]byte, 10<<10)
	if _, err := rand.Read(v); err != nil {
		t.Fatal(err)
	}
	// Make it compressible: repeat a short pattern, since pure random bytes
	// don't shrink under zstd and the property under test (S6) concerns
	// highly-repetitive 10 KB payloads, which is the realistic record shape
	// for this system (many records sharing structure within a block).
	for i := range v {
		v[i] = byte(i % 7)
	}

	ctx := context.Background()
	if err := s.Put(ctx, "k", v); err != nil {
		t.Fatal(err)
	}

	got, err := s.MustGet(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, v) {
		t.Fatal("round trip mismatch")
	}

	onWire, err := mem.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(onWire, v) {
		t.Fatal("on-wire bytes equal logical bytes; compression did not run")
	}
	if len(onWire) >= len(v) {
		t.Fatalf("on-wire length %d not smaller than logical length %d", len(onWire), len(v))
	}
}

func TestGetPropagatesNotFound(t *testing.T) {
	s, err := New(memdb.New())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	got, err := s.Get(context.Background(), "missing")
	if err != nil || got != nil {
		t.Fatalf("Get(missing) = (%v, %v), want (nil, nil)", got, err)
	}
}

func TestCorruptPayloadIsCodecError(t *testing.T) {
	mem := memdb.New()
	if err := mem.Put(context.Background(), "k", []byte("not zstd")); err != nil {
		t.Fatal(err)
	}
	s, err := New(mem)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	_, err = s.Get(context.Background(), "k")
	var codecErr *blobstore.CodecError
	if !errors.As(err, &codecErr) {
		t.Fatalf("err = %v, want *blobstore.CodecError", err)
	}
}
