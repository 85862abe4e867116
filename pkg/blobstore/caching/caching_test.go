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

package caching

import (
	"context"
	"errors"
	"testing"
	"unsafe"

	"github.com/brewsterkv/blockkv/pkg/blobstore"
	"github.com/brewsterkv/blockkv/pkg/blobstore/memdb"
)

func TestZeroCapacityIsUsageError(t *testing.T) {
	_, err := New(memdb.New(), 0)
	var usageErr *blobstore.UsageError
	if !errors.As(err, &usageErr) {
		t.Fatalf("New with capacity 0: err = %v, want *blobstore.UsageError", err)
	}
}

func TestCachedMissIsNotRefetched(t *testing.T) {
	// S5: spy always returns None; get("a"); get("a"); get("b") should hit
	// the inner store exactly for ["a", "b"].
	spy := memdb.New()
	s, err := New(spy, 1)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	s.Get(ctx, "a")
	s.Get(ctx, "a")
	s.Get(ctx, "b")

	got := spy.Gets()
	want := []string{"a", "b"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("inner fetches = %v, want %v", got, want)
	}
}

func TestCapacityOneEvictsCorrectly(t *testing.T) {
	// Boundary behavior: after get("a"); get("b"); get("a"), the underlying
	// store has been hit for "a", "b", "a".
	spy := memdb.New()
	spy.Put(context.Background(), "a", []byte("A"))
	spy.Put(context.Background(), "b", []byte("B"))

	s, err := New(spy, 1)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	s.Get(ctx, "a")
	s.Get(ctx, "b")
	s.Get(ctx, "a")

	got := spy.Gets()
	want := []string{"a", "b", "a"}
	if len(got) != len(want) {
		t.Fatalf("inner fetches = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("inner fetches = %v, want %v", got, want)
		}
	}
}

func TestHitReturnsSameBackingArrayNoCopy(t *testing.T) {
	spy := memdb.New()
	spy.Put(context.Background(), "k", []byte("hello world"))

	s, err := New(spy, 4)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	first, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	before := spy.GetCount()

	second, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}

	if spy.GetCount() != before {
		t.Fatalf("cache hit reached inner store: GetCount went from %d to %d", before, spy.GetCount())
	}
	if len(first) == 0 || unsafe.SliceData(first) != unsafe.SliceData(second) {
		t.Fatal("cache hit did not return the same backing array as the cached entry")
	}
}

func TestPutInvalidatesCachedEntry(t *testing.T) {
	spy := memdb.New()
	s, err := New(spy, 4)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	s.Get(ctx, "k") // cache the miss
	if err := s.Put(ctx, "k", []byte("v1")); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "v1" {
		t.Fatalf("Get after Put = %q, want %q", got, "v1")
	}
}
