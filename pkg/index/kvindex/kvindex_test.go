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

package kvindex

import (
	"path/filepath"
	"testing"

	"github.com/brewsterkv/blockkv/pkg/location"
)

func TestPutThenGetRoundTrips(t *testing.T) {
	idx, err := New(filepath.Join(t.TempDir(), "index.sst"))
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	loc := location.Location{BlockID: 42, Offset: 17}
	if err := idx.Put("k1", loc); err != nil {
		t.Fatal(err)
	}
	got, found, err := idx.Get("k1")
	if err != nil {
		t.Fatal(err)
	}
	if !found || got != loc {
		t.Fatalf("Get(k1) = (%v, %v), want (%v, true)", got, found, loc)
	}
}

func TestGetMissingKeyIsNotFoundNoError(t *testing.T) {
	idx, err := New(filepath.Join(t.TempDir(), "index.sst"))
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	_, found, err := idx.Get("missing")
	if err != nil || found {
		t.Fatalf("Get(missing) = (_, %v, %v), want (_, false, nil)", found, err)
	}
}

func TestScanOrdersKeysAscendingWithBounds(t *testing.T) {
	idx, err := New(filepath.Join(t.TempDir(), "index.sst"))
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	for i, k := range []string{"c", "a", "e", "b", "d"} {
		if err := idx.Put(k, location.Location{BlockID: uint64(i)}); err != nil {
			t.Fatal(err)
		}
	}

	it, err := idx.Scan("b", "e")
	if err != nil {
		t.Fatal(err)
	}
	defer it.Close()

	var got []string
	for it.Next() {
		got = append(got, it.Key())
	}
	want := []string{"b", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestPutBatchCommitsAllPairs(t *testing.T) {
	idx, err := New(filepath.Join(t.TempDir(), "index.sst"))
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	pairs := map[string]location.Location{
		"a": {BlockID: 1, Offset: 0},
		"b": {BlockID: 1, Offset: 10},
		"c": {BlockID: 2, Offset: 0},
	}
	if err := idx.PutBatch(pairs); err != nil {
		t.Fatal(err)
	}
	for k, want := range pairs {
		got, found, err := idx.Get(k)
		if err != nil || !found || got != want {
			t.Fatalf("Get(%q) = (%v, %v, %v), want (%v, true, nil)", k, got, found, err, want)
		}
	}
}

func TestReopenSeesPublishedEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.sst")
	idx, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	loc := location.Location{BlockID: 5, Offset: 9}
	if err := idx.Put("k", loc); err != nil {
		t.Fatal(err)
	}
	if err := idx.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	got, found, err := reopened.Get("k")
	if err != nil {
		t.Fatal(err)
	}
	if !found || got != loc {
		t.Fatalf("Get(k) after reopen = (%v, %v), want (%v, true)", got, found, loc)
	}
}
