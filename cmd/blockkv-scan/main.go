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

// Command blockkv-scan downloads a published index file and walks its
// entries in key order, optionally bounded by -start/-end, fetching and
// printing the underlying record for each key unless -keys-only is set.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/brewsterkv/blockkv/pkg/block"
	"github.com/brewsterkv/blockkv/pkg/blobstore/caching"
	"github.com/brewsterkv/blockkv/pkg/blobstore/compressed"
	"github.com/brewsterkv/blockkv/pkg/blobstore/prefixed"
	"github.com/brewsterkv/blockkv/pkg/blobstore/s3store"
	"github.com/brewsterkv/blockkv/pkg/index/kvindex"
)

func main() {
	bucket := flag.String("bucket", "", "source S3 bucket")
	prefix := flag.String("prefix", "", "key prefix within the bucket")
	start := flag.String("start", "", "lower key bound, inclusive (unbounded if empty)")
	end := flag.String("end", "", "upper key bound, exclusive (unbounded if empty)")
	cacheSize := flag.Int("cache-size", 16, "number of uncompressed blocks to keep cached")
	keysOnly := flag.Bool("keys-only", false, "print keys and locations without fetching records")
	quiet := flag.Bool("quiet", false, "suppress per-entry output (useful when only the summary matters)")
	flag.Parse()

	if *bucket == "" || *prefix == "" {
		fmt.Fprintln(os.Stderr, "usage: blockkv-scan -bucket=BUCKET -prefix=PREFIX [-start=K] [-end=K] [-keys-only]")
		os.Exit(2)
	}

	if err := run(*bucket, *prefix, *start, *end, *cacheSize, *keysOnly, *quiet); err != nil {
		log.Fatal(err)
	}
}

func run(bucket, prefix, start, end string, cacheSize int, keysOnly, quiet bool) error {
	ctx := context.Background()

	s3, err := s3store.New(ctx, bucket)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", bucket, err)
	}

	log.Printf("downloading %s/index/default.sst", prefix)
	sstBytes, err := s3.MustGet(ctx, prefix+"/index/default.sst")
	if err != nil {
		return fmt.Errorf("downloading index: %w", err)
	}
	indexPath := filepath.Join(os.TempDir(), fmt.Sprintf("blockkv-scan-%d.sst", time.Now().UnixNano()))
	if err := os.WriteFile(indexPath, sstBytes, 0o600); err != nil {
		return fmt.Errorf("writing local index copy: %w", err)
	}
	defer os.Remove(indexPath)

	idx, err := kvindex.Open(indexPath)
	if err != nil {
		return fmt.Errorf("opening local index: %w", err)
	}
	defer idx.Close()

	blockStack, err := compressed.New(prefixed.New(s3, prefix+"/block"))
	if err != nil {
		return fmt.Errorf("building block store: %w", err)
	}
	defer blockStack.Close()
	cached, err := caching.New(blockStack, cacheSize)
	if err != nil {
		return fmt.Errorf("building cache: %w", err)
	}
	reader := block.NewReader(cached)

	it, err := idx.Scan(start, end)
	if err != nil {
		return fmt.Errorf("scanning index: %w", err)
	}
	defer it.Close()

	var n int
	for it.Next() {
		key := it.Key()
		loc, err := it.Location()
		if err != nil {
			return fmt.Errorf("decoding location for %q: %w", key, err)
		}
		n++
		if keysOnly {
			if !quiet {
				fmt.Printf("%s --> %s\n", key, loc)
			}
			continue
		}
		record, err := reader.Fetch(ctx, loc)
		if err != nil {
			return fmt.Errorf("fetching record for %q at %s: %w", key, loc, err)
		}
		if !quiet {
			fmt.Printf("%s -> %s\n", key, record)
		}
	}
	if err := it.Close(); err != nil {
		return fmt.Errorf("iterating index: %w", err)
	}
	log.Printf("scanned %d entries", n)
	return nil
}
