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

// Command blockkv-load bulk-loads a newline-delimited JSON file into a
// block/index pair and publishes both to S3. Each line becomes one record
// in the block layer; its primary key (extracted by -key-field, a
// dot-separated path into the parsed JSON object) is mapped to the
// returned Location in a freshly built index file, which is uploaded last
// so a reader never sees an index that outruns the blocks it points into.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/brewsterkv/blockkv/pkg/block"
	"github.com/brewsterkv/blockkv/pkg/blobstore/compressed"
	"github.com/brewsterkv/blockkv/pkg/blobstore/prefixed"
	"github.com/brewsterkv/blockkv/pkg/blobstore/s3store"
	"github.com/brewsterkv/blockkv/pkg/index/kvindex"
)

func main() {
	input := flag.String("input", "", "path to a newline-delimited JSON file")
	bucket := flag.String("bucket", "", "destination S3 bucket")
	prefix := flag.String("prefix", "", "key prefix within the bucket")
	keyField := flag.String("key-field", "id", "dot-separated path to the primary key within each JSON line")
	blockSize := flag.Int("block-size", 1_000_000, "target bytes per block")
	flag.Parse()

	if *input == "" || *bucket == "" || *prefix == "" {
		fmt.Fprintln(os.Stderr, "usage: blockkv-load -input=FILE -bucket=BUCKET -prefix=PREFIX [-key-field=a.b.c] [-block-size=N]")
		os.Exit(2)
	}

	if err := run(*input, *bucket, *prefix, *keyField, *blockSize); err != nil {
		log.Fatal(err)
	}
}

func run(input, bucket, prefix, keyField string, blockSize int) error {
	ctx := context.Background()

	s3, err := s3store.New(ctx, bucket)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", bucket, err)
	}
	blockStore, err := compressed.New(prefixed.New(s3, prefix+"/block"))
	if err != nil {
		return fmt.Errorf("building block store: %w", err)
	}
	defer blockStore.Close()

	indexPath := filepath.Join(os.TempDir(), fmt.Sprintf("blockkv-load-%d.sst", time.Now().UnixNano()))
	idx, err := kvindex.New(indexPath)
	if err != nil {
		return fmt.Errorf("creating local index %s: %w", indexPath, err)
	}
	defer os.Remove(indexPath)
	defer idx.Close()

	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("opening %s: %w", input, err)
	}
	defer f.Close()

	w := block.NewWriter(blockStore, blockSize)
	path := strings.Split(keyField, ".")

	log.Printf("loading %s", input)
	var n int
	var bytesIn int64
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		bytesIn += int64(len(line))

		record := make([]byte, len(line))
		copy(record, line)
		loc, err := w.Append(ctx, record)
		if err != nil {
			return fmt.Errorf("appending record %d: %w", n, err)
		}

		key, err := extractKey(line, path)
		if err != nil {
			return fmt.Errorf("extracting key for record %d: %w", n, err)
		}
		if err := idx.Put(key, loc); err != nil {
			return fmt.Errorf("indexing %q: %w", key, err)
		}
		n++
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", input, err)
	}
	if err := w.Flush(ctx); err != nil {
		return fmt.Errorf("flushing final block: %w", err)
	}
	log.Printf("loaded %d records (%s)", n, humanize.Bytes(uint64(bytesIn)))

	if err := idx.Close(); err != nil {
		return fmt.Errorf("closing local index: %w", err)
	}
	sstBytes, err := os.ReadFile(indexPath)
	if err != nil {
		return fmt.Errorf("reading built index file: %w", err)
	}
	log.Printf("publishing index (%s)", humanize.Bytes(uint64(len(sstBytes))))
	if err := s3.Put(ctx, prefix+"/index/default.sst", sstBytes); err != nil {
		return fmt.Errorf("publishing index: %w", err)
	}
	return nil
}

// extractKey walks path through the JSON object encoded in line and
// returns the string found there.
func extractKey(line []byte, path []string) (string, error) {
	var obj map[string]any
	if err := json.Unmarshal(line, &obj); err != nil {
		return "", err
	}
	var cur any = obj
	for _, seg := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return "", fmt.Errorf("path segment %q: not an object", seg)
		}
		v, ok := m[seg]
		if !ok {
			return "", fmt.Errorf("path segment %q: missing", seg)
		}
		cur = v
	}
	s, ok := cur.(string)
	if !ok {
		return "", fmt.Errorf("value at %q is not a string", strings.Join(path, "."))
	}
	return s, nil
}
