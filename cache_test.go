// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bigseq

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/testutil"
)

func TestIndexArtifact(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := context.Background()
	h, _ := writeFASTA(t, dir, 9, 3)
	prefix := filepath.Join(dir, "cache", "index")
	if err := os.MkdirAll(filepath.Dir(prefix), 0777); err != nil {
		t.Fatal(err)
	}
	const chunk = 32
	if _, err := lookupIndex(ctx, prefix, h, chunk); !errors.Is(errors.NotExist, err) {
		t.Fatalf("expected NotExist error, got %v", err)
	}
	index, err := Preprocess(ctx, h, Config{ChunkSize: chunk, CachePrefix: prefix})
	if err != nil {
		t.Fatal(err)
	}
	loaded, err := lookupIndex(ctx, prefix, h, chunk)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(loaded, index) {
		t.Error("loaded index differs from built index")
	}
	// A different chunk size is a different fingerprint.
	if _, err := lookupIndex(ctx, prefix, h, chunk+1); !errors.Is(errors.NotExist, err) {
		t.Fatalf("expected NotExist error, got %v", err)
	}
}

// TestPreprocessReuse verifies that a second preprocess with the same
// config skips scanning: after the artifact exists, preprocessing
// succeeds even when the object's bytes have become unreadable.
func TestPreprocessReuse(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := context.Background()
	h, _ := writeFASTA(t, dir, 6, 4)
	prefix := filepath.Join(dir, "index")
	config := Config{ChunkSize: 16, CachePrefix: prefix}
	index, err := Preprocess(ctx, h, config)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(h.URL); err != nil {
		t.Fatal(err)
	}
	again, err := Preprocess(ctx, h, config)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(again, index) {
		t.Error("reused index differs from built index")
	}
}

func TestCorruptArtifact(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := context.Background()
	h, _ := writeFASTA(t, dir, 4, 5)
	prefix := filepath.Join(dir, "index")
	const chunk = 16
	if err := ioutil.WriteFile(indexPath(prefix, h, chunk), []byte("garbage"), 0666); err != nil {
		t.Fatal(err)
	}
	if _, err := lookupIndex(ctx, prefix, h, chunk); err == nil || errors.Is(errors.NotExist, err) {
		t.Fatalf("expected corruption error, got %v", err)
	}
	// Preprocess ignores the corrupt artifact and rebuilds.
	index, err := Preprocess(ctx, h, Config{ChunkSize: chunk, CachePrefix: prefix})
	if err != nil {
		t.Fatal(err)
	}
	loaded, err := lookupIndex(ctx, prefix, h, chunk)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(loaded, index) {
		t.Error("rebuilt artifact differs from built index")
	}
}
