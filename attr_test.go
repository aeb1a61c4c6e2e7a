// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bigseq_test

import (
	"context"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/bigseq"
	"github.com/grailbio/testutil"
)

func TestAttrs(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := context.Background()
	path := filepath.Join(dir, "object.fa")
	data := []byte(">a\nAC\n>b\nGG\n>c\nTT\n")
	if err := ioutil.WriteFile(path, data, 0666); err != nil {
		t.Fatal(err)
	}
	h, err := bigseq.Resolve(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	// Attribute access never triggers preprocessing implicitly.
	if _, err := h.Attrs(); !errors.Is(errors.Precondition, err) {
		t.Fatalf("expected Precondition error, got %v", err)
	}
	index, err := bigseq.Preprocess(ctx, h, bigseq.Config{ChunkSize: 5})
	if err != nil {
		t.Fatal(err)
	}
	attrs, err := h.Attrs()
	if err != nil {
		t.Fatal(err)
	}
	if got, want := attrs.NumSequences(), index.RecordCount; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := attrs.NumSequences(), 3; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}
