// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bigseq

import (
	"context"
	"encoding/gob"
	"fmt"

	"github.com/grailbio/base/compress/zstd"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/must"
	"github.com/spaolacci/murmur3"
)

// indexPath returns the artifact path for the index of the object
// named by h built with the given chunk size. The key fingerprints
// object identity (URL and size) together with the preprocessing
// config, so a changed object or config misses cleanly.
func indexPath(prefix string, h *Handle, chunkSize int64) string {
	must.Truef(prefix != "", "bigseq: empty index cache prefix")
	h1, h2 := murmur3.Sum128([]byte(fmt.Sprintf("%s:%d:%d:%d", h.URL, h.SizeBytes, chunkSize, IndexVersion)))
	return fmt.Sprintf("%s-%016x%016x", prefix, h1, h2)
}

// LookupIndex loads the persisted index artifact for (h, chunkSize)
// under prefix. A missing artifact is reported with a NotExist error;
// an unreadable, corrupt, or invariant-violating artifact is reported
// with other kinds, and the caller is expected to rebuild.
func lookupIndex(ctx context.Context, prefix string, h *Handle, chunkSize int64) (*Index, error) {
	path := indexPath(prefix, h, chunkSize)
	if _, err := file.Stat(ctx, path); err != nil {
		return nil, errors.E(errors.NotExist, fmt.Sprintf("bigseq: no index artifact at %s", path))
	}
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(fmt.Sprintf("bigseq: open index artifact %s", path), err)
	}
	defer func() {
		_ = f.Close(ctx)
	}()
	zr, err := zstd.NewReader(f.Reader(ctx))
	if err != nil {
		return nil, errors.E(fmt.Sprintf("bigseq: open (zstd) index artifact %s", path), err)
	}
	index := new(Index)
	err = gob.NewDecoder(zr).Decode(index)
	fileio.CloseAndReport(zr, &err)
	if err != nil {
		return nil, errors.E(fmt.Sprintf("bigseq: decode index artifact %s", path), err)
	}
	if index.SizeBytes != h.SizeBytes {
		return nil, errors.E(errors.Integrity,
			fmt.Sprintf("bigseq: index artifact %s is for a %d-byte object; %s is %d bytes",
				path, index.SizeBytes, h.URL, h.SizeBytes))
	}
	if err := index.validate(); err != nil {
		return nil, err
	}
	return index, nil
}

// StoreIndex persists the index artifact for (h, chunkSize) under
// prefix, zstd-compressed.
func storeIndex(ctx context.Context, prefix string, h *Handle, chunkSize int64, index *Index) (err error) {
	path := indexPath(prefix, h, chunkSize)
	f, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(fmt.Sprintf("bigseq: create index artifact %s", path), err)
	}
	defer func() {
		if err != nil {
			f.Discard(ctx)
			return
		}
		err = f.Close(ctx)
	}()
	zw, err := zstd.NewWriter(f.Writer(ctx))
	if err != nil {
		return err
	}
	err = gob.NewEncoder(zw).Encode(index)
	fileio.CloseAndReport(zw, &err)
	return err
}
