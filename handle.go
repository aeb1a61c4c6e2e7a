// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bigseq

import (
	"context"
	"fmt"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
)

// A Handle names a byte-addressable object in remote storage. It is a
// pure locator plus a cached size: a Handle owns no data, and every
// read against it is a fresh, ranged request to the storage backend.
// Handles are immutable once resolved, and their fields are exported
// so that values referring to them (e.g., Slice) may be gob-encoded
// and shipped to remote workers.
type Handle struct {
	// URL locates the object. It may name any backend registered with
	// github.com/grailbio/base/file, including local paths and s3://
	// URLs.
	URL string
	// SizeBytes is the object's size, cached at resolution time. The
	// object is assumed write-once for the duration of processing.
	SizeBytes int64
}

// Resolve resolves the object named by the provided URL, returning a
// Handle with its size cached. Resolve performs a single stat against
// the storage backend; it reads no object data.
func Resolve(ctx context.Context, url string) (*Handle, error) {
	info, err := file.Stat(ctx, url)
	if err != nil {
		return nil, errors.E(fmt.Sprintf("bigseq: resolve %s", url), err)
	}
	return &Handle{URL: url, SizeBytes: info.Size()}, nil
}

// Size returns the object's size in bytes, as cached at resolution.
func (h *Handle) Size() int64 { return h.SizeBytes }

// ReadRange returns the raw bytes of [start, end), issuing exactly
// one ranged read against the storage backend. The bounds must
// satisfy 0 <= start <= end <= Size; an empty range returns no bytes
// and performs no I/O. ReadRange does not retry: retry policy belongs
// to the storage transport, not to bigseq.
func (h *Handle) ReadRange(ctx context.Context, start, end int64) ([]byte, error) {
	if start < 0 || end < start || end > h.SizeBytes {
		return nil, errors.E(errors.Invalid,
			fmt.Sprintf("bigseq: read range [%d, %d) of %s: size is %d", start, end, h.URL, h.SizeBytes))
	}
	if start == end {
		return nil, nil
	}
	f, err := file.Open(ctx, h.URL)
	if err != nil {
		return nil, errors.E(fmt.Sprintf("bigseq: open %s", h.URL), err)
	}
	defer func() {
		_ = f.Close(ctx)
	}()
	r := f.Reader(ctx)
	n, err := r.Seek(start, io.SeekStart)
	if err != nil {
		return nil, errors.E(fmt.Sprintf("bigseq: seek %s to %d", h.URL, start), err)
	}
	if n != start {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("bigseq: seek %s: seeked to %d, want %d", h.URL, n, start))
	}
	p := make([]byte, end-start)
	if _, err := io.ReadFull(r, p); err != nil {
		return nil, errors.E(fmt.Sprintf("bigseq: read %s [%d, %d)", h.URL, start, end), err)
	}
	return p, nil
}

func (h *Handle) String() string {
	return fmt.Sprintf("%s (%d bytes)", h.URL, h.SizeBytes)
}
