// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bigseq

import (
	"context"
	"encoding/gob"
	"fmt"
	"runtime"

	"github.com/grailbio/base/traverse"
)

func init() {
	// Slices travel as opaque work units through executors.
	gob.Register(&Slice{})
}

// A Slice is a lazy reference to one byte range of a remote object.
// Slices are created by Partition, are immutable, and hold no object
// data: fetching is deferred until Get is called, so a slice can be
// gob-encoded and sent to a remote worker, which fetches exactly the
// bytes it needs. The Handle is shared among all slices of a
// partitioning.
type Slice struct {
	Handle *Handle
	// Start and End delimit the slice's half-open byte range
	// [Start, End) within the object.
	Start, End int64
	// Entries holds the index entries of records starting within the
	// slice's range, if the planning strategy recorded them. Records
	// may begin in one slice and run into the next; Entries describes
	// starts only.
	Entries []IndexEntry
}

// Len returns the length of the slice's byte range.
func (s *Slice) Len() int64 { return s.End - s.Start }

// Get fetches and returns the raw bytes of the slice's range,
// issuing exactly one ranged read against the object. Get performs no
// decoding and no caching: calls are idempotent, repeatable, and safe
// to issue concurrently from many workers.
func (s *Slice) Get(ctx context.Context) ([]byte, error) {
	return s.Handle.ReadRange(ctx, s.Start, s.End)
}

func (s *Slice) String() string {
	return fmt.Sprintf("%s[%d:%d]", s.Handle.URL, s.Start, s.End)
}

// Fetch fetches the provided slices in parallel, returning one byte
// slice per input, in input order. It is a convenience for consuming
// a partitioning locally; distributed workers instead call Get on the
// slice shipped to them.
func Fetch(ctx context.Context, slices []*Slice) ([][]byte, error) {
	data := make([][]byte, len(slices))
	err := traverse.Limit(10 * runtime.NumCPU()).Each(len(slices), func(i int) error {
		var err error
		data[i], err = slices[i].Get(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}
