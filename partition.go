// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bigseq

import (
	"fmt"
	"sort"

	"github.com/grailbio/base/errors"
)

// A Range is a half-open byte range [Start, End) of an object.
type Range struct {
	Start, End int64
}

// A Strategy plans the byte ranges of a partitioning. Every strategy
// must produce ranges that are contiguous, non-overlapping, in
// ascending order, and whose union is exactly [0, index.SizeBytes).
// Empty ranges are permitted (a partition count exceeding the object
// size yields trailing empty ranges); strategies validate their own
// parameters and fail before any I/O takes place.
type Strategy interface {
	// Plan returns the planned byte ranges for the given index.
	Plan(index *Index) ([]Range, error)
}

// Contiguous is the default partition strategy: it divides the object
// into NumChunks equal byte ranges (ceiling division, with the final
// range absorbing the remainder), paying no attention to record
// boundaries. A record may therefore be split across two partitions,
// and a naive per-partition parser will see the pieces as separate
// fragments. Use RecordAligned when partitions must hold whole
// records.
type Contiguous struct {
	NumChunks int
}

func (c Contiguous) Plan(index *Index) ([]Range, error) {
	if err := validateChunks(c.NumChunks); err != nil {
		return nil, err
	}
	size := index.SizeBytes
	n := int64(c.NumChunks)
	chunk := (size + n - 1) / n
	ranges := make([]Range, c.NumChunks)
	for i := range ranges {
		start := int64(i) * chunk
		if start > size {
			start = size
		}
		end := start + chunk
		if end > size {
			end = size
		}
		ranges[i] = Range{Start: start, End: end}
	}
	return ranges, nil
}

// RecordAligned divides the object into NumChunks ranges whose cut
// points are snapped forward to record starts, so that no record is
// split across partitions. Bytes preceding the first record (if any)
// belong to the first partition. When records are fewer than chunks,
// trailing ranges are empty.
type RecordAligned struct {
	NumChunks int
}

func (r RecordAligned) Plan(index *Index) ([]Range, error) {
	if err := validateChunks(r.NumChunks); err != nil {
		return nil, err
	}
	size := index.SizeBytes
	n := int64(r.NumChunks)
	chunk := (size + n - 1) / n
	ranges := make([]Range, r.NumChunks)
	var prev int64
	for i := range ranges {
		end := size
		if i+1 < len(ranges) {
			target := int64(i+1) * chunk
			// Snap the cut forward to the first record starting at or
			// after the ideal cut point.
			j := sort.Search(len(index.Entries), func(j int) bool {
				return index.Entries[j].Offset >= target
			})
			if j < len(index.Entries) {
				end = index.Entries[j].Offset
			}
			if end < prev {
				end = prev
			}
		}
		ranges[i] = Range{Start: prev, End: end}
		prev = end
	}
	return ranges, nil
}

func validateChunks(n int) error {
	if n <= 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("bigseq: partition into %d chunks", n))
	}
	return nil
}

// Partition plans a partitioning of the object named by h according
// to the provided strategy, returning one Slice per planned range, in
// ascending offset order. Slice order is significant and preserved
// end-to-end: the slice at ordinal i covers the i'th planned range,
// and executors return one result per slice in the same order, so
// callers can reassemble per-partition results positionally.
// Partitioning is purely computational: no I/O occurs until a slice's
// Get is called.
func Partition(h *Handle, index *Index, strategy Strategy) ([]*Slice, error) {
	ranges, err := strategy.Plan(index)
	if err != nil {
		return nil, err
	}
	slices := make([]*Slice, len(ranges))
	for i, r := range ranges {
		slices[i] = &Slice{
			Handle:  h,
			Start:   r.Start,
			End:     r.End,
			Entries: coveredEntries(index, r),
		}
	}
	return slices, nil
}

// coveredEntries returns the index entries whose records start within r.
func coveredEntries(index *Index, r Range) []IndexEntry {
	lo := sort.Search(len(index.Entries), func(i int) bool {
		return index.Entries[i].Offset >= r.Start
	})
	hi := sort.Search(len(index.Entries), func(i int) bool {
		return index.Entries[i].Offset >= r.End
	})
	if lo == hi {
		return nil
	}
	return index.Entries[lo:hi]
}
