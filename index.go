// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bigseq

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

// IndexVersion is the version of the index layout. Persisted indexes
// carrying a different version are discarded and rebuilt.
const IndexVersion = 1

// An IndexEntry describes one sequence record: its starting byte
// offset (the position of the '>' header sentinel), its identifier
// (the first whitespace-delimited token of the header line), and its
// length in bytes. A record's span runs from its header byte up to
// the byte before the next record's header (or the end of the file),
// trailing newline included.
type IndexEntry struct {
	Offset int64
	ID     string
	Length int64
}

// An Index is the result of preprocessing an object: the ordered set
// of its record boundaries. Index values are immutable once built.
// Entries are sorted by offset and non-overlapping; their spans tile
// the object from the first record header to the end of the object.
type Index struct {
	Entries     []IndexEntry
	RecordCount int
	SizeBytes   int64
	Version     int
}

// Validate checks the index invariants: version, entry ordering, and
// that entry spans tile the object exactly. It is applied to every
// index loaded from a persisted artifact before the index is trusted.
func (x *Index) validate() error {
	if x.Version != IndexVersion {
		return errors.E(errors.Integrity, fmt.Sprintf("bigseq: index version %d, want %d", x.Version, IndexVersion))
	}
	if x.RecordCount != len(x.Entries) {
		return errors.E(errors.Integrity,
			fmt.Sprintf("bigseq: index records %d, but %d entries", x.RecordCount, len(x.Entries)))
	}
	if len(x.Entries) == 0 {
		return errors.E(errors.Integrity, "bigseq: index has no entries")
	}
	off := x.Entries[0].Offset
	if off < 0 {
		return errors.E(errors.Integrity, fmt.Sprintf("bigseq: entry 0 at negative offset %d", off))
	}
	for i, e := range x.Entries {
		if e.Offset != off {
			return errors.E(errors.Integrity,
				fmt.Sprintf("bigseq: entry %d at offset %d, want %d", i, e.Offset, off))
		}
		if e.Length <= 0 {
			return errors.E(errors.Integrity,
				fmt.Sprintf("bigseq: entry %d (%s) has length %d", i, e.ID, e.Length))
		}
		off += e.Length
	}
	if off != x.SizeBytes {
		return errors.E(errors.Integrity,
			fmt.Sprintf("bigseq: entries end at %d, object size is %d", off, x.SizeBytes))
	}
	return nil
}
