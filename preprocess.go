// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bigseq

import (
	"bytes"
	"context"
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/bigseq/exec"
)

// scanFunc names the registered range-scan func. It is registered at
// init time so that remote workers carry it under the same name.
const scanFunc = "bigseq.ScanRange"

func init() {
	exec.Register(scanFunc, scanRange)
}

// Config configures preprocessing.
type Config struct {
	// ChunkSize is the number of bytes scanned by each parallel scan
	// task. If ChunkSize <= 0, the object is split into four chunks.
	// ChunkSize determines the set of scan ranges and thus
	// participates in the fingerprint of the persisted index
	// artifact; it does not affect the resulting index.
	ChunkSize int64
	// Parallelism bounds the number of concurrent scan tasks run by
	// the default local executor. It is ignored when Executor is set.
	Parallelism int
	// Executor dispatches the scan tasks. If nil, an in-process
	// executor is used.
	Executor exec.Executor
	// CachePrefix, if nonempty, is a file URL prefix under which the
	// built index is persisted, keyed by object identity and config
	// fingerprint. When a valid artifact already exists, Preprocess
	// skips scanning altogether.
	CachePrefix string
}

// chunkSize returns the configured chunk size, applying the default
// of a quarter of the object.
func (c Config) chunkSize(size int64) int64 {
	chunk := c.ChunkSize
	if chunk <= 0 {
		chunk = size / 4
	}
	if chunk <= 0 {
		chunk = 1
	}
	return chunk
}

// A scanRequest asks for a scan of the byte range [Start, End) of the
// object named by Handle.
type scanRequest struct {
	Handle *Handle
	Start  int64
	End    int64
}

// A headerObs is one record-header observation: the header sentinel
// was seen at Offset, followed by Header text. Terminated reports
// whether the header line's newline fell within the scanned range; if
// not, the text continues in the next range's Prefix.
type headerObs struct {
	Offset     int64
	Header     []byte
	Terminated bool
}

// A scanResult holds the observations of one range scan. Prefix holds
// the range's leading bytes up to (but not including) its first
// newline; the merge step uses it to complete a header line left
// unterminated by the preceding range. A range that begins without a
// header sentinel produces no observation for its leading bytes:
// they are a continuation of the previous record, never a record of
// their own.
type scanResult struct {
	Start            int64
	End              int64
	Prefix           []byte
	PrefixTerminated bool
	Records          []headerObs
}

// scanRange scans [req.Start, req.End) of the object for record
// headers. The scan is a pure function of the range's bytes plus the
// single byte preceding the range, which establishes whether the
// range begins at a line start. It issues exactly one ranged read.
func scanRange(ctx context.Context, req scanRequest) (scanResult, error) {
	readStart := req.Start
	if readStart > 0 {
		readStart--
	}
	data, err := req.Handle.ReadRange(ctx, readStart, req.End)
	if err != nil {
		return scanResult{}, err
	}
	prev := byte('\n') // offset 0 is a line start
	if req.Start > 0 {
		prev, data = data[0], data[1:]
	}
	res := scanResult{Start: req.Start, End: req.End}
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		res.Prefix = data[:i:i]
		res.PrefixTerminated = true
	} else {
		res.Prefix = data
	}
	var offsets []int
	for p, c := range data {
		if c == '>' && prev == '\n' {
			offsets = append(offsets, p)
		}
		prev = c
	}
	for _, p := range offsets {
		rest := data[p+1:]
		obs := headerObs{Offset: req.Start + int64(p)}
		if j := bytes.IndexByte(rest, '\n'); j >= 0 {
			obs.Header = rest[:j:j]
			obs.Terminated = true
		} else {
			obs.Header = rest
		}
		res.Records = append(res.Records, obs)
	}
	return res, nil
}

// mergeScans folds per-range scan results, in range order, into one
// ordered index. Header lines split across range boundaries are
// stitched back together: a record belongs to the range containing
// its header sentinel, and body bytes spilling into subsequent ranges
// remain part of that record.
func mergeScans(size int64, scans []scanResult) (*Index, error) {
	var heads []headerObs
	for _, s := range scans {
		if n := len(heads); n > 0 && !heads[n-1].Terminated {
			heads[n-1].Header = append(heads[n-1].Header, s.Prefix...)
			heads[n-1].Terminated = s.PrefixTerminated
		}
		heads = append(heads, s.Records...)
	}
	if len(heads) == 0 {
		return nil, errors.E(errors.Integrity, "bigseq: no sequence records found")
	}
	entries := make([]IndexEntry, len(heads))
	for i, h := range heads {
		end := size
		if i+1 < len(heads) {
			end = heads[i+1].Offset
		}
		var id string
		if fields := bytes.Fields(h.Header); len(fields) > 0 {
			id = string(fields[0])
		}
		entries[i] = IndexEntry{Offset: h.Offset, ID: id, Length: end - h.Offset}
	}
	index := &Index{
		Entries:     entries,
		RecordCount: len(entries),
		SizeBytes:   size,
		Version:     IndexVersion,
	}
	if err := index.validate(); err != nil {
		return nil, err
	}
	return index, nil
}

// Preprocess builds an index of the record boundaries of the object
// named by h. The object is scanned in parallel: [0, size) is split
// into contiguous chunks of config.ChunkSize bytes, one scan task is
// dispatched per chunk through the configured executor, and a single
// merge pass stitches the per-chunk observations into one ordered
// index. Preprocessing is deterministic: repeated calls on an
// unchanged object produce identical indexes.
//
// Any failed scan fails the whole call: a partial index cannot be
// merged, since stitching records split across chunk boundaries
// requires both neighbors. Preprocess fails with an Integrity error
// when the object contains no record header at all.
//
// On success the index is registered for h, making h's Attrs
// available, and, when config.CachePrefix is set, persisted so that
// later calls with the same config skip the scan.
func Preprocess(ctx context.Context, h *Handle, config Config) (*Index, error) {
	size := h.SizeBytes
	if size == 0 {
		return nil, errors.E(errors.Integrity, fmt.Sprintf("bigseq: %s is empty", h.URL))
	}
	chunk := config.chunkSize(size)
	if config.CachePrefix != "" {
		if index, err := lookupIndex(ctx, config.CachePrefix, h, chunk); err == nil {
			log.Debug.Printf("bigseq: %s: reusing persisted index (%d records)", h.URL, index.RecordCount)
			registerIndex(h, index)
			return index, nil
		} else if !errors.Is(errors.NotExist, err) {
			log.Error.Printf("bigseq: %s: ignoring persisted index: %v", h.URL, err)
		}
	}
	executor := config.Executor
	if executor == nil {
		executor = exec.Local(config.Parallelism)
	}
	nchunk := int((size + chunk - 1) / chunk)
	log.Debug.Printf("bigseq: scanning %s in %d chunks of %d bytes", h.URL, nchunk, chunk)
	args := make([]interface{}, nchunk)
	for i := range args {
		start := int64(i) * chunk
		end := start + chunk
		if end > size {
			end = size
		}
		args[i] = scanRequest{Handle: h, Start: start, End: end}
	}
	replies := make([]interface{}, nchunk)
	if err := executor.Map(ctx, scanFunc, args, replies); err != nil {
		return nil, errors.E(fmt.Sprintf("bigseq: preprocess %s", h.URL), err)
	}
	scans := make([]scanResult, nchunk)
	for i, reply := range replies {
		scans[i] = reply.(scanResult)
	}
	index, err := mergeScans(size, scans)
	if err != nil {
		return nil, err
	}
	registerIndex(h, index)
	if config.CachePrefix != "" {
		if err := storeIndex(ctx, config.CachePrefix, h, chunk, index); err != nil {
			// The artifact is an optimization; failing to persist it
			// does not invalidate the built index.
			log.Error.Printf("bigseq: %s: persist index: %v", h.URL, err)
		}
	}
	return index, nil
}
