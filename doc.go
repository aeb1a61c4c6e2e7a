// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

/*
	Package bigseq exposes large sequence files in remote storage as
	partitionable, lazily-fetched data sources for distributed
	processing. A bigseq program resolves a FASTA file by URL, runs a
	parallel preprocessing pass that builds a lightweight index of
	record boundaries, and then partitions the file into a chosen
	number of byte ranges. Each partition is a small, serializable
	Slice value that fetches its bytes on demand, so slices can be
	shipped to remote workers and read exactly where they are needed.

	Bigseq owns no bytes and no scheduling: remote reads go through
	github.com/grailbio/base/file (and thus work against local paths
	as well as object stores like S3), while parallel and distributed
	execution is delegated to an exec.Executor, with in-process and
	bigmachine-backed implementations provided by package
	github.com/grailbio/bigseq/exec.

	Preprocessing scans disjoint byte ranges of the file in parallel.
	The scan for each range is a pure function of the range's bytes
	(plus one preceding byte, used to establish line starts), so scan
	tasks may run on any machine; a single merge pass then stitches
	records whose header lines were split across range boundaries and
	produces one ordered index. Repeated preprocessing of an unchanged
	file is deterministic, and the resulting index may be persisted so
	that later runs skip the scan entirely.

	Partitioning is pluggable. The default Contiguous strategy carves
	the file into equal byte ranges without regard to record
	boundaries: it is cheap and gives perfectly balanced partitions,
	but a record may be split across two slices, and per-slice parsers
	will observe the pieces as separate fragments. When partitions
	must contain whole records, use RecordAligned, which snaps cut
	points to record starts using the index.
*/
package bigseq
