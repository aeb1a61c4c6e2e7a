// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Seqstat is a bigseq demo program that partitions a FASTA file in
// remote storage and computes per-partition record counts with a
// distributed worker. For a single-record file split into N
// contiguous partitions, the total is N: each partition lacking a
// header still counts its fragment as one pseudo-record, which is the
// price of byte-exact partitioning. Pass -aligned to snap partition
// boundaries to record starts instead.
package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/file/s3file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/bigseq"
	"github.com/grailbio/bigseq/exec"
)

func init() {
	file.RegisterImplementation("s3", func() file.Implementation {
		return s3file.NewImplementation(
			s3file.NewDefaultProvider(session.Options{}), s3file.Options{})
	})
	exec.Register("seqstat.Count", count)
}

// Count counts the sequence records visible in one partition. A
// fragment that begins without a header line is a continuation of a
// record split by the partitioner; the demo counts it as one
// pseudo-record, matching what a naive per-partition parser would
// report.
func count(ctx context.Context, s *bigseq.Slice) (int, error) {
	p, err := s.Get(ctx)
	if err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	n := 0
	leading := true
	for _, line := range strings.Split(string(p), "\n") {
		if strings.HasPrefix(line, ">") {
			n++
			leading = false
		} else if leading && line != "" {
			// Headerless leading fragment: the continuation of a
			// record split by the partitioner counts once.
			n++
			leading = false
		}
	}
	return n, nil
}

func main() {
	log.AddFlags()
	var (
		chunks   = flag.Int("chunks", 8, "number of partitions")
		aligned  = flag.Bool("aligned", false, "snap partition boundaries to record starts")
		cache    = flag.String("cache", "", "URL prefix under which to persist the index")
		parallel = flag.Int("p", 0, "preprocessing parallelism (0 = GOMAXPROCS)")
	)
	flag.Parse()
	if flag.NArg() != 1 {
		log.Fatal("usage: seqstat [flags] url")
	}
	url := flag.Arg(0)
	ctx := context.Background()

	handle, err := bigseq.Resolve(ctx, url)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("%s: %d bytes", handle.URL, handle.Size())
	index, err := bigseq.Preprocess(ctx, handle, bigseq.Config{
		Parallelism: *parallel,
		CachePrefix: *cache,
	})
	if err != nil {
		log.Fatal(err)
	}
	attrs, err := handle.Attrs()
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("%s: %d sequences indexed", handle.URL, attrs.NumSequences())

	var strategy bigseq.Strategy = bigseq.Contiguous{NumChunks: *chunks}
	if *aligned {
		strategy = bigseq.RecordAligned{NumChunks: *chunks}
	}
	slices, err := bigseq.Partition(handle, index, strategy)
	if err != nil {
		log.Fatal(err)
	}
	args := make([]interface{}, len(slices))
	for i, s := range slices {
		args[i] = s
	}
	replies := make([]interface{}, len(slices))
	if err := exec.Local(0).Map(ctx, "seqstat.Count", args, replies); err != nil {
		log.Fatal(err)
	}
	total := 0
	for i, reply := range replies {
		n := reply.(int)
		fmt.Printf("partition %d %v: %d records\n", i, slices[i], n)
		total += n
	}
	fmt.Printf("Total record count from all partitions: %d\n", total)
}
