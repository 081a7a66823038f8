// Command khmer-count builds a counting sketch from one or more FASTQ
// files, saves it, and reports the number of reads, k-mers and unique
// k-mers consumed (it does not compute an abundance distribution),
// exercising package
// sketch's ConsumeSequence/Save and package source's FASTQSource
// end-to-end. It is illustrative wiring (spec §6.3 marks the full CLI
// surface, e.g. -M/prime-rounding flags, out of scope), grounded on
// cmd/bio-fusion/main.go's grail.Init()/file.Open/file.Create/log
// bootstrap shape.
package main

import (
	"bufio"
	"flag"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"

	"github.com/dib-lab/khmer-sub000/sketch"
	"github.com/dib-lab/khmer-sub000/source"
)

func main() {
	k := flag.Int("k", 20, "k-mer size")
	nTables := flag.Int("n-tables", 4, "number of hash tables")
	tableSize := flag.Uint64("x", 1e8, "table size (rounded down to the nearest prime per table)")
	bigcount := flag.Bool("bigcount", true, "track abundances above 255 via an overflow map")
	outPath := flag.String("output", "", "path to write the counting sketch to (required)")
	flag.Parse()

	cleanup := grail.Init()
	defer cleanup()
	ctx := vcontext.Background()

	if *outPath == "" || flag.NArg() == 0 {
		log.Fatal("usage: khmer-count -output=<path> <fastq...>")
	}

	sizes := sketch.DefaultTableSizes(*tableSize, *nTables)
	counting, err := sketch.NewCounting(*k, sizes, *bigcount)
	if err != nil {
		log.Panic(err)
	}

	var nReads, nConsumed int
	for _, path := range flag.Args() {
		in, err := file.Open(ctx, path)
		if err != nil {
			log.Panicf("open %v: %v", path, err)
		}
		src, err := source.OpenFASTQSource(path, bufio.NewReader(in.Reader(ctx)))
		if err != nil {
			log.Panicf("open %v: %v", path, err)
		}
		for {
			rec, ok, err := src.Next()
			if err != nil {
				log.Panicf("%v: %v", path, err)
			}
			if !ok {
				break
			}
			n, err := counting.ConsumeSequence(rec.Sequence)
			if err != nil {
				// Per spec §7, a malformed individual read is non-fatal here.
				log.Printf("%v: skipping read %v: %v", path, rec.Name, err)
				continue
			}
			nReads++
			nConsumed += n
		}
		if err := in.Close(ctx); err != nil {
			log.Panicf("close %v: %v", path, err)
		}
	}
	log.Printf("Consumed %d reads (%d k-mers) into a %d-unique-kmer sketch",
		nReads, nConsumed, counting.NUniqueKmers())

	out, err := file.Create(ctx, *outPath)
	if err != nil {
		log.Panic(err)
	}
	w := bufio.NewWriter(out.Writer(ctx))
	if err := counting.Save(w); err != nil {
		log.Panic(err)
	}
	once := errors.Once{}
	once.Set(w.Flush())
	once.Set(out.Close(ctx))
	if err := once.Err(); err != nil {
		log.Panicf("write %v: %v", *outPath, err)
	}
	log.Printf("Wrote counting sketch to %s", *outPath)
}
