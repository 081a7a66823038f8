package partition

import (
	"fmt"
	"io"
	"sort"

	"github.com/grailbio/base/tsv"

	"github.com/dib-lab/khmer-sub000/errs"
	"github.com/dib-lab/khmer-sub000/kmer"
	"github.com/dib-lab/khmer-sub000/sketch"
)

// CountPartitions tallies how many distinct partitions allTags resolves to,
// and how many of allTags remain unassigned (subset.cc's count_partitions).
func (sp *SubsetPartition) CountPartitions(allTags map[kmer.Encoded]struct{}) (nPartitions, nUnassigned int) {
	seen := make(map[PartitionID]struct{})
	for t := range allTags {
		if id := sp.GetPartitionID(t); id != 0 {
			seen[id] = struct{}{}
		} else {
			nUnassigned++
		}
	}
	return len(seen), nUnassigned
}

// PartitionSizes counts, for every tag this structure has an opinion about,
// how many tags belong to each partition, plus how many are known but
// unassigned (subset.cc's partition_sizes).
func (sp *SubsetPartition) PartitionSizes() (sizes map[PartitionID]int, nUnassigned int) {
	sizes = make(map[PartitionID]int)
	for _, cell := range sp.tagCell {
		if id := sp.cellID[sp.find(cell)]; id != 0 {
			sizes[id]++
		} else {
			nUnassigned++
		}
	}
	return sizes, nUnassigned
}

// PartitionSizeDistribution turns PartitionSizes into a histogram: how many
// partitions have exactly N members (subset.cc's partition_size_distribution).
func (sp *SubsetPartition) PartitionSizeDistribution() (dist map[int]int, nUnassigned int) {
	sizes, n := sp.PartitionSizes()
	dist = make(map[int]int)
	for _, sz := range sizes {
		dist[sz]++
	}
	return dist, n
}

// WritePartitionSizeDistribution writes PartitionSizeDistribution as a TSV
// report (columns: partition_size, count), sorted by partition_size, plus a
// trailing "unassigned" row — grounded on pileup/snp/output.go's
// tsv.Writer-based row-at-a-time report writing.
func (sp *SubsetPartition) WritePartitionSizeDistribution(w io.Writer) error {
	dist, nUnassigned := sp.PartitionSizeDistribution()
	sizes := make([]int, 0, len(dist))
	for sz := range dist {
		sizes = append(sizes, sz)
	}
	sort.Ints(sizes)

	tsvw := tsv.NewWriter(w)
	for _, sz := range sizes {
		tsvw.WriteUint32(uint32(sz))
		tsvw.WriteUint32(uint32(dist[sz]))
		if err := tsvw.EndLine(); err != nil {
			return errs.FileErrorf(err, "partition: write size distribution row")
		}
	}
	tsvw.WriteString("unassigned")
	tsvw.WriteUint32(uint32(nUnassigned))
	if err := tsvw.EndLine(); err != nil {
		return errs.FileErrorf(err, "partition: write unassigned row")
	}
	return tsvw.Flush()
}

// PartitionAverageCoverages returns, for every assigned partition, the mean
// abundance (per counting) of its member tags (subset.cc's
// partition_average_coverages).
func (sp *SubsetPartition) PartitionAverageCoverages(counting *sketch.Counting) map[PartitionID]float64 {
	sum := make(map[PartitionID]uint64)
	n := make(map[PartitionID]uint64)
	for tag, cell := range sp.tagCell {
		id := sp.cellID[sp.find(cell)]
		if id == 0 {
			continue
		}
		sum[id] += uint64(counting.GetCountHash(uint64(tag)))
		n[id]++
	}
	out := make(map[PartitionID]float64, len(sum))
	for id, s := range sum {
		out[id] = float64(s) / float64(n[id])
	}
	return out
}

// IsSinglePartition reports whether every tagged k-mer of seq resolves to
// the same partition (subset.cc's is_single_partition): used as a
// consistency check after reconstructing reads from partitioned output.
func (sp *SubsetPartition) IsSinglePartition(seq string) (bool, error) {
	it, err := kmer.NewIterator(seq, sp.k)
	if err != nil {
		return false, err
	}
	seen := make(map[PartitionID]struct{})
	for {
		w, ok, err := it.Next()
		if err != nil {
			return false, err
		}
		if !ok {
			break
		}
		if id := sp.GetPartitionID(kmer.Canonical(w.Forward, w.Reverse)); id != 0 {
			seen[id] = struct{}{}
		}
	}
	return len(seen) <= 1, nil
}

// JoinPartitionsByPath collects every tag of allTags found along seq and
// joins them into one partition (subset.cc's join_partitions_by_path): used
// when a scaffold or assembled contig is known to link regions that
// independent tag traversals had kept apart.
func (sp *SubsetPartition) JoinPartitionsByPath(seq string, allTags map[kmer.Encoded]struct{}) error {
	it, err := kmer.NewIterator(seq, sp.k)
	if err != nil {
		return err
	}
	tagged := make(map[kmer.Encoded]struct{})
	var first kmer.Encoded
	haveFirst := false
	for {
		w, ok, err := it.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		c := kmer.Canonical(w.Forward, w.Reverse)
		if _, isTag := allTags[c]; isTag {
			tagged[c] = struct{}{}
			if !haveFirst {
				first, haveFirst = c, true
			}
		}
	}
	if !haveFirst {
		return nil
	}
	sp.AssignPartitionID(first, tagged)
	return nil
}

// firstTagPartition returns the partition assigned to the first k-mer of
// seq that is a known tag (subset.cc's output_partitioned_file: "is this a
// known tag? ... break"), or 0 if no k-mer of seq is a known tag.
func (sp *SubsetPartition) firstTagPartition(seq string) (PartitionID, error) {
	it, err := kmer.NewIterator(seq, sp.k)
	if err != nil {
		return 0, err
	}
	for {
		w, ok, err := it.Next()
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}
		c := kmer.Canonical(w.Forward, w.Reverse)
		if cell, known := sp.tagCell[c]; known {
			return sp.cellID[sp.find(cell)], nil
		}
	}
	return 0, nil
}

// OutputPartitionedFile streams records from next (name, sequence, quality
// — quality "" means FASTA) and writes each whose first known tag resolves
// to a partition, with that partition ID appended to the name after a tab,
// preserving FASTA/FASTQ shape (subset.cc's output_partitioned_file).
// emitUnassigned also writes records with no resolvable partition (ID 0).
// Returns the number of distinct partitions written plus the number of
// unassigned ("singleton") records read, whether or not emitUnassigned let
// them be written.
func (sp *SubsetPartition) OutputPartitionedFile(next func() (name, seq, qual string, ok bool, err error), w io.Writer, emitUnassigned bool) (int, error) {
	seen := make(map[PartitionID]struct{})
	nSingletons := 0
	for {
		name, seq, qual, ok, err := next()
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}
		pid, err := sp.firstTagPartition(seq)
		if err != nil {
			return 0, err
		}
		if pid == 0 {
			nSingletons++
		} else {
			seen[pid] = struct{}{}
		}
		if pid > 0 || emitUnassigned {
			if err := writeRecord(w, name, seq, qual, pid); err != nil {
				return 0, err
			}
		}
	}
	return len(seen) + nSingletons, nil
}

func writeRecord(w io.Writer, name, seq, qual string, pid PartitionID) error {
	var err error
	if qual != "" {
		_, err = fmt.Fprintf(w, "@%s\t%d\n%s\n+\n%s\n", name, pid, seq, qual)
	} else {
		_, err = fmt.Fprintf(w, ">%s\t%d\n%s\n", name, pid, seq)
	}
	if err != nil {
		return errs.FileErrorf(err, "partition: write record")
	}
	return nil
}
