package partition

import (
	"io"

	"github.com/dib-lab/khmer-sub000/errs"
	"github.com/dib-lab/khmer-sub000/kmer"
	"github.com/dib-lab/khmer-sub000/store"
)

// Save writes every assigned (tag, partition ID) pair to w, per spec
// §4.7/§6.1: common header, ksize, record count, then count pairs of
// (kmer u64, pid u32), matching subset.cc's save_partitionmap.
func (sp *SubsetPartition) Save(w io.Writer) error {
	if err := store.WriteHeader(w, store.KindSubset); err != nil {
		return err
	}
	if err := store.WriteU32(w, uint32(sp.k)); err != nil {
		return err
	}

	type pair struct {
		tag kmer.Encoded
		id  PartitionID
	}
	var pairs []pair
	for tag, cell := range sp.tagCell {
		if id := sp.cellID[sp.find(cell)]; id != 0 {
			pairs = append(pairs, pair{tag, id})
		}
	}

	if err := store.WriteU64(w, uint64(len(pairs))); err != nil {
		return err
	}
	for _, p := range pairs {
		if err := store.WriteU64(w, uint64(p.tag)); err != nil {
			return err
		}
		if err := store.WriteU32(w, uint32(p.id)); err != nil {
			return err
		}
	}
	return nil
}

// Load reads a subset partition map previously written by Save and merges
// it into sp (spec §4.7: "Load is a merge"), so loading a file into an
// already-populated SubsetPartition is well defined even when the two
// partition-ID spaces collide — subset.cc's load_partitionmap is a thin
// wrapper over merge_from_disk for exactly this reason.
func (sp *SubsetPartition) Load(r io.Reader) error {
	if err := store.RequireKind(r, store.KindSubset); err != nil {
		return err
	}
	k32, err := store.ReadU32(r)
	if err != nil {
		return err
	}
	if int(k32) != sp.k {
		return errs.BadFileFormatf("partition: k-mer size %d in file, want %d", k32, sp.k)
	}
	count, err := store.ReadU64(r)
	if err != nil {
		return err
	}

	tmp := New(int(k32), sp.tagDensity)
	for i := uint64(0); i < count; i++ {
		tagU64, err := store.ReadU64(r)
		if err != nil {
			return err
		}
		id, err := store.ReadU32(r)
		if err != nil {
			return err
		}
		tmp.SetPartitionID(kmer.Encoded(tagU64), PartitionID(id))
	}
	sp.MergeSubset(tmp, nil)
	return nil
}
