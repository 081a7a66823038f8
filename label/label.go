// Package label implements the tag→label overlay of spec §2/§4.6: a thin
// multimap associating arbitrary integer label IDs with tags, piggybacking
// on the tag set produced by package partition without owning or
// duplicating it.
//
// Grounded on original_source/lib/khmer.hh's sparse-labeling extension
// types (TagLabelPtrMap, LabelTagMap, LabelPtrMap): a tag can carry more
// than one label (hence multimap, not map), and every label known to a
// LabelSet is interned exactly once, mirroring package partition's
// PartitionID discipline of never allocating a fresh identity for an
// already-known value.
package label

import (
	"io"

	"github.com/dib-lab/khmer-sub000/errs"
	"github.com/dib-lab/khmer-sub000/kmer"
	"github.com/dib-lab/khmer-sub000/store"
)

// ID identifies one interned label. 0 is never issued to a caller.
type ID uint64

// LabelSet holds the tag→{label} multimap and its reverse index.
//
// Unlike package partition's union-find it keeps no slice arena: both
// directions of the multimap and the intern table are plain maps keyed by
// tag or label ID, since labels never need to merge. khmer.hh's
// LabelPtrMap interns every Label the same way PartitionMap interns every
// PartitionID, which internTable mirrors.
type LabelSet struct {
	k      int
	nextID ID

	tagLabels   map[kmer.Encoded]map[ID]struct{}
	labelTags   map[ID]map[kmer.Encoded]struct{}
	internTable map[ID]struct{}
}

// New returns an empty LabelSet for k-mers of size k.
func New(k int) *LabelSet {
	return &LabelSet{
		k:           k,
		nextID:      1,
		tagLabels:   make(map[kmer.Encoded]map[ID]struct{}),
		labelTags:   make(map[ID]map[kmer.Encoded]struct{}),
		internTable: make(map[ID]struct{}),
	}
}

func (ls *LabelSet) K() int { return ls.k }

// NewLabel interns and returns a fresh ID, analogous to khmer.hh's
// LabelPtrMap entry creation (`label_id -> *label_cell`).
func (ls *LabelSet) NewLabel() ID {
	id := ls.nextID
	ls.nextID++
	ls.internTable[id] = struct{}{}
	return id
}

// LinkTagAndLabel records that tag carries label (khmer.hh's
// TagLabelPtrMap::insert / LabelTagMap::insert, kept as a matched pair so
// both directions of the multimap stay consistent). label must have come
// from NewLabel or already appear in ls; linking an unknown label is a
// caller bug, not a recoverable condition, so it panics rather than
// silently dropping the link.
func (ls *LabelSet) LinkTagAndLabel(tag kmer.Encoded, label ID) {
	if _, known := ls.internTable[label]; !known {
		panic("label: LinkTagAndLabel with unknown label ID")
	}
	if ls.tagLabels[tag] == nil {
		ls.tagLabels[tag] = make(map[ID]struct{})
	}
	ls.tagLabels[tag][label] = struct{}{}
	if ls.labelTags[label] == nil {
		ls.labelTags[label] = make(map[kmer.Encoded]struct{})
	}
	ls.labelTags[label][tag] = struct{}{}
}

// GetTagLabels returns every label linked to tag, or nil if none.
func (ls *LabelSet) GetTagLabels(tag kmer.Encoded) []ID {
	m := ls.tagLabels[tag]
	if len(m) == 0 {
		return nil
	}
	out := make([]ID, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	return out
}

// GetLabelTags returns every tag linked to label, or nil if none.
func (ls *LabelSet) GetLabelTags(label ID) []kmer.Encoded {
	m := ls.labelTags[label]
	if len(m) == 0 {
		return nil
	}
	out := make([]kmer.Encoded, 0, len(m))
	for t := range m {
		out = append(out, t)
	}
	return out
}

// ConsumeAndTagWithLabel links every tag found while tagging seq (per
// package partition's ConsumeAndTag) to a single label, grounded on the
// reference Python binding's `consume_partitioned_fasta_and_tag_with_labels`
// entry point: callers typically derive label from which input file or
// which existing partition a read came from, then tag every subsequent
// read from that source with the same label. newTags is the tag set
// produced by the caller's own tagging pass (not recomputed here, since
// LabelSet has no graph.Oracle of its own to retrace the traversal).
func (ls *LabelSet) ConsumeAndTagWithLabel(newTags map[kmer.Encoded]struct{}, label ID) {
	for tag := range newTags {
		ls.LinkTagAndLabel(tag, label)
	}
}

// LabelsTouchingPartitionTags returns the set of labels linked to any tag
// in tags, used to answer "which of the original input sources does this
// partition draw from" once tagging and partitioning have both run.
func (ls *LabelSet) LabelsTouchingPartitionTags(tags map[kmer.Encoded]struct{}) map[ID]struct{} {
	out := make(map[ID]struct{})
	for tag := range tags {
		for id := range ls.tagLabels[tag] {
			out[id] = struct{}{}
		}
	}
	return out
}

// Save writes every (tag, label) link to w, per spec §6.1 kind code 6:
// common header, ksize, then u64 n_entries, then n_entries × (u64
// tag_kmer, u64 label_id).
func (ls *LabelSet) Save(w io.Writer) error {
	if err := store.WriteHeader(w, store.KindLabels); err != nil {
		return err
	}
	if err := store.WriteU32(w, uint32(ls.k)); err != nil {
		return err
	}

	type pair struct {
		tag   kmer.Encoded
		label ID
	}
	var pairs []pair
	for tag, labels := range ls.tagLabels {
		for label := range labels {
			pairs = append(pairs, pair{tag, label})
		}
	}

	if err := store.WriteU64(w, uint64(len(pairs))); err != nil {
		return err
	}
	for _, p := range pairs {
		if err := store.WriteU64(w, uint64(p.tag)); err != nil {
			return err
		}
		if err := store.WriteU64(w, uint64(p.label)); err != nil {
			return err
		}
	}
	return nil
}

// Load reads a label set previously written by Save and merges it into
// ls, re-interning each label ID not yet known (mirroring package
// partition's Load-is-a-merge discipline, see partition/io.go). Note that
// a label ID loaded from disk is trusted as-is and folded into ls's own
// intern table rather than remapped to a fresh ID: unlike PartitionID,
// two LabelSets built independently are expected to agree on what a given
// label ID means (e.g. "source file index 3"), not to collide by accident.
func (ls *LabelSet) Load(r io.Reader) error {
	if err := store.RequireKind(r, store.KindLabels); err != nil {
		return err
	}
	k32, err := store.ReadU32(r)
	if err != nil {
		return err
	}
	if int(k32) != ls.k {
		return errs.BadFileFormatf("label: k-mer size %d in file, want %d", k32, ls.k)
	}
	count, err := store.ReadU64(r)
	if err != nil {
		return err
	}
	for i := uint64(0); i < count; i++ {
		tagU64, err := store.ReadU64(r)
		if err != nil {
			return err
		}
		labelU64, err := store.ReadU64(r)
		if err != nil {
			return err
		}
		label := ID(labelU64)
		ls.internTable[label] = struct{}{}
		if label >= ls.nextID {
			ls.nextID = label + 1
		}
		ls.LinkTagAndLabel(kmer.Encoded(tagU64), label)
	}
	return nil
}
