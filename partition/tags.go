package partition

import (
	"github.com/dib-lab/khmer-sub000/kmer"
	"github.com/dib-lab/khmer-sub000/sketch"
)

// DefaultTagDensity is the reference implementation's DEFAULT_TAG_DENSITY
// (original_source/lib/khmer.hh): a new tag is emitted roughly every 40
// k-mers along a read. Must be even, per the header's comment (FindAllTags'
// breadth bound 2*tagDensity+1 is intended to span one tag interval in
// either direction).
const DefaultTagDensity = 40

// Tagger assigns tags during sequence ingestion (spec §4.6's
// consume_and_tag): every k-mer is inserted into an underlying sketch, and
// roughly every tagDensity k-mers — or sooner, if a known tag or stop-tag
// is encountered — the current k-mer is marked as a tag.
type Tagger struct {
	sketch     sketch.Sketchable
	tagDensity int
	allTags    map[kmer.Encoded]struct{}
	stopTags   map[kmer.Encoded]struct{}
}

// NewTagger wraps an existing sketch (Presence or Counting) with tag
// bookkeeping. stopTags may be nil; ingestion still tags normally, it just
// never treats any k-mer as a forced early tag on that account.
func NewTagger(s sketch.Sketchable, tagDensity int, stopTags map[kmer.Encoded]struct{}) *Tagger {
	return &Tagger{sketch: s, tagDensity: tagDensity, allTags: make(map[kmer.Encoded]struct{}), stopTags: stopTags}
}

// AllTags returns the live tag set accumulated so far. Callers must not
// mutate the returned map.
func (t *Tagger) AllTags() map[kmer.Encoded]struct{} { return t.allTags }

// ConsumeAndTag inserts every k-mer of seq into the underlying sketch and
// tags some of them, per spec §4.6 steps 1-5. It returns the number of
// k-mers consumed and the set of tags (pre-existing or newly minted) that
// were encountered along the way — the same "found_tags" bookkeeping
// subset.cc's consume_sequence_and_tag callers rely on to detect reads that
// touch more than one existing partition.
func (t *Tagger) ConsumeAndTag(seq string) (nConsumed int, foundTags map[kmer.Encoded]struct{}, err error) {
	it, err := kmer.NewIterator(seq, t.sketch.K())
	if err != nil {
		return 0, nil, err
	}
	foundTags = make(map[kmer.Encoded]struct{})
	sinceLastTag := 0
	for {
		w, ok, iterErr := it.Next()
		if iterErr != nil {
			return nConsumed, foundTags, iterErr
		}
		if !ok {
			break
		}
		t.sketch.Insert(w.Forward, w.Reverse)
		nConsumed++

		c := kmer.Canonical(w.Forward, w.Reverse)
		_, isKnownTag := t.allTags[c]
		_, isStopTag := t.stopTags[c]

		if sinceLastTag >= t.tagDensity || isKnownTag || isStopTag {
			t.allTags[c] = struct{}{}
			foundTags[c] = struct{}{}
			sinceLastTag = 0
		} else {
			sinceLastTag++
		}
	}
	return nConsumed, foundTags, nil
}
