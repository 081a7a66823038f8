package graph

import "github.com/dib-lab/khmer-sub000/kmer"

// FilterIfPresent returns the bases of seq before the first k-mer that
// present (a k-mer table already populated by a prior consume pass) reports
// absent, i.e. seq cut at that k-mer's starting base, grounded on the
// reference implementation's filter_if_present: reads are trimmed back to
// the region already supported by the graph rather than rejected outright.
// Returns seq unchanged if every k-mer is present, and "" if even the first
// is missing.
func FilterIfPresent(seq string, k int, present Oracle) (string, error) {
	it, err := kmer.NewIterator(seq, k)
	if err != nil {
		return "", err
	}
	for {
		w, ok, iterErr := it.Next()
		if iterErr != nil {
			return "", iterErr
		}
		if !ok {
			break
		}
		if present.Query(w.Forward, w.Reverse) == 0 {
			return seq[:w.Pos], nil
		}
	}
	return seq, nil
}

// TrimAtStopTag cuts seq at the starting base of its first k-mer that is a
// stop tag and returns the bases before it, plus the offset where the cut
// was made (seq and len(seq) if no stop tag was hit, or if seq holds a
// non-ACGT base before any stop tag is reached). Grounded on the "stop-tag-aware trimming" use of the stop_tags
// set described throughout subset.cc (e.g. break_on_stop_tags in
// find_all_tags): once a read crosses into a region already cut off by an
// earlier repartitioning pass, stop growing it there.
func TrimAtStopTag(seq string, k int, stopTags map[kmer.Encoded]struct{}) (string, int) {
	if len(stopTags) == 0 {
		return seq, len(seq)
	}
	it, err := kmer.NewIterator(seq, k)
	if err != nil {
		return seq, len(seq)
	}
	for {
		w, ok, iterErr := it.Next()
		if iterErr != nil || !ok {
			return seq, len(seq)
		}
		if _, stopped := stopTags[kmer.Canonical(w.Forward, w.Reverse)]; stopped {
			return seq[:w.Pos], w.Pos
		}
	}
}
