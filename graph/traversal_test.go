package graph

import (
	"testing"

	"github.com/dib-lab/khmer-sub000/kmer"
	"github.com/dib-lab/khmer-sub000/sketch"
	"github.com/grailbio/testutil/expect"
)

func consume(t *testing.T, s *sketch.Presence, seq string) {
	t.Helper()
	_, err := s.ConsumeSequence(seq)
	expect.NoError(t, err)
}

func TestNeighborsFollowsLinearPath(t *testing.T) {
	k := 4
	s, err := sketch.NewPresence(k, sketch.DefaultTableSizes(4096, 2))
	expect.NoError(t, err)
	consume(t, s, "ACGTACGA") // k-mers: ACGT,CGTA,GTAC,TACG,ACGA

	n, err := NodeFromString("ACGT", k)
	expect.NoError(t, err)
	neighbors := Neighbors(n, k, s)
	if len(neighbors) == 0 {
		t.Fatalf("expected at least one neighbor of ACGT in a consumed path")
	}
	foundCGTA := false
	for _, nb := range neighbors {
		if nb.Canonical() == mustCanonical(t, "CGTA", k) {
			foundCGTA = true
		}
	}
	if !foundCGTA {
		t.Fatalf("expected CGTA among ACGT's neighbors")
	}
}

func TestConnectedComponentSizeMatchesLinearPathLength(t *testing.T) {
	k := 4
	s, err := sketch.NewPresence(k, sketch.DefaultTableSizes(4096, 2))
	expect.NoError(t, err)
	seq := "ACGTACGATCGA"
	_, err = s.ConsumeSequence(seq)
	expect.NoError(t, err)

	start, err := NodeFromString(seq[:k], k)
	expect.NoError(t, err)
	size, truncated := ConnectedComponentSize(start, k, s, 0, nil)
	expect.False(t, truncated)
	if size != int(s.NUniqueKmers()) {
		t.Fatalf("component size = %d, want %d distinct k-mers in the path", size, s.NUniqueKmers())
	}
}

func TestConnectedComponentSizeRespectsStopTags(t *testing.T) {
	k := 4
	s, err := sketch.NewPresence(k, sketch.DefaultTableSizes(4096, 2))
	expect.NoError(t, err)
	seq := "ACGTACGATCGA"
	consume(t, s, seq)

	start, err := NodeFromString(seq[:k], k)
	expect.NoError(t, err)
	fullSize, _ := ConnectedComponentSize(start, k, s, 0, nil)

	mid, err := NodeFromString(seq[4:4+k], k)
	expect.NoError(t, err)
	stopTags := map[kmer.Encoded]struct{}{mid.Canonical(): {}}
	trimmedSize, _ := ConnectedComponentSize(start, k, s, 0, stopTags)

	if trimmedSize >= fullSize {
		t.Fatalf("expected a stop tag to shrink the reachable component: full=%d trimmed=%d", fullSize, trimmedSize)
	}
}

func TestFindAllTagsStopsAtTagsAfterFirstStep(t *testing.T) {
	k := 4
	s, err := sketch.NewPresence(k, sketch.DefaultTableSizes(4096, 2))
	expect.NoError(t, err)
	seq := "ACGTACGATCGATTGG"
	consume(t, s, seq)

	start, err := NodeFromString(seq[:k], k)
	expect.NoError(t, err)
	// Tag a k-mer a few steps downstream; the start itself is not a tag.
	tagNode, err := NodeFromString(seq[8:8+k], k)
	expect.NoError(t, err)
	allTags := map[kmer.Encoded]struct{}{tagNode.Canonical(): {}}

	tagged, visited, truncated := FindAllTags(start, k, s, allTags, BFSOptions{})
	expect.False(t, truncated)
	if _, ok := tagged[tagNode.Canonical()]; !ok {
		t.Fatalf("expected downstream tag to be found, visited %d nodes", visited)
	}
}

func TestFindAllTagsAlwaysExpandsStartEvenIfTagged(t *testing.T) {
	k := 4
	s, err := sketch.NewPresence(k, sketch.DefaultTableSizes(4096, 2))
	expect.NoError(t, err)
	seq := "ACGTACGATCGA"
	consume(t, s, seq)

	start, err := NodeFromString(seq[:k], k)
	expect.NoError(t, err)
	allTags := map[kmer.Encoded]struct{}{start.Canonical(): {}}

	tagged, visited, truncated := FindAllTags(start, k, s, allTags, BFSOptions{})
	expect.False(t, truncated)
	if visited <= 1 {
		t.Fatalf("expected traversal to continue past a tagged start node, visited=%d", visited)
	}
	if _, ok := tagged[start.Canonical()]; ok {
		t.Fatalf("start node should never appear in its own tagged-kmers result")
	}
}

func TestFindAllTagsTruncatesOnOversizedTraversal(t *testing.T) {
	k := 4
	s, err := sketch.NewPresence(k, sketch.DefaultTableSizes(4096, 2))
	expect.NoError(t, err)
	seq := "ACGTACGATCGATTGGCATCGATCGATTAGC"
	consume(t, s, seq)

	start, err := NodeFromString(seq[:k], k)
	expect.NoError(t, err)
	tagged, _, truncated := FindAllTags(start, k, s, map[kmer.Encoded]struct{}{}, BFSOptions{MaxVisited: 2})
	expect.True(t, truncated)
	expect.EQ(t, len(tagged), 0)
}

func TestFilterIfPresentTrimsAtFirstUnseenKmer(t *testing.T) {
	k := 4
	s, err := sketch.NewPresence(k, sketch.DefaultTableSizes(4096, 2))
	expect.NoError(t, err)
	consume(t, s, "ACGTACGA") // covers ACGT,CGTA,GTAC,TACG,ACGA

	trimmed, err := FilterIfPresent("ACGTACGATTTT", k, s)
	expect.NoError(t, err)
	if len(trimmed) >= len("ACGTACGATTTT") {
		t.Fatalf("expected trimming once the read runs past covered k-mers, got %q", trimmed)
	}
}

func TestTrimAtStopTag(t *testing.T) {
	k := 4
	seq := "ACGTACGATCGA"
	stopNode, err := NodeFromString(seq[4:4+k], k)
	expect.NoError(t, err)
	stopTags := map[kmer.Encoded]struct{}{stopNode.Canonical(): {}}

	trimmed, at := TrimAtStopTag(seq, k, stopTags)
	expect.EQ(t, trimmed, seq[:4])
	expect.EQ(t, at, 4)
}

func TestTrimAtStopTagNoStopTagsReturnsWholeSequence(t *testing.T) {
	trimmed, at := TrimAtStopTag("ACGTACGT", 4, nil)
	expect.EQ(t, trimmed, "ACGTACGT")
	expect.EQ(t, at, 8)
}

func mustCanonical(t *testing.T, seq string, k int) kmer.Encoded {
	t.Helper()
	c, err := kmer.CanonicalOf(seq, k)
	expect.NoError(t, err)
	return c
}
