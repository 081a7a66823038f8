package kmer

import (
	"testing"

	"github.com/grailbio/testutil/expect"
)

func scanAll(t *testing.T, seq string, k int) []Window {
	it, err := NewIterator(seq, k)
	expect.NoError(t, err)
	var out []Window
	for {
		w, ok, err := it.Next()
		expect.NoError(t, err)
		if !ok {
			break
		}
		out = append(out, w)
	}
	return out
}

func TestIteratorMatchesDirectEncode(t *testing.T) {
	seq := "AAAGTTCAGGT"
	k := 5
	windows := scanAll(t, seq, k)
	expect.EQ(t, len(windows), Count(len(seq), k))
	for _, w := range windows {
		wantF, wantR, err := Encode(seq[w.Pos:w.Pos+k], k)
		expect.NoError(t, err)
		expect.EQ(t, w.Forward, wantF)
		expect.EQ(t, w.Reverse, wantR)
	}
}

func TestIteratorEmptyAndShort(t *testing.T) {
	expect.EQ(t, len(scanAll(t, "", 4)), 0)
	expect.EQ(t, len(scanAll(t, "AC", 4)), 0)
}

func TestIteratorStopsAfterExhaustion(t *testing.T) {
	it, err := NewIterator("ACGT", 4)
	expect.NoError(t, err)
	_, ok, err := it.Next()
	expect.NoError(t, err)
	expect.True(t, ok)
	_, ok, err = it.Next()
	expect.NoError(t, err)
	expect.False(t, ok)
	// Exhausted iterators stay exhausted.
	_, ok, err = it.Next()
	expect.NoError(t, err)
	expect.False(t, ok)
}

func TestIteratorRejectsInvalidBase(t *testing.T) {
	it, err := NewIterator("ACGTNACGT", 4)
	expect.NoError(t, err)
	var sawErr bool
	for i := 0; i < 3; i++ {
		_, ok, err := it.Next()
		if err != nil {
			sawErr = true
			break
		}
		if !ok {
			break
		}
	}
	expect.True(t, sawErr)
}

func TestCanonicalKmerSet(t *testing.T) {
	// Scenario 1 (spec §8): k=4, consume "ACGTACGTACGTACGTACGT" (20 bases).
	seq := "ACGTACGTACGTACGTACGT"
	k := 4
	windows := scanAll(t, seq, k)
	expect.EQ(t, len(windows), Count(len(seq), k))

	canon := map[Encoded]bool{}
	for _, w := range windows {
		canon[w.Canonical()] = true
	}
	if len(canon) > 4 {
		t.Fatalf("expected at most 4 distinct canonical kmers, got %d", len(canon))
	}
}
