package kmer

import (
	"github.com/dib-lab/khmer-sub000/errs"
)

// Window is a (forward, reverse-complement) encoding pair at a given offset
// in the sequence being scanned, analogous to fusion/kmer.go's kmersAtPos.
type Window struct {
	Pos               int
	Forward, Reverse  Encoded
}

// Canonical returns the canonical (min) encoding of the window.
func (w Window) Canonical() Encoded { return Canonical(w.Forward, w.Reverse) }

// Iterator is a lazy, non-restartable, O(1)-amortized-per-step cursor over
// the k-mers of a sequence, grounded on fusion/kmer.go's kmerizer: after the
// first window is fully encoded, each subsequent step rolls the forward hash
// left and the reverse hash right instead of re-encoding the whole window.
type Iterator struct {
	k      int
	mask   Encoded
	seq    string
	pos    int // offset of the next byte to fold in
	cur    Window
	primed bool
}

// NewIterator returns an Iterator over the k-mers of seq. k must satisfy
// ValidK(k); the returned error is errs.BadKmer otherwise.
func NewIterator(seq string, k int) (*Iterator, error) {
	if !ValidK(k) {
		return nil, errs.BadKmerf("k=%d out of range [1,%d]", k, MaxK)
	}
	return &Iterator{k: k, mask: mask(k), seq: seq}, nil
}

// Len returns the k-mer length this iterator was constructed with.
func (it *Iterator) Len() int { return it.k }

// Next advances the iterator and reports whether a k-mer was produced. Once
// Next returns false, it never returns true again (finite, non-restartable,
// per spec §4.1). A non-ACGT base in the next window makes Next return a
// BadKmer error directly; the iterator does not advance past the bad base,
// so every later call returns the same error.
func (it *Iterator) Next() (Window, bool, error) {
	k := it.k
	if it.primed && it.pos+k <= len(it.seq) {
		nextCh := it.seq[it.pos+k-1]
		b := baseToBits[nextCh]
		if b == invalidBase {
			return Window{}, false, errs.BadKmerf("invalid character %q at offset %d", nextCh, it.pos+k-1)
		}
		it.cur.Pos = it.pos
		it.cur.Forward = ((it.cur.Forward << 2) | Encoded(b)) & it.mask
		shift := uint(2 * (k - 1))
		it.cur.Reverse = (it.cur.Reverse >> 2) | (Encoded(complementBits(b)) << shift)
		it.pos++
		return it.cur, true, nil
	}
	if it.pos+k > len(it.seq) {
		return Window{}, false, nil
	}
	forward, reverse, err := Encode(it.seq[it.pos:it.pos+k], k)
	if err != nil {
		return Window{}, false, err
	}
	it.cur = Window{Pos: it.pos, Forward: forward, Reverse: reverse}
	it.primed = true
	it.pos++
	return it.cur, true, nil
}

// Count returns the number of k-mers that consume would yield for a
// sequence of length n and k-mer length k (0 if n < k), without allocating
// an iterator. Used by callers that only need the count (spec: "consume
// returns 0" for sequences shorter than k).
func Count(n, k int) int {
	if n < k {
		return 0
	}
	return n - k + 1
}
