package sketch

import (
	"math/bits"

	"github.com/dib-lab/khmer-sub000/kmer"
)

// Presence is the one-bit-per-bucket sketch of spec §4.2: Insert sets a bit
// in every table; Query is the AND across all tables.
type Presence struct {
	tableSet
	words        [][]uint64 // one []uint64 per table, len(words[i]) == ceil(sizes[i]/64)
	nUniqueKmers uint64
}

// NewPresence constructs a Presence sketch with k-mer length k and the
// given per-table bucket counts (spec §3: N tables, distinct prime sizes).
func NewPresence(k int, sizes []uint64) (*Presence, error) {
	ts, err := newTableSet(k, sizes)
	if err != nil {
		return nil, err
	}
	p := &Presence{tableSet: ts, words: make([][]uint64, len(sizes))}
	for i, sz := range sizes {
		p.words[i] = newPresenceTable((sz + 63) / 64)
	}
	return p, nil
}

func wordBit(idx uint64) (word int, bit uint) { return int(idx / 64), uint(idx % 64) }

func testBit(words []uint64, idx uint64) bool {
	w, b := wordBit(idx)
	return words[w]&(uint64(1)<<b) != 0
}

// setBit sets the bit and reports whether it was previously 0 (a "new"
// insertion, for n_unique_kmers bookkeeping per spec §3).
func setBit(words []uint64, idx uint64) (wasNew bool) {
	w, b := wordBit(idx)
	mask := uint64(1) << b
	old := words[w]
	words[w] = old | mask
	return old&mask == 0
}

// Insert sets the bucket bit for this k-mer in every table. n_unique_kmers
// increments iff at least one table transitioned 0->1 (spec §3).
func (p *Presence) Insert(forward, reverse kmer.Encoded) {
	h := canonicalHash(forward, reverse)
	anyNew := false
	for i := range p.sizes {
		if setBit(p.words[i], p.bucket(i, h)) {
			anyNew = true
		}
	}
	if anyNew {
		p.nUniqueKmers++
	}
}

// InsertString inserts the canonical k-mer encoded by seq[0:K()].
func (p *Presence) InsertString(seq string) error {
	f, r, err := kmer.Encode(seq, p.k)
	if err != nil {
		return err
	}
	p.Insert(f, r)
	return nil
}

// Query returns 1 if the k-mer is present in every table, else 0 (spec
// §4.2: "query = AND over all tables").
func (p *Presence) Query(forward, reverse kmer.Encoded) uint64 {
	h := canonicalHash(forward, reverse)
	for i := range p.sizes {
		if !testBit(p.words[i], p.bucket(i, h)) {
			return 0
		}
	}
	return 1
}

// QueryString queries the canonical k-mer encoded by a string of length K().
func (p *Presence) QueryString(seq string) (uint64, error) {
	f, r, err := kmer.Encode(seq, p.k)
	if err != nil {
		return 0, err
	}
	return p.Query(f, r), nil
}

// QueryHash queries by an already-canonicalized 64-bit hash, used by the
// graph/partition packages which only ever carry canonical encodings.
func (p *Presence) QueryHash(h uint64) uint64 {
	for i := range p.sizes {
		if !testBit(p.words[i], p.bucket(i, h)) {
			return 0
		}
	}
	return 1
}

// InsertHash inserts by an already-canonicalized hash.
func (p *Presence) InsertHash(h uint64) {
	anyNew := false
	for i := range p.sizes {
		if setBit(p.words[i], p.bucket(i, h)) {
			anyNew = true
		}
	}
	if anyNew {
		p.nUniqueKmers++
	}
}

func (p *Presence) NUniqueKmers() uint64 { return p.nUniqueKmers }

// ConsumeSequence inserts every k-mer of seq, returning the count consumed
// (spec §8: sequences shorter than k consume 0).
func (p *Presence) ConsumeSequence(seq string) (int, error) {
	it, err := kmer.NewIterator(seq, p.k)
	if err != nil {
		return 0, err
	}
	n := 0
	for {
		w, ok, err := it.Next()
		if err != nil {
			return n, err
		}
		if !ok {
			break
		}
		p.Insert(w.Forward, w.Reverse)
		n++
	}
	return n, nil
}

// NOccupiedBucketsTable0 counts set bits in table 0 over bucket range
// [start, end). Named explicitly (per spec §9's third open question) to
// make clear this counts set bits, not distinct k-mers.
func (p *Presence) NOccupiedBucketsTable0(start, end uint64) uint64 {
	if end > p.sizes[0] {
		end = p.sizes[0]
	}
	var n uint64
	for i := start; i < end; i++ {
		if testBit(p.words[0], i) {
			n++
		}
	}
	return n
}

// TableSetBits returns the total number of set bits in table i, across its
// full range (unlike NOccupiedBucketsTable0, which is restricted to table 0
// and an explicit range).
func (p *Presence) TableSetBits(i int) uint64 {
	var n uint64
	for _, w := range p.words[i] {
		n += uint64(bits.OnesCount64(w))
	}
	return n
}
