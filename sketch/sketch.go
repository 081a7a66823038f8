// Package sketch implements the Count-Min-like probabilistic k-mer tables
// of spec §4.2/§4.3: a presence sketch (one bit per bucket) and a counting
// sketch (one saturating byte per bucket, with an exact overflow map for
// high-abundance k-mers), sharing a common table-set base.
//
// Grounded on fusion/kmer_index.go's sharded hash-table construction
// (generalized here from a gene-list map to bits/bytes) and spec §9's
// "Dynamic dispatch / inheritance" note, which asks for a small interface
// instead of a class hierarchy.
package sketch

import (
	"github.com/dib-lab/khmer-sub000/errs"
	"github.com/dib-lab/khmer-sub000/kmer"
)

// Sketchable is the shared behavior of Presence and Counting, so that
// graph/partition code can be written once against either kind of sketch
// (spec §9).
type Sketchable interface {
	// Insert records one occurrence of the k-mer encoded by forward/reverse.
	Insert(forward, reverse kmer.Encoded)
	// Query reports whether/how many times the k-mer has been seen: 0/1 for
	// Presence, the saturating/overflow count for Counting.
	Query(forward, reverse kmer.Encoded) uint64
	// NUniqueKmers returns the distinct-insertion counter (spec §3).
	NUniqueKmers() uint64
	// K returns the k-mer length the sketch was constructed with.
	K() int
	// ConsumeSequence inserts every k-mer of seq and returns how many were
	// consumed (0 for sequences shorter than k, per spec §8 boundary rules).
	ConsumeSequence(seq string) (int, error)
}

// tableSet is the shared base of Presence and Counting: an ordered set of
// prime-sized tables and the k parameter, frozen at construction (spec §3).
type tableSet struct {
	k     int
	sizes []uint64
}

func newTableSet(k int, sizes []uint64) (tableSet, error) {
	if !kmer.ValidK(k) {
		return tableSet{}, errs.BadKmerf("k=%d out of range", k)
	}
	if len(sizes) == 0 {
		return tableSet{}, errs.BadKmerf("sketch: need at least one table")
	}
	cp := make([]uint64, len(sizes))
	copy(cp, sizes)
	return tableSet{k: k, sizes: cp}, nil
}

func (ts tableSet) K() int { return ts.k }

// bucket returns the bucket index of hash h in table i.
func (ts tableSet) bucket(i int, h uint64) uint64 {
	return h % ts.sizes[i]
}

// canonicalHash returns the canonical 64-bit hash used to select buckets
// (spec §3: "canonical hash = min(forward, reverse)").
func canonicalHash(forward, reverse kmer.Encoded) uint64 {
	return uint64(kmer.Canonical(forward, reverse))
}

// DefaultTableSizes returns n_tables primes, starting at the largest prime
// <= size, each next one the largest prime below the previous (staying at 2
// once 2 is reached), the way CLIs round "-x table_size" to nearest prime
// below per spec §6.3. Each prime is found by trial division, counting down
// from the previous one.
func DefaultTableSizes(size uint64, nTables int) []uint64 {
	p := largestPrimeAtMost(size)
	sizes := make([]uint64, nTables)
	for i := range sizes {
		sizes[i] = p
		p = largestPrimeAtMost(p - 1)
	}
	return sizes
}

// largestPrimeAtMost returns the largest prime <= n (n must be >= 2).
func largestPrimeAtMost(n uint64) uint64 {
	if n < 2 {
		return 2
	}
	for candidate := n; candidate >= 2; candidate-- {
		if isPrime(candidate) {
			return candidate
		}
	}
	return 2
}

func isPrime(n uint64) bool {
	if n < 2 {
		return false
	}
	if n%2 == 0 {
		return n == 2
	}
	for d := uint64(3); d*d <= n; d += 2 {
		if n%d == 0 {
			return false
		}
	}
	return true
}
