package sketch

import (
	"math"
	"sort"
	"sync/atomic"

	"github.com/dib-lab/khmer-sub000/kmer"
)

const (
	maxKCount    = 255   // MAX_KCOUNT: saturation point of an in-table counter byte.
	maxBigCount  = 65535 // MAX_BIGCOUNT: saturation point of an overflow-map entry.
)

// Counting is the byte-per-bucket saturating-counter sketch of spec §4.3.
// Each table bucket is stored as a uint32 (rather than a literal byte) so
// that sync/atomic's CAS primitives can implement the saturating increment
// spec §4.3/§5 asks for ("atomic saturating fetch-add... CAS loop for
// saturation") without unsafe byte-level atomics; the stored value never
// exceeds maxKCount.
type Counting struct {
	tableSet
	tables       [][]uint32
	useBigcount  bool
	overflow     *overflowMap
	nUniqueKmers uint64
}

// NewCounting constructs a Counting sketch. useBigcount enables the exact
// overflow map for k-mers whose count exceeds 255 ("bigcount" toggle, spec
// §3); disabling it keeps counts capped at 255 for memory-constrained use.
func NewCounting(k int, sizes []uint64, useBigcount bool) (*Counting, error) {
	ts, err := newTableSet(k, sizes)
	if err != nil {
		return nil, err
	}
	c := &Counting{tableSet: ts, tables: make([][]uint32, len(sizes)), useBigcount: useBigcount}
	for i, sz := range sizes {
		c.tables[i] = newCountTable(sz)
	}
	if useBigcount {
		c.overflow = newOverflowMap()
	}
	return c, nil
}

// saturatingIncrement atomically increments tables[i][bucket] by 1, capping
// at maxKCount, and reports whether it was 0 before the call (for
// n_unique_kmers bookkeeping) and whether the bucket is at maxKCount after
// the call (the overflow trigger).
func saturatingIncrement(table []uint32, idx uint64) (wasZero, saturated bool) {
	for {
		old := atomic.LoadUint32(&table[idx])
		if old >= maxKCount {
			return false, true
		}
		next := old + 1
		if atomic.CompareAndSwapUint32(&table[idx], old, next) {
			return old == 0, next == maxKCount
		}
	}
}

// Count saturating-increments every table's bucket for this k-mer. If any
// bucket reaches saturation and bigcount is enabled, the overflow map entry
// for this k-mer is also touched (spec §4.3).
func (c *Counting) Count(forward, reverse kmer.Encoded) {
	h := canonicalHash(forward, reverse)
	c.countHash(h)
}

// CountHash saturating-increments an already-canonicalized hash, for the
// same reason GetCountHash is exported (partition's repartitioning pass
// only ever carries a tag's canonical hash).
func (c *Counting) CountHash(h uint64) { c.countHash(h) }

func (c *Counting) countHash(h uint64) {
	anyNew := false
	anySaturated := false
	for i := range c.sizes {
		wasZero, saturated := saturatingIncrement(c.tables[i], c.bucket(i, h))
		if wasZero {
			anyNew = true
		}
		if saturated {
			anySaturated = true
		}
	}
	if anyNew {
		atomic.AddUint64(&c.nUniqueKmers, 1)
	}
	if anySaturated && c.useBigcount {
		c.overflow.touch(h)
	}
}

// CountString saturating-increments the canonical k-mer encoded by seq.
func (c *Counting) CountString(seq string) error {
	f, r, err := kmer.Encode(seq, c.k)
	if err != nil {
		return err
	}
	c.Count(f, r)
	return nil
}

// Insert satisfies Sketchable by treating any insertion as a Count.
func (c *Counting) Insert(forward, reverse kmer.Encoded) { c.Count(forward, reverse) }

// Query satisfies Sketchable, returning GetCount as a uint64.
func (c *Counting) Query(forward, reverse kmer.Encoded) uint64 {
	return uint64(c.GetCount(forward, reverse))
}

// GetCount returns the k-mer's abundance: the overflow map's value if
// present, else the minimum over tables (spec §4.3).
func (c *Counting) GetCount(forward, reverse kmer.Encoded) uint16 {
	h := canonicalHash(forward, reverse)
	return c.getCountHash(h)
}

// GetCountHash returns the abundance of an already-canonicalized hash, for
// callers (partition) that only ever carry a tag's canonical hash rather
// than its forward/reverse pair.
func (c *Counting) GetCountHash(h uint64) uint16 { return c.getCountHash(h) }

func (c *Counting) getCountHash(h uint64) uint16 {
	if c.useBigcount {
		if v, ok := c.overflow.get(h); ok {
			return v
		}
	}
	min := uint32(math.MaxUint32)
	for i := range c.sizes {
		v := atomic.LoadUint32(&c.tables[i][c.bucket(i, h)])
		if v < min {
			min = v
		}
	}
	if min > maxKCount {
		min = maxKCount
	}
	return uint16(min)
}

// GetCountString returns the abundance of the canonical k-mer encoded by seq.
func (c *Counting) GetCountString(seq string) (uint16, error) {
	f, r, err := kmer.Encode(seq, c.k)
	if err != nil {
		return 0, err
	}
	return c.GetCount(f, r), nil
}

func (c *Counting) NUniqueKmers() uint64 { return atomic.LoadUint64(&c.nUniqueKmers) }

// UseBigcount reports whether the overflow map is enabled.
func (c *Counting) UseBigcount() bool { return c.useBigcount }

// ConsumeSequence counts every k-mer of seq, returning the number consumed.
func (c *Counting) ConsumeSequence(seq string) (int, error) {
	it, err := kmer.NewIterator(seq, c.k)
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
		c.Count(w.Forward, w.Reverse)
		n++
	}
	return n, nil
}

// TrimOnAbundance scans the k-mers of seq left to right and returns the
// prefix up to (not including) the first k-mer whose count is below min,
// plus the base offset where the trim occurred (len(seq) if none found),
// per spec §4.3.
func (c *Counting) TrimOnAbundance(seq string, min uint16) (trimmed string, trimAt int) {
	return c.trim(seq, func(count uint16) bool { return count < min })
}

// TrimBelowAbundance is the symmetric counterpart of TrimOnAbundance: it
// stops at the first k-mer whose count exceeds max.
func (c *Counting) TrimBelowAbundance(seq string, max uint16) (trimmed string, trimAt int) {
	return c.trim(seq, func(count uint16) bool { return count > max })
}

func (c *Counting) trim(seq string, stop func(uint16) bool) (string, int) {
	it, err := kmer.NewIterator(seq, c.k)
	if err != nil {
		return seq, len(seq)
	}
	for {
		w, ok, iterErr := it.Next()
		if iterErr != nil || !ok {
			return seq, len(seq)
		}
		count := c.getCountHash(canonicalHash(w.Forward, w.Reverse))
		if stop(count) {
			return seq[:w.Pos], w.Pos
		}
	}
}

// FindSpectralErrorPositions identifies positions whose k-mer count drops
// below max while its immediate neighbors (one k-mer before, one after) are
// at or above max: a locally low-coverage outlier, per spec §4.3.
//
// Only interior k-mer positions (1 through n-2 of n k-mers) are checked, so
// the first and last k-mer positions, which lack a neighbor on one side, are
// never reported; every other position is a candidate.
func (c *Counting) FindSpectralErrorPositions(seq string, max uint16) []uint32 {
	k := c.k
	n := kmer.Count(len(seq), k)
	if n < 3 {
		return nil
	}
	counts := make([]uint16, n)
	it, err := kmer.NewIterator(seq, k)
	if err != nil {
		return nil
	}
	for i := 0; i < n; i++ {
		w, ok, iterErr := it.Next()
		if iterErr != nil || !ok {
			return nil
		}
		counts[i] = c.getCountHash(canonicalHash(w.Forward, w.Reverse))
	}
	var positions []uint32
	for i := 1; i < n-1; i++ {
		if counts[i] < max && counts[i-1] >= max && counts[i+1] >= max {
			positions = append(positions, uint32(i))
		}
	}
	return positions
}

// AbundanceDistribution tallies dist[count] over every distinct k-mer of
// the reads yielded by nextSeq (called until it returns ok=false),
// distinctness enforced by tracking, per spec §4.3. dist has 65536 buckets,
// one per possible GetCount value.
func (c *Counting) AbundanceDistribution(nextSeq func() (string, bool), tracking *Presence) [65536]uint64 {
	var dist [65536]uint64
	for {
		seq, ok := nextSeq()
		if !ok {
			break
		}
		it, err := kmer.NewIterator(seq, c.k)
		if err != nil {
			continue
		}
		for {
			w, ok, iterErr := it.Next()
			if iterErr != nil || !ok {
				break
			}
			h := canonicalHash(w.Forward, w.Reverse)
			if tracking.QueryHash(h) != 0 {
				continue
			}
			tracking.InsertHash(h)
			dist[c.getCountHash(h)]++
		}
	}
	return dist
}

// MedianCount returns the median, mean and standard deviation of the
// per-k-mer counts of seq, per spec §4.3.
func (c *Counting) MedianCount(seq string) (median uint16, mean, stddev float64, err error) {
	it, iterErr := kmer.NewIterator(seq, c.k)
	if iterErr != nil {
		return 0, 0, 0, iterErr
	}
	var counts []uint16
	for {
		w, ok, iterErr := it.Next()
		if iterErr != nil {
			return 0, 0, 0, iterErr
		}
		if !ok {
			break
		}
		counts = append(counts, c.getCountHash(canonicalHash(w.Forward, w.Reverse)))
	}
	if len(counts) == 0 {
		return 0, 0, 0, nil
	}
	var sum float64
	for _, v := range counts {
		sum += float64(v)
	}
	mean = sum / float64(len(counts))
	var sqDiff float64
	for _, v := range counts {
		d := float64(v) - mean
		sqDiff += d * d
	}
	stddev = math.Sqrt(sqDiff / float64(len(counts)))

	sorted := append([]uint16(nil), counts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		median = sorted[mid]
	} else {
		median = uint16((uint32(sorted[mid-1]) + uint32(sorted[mid])) / 2)
	}
	return median, mean, stddev, nil
}
