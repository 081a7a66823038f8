package sketch

import (
	"bytes"
	"testing"

	"github.com/grailbio/testutil/expect"
)

func TestPresenceInsertQuery(t *testing.T) {
	p, err := NewPresence(4, DefaultTableSizes(1024, 2))
	expect.NoError(t, err)
	expect.NoError(t, p.InsertString("ACGT"))
	q, err := p.QueryString("ACGT")
	expect.NoError(t, err)
	expect.EQ(t, q, uint64(1))

	q, err = p.QueryString("TTTT")
	expect.NoError(t, err)
	expect.EQ(t, q, uint64(0))
}

func TestPresenceUniqueCounter(t *testing.T) {
	p, err := NewPresence(4, DefaultTableSizes(4096, 2))
	expect.NoError(t, err)
	expect.NoError(t, p.InsertString("ACGT"))
	expect.NoError(t, p.InsertString("ACGT"))
	expect.EQ(t, p.NUniqueKmers(), uint64(1))
	expect.NoError(t, p.InsertString("TTTT"))
	expect.EQ(t, p.NUniqueKmers(), uint64(2))
}

func TestPresenceSaveLoadRoundTrip(t *testing.T) {
	p, err := NewPresence(4, DefaultTableSizes(1024, 3))
	expect.NoError(t, err)
	for _, s := range []string{"ACGT", "TTTT", "GGCC", "AAAA"} {
		expect.NoError(t, p.InsertString(s))
	}
	var buf bytes.Buffer
	expect.NoError(t, p.Save(&buf))
	loaded, err := LoadPresence(&buf)
	expect.NoError(t, err)
	for _, s := range []string{"ACGT", "TTTT", "GGCC", "AAAA", "CCCC"} {
		want, err := p.QueryString(s)
		expect.NoError(t, err)
		got, err := loaded.QueryString(s)
		expect.NoError(t, err)
		expect.EQ(t, got, want)
	}
	expect.EQ(t, loaded.NUniqueKmers(), p.NUniqueKmers())
}

func TestCountingSaturatesWithoutBigcount(t *testing.T) {
	c, err := NewCounting(11, DefaultTableSizes(4000003, 1), false)
	expect.NoError(t, err)
	seq := "ACGTACGTACG" // one 11-mer
	for i := 0; i < 300; i++ {
		expect.NoError(t, c.CountString(seq))
	}
	got, err := c.GetCountString(seq)
	expect.NoError(t, err)
	expect.EQ(t, got, uint16(255))
}

func TestCountingOverflowIntoBigcount(t *testing.T) {
	c, err := NewCounting(11, DefaultTableSizes(4000003, 1), true)
	expect.NoError(t, err)
	seq := "ACGTACGTACG"
	for i := 0; i < 300; i++ {
		expect.NoError(t, c.CountString(seq))
	}
	got, err := c.GetCountString(seq)
	expect.NoError(t, err)
	expect.EQ(t, got, uint16(300))
}

func TestCountingSaveLoadRoundTripWithOverflow(t *testing.T) {
	c, err := NewCounting(5, DefaultTableSizes(997, 2), true)
	expect.NoError(t, err)
	for i := 0; i < 260; i++ {
		expect.NoError(t, c.CountString("ACGTA"))
	}
	expect.NoError(t, c.CountString("TTTTT"))

	var buf bytes.Buffer
	expect.NoError(t, c.Save(&buf))
	loaded, err := LoadCounting(&buf)
	expect.NoError(t, err)

	want, err := c.GetCountString("ACGTA")
	expect.NoError(t, err)
	got, err := loaded.GetCountString("ACGTA")
	expect.NoError(t, err)
	expect.EQ(t, got, want)
	expect.EQ(t, got, uint16(260))

	want2, err := c.GetCountString("TTTTT")
	expect.NoError(t, err)
	got2, err := loaded.GetCountString("TTTTT")
	expect.NoError(t, err)
	expect.EQ(t, got2, want2)
}

func TestTrimOnAbundance(t *testing.T) {
	c, err := NewCounting(4, DefaultTableSizes(997, 2), true)
	expect.NoError(t, err)
	// Build up coverage for the prefix, leave the suffix uncovered.
	for i := 0; i < 5; i++ {
		expect.NoError(t, c.CountString("ACGT"))
	}
	seq := "ACGTTTTT" // "ACGT","CGTT","GTTT","TTTT" -- only ACGT is well-covered
	trimmed, at := c.TrimOnAbundance(seq, 2)
	expect.EQ(t, trimmed, "A")
	expect.EQ(t, at, 1)
}

func TestAbundanceDistribution(t *testing.T) {
	c, err := NewCounting(4, DefaultTableSizes(997, 2), true)
	expect.NoError(t, err)
	expect.NoError(t, c.CountString("ACGT"))
	expect.NoError(t, c.CountString("ACGT"))
	expect.NoError(t, c.CountString("TTTT"))

	tracking, err := NewPresence(4, DefaultTableSizes(997, 2))
	expect.NoError(t, err)

	reads := []string{"ACGT", "TTTT"}
	i := 0
	dist := c.AbundanceDistribution(func() (string, bool) {
		if i >= len(reads) {
			return "", false
		}
		s := reads[i]
		i++
		return s, true
	}, tracking)

	var total uint64
	for _, n := range dist {
		total += n
	}
	expect.EQ(t, total, uint64(2)) // 2 distinct canonical kmers across both reads
}

func TestFindSpectralErrorPositionsIgnoresBoundary(t *testing.T) {
	c, err := NewCounting(4, DefaultTableSizes(997, 2), true)
	expect.NoError(t, err)
	// Consume the sequence once, so every k-mer has a low count.
	seq := "ACGTACGTACGT"
	it, err := c.ConsumeSequence(seq)
	expect.NoError(t, err)
	expect.True(t, it >= 0)
	positions := c.FindSpectralErrorPositions(seq, 1000)
	// With a very high threshold every position is low, so no position has
	// high neighbors; whatever is returned, the first and last k-mer
	// positions must never be reported.
	for _, p := range positions {
		if int(p) == 0 || int(p) == kmer_Count(len(seq), 4)-1 {
			t.Fatalf("boundary position %d should not be reported", p)
		}
	}
}

func kmer_Count(n, k int) int {
	if n < k {
		return 0
	}
	return n - k + 1
}
