package hll

import (
	"math"
	"strings"
	"testing"

	"github.com/grailbio/testutil/expect"
)

func TestNewRejectsBadPrecision(t *testing.T) {
	_, err := New(Options{Precision: 3, K: 4})
	expect.True(t, strings.Contains(err.Error(), "bad kmer"))
	_, err = New(Options{Precision: 17, K: 4})
	expect.True(t, strings.Contains(err.Error(), "bad kmer"))
}

func TestAddAndEstimateCardinalityApproximate(t *testing.T) {
	c, err := New(Options{Precision: 12, K: 20})
	expect.NoError(t, err)

	distinct := 5000
	for i := 0; i < distinct; i++ {
		kmerStr := syntheticKmer(i, 20)
		expect.NoError(t, c.Add(kmerStr))
	}

	est := c.EstimateCardinality()
	lo := float64(distinct) * (1 - 4*c.ErrorRate())
	hi := float64(distinct) * (1 + 4*c.ErrorRate())
	if float64(est) < lo || float64(est) > hi {
		t.Fatalf("estimate %d outside [%v, %v] for %d distinct k-mers (error rate %v)", est, lo, hi, distinct, c.ErrorRate())
	}
}

func TestCanonicalAddIsOrderIndependent(t *testing.T) {
	// A k-mer and its reverse complement must hash identically (spec §8
	// invariant 1, carried into the HLL hash via MurmurHashCanonical).
	c1, err := New(Options{Precision: 8, K: 4})
	expect.NoError(t, err)
	c2, err := New(Options{Precision: 8, K: 4})
	expect.NoError(t, err)

	expect.NoError(t, c1.Add("GATT"))
	expect.NoError(t, c2.Add("AATC")) // revcomp(GATT)

	expect.EQ(t, c1.EstimateCardinality(), c2.EstimateCardinality())
}

func TestConsumeSequenceBelowKConsumesZero(t *testing.T) {
	c, err := New(Options{Precision: 8, K: 10})
	expect.NoError(t, err)
	n, err := c.ConsumeSequence("ACGT")
	expect.NoError(t, err)
	expect.EQ(t, n, 0)
}

func TestMergeTakesElementwiseMax(t *testing.T) {
	a, err := New(Options{Precision: 8, K: 4})
	expect.NoError(t, err)
	b, err := New(Options{Precision: 8, K: 4})
	expect.NoError(t, err)

	for i := 0; i < 200; i++ {
		expect.NoError(t, a.Add(syntheticKmer(i, 4)))
	}
	for i := 100; i < 400; i++ {
		expect.NoError(t, b.Add(syntheticKmer(i, 4)))
	}
	expect.NoError(t, a.Merge(b))

	combined, err := New(Options{Precision: 8, K: 4})
	expect.NoError(t, err)
	for i := 0; i < 400; i++ {
		expect.NoError(t, combined.Add(syntheticKmer(i, 4)))
	}
	expect.EQ(t, a.EstimateCardinality(), combined.EstimateCardinality())
}

func TestMergeRejectsMismatchedParameters(t *testing.T) {
	a, err := New(Options{Precision: 8, K: 4})
	expect.NoError(t, err)
	b, err := New(Options{Precision: 10, K: 4})
	expect.NoError(t, err)
	err = a.Merge(b)
	if err == nil {
		t.Fatalf("expected error merging counters with different precision")
	}
}

func TestSetErrorRateBlockedAfterUse(t *testing.T) {
	c, err := New(Options{Precision: 8, K: 4})
	expect.NoError(t, err)
	expect.NoError(t, c.Add("ACGT"))
	err = c.SetErrorRate(0.01)
	expect.True(t, strings.Contains(err.Error(), "read-only after use"))
}

func TestSetKBlockedAfterUse(t *testing.T) {
	c, err := New(Options{Precision: 8, K: 4})
	expect.NoError(t, err)
	expect.NoError(t, c.Add("ACGT"))
	err = c.SetK(6)
	expect.True(t, strings.Contains(err.Error(), "read-only after use"))
}

func TestGetRhoSaturatesOnZero(t *testing.T) {
	// A zero-valued remainder means every bit in the window was zero: rho
	// saturates at maxWidth+1 rather than computing log2(0).
	if got := getRho(0, 58); got != 59 {
		t.Fatalf("getRho(0, 58) = %d, want 59", got)
	}
}

// syntheticKmer deterministically builds a length-k ACGT string from an
// integer index by writing i in base 4 (distinct for every i < 4^k), for
// cardinality-estimation tests that need many distinct k-mers without
// relying on a random source (workflow scripts and this package both
// disallow math/rand's nondeterminism in tests that must reproduce the same
// sequence across runs).
func syntheticKmer(i, k int) string {
	const bases = "ACGT"
	out := make([]byte, k)
	for j := k - 1; j >= 0; j-- {
		out[j] = bases[i%4]
		i /= 4
	}
	return string(out)
}

func TestSyntheticKmerLength(t *testing.T) {
	for _, k := range []int{4, 10, 20} {
		s := syntheticKmer(12345, k)
		if len(s) != k {
			t.Fatalf("syntheticKmer(12345, %d) has length %d", k, len(s))
		}
	}
}

func TestCalcAlphaMatchesFixedPoints(t *testing.T) {
	a4, err := calcAlpha(4)
	expect.NoError(t, err)
	expect.EQ(t, a4, 0.673)

	a7, err := calcAlpha(7)
	expect.NoError(t, err)
	want := 0.7213 / (1.0 + 1.079/128.0)
	if math.Abs(a7-want) > 1e-12 {
		t.Fatalf("calcAlpha(7) = %v, want %v", a7, want)
	}
}
