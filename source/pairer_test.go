package source

import (
	"testing"

	"github.com/grailbio/testutil/expect"
)

func sliceSource(recs []Record) func() (Record, bool, error) {
	i := 0
	return func() (Record, bool, error) {
		if i >= len(recs) {
			return Record{}, false, nil
		}
		r := recs[i]
		i++
		return r, true, nil
	}
}

func TestParsePairModeRejectsUnknown(t *testing.T) {
	err := ParsePairMode(PairMode(99))
	if err == nil {
		t.Fatalf("expected an error for an unrecognized pair mode")
	}
}

func TestPairerMatchesSlashNotation(t *testing.T) {
	recs := []Record{
		{Name: "read1/1", Sequence: "ACGT"},
		{Name: "read1/2", Sequence: "TTTT"},
	}
	p, err := NewPairer(sliceSource(recs), AllowUnpaired)
	expect.NoError(t, err)

	pair, ok, err := p.Next()
	expect.NoError(t, err)
	expect.True(t, ok)
	expect.True(t, pair.Paired)
	expect.EQ(t, pair.First.Name, "read1/1")
	expect.EQ(t, pair.Second.Name, "read1/2")

	_, ok, err = p.Next()
	expect.NoError(t, err)
	expect.False(t, ok)
}

func TestPairerMatchesIlluminaNotation(t *testing.T) {
	recs := []Record{
		{Name: "readA 1:N:0:ACGTAC", Sequence: "ACGT"},
		{Name: "readA 2:N:0:ACGTAC", Sequence: "TTTT"},
	}
	p, err := NewPairer(sliceSource(recs), AllowUnpaired)
	expect.NoError(t, err)

	pair, ok, err := p.Next()
	expect.NoError(t, err)
	expect.True(t, ok)
	expect.True(t, pair.Paired)
}

func TestPairerAllowUnpairedYieldsLoneRecord(t *testing.T) {
	recs := []Record{
		{Name: "solo", Sequence: "ACGT"},
	}
	p, err := NewPairer(sliceSource(recs), AllowUnpaired)
	expect.NoError(t, err)

	pair, ok, err := p.Next()
	expect.NoError(t, err)
	expect.True(t, ok)
	expect.False(t, pair.Paired)
	expect.EQ(t, pair.First.Name, "solo")
}

func TestPairerIgnoreUnpairedSkipsLoneRecord(t *testing.T) {
	recs := []Record{
		{Name: "solo", Sequence: "ACGT"},
		{Name: "read1/1", Sequence: "ACGT"},
		{Name: "read1/2", Sequence: "TTTT"},
	}
	p, err := NewPairer(sliceSource(recs), IgnoreUnpaired)
	expect.NoError(t, err)

	pair, ok, err := p.Next()
	expect.NoError(t, err)
	expect.True(t, ok)
	expect.True(t, pair.Paired)
	expect.EQ(t, pair.First.Name, "read1/1")
}

func TestPairerErrorOnUnpairedFails(t *testing.T) {
	recs := []Record{
		{Name: "solo", Sequence: "ACGT"},
	}
	p, err := NewPairer(sliceSource(recs), ErrorOnUnpaired)
	expect.NoError(t, err)

	_, _, err = p.Next()
	if err == nil {
		t.Fatalf("expected ErrorOnUnpaired to fail on an unpaired record")
	}
}

func TestPairerMismatchedPrefixTreatsFirstAsUnpaired(t *testing.T) {
	recs := []Record{
		{Name: "readA/1", Sequence: "ACGT"},
		{Name: "readB/2", Sequence: "TTTT"},
	}
	p, err := NewPairer(sliceSource(recs), AllowUnpaired)
	expect.NoError(t, err)

	first, ok, err := p.Next()
	expect.NoError(t, err)
	expect.True(t, ok)
	expect.False(t, first.Paired)
	expect.EQ(t, first.First.Name, "readA/1")

	second, ok, err := p.Next()
	expect.NoError(t, err)
	expect.True(t, ok)
	expect.False(t, second.Paired)
	expect.EQ(t, second.First.Name, "readB/2")
}
