package label

import (
	"io"
	"testing"

	"github.com/dib-lab/khmer-sub000/kmer"
	"github.com/grailbio/testutil/expect"
)

func TestLinkTagAndLabelBothDirections(t *testing.T) {
	ls := New(4)
	tag, err := kmer.CanonicalOf("ACGT", 4)
	expect.NoError(t, err)
	id := ls.NewLabel()

	ls.LinkTagAndLabel(tag, id)

	labels := ls.GetTagLabels(tag)
	expect.EQ(t, len(labels), 1)
	expect.EQ(t, labels[0], id)

	tags := ls.GetLabelTags(id)
	expect.EQ(t, len(tags), 1)
	expect.EQ(t, tags[0], tag)
}

func TestLinkTagAndLabelMultipleLabelsPerTag(t *testing.T) {
	ls := New(4)
	tag, err := kmer.CanonicalOf("ACGT", 4)
	expect.NoError(t, err)
	a := ls.NewLabel()
	b := ls.NewLabel()

	ls.LinkTagAndLabel(tag, a)
	ls.LinkTagAndLabel(tag, b)

	labels := ls.GetTagLabels(tag)
	expect.EQ(t, len(labels), 2)
}

func TestLinkTagAndLabelUnknownLabelPanics(t *testing.T) {
	ls := New(4)
	tag, err := kmer.CanonicalOf("ACGT", 4)
	expect.NoError(t, err)

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected LinkTagAndLabel to panic on an unknown label")
		}
	}()
	ls.LinkTagAndLabel(tag, ID(999))
}

func TestConsumeAndTagWithLabel(t *testing.T) {
	ls := New(4)
	a, err := kmer.CanonicalOf("ACGT", 4)
	expect.NoError(t, err)
	b, err := kmer.CanonicalOf("TTTT", 4)
	expect.NoError(t, err)
	id := ls.NewLabel()

	ls.ConsumeAndTagWithLabel(map[kmer.Encoded]struct{}{a: {}, b: {}}, id)

	expect.EQ(t, len(ls.GetLabelTags(id)), 2)
}

func TestLabelsTouchingPartitionTags(t *testing.T) {
	ls := New(4)
	a, err := kmer.CanonicalOf("ACGT", 4)
	expect.NoError(t, err)
	b, err := kmer.CanonicalOf("TTTT", 4)
	expect.NoError(t, err)
	c, err := kmer.CanonicalOf("GGGG", 4)
	expect.NoError(t, err)

	idA := ls.NewLabel()
	idB := ls.NewLabel()
	ls.LinkTagAndLabel(a, idA)
	ls.LinkTagAndLabel(b, idB)
	ls.LinkTagAndLabel(c, idB)

	touching := ls.LabelsTouchingPartitionTags(map[kmer.Encoded]struct{}{a: {}, b: {}})
	expect.EQ(t, len(touching), 2)
	_, hasA := touching[idA]
	_, hasB := touching[idB]
	expect.True(t, hasA)
	expect.True(t, hasB)

	notTouching := ls.LabelsTouchingPartitionTags(map[kmer.Encoded]struct{}{c: {}})
	expect.EQ(t, len(notTouching), 1)
	_, hasBOnly := notTouching[idB]
	expect.True(t, hasBOnly)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ls := New(4)
	a, err := kmer.CanonicalOf("ACGT", 4)
	expect.NoError(t, err)
	b, err := kmer.CanonicalOf("TTTT", 4)
	expect.NoError(t, err)
	id := ls.NewLabel()
	ls.LinkTagAndLabel(a, id)
	ls.LinkTagAndLabel(b, id)

	var buf fakeBuffer
	expect.NoError(t, ls.Save(&buf))

	dst := New(4)
	expect.NoError(t, dst.Load(&buf))

	expect.EQ(t, len(dst.GetLabelTags(id)), 2)
	labelsOfA := dst.GetTagLabels(a)
	expect.EQ(t, len(labelsOfA), 1)
	expect.EQ(t, labelsOfA[0], id)
}

func TestLoadRejectsMismatchedKSize(t *testing.T) {
	src := New(4)
	a, err := kmer.CanonicalOf("ACGT", 4)
	expect.NoError(t, err)
	id := src.NewLabel()
	src.LinkTagAndLabel(a, id)

	var buf fakeBuffer
	expect.NoError(t, src.Save(&buf))

	dst := New(5)
	err = dst.Load(&buf)
	if err == nil {
		t.Fatalf("expected an error loading a k=4 label set into a k=5 LabelSet")
	}
}

type fakeBuffer struct {
	data []byte
	pos  int
}

func (b *fakeBuffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

func (b *fakeBuffer) Read(p []byte) (int, error) {
	if b.pos >= len(b.data) {
		return 0, io.EOF
	}
	n := copy(p, b.data[b.pos:])
	b.pos += n
	return n, nil
}
