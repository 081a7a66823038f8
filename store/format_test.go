package store

import (
	"bytes"
	"testing"

	"github.com/grailbio/testutil/expect"
)

func TestHeaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	expect.NoError(t, WriteHeader(&buf, KindPresence))
	kind, err := ReadHeader(&buf)
	expect.NoError(t, err)
	expect.EQ(t, kind, KindPresence)
}

func TestHeaderRejectsBadMagic(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("XXXX")
	buf.WriteByte(FormatVersion)
	buf.WriteByte(byte(KindTags))
	_, err := ReadHeader(&buf)
	if err == nil {
		t.Fatal("expected error for bad magic")
	}
}

func TestHeaderRejectsBadVersion(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(Magic)
	buf.WriteByte(99)
	buf.WriteByte(byte(KindTags))
	_, err := ReadHeader(&buf)
	if err == nil {
		t.Fatal("expected error for bad version")
	}
}

func TestHeaderTruncated(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("OX")
	_, err := ReadHeader(&buf)
	if err == nil {
		t.Fatal("expected truncated-input error")
	}
}

func TestPrimitiveRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	expect.NoError(t, WriteU64(&buf, 0xdeadbeefcafebabe))
	expect.NoError(t, WriteU32(&buf, 0x12345678))
	expect.NoError(t, WriteU16(&buf, 0xabcd))
	expect.NoError(t, WriteU8(&buf, 0x42))

	u64, err := ReadU64(&buf)
	expect.NoError(t, err)
	expect.EQ(t, u64, uint64(0xdeadbeefcafebabe))

	u32, err := ReadU32(&buf)
	expect.NoError(t, err)
	expect.EQ(t, u32, uint32(0x12345678))

	u16, err := ReadU16(&buf)
	expect.NoError(t, err)
	expect.EQ(t, u16, uint16(0xabcd))

	u8, err := ReadU8(&buf)
	expect.NoError(t, err)
	expect.EQ(t, u8, uint8(0x42))
}

func TestRequireKindMismatch(t *testing.T) {
	var buf bytes.Buffer
	expect.NoError(t, WriteHeader(&buf, KindSubset))
	err := RequireKind(&buf, KindLabels)
	if err == nil {
		t.Fatal("expected kind-mismatch error")
	}
}
