// Package store implements the binary file format shared by every
// persisted structure in this module (sketches, tag sets, stop-tag sets,
// subset partitions, label sets), per spec §6.1: a common "OXLI" header
// followed by a kind-specific body, all little-endian.
package store

import (
	"encoding/binary"
	"io"

	"github.com/dib-lab/khmer-sub000/errs"
)

// Magic is the 4-byte file signature, spelled "OXLI" per spec §6.1 and
// original_source/lib/khmer.hh's SAVED_SIGNATURE.
const Magic = "OXLI"

// FormatVersion is the current on-disk format version (spec §6.1).
const FormatVersion = 4

// Kind identifies the structure a persisted file holds (spec §6.1 table).
type Kind byte

const (
	KindCounting Kind = 1
	KindPresence Kind = 2
	KindTags     Kind = 3
	KindStopTags Kind = 4
	KindSubset   Kind = 5
	KindLabels   Kind = 6
)

func (k Kind) String() string {
	switch k {
	case KindCounting:
		return "counting"
	case KindPresence:
		return "presence"
	case KindTags:
		return "tags"
	case KindStopTags:
		return "stoptags"
	case KindSubset:
		return "subset"
	case KindLabels:
		return "labels"
	default:
		return "unknown"
	}
}

// WriteHeader writes the common "OXLI" / version / kind header.
func WriteHeader(w io.Writer, kind Kind) error {
	var hdr [6]byte
	copy(hdr[0:4], Magic)
	hdr[4] = FormatVersion
	hdr[5] = byte(kind)
	if _, err := w.Write(hdr[:]); err != nil {
		return errs.FileErrorf(err, "store: write header")
	}
	return nil
}

// ReadHeader reads and validates the common header, returning the file's
// declared Kind. It fails with a BadFileFormat error if the magic or
// version do not match, per spec §6.1/§7.
func ReadHeader(r io.Reader) (Kind, error) {
	var hdr [6]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return 0, errs.TruncatedInputf("store: truncated header")
		}
		return 0, errs.FileErrorf(err, "store: read header")
	}
	if string(hdr[0:4]) != Magic {
		return 0, errs.BadFileFormatf("store: bad magic %q, want %q", hdr[0:4], Magic)
	}
	if hdr[4] != FormatVersion {
		return 0, errs.BadFileFormatf("store: unsupported format version %d, want %d", hdr[4], FormatVersion)
	}
	return Kind(hdr[5]), nil
}

// RequireKind reads the header and fails with BadFileFormat unless its kind
// matches want.
func RequireKind(r io.Reader, want Kind) error {
	got, err := ReadHeader(r)
	if err != nil {
		return err
	}
	if got != want {
		return errs.BadFileFormatf("store: file kind %d (%s), want %d (%s)", got, got, want, want)
	}
	return nil
}

// --- little-endian primitive helpers ---

func WriteU32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return wrapFile(err, "write u32")
}

func ReadU32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, wrapTruncated(err, "read u32")
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func WriteU64(w io.Writer, v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return wrapFile(err, "write u64")
}

func ReadU64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, wrapTruncated(err, "read u64")
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func WriteU16(w io.Writer, v uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	_, err := w.Write(b[:])
	return wrapFile(err, "write u16")
}

func ReadU16(r io.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, wrapTruncated(err, "read u16")
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

func WriteU8(w io.Writer, v uint8) error {
	_, err := w.Write([]byte{v})
	return wrapFile(err, "write u8")
}

func ReadU8(r io.Reader) (uint8, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, wrapTruncated(err, "read u8")
	}
	return b[0], nil
}

func wrapFile(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errs.FileErrorf(err, "store: %s", msg)
}

func wrapTruncated(err error, msg string) error {
	if err == nil {
		return nil
	}
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return errs.TruncatedInputf("store: %s", msg)
	}
	return errs.FileErrorf(err, "store: %s", msg)
}
