// Package kmer implements the 2-bit k-mer codec and rolling iterator that
// every other package in this module builds on: encoding a DNA substring
// into a 64-bit integer, computing its reverse complement, and picking the
// canonical (min of the two) representative.
package kmer

import (
	"strings"

	"github.com/dib-lab/khmer-sub000/errs"
)

// Encoded is a 2-bit-per-base encoding of a k-mer, up to 32 bases (64 bits).
type Encoded uint64

// MaxK is the largest k-mer length representable in a 64-bit Encoded value.
const MaxK = 32

// base<->2-bit tables. A=00, C=10, G=11, T=01, matching the reference
// implementation's twobit_repr/twobit_comp macros, so that the reverse
// complement of a base is exactly its bitwise complement within 2 bits.
var (
	baseToBits [256]int8
	bitsToBase = [4]byte{'A', 'T', 'C', 'G'}
)

const invalidBase = int8(-1)

func init() {
	for i := range baseToBits {
		baseToBits[i] = invalidBase
	}
	baseToBits['A'], baseToBits['a'] = 0, 0
	baseToBits['C'], baseToBits['c'] = 2, 2
	baseToBits['G'], baseToBits['g'] = 3, 3
	baseToBits['T'], baseToBits['t'] = 1, 1
}

// complementBits returns the 2-bit complement of b (A<->T, C<->G). Under this
// encoding (A=00 T=01 C=10 G=11) those pairs differ only in the low bit, so
// the complement is an XOR with 1, not a subtraction from 3.
func complementBits(b int8) int8 { return b ^ 1 }

// mask returns (1<<(2*k))-1, the bitmask covering a k-mer's encoding.
func mask(k int) Encoded {
	if k >= 32 {
		return ^Encoded(0)
	}
	return (Encoded(1) << uint(2*k)) - 1
}

// ValidK reports whether k is a legal k-mer length (spec: 1 <= k <= 32).
func ValidK(k int) bool { return k >= 1 && k <= MaxK }

// Mask returns the bitmask covering a k-mer's encoding, exported for callers
// (graph) that synthesize candidate neighbor encodings directly rather than
// through Encode.
func Mask(k int) Encoded { return mask(k) }

// ComplementBase returns the 2-bit complement of a single base value
// (0..3), exported for the same reason as Mask.
func ComplementBase(b Encoded) Encoded { return Encoded(complementBits(int8(b))) }

// Encode returns the forward and reverse-complement 2-bit encodings of the
// first k bases of seq. It fails with errs.BadKmer if len(seq) < k, k is out
// of range, or seq contains a non-ACGT base.
func Encode(seq string, k int) (forward, reverse Encoded, err error) {
	if !ValidK(k) {
		return 0, 0, errs.BadKmerf("k=%d out of range [1,%d]", k, MaxK)
	}
	if len(seq) < k {
		return 0, 0, errs.BadKmerf("sequence shorter than k=%d", k)
	}
	// forward places seq[0] at the most-significant end, same as a normal
	// big-endian string encoding. reverse must equal the forward encoding of
	// revcomp(seq), whose first character is complement(seq[k-1]); so as i
	// walks seq left to right, complement(seq[i]) lands at bit position 2*i
	// (least significant first), the mirror image of forward's placement.
	for i := 0; i < k; i++ {
		b := baseToBits[seq[i]]
		if b == invalidBase {
			return 0, 0, errs.BadKmerf("invalid character %q at offset %d", seq[i], i)
		}
		forward = (forward << 2) | Encoded(b)
		reverse |= Encoded(complementBits(b)) << uint(2*i)
	}
	return forward, reverse, nil
}

// Canonical returns the smaller of forward and reverse, per spec: the
// canonical hash of a k-mer equals that of its reverse complement.
func Canonical(forward, reverse Encoded) Encoded {
	if forward < reverse {
		return forward
	}
	return reverse
}

// CanonicalOf is a convenience wrapper around Encode+Canonical.
func CanonicalOf(seq string, k int) (Encoded, error) {
	f, r, err := Encode(seq, k)
	if err != nil {
		return 0, err
	}
	return Canonical(f, r), nil
}

// Decode returns the forward-strand string corresponding to encoding h
// interpreted as a k-mer (the smallest of a canonical pair, by convention,
// but Decode makes no claim about canonicality of its input).
func Decode(h Encoded, k int) string {
	if !ValidK(k) {
		return ""
	}
	var sb strings.Builder
	sb.Grow(k)
	buf := make([]byte, k)
	v := h & mask(k)
	for i := k - 1; i >= 0; i-- {
		buf[i] = bitsToBase[v&3]
		v >>= 2
	}
	sb.Write(buf)
	return sb.String()
}

// ReverseComplementString returns the reverse complement of seq as a string,
// for callers (hll) that need the textual form rather than a 2-bit encoding.
// Fails with errs.BadKmer on a non-ACGT base, matching Encode's error.
func ReverseComplementString(seq string) (string, error) {
	buf := make([]byte, len(seq))
	n := len(seq)
	for i := 0; i < n; i++ {
		b := baseToBits[seq[i]]
		if b == invalidBase {
			return "", errs.BadKmerf("invalid character %q at offset %d", seq[i], i)
		}
		buf[n-1-i] = bitsToBase[complementBits(b)]
	}
	return string(buf), nil
}

// Normalize uppercases seq and reports whether every byte is a valid ACGT
// base (case-insensitively). Callers that accept arbitrary input should
// Normalize before calling Encode/NewIterator to get a clean BadKmer error
// rather than relying on per-base checks downstream.
func Normalize(seq string) (string, bool) {
	buf := []byte(seq)
	ok := true
	for i, c := range buf {
		if baseToBits[c] == invalidBase {
			ok = false
			continue
		}
		buf[i] = strings.ToUpper(string(c))[0]
	}
	return string(buf), ok
}
