package sketch

import (
	"io"
	"sync/atomic"

	"github.com/dib-lab/khmer-sub000/errs"
	"github.com/dib-lab/khmer-sub000/store"
)

// Save writes the presence sketch in the format of spec §6.1: common
// header, ksize, n_tables, n_unique_kmers, then each table's raw bits.
func (p *Presence) Save(w io.Writer) error {
	if err := store.WriteHeader(w, store.KindPresence); err != nil {
		return err
	}
	if err := store.WriteU32(w, uint32(p.k)); err != nil {
		return err
	}
	if err := store.WriteU32(w, uint32(len(p.sizes))); err != nil {
		return err
	}
	if err := store.WriteU64(w, p.nUniqueKmers); err != nil {
		return err
	}
	for i, sz := range p.sizes {
		if err := store.WriteU64(w, sz); err != nil {
			return err
		}
		nBytes := (sz + 7) / 8
		if err := writeBits(w, p.words[i], nBytes); err != nil {
			return err
		}
	}
	return nil
}

// LoadPresence reads a presence sketch previously written by Save. It fails
// with a BadFileFormat error if the header's kind does not match.
func LoadPresence(r io.Reader) (*Presence, error) {
	if err := store.RequireKind(r, store.KindPresence); err != nil {
		return nil, err
	}
	k32, err := store.ReadU32(r)
	if err != nil {
		return nil, err
	}
	nTables, err := store.ReadU32(r)
	if err != nil {
		return nil, err
	}
	nUnique, err := store.ReadU64(r)
	if err != nil {
		return nil, err
	}
	sizes := make([]uint64, nTables)
	words := make([][]uint64, nTables)
	for i := range sizes {
		sz, err := store.ReadU64(r)
		if err != nil {
			return nil, err
		}
		sizes[i] = sz
		nBytes := (sz + 7) / 8
		w, err := readBits(r, nBytes)
		if err != nil {
			return nil, err
		}
		words[i] = w
	}
	ts, err := newTableSet(int(k32), sizes)
	if err != nil {
		return nil, err
	}
	return &Presence{tableSet: ts, words: words, nUniqueKmers: nUnique}, nil
}

// Save writes the counting sketch: header, ksize, use_bigcount, n_tables,
// n_unique_kmers, each table's raw bytes, then the overflow section.
func (c *Counting) Save(w io.Writer) error {
	if err := store.WriteHeader(w, store.KindCounting); err != nil {
		return err
	}
	if err := store.WriteU32(w, uint32(c.k)); err != nil {
		return err
	}
	bigcount := uint8(0)
	if c.useBigcount {
		bigcount = 1
	}
	if err := store.WriteU8(w, bigcount); err != nil {
		return err
	}
	if err := store.WriteU32(w, uint32(len(c.sizes))); err != nil {
		return err
	}
	if err := store.WriteU64(w, atomic.LoadUint64(&c.nUniqueKmers)); err != nil {
		return err
	}
	for i, sz := range c.sizes {
		if err := store.WriteU64(w, sz); err != nil {
			return err
		}
		for _, v := range c.tables[i] {
			if err := store.WriteU8(w, byte(v)); err != nil {
				return err
			}
		}
	}
	if c.useBigcount {
		if err := store.WriteU64(w, uint64(c.overflow.len())); err != nil {
			return err
		}
		var writeErr error
		c.overflow.each(func(h uint64, count uint16) {
			if writeErr != nil {
				return
			}
			if err := store.WriteU64(w, h); err != nil {
				writeErr = err
				return
			}
			writeErr = store.WriteU16(w, count)
		})
		if writeErr != nil {
			return writeErr
		}
	} else {
		if err := store.WriteU64(w, 0); err != nil {
			return err
		}
	}
	return nil
}

// LoadCounting reads a counting sketch previously written by Save.
func LoadCounting(r io.Reader) (*Counting, error) {
	if err := store.RequireKind(r, store.KindCounting); err != nil {
		return nil, err
	}
	k32, err := store.ReadU32(r)
	if err != nil {
		return nil, err
	}
	bigcount, err := store.ReadU8(r)
	if err != nil {
		return nil, err
	}
	nTables, err := store.ReadU32(r)
	if err != nil {
		return nil, err
	}
	nUnique, err := store.ReadU64(r)
	if err != nil {
		return nil, err
	}
	sizes := make([]uint64, nTables)
	tables := make([][]uint32, nTables)
	for i := range sizes {
		sz, err := store.ReadU64(r)
		if err != nil {
			return nil, err
		}
		sizes[i] = sz
		tbl := make([]uint32, sz)
		for j := range tbl {
			b, err := store.ReadU8(r)
			if err != nil {
				return nil, err
			}
			tbl[j] = uint32(b)
		}
		tables[i] = tbl
	}
	nBigcount, err := store.ReadU64(r)
	if err != nil {
		return nil, err
	}
	ts, err := newTableSet(int(k32), sizes)
	if err != nil {
		return nil, err
	}
	c := &Counting{
		tableSet:     ts,
		tables:       tables,
		useBigcount:  bigcount != 0,
		nUniqueKmers: nUnique,
	}
	if c.useBigcount {
		c.overflow = newOverflowMap()
	}
	for i := uint64(0); i < nBigcount; i++ {
		h, err := store.ReadU64(r)
		if err != nil {
			return nil, err
		}
		cnt, err := store.ReadU16(r)
		if err != nil {
			return nil, err
		}
		if c.overflow == nil {
			// A file may carry overflow entries even if this load disables
			// bigcount support; keep them so GetCount stays exact.
			c.overflow = newOverflowMap()
			c.useBigcount = true
		}
		c.overflow.m[h] = cnt
	}
	return c, nil
}

func writeBits(w io.Writer, words []uint64, nBytes uint64) error {
	buf := make([]byte, 0, 8)
	var written uint64
	for _, word := range words {
		buf = buf[:0]
		for b := 0; b < 8 && written < nBytes; b++ {
			buf = append(buf, byte(word>>(8*b)))
			written++
		}
		if len(buf) > 0 {
			if _, err := w.Write(buf); err != nil {
				return errs.FileErrorf(err, "sketch: write bits")
			}
		}
	}
	return nil
}

func readBits(r io.Reader, nBytes uint64) ([]uint64, error) {
	nWords := (nBytes + 7) / 8
	words := make([]uint64, nWords)
	remaining := nBytes
	buf := make([]byte, 8)
	for i := range words {
		n := 8
		if remaining < 8 {
			n = int(remaining)
		}
		for j := n; j < 8; j++ {
			buf[j] = 0
		}
		if _, err := io.ReadFull(r, buf[:n]); err != nil {
			return nil, errs.TruncatedInputf("sketch: read bits: %v", err)
		}
		var v uint64
		for j := 0; j < 8; j++ {
			v |= uint64(buf[j]) << (8 * j)
		}
		words[i] = v
		remaining -= uint64(n)
	}
	return words, nil
}
