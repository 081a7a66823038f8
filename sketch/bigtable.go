package sketch

import (
	"unsafe"

	"github.com/grailbio/base/log"
	"golang.org/x/sys/unix"
)

// hugeTableThreshold is the bucket count above which a table is allocated
// via newHugeByteTable instead of a plain make(): below this size the
// mmap/madvise overhead is not worth paying, since the whole point is
// reducing TLB pressure on tables large enough to thrash it.
const hugeTableThreshold = 1 << 24

// hugePageSize is the size of a Linux transparent hugepage, used only to
// round the mmap'd region so the kernel can back it with a THP.
const hugePageSize = 2 << 20

// newHugeByteTable allocates an anonymous, huge-page-advised byte slice of
// at least n bytes, intended for a sketch's largest table (the one most
// likely to thrash the TLB under random bucket access). Grounded on
// fusion/kmer_index.go's initShard, which mmaps its hash table with
// unix.MAP_ANON|unix.MAP_PRIVATE and advises unix.MADV_HUGEPAGE for the same
// reason. Unlike that caller, a failure here is not fatal: MADV_HUGEPAGE is
// a hint, and the mmap itself is an optimization this package can live
// without on platforms where anonymous mmap is unavailable or restricted.
func newHugeByteTable(n int) []byte {
	if n <= 0 {
		return nil
	}
	data, err := unix.Mmap(-1, 0, n+hugePageSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		log.Error.Printf("sketch: mmap(%d bytes) failed, falling back to heap allocation: %v", n, err)
		return make([]byte, n)
	}
	if err := unix.Madvise(data, unix.MADV_HUGEPAGE); err != nil {
		log.Debug.Printf("sketch: madvise(MADV_HUGEPAGE) unavailable: %v", err)
	}
	return data[:n:n]
}

// newCountTable allocates the backing store for one counting-sketch table:
// a huge-page-advised allocation for tables at or above hugeTableThreshold
// buckets, a plain slice otherwise.
func newCountTable(size uint64) []uint32 {
	if size < hugeTableThreshold {
		return make([]uint32, size)
	}
	raw := newHugeByteTable(int(size) * 4)
	return unsafe.Slice((*uint32)(unsafe.Pointer(&raw[0])), size)
}

// newPresenceTable allocates the backing store for one presence-sketch
// table's words, analogous to newCountTable except that hugeTableThreshold
// is compared against the number of 64-bit words, not buckets.
func newPresenceTable(nWords uint64) []uint64 {
	if nWords < hugeTableThreshold {
		return make([]uint64, nWords)
	}
	raw := newHugeByteTable(int(nWords) * 8)
	return unsafe.Slice((*uint64)(unsafe.Pointer(&raw[0])), nWords)
}
