// Package graph implements the implicit de Bruijn graph traversal of spec
// §4.5: a k-mer is a node, and an edge connects two k-mers that overlap by
// k-1 bases and are both present in an underlying k-mer table — the graph
// is never materialized, only walked one overlap-extension at a time.
//
// Grounded on the breadth-bounded BFS shape of
// original_source/lib/subset.cc's find_all_tags (queue of (node, breadth)
// pairs, a "keeper" visited set, early termination on oversized
// traversals), reimplemented with a plain slice-backed queue and a
// map[kmer.Encoded]struct{} visited set instead of find_all_tags's
// std::queue/KmerSet. Neighbor generation itself is grounded on
// kmer.Iterator's rolling bit update (package kmer_hash.hh/kmer.go in the
// corpus), generalized from "the next base read off a sequence" to "every
// one of the 4 possible next bases."
package graph

import "github.com/dib-lab/khmer-sub000/kmer"

// Node identifies a position in the de Bruijn graph together with its
// orientation: the forward and reverse-complement encodings of one k-mer.
// A bare canonical hash is not enough to compute neighbors, since it
// discards which strand the node was reached on.
type Node struct {
	Forward, Reverse kmer.Encoded
}

// Canonical returns the node's strand-independent identity, used as the map
// key for visited sets (spec §4.5: the graph does not distinguish strand).
func (n Node) Canonical() kmer.Encoded { return kmer.Canonical(n.Forward, n.Reverse) }

// NodeFromString builds a Node from the first k bases of seq.
func NodeFromString(seq string, k int) (Node, error) {
	f, r, err := kmer.Encode(seq, k)
	if err != nil {
		return Node{}, err
	}
	return Node{f, r}, nil
}

// NodeFromForward reconstructs a full Node (forward+reverse pair) given only
// a forward-strand encoding, by decoding it to a string and re-encoding.
// Used by callers (partition) that persist a single canonical hash per tag
// and must resume traversal from it without the original orientation.
func NodeFromForward(forward kmer.Encoded, k int) (Node, error) {
	return NodeFromString(kmer.Decode(forward, k), k)
}

// Oracle answers whether a k-mer has actually been observed, i.e. whether
// the corresponding de Bruijn graph node exists at all. Both sketch.Presence
// and sketch.Counting satisfy this (Query returns 0 for "never seen").
type Oracle interface {
	Query(forward, reverse kmer.Encoded) uint64
}

// rightExtensions returns the 4 nodes reachable by appending one base to
// the right of n, regardless of whether they are present in the graph
// (callers filter with an Oracle). Grounded on kmer.Iterator.Next's rolling
// update formula, run once per possible next base instead of once per base
// actually read from a sequence.
func rightExtensions(n Node, k int) [4]Node {
	mask := kmer.Mask(k)
	shift := uint(2 * (k - 1))
	var out [4]Node
	for b := kmer.Encoded(0); b < 4; b++ {
		f := ((n.Forward << 2) | b) & mask
		r := (n.Reverse >> 2) | (kmer.ComplementBase(b) << shift)
		out[b] = Node{f, r}
	}
	return out
}

// leftExtensions returns the 4 nodes reachable by prepending one base to
// the left of n: the mirror image of rightExtensions, built the same way
// but walking the forward/reverse roles in the opposite direction.
func leftExtensions(n Node, k int) [4]Node {
	mask := kmer.Mask(k)
	shift := uint(2 * (k - 1))
	var out [4]Node
	for b := kmer.Encoded(0); b < 4; b++ {
		f := (n.Forward >> 2) | (b << shift)
		r := ((n.Reverse << 2) | kmer.ComplementBase(b)) & mask
		out[b] = Node{f, r}
	}
	return out
}

// Neighbors returns the nodes adjacent to n that present reports as seen,
// at most 8 (4 left + 4 right), per spec §4.5.
func Neighbors(n Node, k int, present Oracle) []Node {
	var out []Node
	for _, cand := range rightExtensions(n, k) {
		if present.Query(cand.Forward, cand.Reverse) != 0 {
			out = append(out, cand)
		}
	}
	for _, cand := range leftExtensions(n, k) {
		if present.Query(cand.Forward, cand.Reverse) != 0 {
			out = append(out, cand)
		}
	}
	return out
}

// BFSOptions bounds a traversal, mirroring find_all_tags's breadth and
// traversal-size caps.
type BFSOptions struct {
	// MaxBreadth caps the BFS depth; 0 means unbounded. Callers doing
	// tag-set discovery pass 2*tagDensity+1, per subset.cc's max_breadth.
	MaxBreadth int
	// MaxVisited aborts the traversal (returning Truncated=true and a
	// cleared result) once more than this many nodes have been visited,
	// mirroring subset.cc's stop_big_traversals/BIG_TRAVERSALS_ARE guard.
	// 0 means unbounded.
	MaxVisited int
	// StopTags, if non-nil, are nodes the traversal must never expand past
	// (break_on_stop_tags in the reference implementation).
	StopTags map[kmer.Encoded]struct{}
}

type bfsItem struct {
	node    Node
	breadth int
}

// FindAllTags walks the graph outward from start, returning every node in
// allTags reachable without crossing another tag first (spec §4.5/§4.6:
// this is how two reads sharing no literal overlap get linked into the same
// partition, via intermediate tags). The start node itself is always
// expanded even if it is itself a member of allTags — only tags found
// *after* the first step terminate that branch of the search, matching
// find_all_tags's `!first` guard.
func FindAllTags(start Node, k int, present Oracle, allTags map[kmer.Encoded]struct{}, opts BFSOptions) (tagged map[kmer.Encoded]Node, visited int, truncated bool) {
	queue := []bfsItem{{start, 0}}
	keeper := make(map[kmer.Encoded]struct{})
	tagged = make(map[kmer.Encoded]Node)
	first := true

	for len(queue) > 0 {
		if opts.MaxVisited > 0 && len(keeper) > opts.MaxVisited {
			return make(map[kmer.Encoded]Node), len(keeper), true
		}
		item := queue[0]
		queue = queue[1:]
		node, breadth := item.node, item.breadth
		c := node.Canonical()

		if _, seen := keeper[c]; seen {
			continue
		}
		if opts.StopTags != nil {
			if _, stopped := opts.StopTags[c]; stopped {
				continue
			}
		}
		keeper[c] = struct{}{}

		if !first {
			if _, isTag := allTags[c]; isTag {
				tagged[c] = node
				continue
			}
		}
		first = false

		if opts.MaxBreadth > 0 && breadth >= opts.MaxBreadth {
			continue
		}
		for _, nb := range rightExtensions(node, k) {
			if present.Query(nb.Forward, nb.Reverse) == 0 {
				continue
			}
			if _, seen := keeper[nb.Canonical()]; !seen {
				queue = append(queue, bfsItem{nb, breadth + 1})
			}
		}
		for _, nb := range leftExtensions(node, k) {
			if present.Query(nb.Forward, nb.Reverse) == 0 {
				continue
			}
			if _, seen := keeper[nb.Canonical()]; !seen {
				queue = append(queue, bfsItem{nb, breadth + 1})
			}
		}
	}
	return tagged, len(keeper), false
}

// BoundedComponent performs a BFS from start out to maxRadius hops (0 means
// unbounded) and at most maxSize nodes (0 means unbounded), returning the
// canonical hashes of every node visited. Grounded on the same traversal
// shape as FindAllTags/ConnectedComponentSize, but returns the visited set
// itself rather than a count or a tag subset: callers like partition's
// repartitioning pass need to inspect abundance at each visited k-mer, not
// just how many there are.
func BoundedComponent(start Node, k int, present Oracle, maxRadius, maxSize int, stopTags map[kmer.Encoded]struct{}) (visited map[kmer.Encoded]struct{}, truncated bool) {
	queue := []bfsItem{{start, 0}}
	keeper := make(map[kmer.Encoded]struct{})

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		node, breadth := item.node, item.breadth
		c := node.Canonical()

		if _, seen := keeper[c]; seen {
			continue
		}
		if stopTags != nil {
			if _, stopped := stopTags[c]; stopped {
				continue
			}
		}
		keeper[c] = struct{}{}
		if maxSize > 0 && len(keeper) > maxSize {
			return keeper, true
		}
		if maxRadius > 0 && breadth >= maxRadius {
			continue
		}
		for _, nb := range rightExtensions(node, k) {
			if present.Query(nb.Forward, nb.Reverse) == 0 {
				continue
			}
			if _, seen := keeper[nb.Canonical()]; !seen {
				queue = append(queue, bfsItem{nb, breadth + 1})
			}
		}
		for _, nb := range leftExtensions(node, k) {
			if present.Query(nb.Forward, nb.Reverse) == 0 {
				continue
			}
			if _, seen := keeper[nb.Canonical()]; !seen {
				queue = append(queue, bfsItem{nb, breadth + 1})
			}
		}
	}
	return keeper, false
}

// ConnectedComponentSize counts the nodes reachable from start without
// crossing a stop tag, stopping early (reporting truncated=true) once more
// than maxSize nodes have been seen. maxSize <= 0 means unbounded. Grounded
// on the reference implementation's calc_connected_graph_size, used to
// decide whether a region of the graph is "too big" before tagging it.
func ConnectedComponentSize(start Node, k int, present Oracle, maxSize int, stopTags map[kmer.Encoded]struct{}) (size int, truncated bool) {
	queue := []Node{start}
	keeper := make(map[kmer.Encoded]struct{})

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		c := node.Canonical()
		if _, seen := keeper[c]; seen {
			continue
		}
		if stopTags != nil {
			if _, stopped := stopTags[c]; stopped {
				continue
			}
		}
		keeper[c] = struct{}{}
		if maxSize > 0 && len(keeper) > maxSize {
			return len(keeper), true
		}
		for _, nb := range Neighbors(node, k, present) {
			if _, seen := keeper[nb.Canonical()]; !seen {
				queue = append(queue, nb)
			}
		}
	}
	return len(keeper), false
}
