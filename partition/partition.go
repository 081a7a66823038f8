// Package partition implements the tag-based partitioning engine of spec
// §4.6/§4.7: tags are canonical k-mer hashes sprinkled through ingested
// sequences, and tags reachable from one another via a bounded graph
// traversal are joined into the same partition.
//
// Grounded on original_source/lib/subset.hh/.cc's SubsetPartition, but the
// union-find at its core is reimplemented as an arena of integer cells plus
// index indirection (spec.md §9's design note) rather than the reference's
// heap-allocated PartitionID* pointers: cellID/parent/csize are plain
// slices, a cell's "identity" is its index, and path compression plus
// union-by-size keep amortized find/union cost low without manual memory
// management.
package partition

import (
	"sort"

	"github.com/dib-lab/khmer-sub000/graph"
	"github.com/dib-lab/khmer-sub000/kmer"
)

// PartitionID identifies a partition; 0 means "unassigned" throughout this
// package, matching the reference implementation's null-pointer convention.
type PartitionID uint32

// cellIndex is an arena slot: the Go analogue of the reference's
// heap-allocated PartitionID*. A tag's partition membership is determined
// by walking parent[] to the cell's root and reading cellID[root].
type cellIndex int32

const invalidCell cellIndex = -1

// SubsetPartition is one partition map together with its own union-find
// arena, grounded on SubsetPartition in subset.hh. "Subset" because
// do_subset_partition/merge_subset allow building several of these over
// disjoint tag ranges and merging them serially (spec §5's parallelization
// hook); a single instance works fine for the non-parallel case too.
type SubsetPartition struct {
	k          int
	tagDensity int
	nextID     PartitionID

	tagCell map[kmer.Encoded]cellIndex
	idCell  map[PartitionID]cellIndex

	parent []cellIndex
	csize  []uint32
	cellID []PartitionID
}

// New constructs an empty SubsetPartition for k-mer length k, using
// tagDensity as the BFS breadth bound in FindAllTags (2*tagDensity+1, per
// subset.cc's max_breadth).
func New(k, tagDensity int) *SubsetPartition {
	return &SubsetPartition{
		k:          k,
		tagDensity: tagDensity,
		nextID:     1,
		tagCell:    make(map[kmer.Encoded]cellIndex),
		idCell:     make(map[PartitionID]cellIndex),
	}
}

func (sp *SubsetPartition) K() int { return sp.k }

// newCell allocates a fresh singleton cell, unassigned (cellID 0).
func (sp *SubsetPartition) newCell() cellIndex {
	idx := cellIndex(len(sp.parent))
	sp.parent = append(sp.parent, idx)
	sp.csize = append(sp.csize, 1)
	sp.cellID = append(sp.cellID, 0)
	return idx
}

// cellFor returns the cell backing tag, creating a fresh singleton cell the
// first time a tag is seen.
func (sp *SubsetPartition) cellFor(tag kmer.Encoded) cellIndex {
	if c, ok := sp.tagCell[tag]; ok {
		return c
	}
	c := sp.newCell()
	sp.tagCell[tag] = c
	return c
}

// find returns the root of c's tree, path-compressing along the way.
func (sp *SubsetPartition) find(c cellIndex) cellIndex {
	for sp.parent[c] != c {
		sp.parent[c] = sp.parent[sp.parent[c]]
		c = sp.parent[c]
	}
	return c
}

// mergeRoots unions the trees rooted at ra and rb (attaching the smaller to
// the larger, per subset.cc's "choose the smaller of two sets to loop
// over") and returns the surviving root. Callers are responsible for
// deciding and (re)setting the surviving partition ID via setCellID.
func (sp *SubsetPartition) mergeRoots(ra, rb cellIndex) cellIndex {
	if ra == rb {
		return ra
	}
	if sp.csize[ra] < sp.csize[rb] {
		ra, rb = rb, ra
	}
	sp.parent[rb] = ra
	sp.csize[ra] += sp.csize[rb]
	return ra
}

// setCellID records id as root's partition ID and keeps idCell (the reverse
// lookup used by JoinPartitions) pointed at the current root.
func (sp *SubsetPartition) setCellID(root cellIndex, id PartitionID) {
	sp.cellID[root] = id
	sp.idCell[id] = root
}

func (sp *SubsetPartition) allocateID() PartitionID {
	id := sp.nextID
	sp.nextID++
	return id
}

// GetPartitionID returns the partition ID assigned to tag, or 0 if tag is
// unknown or unassigned.
func (sp *SubsetPartition) GetPartitionID(tag kmer.Encoded) PartitionID {
	c, ok := sp.tagCell[tag]
	if !ok {
		return 0
	}
	return sp.cellID[sp.find(c)]
}

// SetPartitionID forcibly assigns tag to partition id, creating a cell for
// tag if necessary (subset.hh's set_partition_id).
func (sp *SubsetPartition) SetPartitionID(tag kmer.Encoded, id PartitionID) {
	root := sp.find(sp.cellFor(tag))
	sp.setCellID(root, id)
	if sp.nextID <= id {
		sp.nextID = id + 1
	}
}

// AssignPartitionID is assign_partition_id from subset.cc: given the k-mer a
// traversal started from and the set of already-known tags it reached
// (FindAllTags's result), joins all of those tags — and the start k-mer
// itself — into one partition, returning its ID. An empty tagged set means
// the traversal found nothing to connect to, so node is unassigned (and
// returns 0) rather than starting a new singleton partition: a node with no
// reachable tags is not itself a tag.
func (sp *SubsetPartition) AssignPartitionID(node kmer.Encoded, tagged map[kmer.Encoded]struct{}) PartitionID {
	if len(tagged) == 0 {
		delete(sp.tagCell, node)
		return 0
	}

	var root cellIndex = invalidCell
	var id PartitionID
	for t := range tagged {
		r := sp.find(sp.cellFor(t))
		if pid := sp.cellID[r]; pid != 0 {
			root, id = r, pid
			break
		}
	}
	if root == invalidCell {
		root = sp.newCell()
		id = sp.allocateID()
		sp.setCellID(root, id)
	}

	for t := range tagged {
		c := sp.find(sp.cellFor(t))
		if c != root && sp.cellID[c] != 0 && sp.csize[c] > sp.csize[root] {
			id = sp.cellID[c]
		}
		root = sp.mergeRoots(root, c)
		sp.setCellID(root, id)
	}
	nodeRoot := sp.mergeRoots(root, sp.find(sp.cellFor(node)))
	sp.setCellID(nodeRoot, id)
	return id
}

// JoinPartitions merges the partitions identified by orig and join,
// returning the surviving ID: whichever of orig and join names the larger
// partition, with ties favoring orig. Returns 0 if orig == 0, join == 0, or
// either ID is unknown.
func (sp *SubsetPartition) JoinPartitions(orig, join PartitionID) PartitionID {
	if orig == join {
		return orig
	}
	if orig == 0 || join == 0 {
		return 0
	}
	ca, ok1 := sp.idCell[orig]
	cb, ok2 := sp.idCell[join]
	if !ok1 || !ok2 {
		return 0
	}
	ra, rb := sp.find(ca), sp.find(cb)
	winner := orig
	if sp.csize[rb] > sp.csize[ra] {
		winner = join
	}
	survivor := sp.mergeRoots(ra, rb)
	sp.setCellID(survivor, winner)
	loser := join
	if winner == join {
		loser = orig
	}
	delete(sp.idCell, loser)
	return winner
}

// FindAllTags runs a bounded BFS from start (spec §4.6), returning the set
// of already-known tags it reaches. breadth is capped at 2*tagDensity+1, as
// in subset.cc's find_all_tags; if stopTags is non-nil the traversal treats
// membership as a barrier.
func (sp *SubsetPartition) FindAllTags(start graph.Node, present graph.Oracle, allTags map[kmer.Encoded]struct{}, stopTags map[kmer.Encoded]struct{}, maxVisited int) (tagged map[kmer.Encoded]struct{}, truncated bool) {
	opts := graph.BFSOptions{
		MaxBreadth: 2*sp.tagDensity + 1,
		MaxVisited: maxVisited,
		StopTags:   stopTags,
	}
	found, _, trunc := graph.FindAllTags(start, sp.k, present, allTags, opts)
	tagged = make(map[kmer.Encoded]struct{}, len(found))
	for c := range found {
		tagged[c] = struct{}{}
	}
	return tagged, trunc
}

// bigTraversalThreshold mirrors subset.cc's BIG_TRAVERSALS_ARE: once a
// traversal's visited set exceeds this many nodes, it is abandoned rather
// than completed (the result is too expensive/too interconnected to be
// useful as a single partition).
const bigTraversalThreshold = 200

// DoPartition walks every tag in allTags (spec §4.6's do_partition),
// assigning each to a partition via FindAllTags+AssignPartitionID.
// firstKmer/lastKmer bound the range of tags visited (0 means unbounded on
// that side); present answers graph membership queries; stopBigTraversals
// aborts (and discards) any traversal exceeding bigTraversalThreshold nodes.
func (sp *SubsetPartition) DoPartition(allTags map[kmer.Encoded]struct{}, present graph.Oracle, firstKmer, lastKmer kmer.Encoded, breakOnStopTags bool, stopTags map[kmer.Encoded]struct{}, stopBigTraversals bool) error {
	keys := sortedTags(allTags)
	for _, t := range keys {
		if firstKmer != 0 && t < firstKmer {
			continue
		}
		if lastKmer != 0 && t > lastKmer {
			break
		}
		start, err := graph.NodeFromForward(t, sp.k)
		if err != nil {
			return err
		}
		var effectiveStopTags map[kmer.Encoded]struct{}
		if breakOnStopTags {
			effectiveStopTags = stopTags
		}
		maxVisited := 0
		if stopBigTraversals {
			maxVisited = bigTraversalThreshold
		}
		tagged, _ := sp.FindAllTags(start, present, allTags, effectiveStopTags, maxVisited)
		sp.AssignPartitionID(t, tagged)
	}
	return nil
}

func sortedTags(tags map[kmer.Encoded]struct{}) []kmer.Encoded {
	out := make([]kmer.Encoded, 0, len(tags))
	for t := range tags {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
