package partition

import (
	"github.com/dib-lab/khmer-sub000/errs"
	"github.com/dib-lab/khmer-sub000/graph"
	"github.com/dib-lab/khmer-sub000/kmer"
	"github.com/dib-lab/khmer-sub000/sketch"
)

// clearPartition finds every tag assigned to the given partition, erases
// their assignment, and returns the set of tags that were cleared
// (subset.cc's _clear_partition).
func (sp *SubsetPartition) clearPartition(id PartitionID) map[kmer.Encoded]struct{} {
	tags := make(map[kmer.Encoded]struct{})
	for tag, cell := range sp.tagCell {
		if sp.cellID[sp.find(cell)] == id {
			tags[tag] = struct{}{}
		}
	}
	for tag := range tags {
		delete(sp.tagCell, tag)
	}
	delete(sp.idCell, id)
	return tags
}

// largestPartition returns the PartitionID with the most assigned tags.
func (sp *SubsetPartition) largestPartition() (PartitionID, int) {
	counts := make(map[PartitionID]int)
	for _, cell := range sp.tagCell {
		id := sp.cellID[sp.find(cell)]
		if id != 0 {
			counts[id]++
		}
	}
	var biggest PartitionID
	var biggestCount int
	for id, n := range counts {
		if n > biggestCount {
			biggest, biggestCount = id, n
		}
	}
	return biggest, biggestCount
}

// RepartitionLargestPartition implements spec §4.6's
// repartition_largest_partition: it finds the biggest partition, clears its
// tags, and re-derives partitions among them after inserting new stop-tags
// at high-coverage hubs — splitting what was one overgrown, poorly
// resolved partition into several tighter ones.
//
// smallTags and stopTags are owned by the caller and mutated in place:
// smallTags accumulates tags whose local neighborhood never grows past
// threshold (skipped on future calls, mirroring the reference's
// repart_small_tags cache); stopTags gains an entry for every visited
// k-mer whose abundance in counting exceeds frequency. present answers
// graph membership for the BFS traversal.
func (sp *SubsetPartition) RepartitionLargestPartition(allTags map[kmer.Encoded]struct{}, distance, threshold int, frequency uint16, counting *sketch.Counting, present graph.Oracle, smallTags, stopTags map[kmer.Encoded]struct{}) error {
	biggest, _ := sp.largestPartition()
	if biggest == 0 {
		return errs.BadFileFormatf("partition: no partitions to repartition")
	}

	bigtags := sp.clearPartition(biggest)

	for t := range bigtags {
		if _, small := smallTags[t]; small {
			continue
		}
		start, err := graph.NodeFromForward(t, sp.k)
		if err != nil {
			return err
		}
		visited, _ := graph.BoundedComponent(start, sp.k, present, distance, bigTraversalThreshold, nil)

		if len(visited) >= threshold {
			for v := range visited {
				if counting.GetCountHash(uint64(v)) > frequency {
					stopTags[v] = struct{}{}
				} else {
					counting.CountHash(uint64(v))
				}
			}
		} else {
			smallTags[t] = struct{}{}
		}
	}

	return sp.repartitionSubset(bigtags, allTags, stopTags, present)
}

// repartitionSubset re-derives partition assignments for exactly the tags
// in restrictTo (subset.cc's repartition_a_partition): FindAllTags is run
// against the full tag set with break-on-stop-tags enabled (the point of
// the exercise is to let the stop-tags just inserted actually split the
// neighborhood), and its result is filtered down to restrictTo before
// assignment so nothing leaks back into a once-oversized partition via a
// tag outside it.
func (sp *SubsetPartition) repartitionSubset(restrictTo, allTags, stopTags map[kmer.Encoded]struct{}, present graph.Oracle) error {
	for t := range restrictTo {
		start, err := graph.NodeFromForward(t, sp.k)
		if err != nil {
			return err
		}
		tagged, _ := sp.FindAllTags(start, present, allTags, stopTags, 0)
		filtered := make(map[kmer.Encoded]struct{}, len(tagged))
		for tag := range tagged {
			if _, ok := restrictTo[tag]; ok {
				filtered[tag] = struct{}{}
			}
		}
		sp.AssignPartitionID(t, filtered)
	}
	return nil
}
