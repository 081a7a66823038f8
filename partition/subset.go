package partition

import "github.com/dib-lab/khmer-sub000/kmer"

// MergeSubset folds src's partition assignments into sp (spec §4.6's
// merge_subset / subset.cc's merge+_merge_other): tags unknown to sp adopt a
// freshly minted partition per distinct source partition seen in this call,
// and tags known to both sides are joined if they disagree. A local
// translation table (source PID -> sp cell) makes this correct even when
// sp's and src's partition ID spaces collide, since the numeric IDs
// themselves are never compared across the two structures.
//
// If stopTags is non-nil, tags in that set are skipped entirely (matching
// _merge_other's "don't merge if it's a stop_tag" guard) — a tag crossed
// off by a prior repartitioning pass should not be allowed to re-link
// partitions that pass just split.
func (sp *SubsetPartition) MergeSubset(src *SubsetPartition, stopTags map[kmer.Encoded]struct{}) {
	translation := make(map[PartitionID]cellIndex)
	for tag, cell := range src.tagCell {
		srcID := src.cellID[src.find(cell)]
		if srcID == 0 {
			continue
		}
		sp.mergeOther(tag, srcID, translation, stopTags)
	}
}

func (sp *SubsetPartition) mergeOther(tag kmer.Encoded, otherID PartitionID, translation map[PartitionID]cellIndex, stopTags map[kmer.Encoded]struct{}) {
	if stopTags != nil {
		if _, stopped := stopTags[tag]; stopped {
			return
		}
	}

	existingCell, known := sp.tagCell[tag]
	if !known {
		if c, ok := translation[otherID]; ok {
			sp.tagCell[tag] = c
			return
		}
		c := sp.newCell()
		sp.setCellID(c, sp.allocateID())
		sp.tagCell[tag] = c
		translation[otherID] = c
		return
	}

	root := sp.find(existingCell)
	existingID := sp.cellID[root]

	mappedCell, ok := translation[otherID]
	if !ok {
		translation[otherID] = root
		return
	}
	mappedRoot := sp.find(mappedCell)
	if existingID == sp.cellID[mappedRoot] {
		return
	}
	survivor := sp.mergeRoots(root, mappedRoot)
	sp.setCellID(survivor, existingID)
	translation[otherID] = survivor
}
