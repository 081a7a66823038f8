// Package source defines the opaque read-source surface of spec §6.2: a
// single-read Record, a PairMode-gated RecordPair, and the name-based
// pairing regexes used to tell first-of-pair reads from second-of-pair
// reads. FASTA/FASTQ text parsing itself stays the external collaborator's
// job (spec.md's explicit Non-goals) — this package only defines the
// shape partition.OutputPartitionedFile and friends are built against, plus
// one concrete adapter (fastq_source.go) over the teacher's
// encoding/fastq.Scanner so that shape has something real to run against.
package source

import (
	"regexp"

	"github.com/dib-lab/khmer-sub000/errs"
)

// Record is one read: a name, its sequence, an optional quality string
// (empty means FASTA, i.e. no quality), and free-form annotation text
// (spec §6.2). FASTQSource fills Annotations with the record's '+'
// separator line; the name line is kept whole in Name.
type Record struct {
	Name        string
	Sequence    string
	Quality     string
	Annotations string
}

// PairMode governs how Pairer.Next reacts to an unpaired read.
type PairMode int

const (
	// AllowUnpaired yields unpaired reads as a RecordPair with only First
	// set.
	AllowUnpaired PairMode = iota
	// IgnoreUnpaired silently drops any read that cannot be paired.
	IgnoreUnpaired
	// ErrorOnUnpaired fails with an InvalidPairMode error (see
	// Pairer.Next) the first time a read cannot be paired.
	ErrorOnUnpaired
)

// firstOfPairRE and secondOfPairRE recognize the Illumina-style read-name
// suffixes spec §6.2 specifies: "/1" or " 1:Y:0:ACGT"-shaped for the first
// read of a pair, the /2 or 2: equivalent for the second.
var (
	firstOfPairRE  = regexp.MustCompile(`(/1| 1:[YN]:\d+:[A-Za-z]+)$`)
	secondOfPairRE = regexp.MustCompile(`(/2| 2:[YN]:\d+:[A-Za-z]+)$`)
)

// pairPrefix strips a recognized pairing suffix from name, returning the
// shared prefix two mates of a pair must agree on, and whether name
// matched at all.
func pairPrefix(name string) (prefix string, isFirst, isSecond bool) {
	if loc := firstOfPairRE.FindStringIndex(name); loc != nil {
		return name[:loc[0]], true, false
	}
	if loc := secondOfPairRE.FindStringIndex(name); loc != nil {
		return name[:loc[0]], false, true
	}
	return name, false, false
}

// RecordPair is a first/second mate pair, or a lone unpaired record when
// Second is the zero Record (only possible under AllowUnpaired).
type RecordPair struct {
	First, Second Record
	Paired        bool
}

// ParsePairMode validates a caller-supplied pair-mode value, per spec §7's
// InvalidPairMode error.
func ParsePairMode(mode PairMode) error {
	switch mode {
	case AllowUnpaired, IgnoreUnpaired, ErrorOnUnpaired:
		return nil
	default:
		return errs.InvalidPairModef("source: unrecognized pair mode %d", mode)
	}
}
