package source

import "github.com/dib-lab/khmer-sub000/errs"

// Pairer groups a flat stream of Records into RecordPairs by name, per
// spec §6.2: a valid pair shares the name prefix up to the pairing
// suffix, and a record with no recognized suffix at all is itself
// "unpaired" regardless of PairMode.
type Pairer struct {
	next func() (Record, bool, error)
	mode PairMode

	pending      Record
	pendingFirst bool
	havePending  bool
}

// NewPairer wraps next (e.g. FASTQSource.Next) into pair-at-a-time
// iteration under mode.
func NewPairer(next func() (Record, bool, error), mode PairMode) (*Pairer, error) {
	if err := ParsePairMode(mode); err != nil {
		return nil, err
	}
	return &Pairer{next: next, mode: mode}, nil
}

// Next returns the next pair (or lone record, under AllowUnpaired), ok=false
// once the underlying stream is exhausted.
func (p *Pairer) Next() (pair RecordPair, ok bool, err error) {
	for {
		var rec Record
		if p.havePending {
			rec, p.havePending = p.pending, false
		} else {
			rec, ok, err = p.next()
			if err != nil || !ok {
				return RecordPair{}, ok, err
			}
		}

		prefix, isFirst, isSecond := pairPrefix(rec.Name)

		if isFirst {
			nrec, ok2, err2 := p.next()
			if err2 != nil {
				return RecordPair{}, false, err2
			}
			if !ok2 {
				return p.unpaired(rec)
			}
			nprefix, _, nIsSecond := pairPrefix(nrec.Name)
			if nIsSecond && nprefix == prefix {
				return RecordPair{First: rec, Second: nrec, Paired: true}, true, nil
			}
			// The following record didn't complete this pair; stash it
			// and treat rec as unpaired.
			p.pending, p.pendingFirst, p.havePending = nrec, false, true
			return p.unpaired(rec)
		}

		if isSecond {
			// A second-of-pair with no preceding first: treat as unpaired.
			return p.unpaired(rec)
		}

		return p.unpaired(rec)
	}
}

func (p *Pairer) unpaired(rec Record) (RecordPair, bool, error) {
	switch p.mode {
	case IgnoreUnpaired:
		return p.Next()
	case ErrorOnUnpaired:
		return RecordPair{}, false, errs.InvalidPairModef("source: unpaired record %q under ErrorOnUnpaired", rec.Name)
	default: // AllowUnpaired, validated at construction by ParsePairMode
		return RecordPair{First: rec, Paired: false}, true, nil
	}
}
