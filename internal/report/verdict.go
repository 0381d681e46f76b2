// Package report classifies evaluated responses and exposes the
// server-authoritative performance summary of a finished session.
package report

// Verdict is the display classification of one event's outcome.
type Verdict int

const (
	Unjudged Verdict = iota
	FullyCorrect
	PartiallyCorrect
	Incorrect
)

// Classify returns the verdict for an event. An unresolved event is always
// Unjudged regardless of the correctness flags.
func Classify(resolved, correctSuspicion, correctAction bool) Verdict {
	if !resolved {
		return Unjudged
	}
	switch {
	case correctSuspicion && correctAction:
		return FullyCorrect
	case correctSuspicion || correctAction:
		return PartiallyCorrect
	default:
		return Incorrect
	}
}

func (v Verdict) String() string {
	switch v {
	case Unjudged:
		return "unjudged"
	case FullyCorrect:
		return "fully-correct"
	case PartiallyCorrect:
		return "partially-correct"
	case Incorrect:
		return "incorrect"
	default:
		return "?"
	}
}

// Label returns a short uppercase tag for list rows.
func (v Verdict) Label() string {
	switch v {
	case FullyCorrect:
		return "CORRECT"
	case PartiallyCorrect:
		return "PARTIAL"
	case Incorrect:
		return "WRONG"
	default:
		return "OPEN"
	}
}
