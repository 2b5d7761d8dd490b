package starboard

import "github.com/starboardbot/starboard/models"

// Decision is the outcome of evaluating a star count against the
// configured threshold and the entry's prior state
type Decision int

const (
	// DecisionIgnore means nothing has to happen
	DecisionIgnore Decision = iota
	// DecisionPromote means a new mirror has to be posted
	DecisionPromote
	// DecisionUpdate means the existing mirror has to be edited
	DecisionUpdate
	// DecisionRetract means the existing mirror has to be taken down
	DecisionRetract
)

func (d Decision) String() string {
	switch d {
	case DecisionIgnore:
		return "ignore"
	case DecisionPromote:
		return "promote"
	case DecisionUpdate:
		return "update"
	case DecisionRetract:
		return "retract"
	}
	return "unknown"
}

// Evaluate is the full decision table. It is pure: the same inputs
// always yield the same decision.
//
// Messages at or above the threshold get promoted when no mirror is
// live (including retracted entries, which revive) and updated when one
// is — unless the count equals the one already rendered on the mirror
// (priorCount), in which case there is nothing to do and replayed
// events converge without touching the platform. Messages below the
// threshold get retracted when a mirror is live and ignored otherwise.
// Crossing the threshold repeatedly promotes and retracts each time,
// there is no hysteresis.
//
// priorCount is only consulted for active entries; callers pass the
// entry's last rendered star count.
func Evaluate(count int, minimum int, prior models.StarboardEntryState, priorCount int) Decision {
	if count >= minimum {
		if prior == models.StarboardEntryStateActive {
			if count == priorCount {
				return DecisionIgnore
			}
			return DecisionUpdate
		}
		return DecisionPromote
	}

	if prior == models.StarboardEntryStateActive {
		return DecisionRetract
	}
	return DecisionIgnore
}
