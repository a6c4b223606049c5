package halloffame

import "time"

// Action is the outcome of evaluating one message against its record.
type Action int

const (
	// ActionIgnore means no side effect for this message.
	ActionIgnore Action = iota
	// ActionPost creates the mirror post and the record.
	ActionPost
	// ActionUpdate refreshes the stored count and the mirror display.
	ActionUpdate
	// ActionHide strips the mirror down to a placeholder; the record stays.
	ActionHide
)

func (a Action) String() string {
	switch a {
	case ActionPost:
		return "post"
	case ActionUpdate:
		return "update"
	case ActionHide:
		return "hide"
	default:
		return "ignore"
	}
}

// borderlineMargin is how far below the threshold a sweep still reaches
// to proactively hide a recorded message. Entries further below were
// already hidden by the reaction event that dropped them, so re-editing
// them on every sweep would be wasted writes.
const borderlineMargin = 3

// EvalInput is a snapshot of everything the eligibility decision needs.
type EvalInput struct {
	Count              int
	Threshold          int
	HasRecord          bool
	MessageAge         time.Duration
	DueDays            int
	Sweeping           bool
	HideBelowThreshold bool
}

// Evaluate decides what to do with one message. It is a pure function;
// the decision is terminal for this invocation and recomputed from
// scratch on the next event or sweep visit.
func Evaluate(in EvalInput) Action {
	if !in.HasRecord {
		if in.Count < in.Threshold {
			return ActionIgnore
		}
		// Messages older than the due date are never resurrected. The
		// guard applies only to unrecorded messages: existing entries
		// keep receiving updates indefinitely.
		if in.DueDays > 0 && in.MessageAge > time.Duration(in.DueDays)*24*time.Hour {
			return ActionIgnore
		}
		return ActionPost
	}

	if in.Count >= in.Threshold {
		return ActionUpdate
	}

	// Below threshold with an existing record.
	if in.Sweeping {
		if in.Count < in.Threshold-borderlineMargin {
			return ActionIgnore
		}
		if in.HideBelowThreshold {
			return ActionHide
		}
		return ActionUpdate
	}
	if in.HideBelowThreshold {
		return ActionHide
	}
	return ActionUpdate
}
