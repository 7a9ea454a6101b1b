package progress

import "grantiv/internal/pipeline"

// Outcome classifies how a transition request ended.
type Outcome int

const (
	// OutcomeCommitted means the backend accepted the new status.
	OutcomeCommitted Outcome = iota + 1

	// OutcomeRolledBack means the backend refused and the display reverted.
	OutcomeRolledBack

	// OutcomeAwaitingConfirmation means an accept/reject decision is required.
	OutcomeAwaitingConfirmation

	// OutcomeUnchanged means the target equals the displayed status; no call was made.
	OutcomeUnchanged

	// OutcomeRefused means the request was invalid and nothing happened.
	OutcomeRefused
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCommitted:
		return "committed"
	case OutcomeRolledBack:
		return "rolled_back"
	case OutcomeAwaitingConfirmation:
		return "awaiting_confirmation"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeRefused:
		return "refused"
	default:
		return "unknown"
	}
}

// Result is returned by every transition request. Status is what should be
// displayed afterwards; Previous is the status displayed before the request.
type Result struct {
	Outcome  Outcome
	Status   pipeline.Status
	Previous pipeline.Status
	Target   pipeline.Status
	Err      error
}

// Ok reports whether the displayed status is settled without error.
func (r Result) Ok() bool {
	return r.Outcome == OutcomeCommitted || r.Outcome == OutcomeUnchanged
}
