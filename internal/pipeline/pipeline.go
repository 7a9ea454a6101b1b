package pipeline

import (
	"fmt"
	"strings"
)

// StepCount is the number of visual stages in the pipeline.
const StepCount = 4

// Pipeline steps, 1-based.
const (
	StepDrafting  = 1
	StepSubmitted = 2
	StepInReview  = 3
	StepOutcome   = 4
)

// Severity selects the color a step is rendered with.
type Severity string

const (
	SeverityPrimary Severity = "primary"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Descriptor is the render-time view of an application's status.
type Descriptor struct {
	Step               int      `json:"step"`
	IsTerminalFailure  bool     `json:"is_terminal_failure"`
	ProgressPercentage float64  `json:"progress_percentage"`
	Severity           Severity `json:"severity"`
}

var stepLabels = [StepCount]string{"Drafting", "Submitted", "In Review", "Outcome"}

// StepLabels returns the human-facing step labels in order.
func StepLabels() []string {
	return stepLabels[:]
}

// StepLabel returns the label for a 1-based step, or "" when out of range.
func StepLabel(step int) string {
	if step < 1 || step > StepCount {
		return ""
	}
	return stepLabels[step-1]
}

// Describe maps a status to its pipeline step, severity and progress.
func Describe(s Status) (Descriptor, error) {
	var d Descriptor
	switch s {
	case StatusDrafting:
		d.Step = StepDrafting
	case StatusSubmitted:
		d.Step = StepSubmitted
	case StatusInReview:
		d.Step = StepInReview
	case StatusApproved, StatusAwarded, StatusRejected:
		d.Step = StepOutcome
	default:
		return Descriptor{}, fmt.Errorf("%w: %q", ErrInvalidStatus, string(s))
	}

	d.IsTerminalFailure = s == StatusRejected
	d.ProgressPercentage = float64(d.Step) / StepCount * 100

	switch {
	case d.IsTerminalFailure:
		d.Severity = SeverityError
	case d.Step == StepOutcome:
		d.Severity = SeveritySuccess
	default:
		d.Severity = SeverityPrimary
	}
	return d, nil
}

// DefaultStatusForStep returns the status a click on the labelled step
// proposes. The outcome step proposes AWARDED; callers are expected to
// confirm it before committing.
func DefaultStatusForStep(label string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "drafting":
		return StatusDrafting, nil
	case "submitted":
		return StatusSubmitted, nil
	case "in review", "in_review", "review":
		return StatusInReview, nil
	case "outcome":
		return StatusAwarded, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStep, label)
	}
}
