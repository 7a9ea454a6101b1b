// Package pipeline maps grant application statuses onto the four step
// progress pipeline shown for every tracked application.
package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// Status is the lifecycle state of a grant application.
type Status string

const (
	// StatusDrafting indicates the application is still being written.
	StatusDrafting Status = "DRAFTING"

	// StatusSubmitted indicates the application was sent to the agency.
	StatusSubmitted Status = "SUBMITTED"

	// StatusInReview indicates the agency is reviewing the application.
	StatusInReview Status = "IN_REVIEW"

	// StatusApproved indicates the agency approved the application.
	StatusApproved Status = "APPROVED"

	// StatusAwarded indicates funds were awarded.
	StatusAwarded Status = "AWARDED"

	// StatusRejected indicates the agency declined the application.
	StatusRejected Status = "REJECTED"
)

var (
	// ErrInvalidStatus is returned for values outside the six known statuses.
	ErrInvalidStatus = errors.New("invalid application status")

	// ErrUnknownStep is returned when a step label does not name a pipeline step.
	ErrUnknownStep = errors.New("unknown pipeline step")
)

// ValidStatuses returns all statuses in display order.
func ValidStatuses() []Status {
	return []Status{StatusDrafting, StatusSubmitted, StatusInReview, StatusApproved, StatusAwarded, StatusRejected}
}

// IsValid returns true if the status is a known value.
func (s Status) IsValid() bool {
	for _, valid := range ValidStatuses() {
		if s == valid {
			return true
		}
	}
	return false
}

// IsTerminal returns true for statuses that end the application lifecycle.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusApproved, StatusAwarded, StatusRejected:
		return true
	default:
		return false
	}
}

// Rank returns the display position of the status, or -1 when invalid.
func (s Status) Rank() int {
	for i, valid := range ValidStatuses() {
		if s == valid {
			return i
		}
	}
	return -1
}

// Wire returns the lower-case representation the backend stores and accepts.
func (s Status) Wire() string {
	return strings.ToLower(string(s))
}

func (s Status) String() string {
	return string(s)
}

// ParseStatus normalizes enum form ("IN_REVIEW"), wire form ("in_review") and
// loose human input ("In Review", "in-review") into a Status.
func ParseStatus(raw string) (Status, error) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	status := Status(normalized)
	if !status.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return status, nil
}

// MarshalText encodes the status in wire form. Unknown values pass through
// lower-cased so a bad row can still be listed; Describe reports them.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.Wire()), nil
}

// UnmarshalText accepts any form ParseStatus accepts. Unknown values are
// kept upper-cased rather than failing the whole document; IsValid and
// Describe report them.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		*s = Status(strings.ToUpper(strings.TrimSpace(string(text))))
		return nil
	}
	*s = parsed
	return nil
}
