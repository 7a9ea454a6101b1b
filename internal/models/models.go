package models

import (
	"time"

	"grantiv/internal/pipeline"
)

// GrantApplication is a funding opportunity an organization is tracking.
type GrantApplication struct {
	ID         string          `json:"id"`
	OrgID      string          `json:"org_id"`
	Title      string          `json:"title"`
	Agency     string          `json:"agency"`
	Amount     float64         `json:"amount"`
	Deadline   string          `json:"deadline,omitempty"`
	Status     pipeline.Status `json:"status"`
	AssignedTo []string        `json:"assigned_to"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Task is a checklist item. GrantID is empty for personal tasks that do not
// belong to any application.
type Task struct {
	ID          string    `json:"id"`
	OrgID       string    `json:"org_id"`
	GrantID     string    `json:"grant_id,omitempty"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	AssigneeID  string    `json:"assignee_id,omitempty"`
	Deadline    string    `json:"deadline,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
