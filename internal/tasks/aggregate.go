// Package tasks derives completion and urgency figures from checklist tasks.
// Everything here is a pure computation over its inputs.
package tasks

import (
	"strings"
	"time"

	"grantiv/internal/models"
)

// DefaultUrgentWindow is how close an open task's deadline must be to count
// as urgent.
const DefaultUrgentWindow = 72 * time.Hour

var deadlineLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDeadline parses a deadline in any of the accepted layouts. The second
// return value is false for empty or malformed input.
func ParseDeadline(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Flag carries the urgency of a single task.
type Flag struct {
	TaskID    string `json:"task_id"`
	IsOverdue bool   `json:"is_overdue"`
	IsUrgent  bool   `json:"is_urgent"`
}

// Stats summarizes a task list.
type Stats struct {
	CompletedCount     int     `json:"completed_count"`
	TotalCount         int     `json:"total_count"`
	ProgressPercentage float64 `json:"progress_percentage"`
	OverdueCount       int     `json:"overdue_count"`
	UrgentCount        int     `json:"urgent_count"`
	Flags              []Flag  `json:"flags"`
}

// OverdueIDs returns the ids of overdue tasks in input order.
func (s Stats) OverdueIDs() []string {
	ids := []string{}
	for _, f := range s.Flags {
		if f.IsOverdue {
			ids = append(ids, f.TaskID)
		}
	}
	return ids
}

// IsOverdue reports whether an open task's deadline has passed.
func IsOverdue(t models.Task, now time.Time) bool {
	if t.Completed {
		return false
	}
	deadline, ok := ParseDeadline(t.Deadline)
	return ok && deadline.Before(now)
}

// IsUrgent reports whether an open task is due within window but not yet overdue.
func IsUrgent(t models.Task, now time.Time, window time.Duration) bool {
	if t.Completed {
		return false
	}
	deadline, ok := ParseDeadline(t.Deadline)
	if !ok || deadline.Before(now) {
		return false
	}
	return deadline.Sub(now) <= window
}

// Aggregate computes Stats for tasks as of now using DefaultUrgentWindow.
func Aggregate(list []models.Task, now time.Time) Stats {
	return AggregateWithWindow(list, now, DefaultUrgentWindow)
}

// AggregateWithWindow is Aggregate with an explicit urgency window.
func AggregateWithWindow(list []models.Task, now time.Time, window time.Duration) Stats {
	stats := Stats{
		TotalCount: len(list),
		Flags:      make([]Flag, 0, len(list)),
	}
	for _, t := range list {
		if t.Completed {
			stats.CompletedCount++
		}
		flag := Flag{
			TaskID:    t.ID,
			IsOverdue: IsOverdue(t, now),
			IsUrgent:  IsUrgent(t, now, window),
		}
		if flag.IsOverdue {
			stats.OverdueCount++
		}
		if flag.IsUrgent {
			stats.UrgentCount++
		}
		stats.Flags = append(stats.Flags, flag)
	}
	if stats.TotalCount > 0 {
		stats.ProgressPercentage = float64(stats.CompletedCount) / float64(stats.TotalCount) * 100
	}
	return stats
}

// Dedupe drops tasks with repeated ids. The last occurrence wins but keeps
// the position of the first one. Tasks without an id are kept as-is.
func Dedupe(list []models.Task) []models.Task {
	index := make(map[string]int, len(list))
	out := make([]models.Task, 0, len(list))
	for _, t := range list {
		if t.ID == "" {
			out = append(out, t)
			continue
		}
		if i, seen := index[t.ID]; seen {
			out[i] = t
			continue
		}
		index[t.ID] = len(out)
		out = append(out, t)
	}
	return out
}

// GroupByGrant splits tasks by owning application. Personal tasks are keyed
// under the empty string.
func GroupByGrant(list []models.Task) map[string][]models.Task {
	groups := make(map[string][]models.Task)
	for _, t := range list {
		groups[t.GrantID] = append(groups[t.GrantID], t)
	}
	return groups
}
