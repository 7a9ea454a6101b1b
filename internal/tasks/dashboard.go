package tasks

import (
	"sort"
	"time"

	"grantiv/internal/models"
	"grantiv/internal/pipeline"
)

// DefaultDeadlineWindow bounds which application deadlines show up as upcoming.
const DefaultDeadlineWindow = 7 * 24 * time.Hour

// Upcoming is an application whose deadline falls inside the window.
type Upcoming struct {
	ApplicationID string    `json:"application_id"`
	Title         string    `json:"title"`
	Deadline      time.Time `json:"deadline"`
	DaysLeft      int       `json:"days_left"`
}

// DashboardStats summarizes every tracked application of an organization.
// ByStatus is keyed by the wire form of the status.
type DashboardStats struct {
	TotalApplications  int            `json:"total_applications"`
	ActiveApplications int            `json:"active_applications"`
	ByStatus           map[string]int `json:"by_status"`
	InvalidStatuses    int            `json:"invalid_statuses"`
	AwardedAmount      float64        `json:"awarded_amount"`
	Tasks              Stats          `json:"tasks"`
	UpcomingDeadlines  []Upcoming     `json:"upcoming_deadlines"`
}

// Dashboard aggregates applications and their tasks as of now.
func Dashboard(apps []models.GrantApplication, list []models.Task, now time.Time) DashboardStats {
	stats := DashboardStats{
		TotalApplications: len(apps),
		ByStatus:          make(map[string]int),
		Tasks:             Aggregate(list, now),
		UpcomingDeadlines: []Upcoming{},
	}

	for _, app := range apps {
		if !app.Status.IsValid() {
			stats.InvalidStatuses++
			continue
		}
		stats.ByStatus[app.Status.Wire()]++
		if !app.Status.IsTerminal() {
			stats.ActiveApplications++
		}
		if app.Status == pipeline.StatusAwarded || app.Status == pipeline.StatusApproved {
			stats.AwardedAmount += app.Amount
		}

		if app.Status.IsTerminal() {
			continue
		}
		deadline, ok := ParseDeadline(app.Deadline)
		if !ok || deadline.Before(now) || deadline.Sub(now) > DefaultDeadlineWindow {
			continue
		}
		stats.UpcomingDeadlines = append(stats.UpcomingDeadlines, Upcoming{
			ApplicationID: app.ID,
			Title:         app.Title,
			Deadline:      deadline,
			DaysLeft:      int(deadline.Sub(now).Hours() / 24),
		})
	}

	sort.SliceStable(stats.UpcomingDeadlines, func(i, j int) bool {
		return stats.UpcomingDeadlines[i].Deadline.Before(stats.UpcomingDeadlines[j].Deadline)
	})
	return stats
}
