package tasks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grantiv/internal/models"
	"grantiv/internal/pipeline"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func TestAggregate_Empty(t *testing.T) {
	stats := Aggregate(nil, now)
	assert.Equal(t, 0, stats.TotalCount)
	assert.Equal(t, 0, stats.CompletedCount)
	assert.Equal(t, 0.0, stats.ProgressPercentage)
	assert.Empty(t, stats.Flags)
	assert.Empty(t, stats.OverdueIDs())
}

func TestAggregate_MixedScenario(t *testing.T) {
	list := []models.Task{
		{ID: "done", Completed: true},
		{ID: "late", Deadline: now.Add(-24 * time.Hour).Format(time.RFC3339)},
		{ID: "soon", Deadline: now.Add(24 * time.Hour).Format(time.RFC3339)},
	}

	stats := Aggregate(list, now)
	assert.Equal(t, 1, stats.CompletedCount)
	assert.Equal(t, 3, stats.TotalCount)
	assert.InDelta(t, 33.33, stats.ProgressPercentage, 0.01)
	assert.Equal(t, []string{"late"}, stats.OverdueIDs())
	assert.Equal(t, 1, stats.OverdueCount)

	require.Len(t, stats.Flags, 3)
	assert.False(t, stats.Flags[0].IsOverdue)
	assert.True(t, stats.Flags[1].IsOverdue)
	assert.False(t, stats.Flags[2].IsOverdue)
	assert.True(t, stats.Flags[2].IsUrgent)
	assert.Equal(t, 1, stats.UrgentCount)
}

func TestAggregate_CompletedNeverOverdue(t *testing.T) {
	deadlines := []string{"", "garbage", "2000-01-01", now.Add(-time.Hour).Format(time.RFC3339), now.Add(time.Hour).Format(time.RFC3339)}
	for _, d := range deadlines {
		task := models.Task{ID: "t", Completed: true, Deadline: d}
		assert.False(t, IsOverdue(task, now), "deadline %q", d)
		assert.False(t, IsUrgent(task, now, DefaultUrgentWindow), "deadline %q", d)
	}
}

func TestAggregate_MalformedDeadlineIsNotOverdue(t *testing.T) {
	list := []models.Task{
		{ID: "a", Deadline: "not a date"},
		{ID: "b", Deadline: "31/02/2020"},
	}
	var stats Stats
	require.NotPanics(t, func() { stats = Aggregate(list, now) })
	assert.Empty(t, stats.OverdueIDs())
	assert.Equal(t, 0.0, stats.ProgressPercentage)
}

func TestAggregate_ProgressBounds(t *testing.T) {
	for n := 0; n <= 5; n++ {
		for done := 0; done <= n; done++ {
			list := make([]models.Task, n)
			for i := 0; i < done; i++ {
				list[i].Completed = true
			}
			stats := Aggregate(list, now)
			assert.GreaterOrEqual(t, stats.ProgressPercentage, 0.0)
			assert.LessOrEqual(t, stats.ProgressPercentage, 100.0)
		}
	}
}

func TestAggregate_DoesNotMutateInput(t *testing.T) {
	list := []models.Task{{ID: "a", Deadline: "2020-01-01"}, {ID: "b", Completed: true}}
	snapshot := append([]models.Task(nil), list...)
	Aggregate(list, now)
	assert.Equal(t, snapshot, list)
}

func TestParseDeadline(t *testing.T) {
	tests := []struct {
		raw string
		ok  bool
	}{
		{"2026-03-11", true},
		{"2026-03-11T09:30:00Z", true},
		{"2026-03-11T09:30:00.123+02:00", true},
		{"2026-03-11 09:30:00", true},
		{"", false},
		{"tomorrow", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			_, ok := ParseDeadline(tt.raw)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestDedupe_LastWins(t *testing.T) {
	list := []models.Task{
		{ID: "a", Description: "first"},
		{ID: "b"},
		{ID: "a", Description: "second", Completed: true},
		{Description: "no id"},
	}
	got := Dedupe(list)
	require.Len(t, got, 3)
	assert.Equal(t, "second", got[0].Description)
	assert.True(t, got[0].Completed)
	assert.Equal(t, "b", got[1].ID)
	assert.Equal(t, "no id", got[2].Description)
}

func TestGroupByGrant(t *testing.T) {
	groups := GroupByGrant([]models.Task{
		{ID: "1", GrantID: "g1"},
		{ID: "2"},
		{ID: "3", GrantID: "g1"},
	})
	assert.Len(t, groups["g1"], 2)
	assert.Len(t, groups[""], 1)
}

func TestDashboard(t *testing.T) {
	apps := []models.GrantApplication{
		{ID: "a1", Title: "Arts", Status: pipeline.StatusDrafting, Deadline: now.Add(48 * time.Hour).Format(time.RFC3339)},
		{ID: "a2", Title: "Science", Status: pipeline.StatusInReview, Deadline: now.Add(24 * time.Hour).Format(time.RFC3339)},
		{ID: "a3", Title: "Heritage", Status: pipeline.StatusAwarded, Amount: 5000},
		{ID: "a4", Title: "Parks", Status: pipeline.StatusRejected, Amount: 900},
		{ID: "a5", Title: "Broken", Status: pipeline.Status("LOST")},
		{ID: "a6", Title: "Far", Status: pipeline.StatusSubmitted, Deadline: now.Add(30 * 24 * time.Hour).Format(time.RFC3339)},
	}
	list := []models.Task{{ID: "t1", GrantID: "a1", Completed: true}, {ID: "t2", GrantID: "a2"}}

	stats := Dashboard(apps, list, now)
	assert.Equal(t, 6, stats.TotalApplications)
	assert.Equal(t, 3, stats.ActiveApplications)
	assert.Equal(t, 1, stats.InvalidStatuses)
	assert.Equal(t, 5000.0, stats.AwardedAmount)
	assert.Equal(t, 1, stats.ByStatus[pipeline.StatusRejected.Wire()])
	assert.InDelta(t, 50.0, stats.Tasks.ProgressPercentage, 0.001)

	require.Len(t, stats.UpcomingDeadlines, 2)
	assert.Equal(t, "a2", stats.UpcomingDeadlines[0].ApplicationID)
	assert.Equal(t, "a1", stats.UpcomingDeadlines[1].ApplicationID)
	assert.Equal(t, 2, stats.UpcomingDeadlines[1].DaysLeft)
}
