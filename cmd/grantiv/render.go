package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"grantiv/internal/pipeline"
	"grantiv/internal/tasks"
)

var (
	primaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("81"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("247"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	titleStyle   = lipgloss.NewStyle().Bold(true)
)

func severityStyle(s pipeline.Severity) lipgloss.Style {
	switch s {
	case pipeline.SeveritySuccess:
		return successStyle
	case pipeline.SeverityError:
		return errorStyle
	default:
		return primaryStyle
	}
}

// renderPipeline draws the four steps, filling those reached by status.
func renderPipeline(status pipeline.Status) string {
	d, err := pipeline.Describe(status)
	if err != nil {
		return errorStyle.Render(fmt.Sprintf("unknown status %q", string(status)))
	}

	style := severityStyle(d.Severity)
	parts := make([]string, 0, pipeline.StepCount)
	for i, label := range pipeline.StepLabels() {
		step := i + 1
		switch {
		case step < d.Step:
			parts = append(parts, style.Render("● "+label))
		case step == d.Step:
			if step == pipeline.StepOutcome {
				label = outcomeLabel(status)
			}
			parts = append(parts, style.Bold(true).Render("◉ "+label))
		default:
			parts = append(parts, mutedStyle.Render("○ "+label))
		}
	}
	return strings.Join(parts, mutedStyle.Render(" ─ ")) +
		mutedStyle.Render(fmt.Sprintf("  %3.0f%%", d.ProgressPercentage))
}

func outcomeLabel(status pipeline.Status) string {
	switch status {
	case pipeline.StatusApproved:
		return "Approved"
	case pipeline.StatusAwarded:
		return "Awarded"
	case pipeline.StatusRejected:
		return "Rejected"
	}
	return pipeline.StepLabel(pipeline.StepOutcome)
}

func renderTaskStats(s tasks.Stats) string {
	line := fmt.Sprintf("%d/%d done (%.0f%%)", s.CompletedCount, s.TotalCount, s.ProgressPercentage)
	if s.OverdueCount > 0 {
		line += "  " + errorStyle.Render(fmt.Sprintf("%d overdue", s.OverdueCount))
	}
	if s.UrgentCount > 0 {
		line += "  " + warningStyle.Render(fmt.Sprintf("%d due soon", s.UrgentCount))
	}
	return line
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}
