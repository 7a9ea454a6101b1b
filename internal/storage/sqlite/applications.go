package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"grantiv/internal/models"
	"grantiv/internal/pipeline"
)

const applicationColumns = `id, org_id, title, agency, amount, deadline, status, assigned_to, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanApplication(row rowScanner) (models.GrantApplication, error) {
	var (
		a        models.GrantApplication
		status   string
		assigned string
	)
	if err := row.Scan(&a.ID, &a.OrgID, &a.Title, &a.Agency, &a.Amount, &a.Deadline, &status, &assigned, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return models.GrantApplication{}, err
	}

	parsed, err := pipeline.ParseStatus(status)
	if err != nil {
		// Keep the raw value so callers can report it instead of losing the row.
		s.logger.Warn("application has invalid status", slog.String("id", a.ID), slog.String("status", status))
		parsed = pipeline.Status(strings.ToUpper(status))
	}
	a.Status = parsed

	a.AssignedTo = []string{}
	if assigned != "" {
		if err := json.Unmarshal([]byte(assigned), &a.AssignedTo); err != nil {
			s.logger.Warn("application has malformed assignees", slog.String("id", a.ID), slog.String("error", err.Error()))
			a.AssignedTo = []string{}
		}
	}
	return a, nil
}

// ListApplications returns the applications of an organization, newest first.
func (s *Store) ListApplications(ctx context.Context, orgID string) ([]models.GrantApplication, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+applicationColumns+` FROM applications WHERE org_id = ? ORDER BY created_at DESC, id`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	apps := []models.GrantApplication{}
	for rows.Next() {
		a, err := s.scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

// GetApplication fetches a single application of an organization.
func (s *Store) GetApplication(ctx context.Context, orgID, id string) (models.GrantApplication, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM applications WHERE org_id = ? AND id = ?`, orgID, id)
	a, err := s.scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.GrantApplication{}, fmt.Errorf("application %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.GrantApplication{}, fmt.Errorf("get application: %w", err)
	}
	return a, nil
}

// CreateApplication persists a new application. Status defaults to DRAFTING.
func (s *Store) CreateApplication(ctx context.Context, a models.GrantApplication) (models.GrantApplication, error) {
	if strings.TrimSpace(a.Title) == "" {
		return models.GrantApplication{}, fmt.Errorf("application title must not be empty")
	}
	if a.Status == "" {
		a.Status = pipeline.StatusDrafting
	}
	if !a.Status.IsValid() {
		return models.GrantApplication{}, fmt.Errorf("%w: %q", pipeline.ErrInvalidStatus, string(a.Status))
	}
	if a.AssignedTo == nil {
		a.AssignedTo = []string{}
	}
	assigned, err := json.Marshal(a.AssignedTo)
	if err != nil {
		return models.GrantApplication{}, fmt.Errorf("encode assignees: %w", err)
	}

	id := uuid.New().String()
	_, err = s.db.ExecContext(ctx, `INSERT INTO applications(id, org_id, title, agency, amount, deadline, status, assigned_to) VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		id, a.OrgID, strings.TrimSpace(a.Title), strings.TrimSpace(a.Agency), a.Amount, strings.TrimSpace(a.Deadline), a.Status.Wire(), string(assigned))
	if err != nil {
		return models.GrantApplication{}, fmt.Errorf("insert application: %w", err)
	}
	return s.GetApplication(ctx, a.OrgID, id)
}

// UpdateApplicationStatus sets the status of an application.
func (s *Store) UpdateApplicationStatus(ctx context.Context, orgID, id string, status pipeline.Status) (models.GrantApplication, error) {
	if !status.IsValid() {
		return models.GrantApplication{}, fmt.Errorf("%w: %q", pipeline.ErrInvalidStatus, string(status))
	}
	res, err := s.db.ExecContext(ctx, `UPDATE applications SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE org_id = ? AND id = ?`, status.Wire(), orgID, id)
	if err != nil {
		return models.GrantApplication{}, fmt.Errorf("update application status: %w", err)
	}
	if err := expectAffected(res, "application", id); err != nil {
		return models.GrantApplication{}, err
	}
	return s.GetApplication(ctx, orgID, id)
}

// DeleteApplication removes an application along with its tasks.
func (s *Store) DeleteApplication(ctx context.Context, orgID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM applications WHERE org_id = ? AND id = ?`, orgID, id)
	if err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	return expectAffected(res, "application", id)
}

func expectAffected(res sql.Result, kind, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}
