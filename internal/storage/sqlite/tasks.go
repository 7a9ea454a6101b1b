package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"grantiv/internal/models"
)

const taskColumns = `id, org_id, COALESCE(grant_id, ''), description, completed, assignee_id, deadline, created_at, updated_at`

// TaskChanges lists the task fields an update may touch. Nil fields are kept.
type TaskChanges struct {
	Description *string
	AssigneeID  *string
	Deadline    *string
	Completed   *bool
}

func scanTask(row rowScanner) (models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.OrgID, &t.GrantID, &t.Description, &t.Completed, &t.AssigneeID, &t.Deadline, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (s *Store) queryTasks(ctx context.Context, query string, args ...any) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	list := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// ListTasks returns every task of an organization, personal tasks included.
func (s *Store) ListTasks(ctx context.Context, orgID string) ([]models.Task, error) {
	return s.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks WHERE org_id = ? ORDER BY created_at, id`, orgID)
}

// ListTasksForApplication returns the checklist of one application.
func (s *Store) ListTasksForApplication(ctx context.Context, orgID, grantID string) ([]models.Task, error) {
	if _, err := s.GetApplication(ctx, orgID, grantID); err != nil {
		return nil, err
	}
	return s.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks WHERE org_id = ? AND grant_id = ? ORDER BY created_at, id`, orgID, grantID)
}

// GetTask retrieves a task by id.
func (s *Store) GetTask(ctx context.Context, orgID, id string) (models.Task, error) {
	t, err := scanTask(s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE org_id = ? AND id = ?`, orgID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// CreateTask inserts a task. An empty GrantID creates a personal task.
func (s *Store) CreateTask(ctx context.Context, t models.Task) (models.Task, error) {
	if strings.TrimSpace(t.Description) == "" {
		return models.Task{}, fmt.Errorf("task description must not be empty")
	}

	var grantID any
	if t.GrantID != "" {
		if _, err := s.GetApplication(ctx, t.OrgID, t.GrantID); err != nil {
			return models.Task{}, err
		}
		grantID = t.GrantID
	}

	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx, `INSERT INTO tasks(id, org_id, grant_id, description, completed, assignee_id, deadline) VALUES(?, ?, ?, ?, ?, ?, ?)`,
		id, t.OrgID, grantID, strings.TrimSpace(t.Description), t.Completed, strings.TrimSpace(t.AssigneeID), strings.TrimSpace(t.Deadline))
	if err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return s.GetTask(ctx, t.OrgID, id)
}

// UpdateTask applies changes to a task.
func (s *Store) UpdateTask(ctx context.Context, orgID, id string, changes TaskChanges) (models.Task, error) {
	current, err := s.GetTask(ctx, orgID, id)
	if err != nil {
		return models.Task{}, err
	}

	if changes.Description != nil && strings.TrimSpace(*changes.Description) != "" {
		current.Description = strings.TrimSpace(*changes.Description)
	}
	if changes.AssigneeID != nil {
		current.AssigneeID = strings.TrimSpace(*changes.AssigneeID)
	}
	if changes.Deadline != nil {
		current.Deadline = strings.TrimSpace(*changes.Deadline)
	}
	if changes.Completed != nil {
		current.Completed = *changes.Completed
	}

	_, err = s.db.ExecContext(ctx, `UPDATE tasks SET description = ?, assignee_id = ?, deadline = ?, completed = ?, updated_at = CURRENT_TIMESTAMP WHERE org_id = ? AND id = ?`,
		current.Description, current.AssigneeID, current.Deadline, current.Completed, orgID, id)
	if err != nil {
		return models.Task{}, fmt.Errorf("update task: %w", err)
	}
	return s.GetTask(ctx, orgID, id)
}

// ToggleTask flips the completion flag of a task.
func (s *Store) ToggleTask(ctx context.Context, orgID, id string) (models.Task, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET completed = NOT completed, updated_at = CURRENT_TIMESTAMP WHERE org_id = ? AND id = ?`, orgID, id)
	if err != nil {
		return models.Task{}, fmt.Errorf("toggle task: %w", err)
	}
	if err := expectAffected(res, "task", id); err != nil {
		return models.Task{}, err
	}
	return s.GetTask(ctx, orgID, id)
}

// DeleteTask removes a task by id.
func (s *Store) DeleteTask(ctx context.Context, orgID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE org_id = ? AND id = ?`, orgID, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return expectAffected(res, "task", id)
}
