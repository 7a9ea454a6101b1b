// Package apiclient talks to the grantiv REST API on behalf of a signed in
// session. Application lists are served from a read cache that status
// changes invalidate.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"grantiv/internal/cache"
	"grantiv/internal/models"
	"grantiv/internal/pipeline"
	"grantiv/internal/session"
	"grantiv/internal/tasks"
)

var (
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned for 401 and 403 responses.
	ErrUnauthorized = errors.New("unauthorized")
)

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Is maps status codes onto the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	}
	return false
}

// Application is an application as returned by the API.
type Application struct {
	models.GrantApplication
	Progress *pipeline.Descriptor `json:"progress"`
	Tasks    *tasks.Stats         `json:"tasks,omitempty"`
}

// Config holds configuration for the Client.
type Config struct {
	BaseURL         string
	Timeout         time.Duration
	CacheExpiration time.Duration
	CacheCleanup    time.Duration
}

// Client is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	session *session.Session
	apps    *cache.InMemory[string, []Application]
	appsTTL time.Duration
	logger  *slog.Logger
}

// New creates a client for the API at cfg.BaseURL.
func New(cfg Config, sess *session.Session, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid api base url %q", cfg.BaseURL)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.CacheExpiration <= 0 {
		cfg.CacheExpiration = cache.DefaultExpiration
	}
	if cfg.CacheCleanup <= 0 {
		cfg.CacheCleanup = cache.DefaultCleanupInterval
	}

	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: cfg.Timeout},
		session: sess,
		apps: cache.NewInMemory[string, []Application]("applications", cfg.CacheExpiration, cfg.CacheCleanup,
			func(org string) string { return "org:" + org }),
		appsTTL: cfg.CacheExpiration,
		logger:  logger,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	token, err := c.session.Token()
	if err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&envelope)
		if envelope.Error == "" {
			envelope.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: envelope.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// ListApplications returns the organization's applications, cached until
// invalidated or expired. The returned slice is the caller's to modify.
func (c *Client) ListApplications(ctx context.Context) ([]Application, error) {
	org := c.session.OrgID()
	if cached, ok := c.apps.Get(ctx, org); ok {
		return cloneApplications(cached), nil
	}

	var out struct {
		Applications []Application `json:"applications"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/applications", nil, &out); err != nil {
		return nil, err
	}
	c.apps.Set(ctx, org, out.Applications, c.appsTTL)
	c.logger.Debug("application list cached",
		slog.String("cache", c.apps.Name()),
		slog.Int("entries", c.apps.Len()),
		slog.Duration("ttl", c.appsTTL))
	return cloneApplications(out.Applications), nil
}

// cloneApplications copies the list and the fields that share memory so the
// cached entry cannot be changed through a returned value.
func cloneApplications(in []Application) []Application {
	out := make([]Application, len(in))
	for i, app := range in {
		app.AssignedTo = append([]string(nil), app.AssignedTo...)
		if app.Progress != nil {
			d := *app.Progress
			app.Progress = &d
		}
		if app.Tasks != nil {
			stats := *app.Tasks
			stats.Flags = append([]tasks.Flag(nil), stats.Flags...)
			app.Tasks = &stats
		}
		out[i] = app
	}
	return out
}

// InvalidateApplications drops the cached application list of the session's
// organization so the next read refetches.
func (c *Client) InvalidateApplications(ctx context.Context) {
	if err := c.apps.Delete(ctx, c.session.OrgID()); err != nil {
		c.logger.Warn("failed to invalidate application cache", slog.String("error", err.Error()))
	}
}

// GetApplication fetches one application with its task statistics.
func (c *Client) GetApplication(ctx context.Context, id string) (Application, error) {
	var out struct {
		Application Application `json:"application"`
	}
	err := c.do(ctx, http.MethodGet, "/api/applications/"+url.PathEscape(id), nil, &out)
	return out.Application, err
}

// NewApplication holds the fields of an application to create.
type NewApplication struct {
	Title      string   `json:"title"`
	Agency     string   `json:"agency,omitempty"`
	Amount     float64  `json:"amount"`
	Deadline   string   `json:"deadline,omitempty"`
	AssignedTo []string `json:"assigned_to,omitempty"`
}

// CreateApplication starts tracking a grant.
func (c *Client) CreateApplication(ctx context.Context, in NewApplication) (Application, error) {
	var out struct {
		Application Application `json:"application"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/applications", in, &out); err != nil {
		return Application{}, err
	}
	c.InvalidateApplications(ctx)
	return out.Application, nil
}

// DeleteApplication stops tracking an application.
func (c *Client) DeleteApplication(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/applications/"+url.PathEscape(id), nil, nil); err != nil {
		return err
	}
	c.InvalidateApplications(ctx)
	return nil
}

// UpdateApplicationStatus sends the status in its wire form.
func (c *Client) UpdateApplicationStatus(ctx context.Context, applicationID string, status pipeline.Status) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: %q", pipeline.ErrInvalidStatus, string(status))
	}
	in := map[string]string{"status": status.Wire()}
	return c.do(ctx, http.MethodPatch, "/api/applications/"+url.PathEscape(applicationID)+"/status", in, nil)
}

// FetchTasksForApplication returns the checklist of an application.
func (c *Client) FetchTasksForApplication(ctx context.Context, applicationID string) ([]models.Task, error) {
	var out struct {
		Tasks []models.Task `json:"tasks"`
	}
	err := c.do(ctx, http.MethodGet, "/api/applications/"+url.PathEscape(applicationID)+"/tasks", nil, &out)
	return out.Tasks, err
}

// FetchTasks returns every task of the organization.
func (c *Client) FetchTasks(ctx context.Context) ([]models.Task, error) {
	var out struct {
		Tasks []models.Task `json:"tasks"`
	}
	err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &out)
	return out.Tasks, err
}

// NewTask holds the fields of a task to create.
type NewTask struct {
	Description string `json:"description"`
	AssigneeID  string `json:"assignee_id,omitempty"`
	Deadline    string `json:"deadline,omitempty"`
}

// CreateTask adds a task to an application, or a personal task when
// applicationID is empty.
func (c *Client) CreateTask(ctx context.Context, applicationID string, in NewTask) (models.Task, error) {
	path := "/api/tasks"
	if applicationID != "" {
		path = "/api/applications/" + url.PathEscape(applicationID) + "/tasks"
	}
	var out struct {
		Task models.Task `json:"task"`
	}
	err := c.do(ctx, http.MethodPost, path, in, &out)
	return out.Task, err
}

// TaskUpdate holds the task fields to change; nil fields are left alone.
type TaskUpdate struct {
	Description *string `json:"description,omitempty"`
	AssigneeID  *string `json:"assignee_id,omitempty"`
	Deadline    *string `json:"deadline,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

// UpdateTask edits a task, typically to reassign it or move its deadline.
func (c *Client) UpdateTask(ctx context.Context, taskID string, in TaskUpdate) (models.Task, error) {
	var out struct {
		Task models.Task `json:"task"`
	}
	err := c.do(ctx, http.MethodPut, "/api/tasks/"+url.PathEscape(taskID), in, &out)
	return out.Task, err
}

// ToggleTaskCompletion flips a task's completion flag.
func (c *Client) ToggleTaskCompletion(ctx context.Context, taskID string) (models.Task, error) {
	var out struct {
		Task models.Task `json:"task"`
	}
	err := c.do(ctx, http.MethodPost, "/api/tasks/"+url.PathEscape(taskID)+"/toggle", nil, &out)
	return out.Task, err
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, taskID string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(taskID), nil, nil)
}

// Dashboard fetches organization-wide statistics.
func (c *Client) Dashboard(ctx context.Context) (tasks.DashboardStats, error) {
	var out struct {
		Dashboard tasks.DashboardStats `json:"dashboard"`
	}
	err := c.do(ctx, http.MethodGet, "/api/dashboard", nil, &out)
	return out.Dashboard, err
}
