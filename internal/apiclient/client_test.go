package apiclient

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grantiv/internal/auth"
	"grantiv/internal/pipeline"
	"grantiv/internal/progress"
	"grantiv/internal/server"
	"grantiv/internal/session"
	"grantiv/internal/storage/sqlite"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupClient(t *testing.T) (*Client, *session.Session) {
	t.Helper()
	logger := discardLogger()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "grantiv.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	issuer, err := auth.NewIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	srv := server.New(store, issuer, logger, server.Options{})
	ts := httptest.NewServer(srv.Engine())
	t.Cleanup(ts.Close)

	token, err := issuer.Issue("user-1", "org-1")
	require.NoError(t, err)
	sess := session.New()
	sess.Start(token, "user-1", "org-1")

	client, err := New(Config{BaseURL: ts.URL}, sess, logger)
	require.NoError(t, err)
	return client, sess
}

func TestNew_InvalidBaseURL(t *testing.T) {
	_, err := New(Config{BaseURL: "not a url"}, session.New(), nil)
	assert.Error(t, err)
}

func TestClient_RequiresSession(t *testing.T) {
	client, sess := setupClient(t)
	sess.Clear()
	_, err := client.ListApplications(context.Background())
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestClient_ApplicationsAndCache(t *testing.T) {
	client, _ := setupClient(t)
	ctx := context.Background()

	created, err := client.CreateApplication(ctx, NewApplication{Title: "Arts Fund", Agency: "NEA", Amount: 5000})
	require.NoError(t, err)
	assert.Equal(t, pipeline.StatusDrafting, created.Status)
	require.NotNil(t, created.Progress)
	assert.Equal(t, 1, created.Progress.Step)

	list, err := client.ListApplications(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, client.UpdateApplicationStatus(ctx, created.ID, pipeline.StatusSubmitted))

	cached, err := client.ListApplications(ctx)
	require.NoError(t, err)
	assert.Equal(t, pipeline.StatusDrafting, cached[0].Status, "list is served from cache until invalidated")

	client.InvalidateApplications(ctx)
	fresh, err := client.ListApplications(ctx)
	require.NoError(t, err)
	assert.Equal(t, pipeline.StatusSubmitted, fresh[0].Status)

	_, err = client.GetApplication(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, client.DeleteApplication(ctx, created.ID))
	list, err = client.ListApplications(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestClient_Tasks(t *testing.T) {
	client, _ := setupClient(t)
	ctx := context.Background()

	app, err := client.CreateApplication(ctx, NewApplication{Title: "Arts Fund"})
	require.NoError(t, err)

	task, err := client.CreateTask(ctx, app.ID, NewTask{Description: "Budget"})
	require.NoError(t, err)
	_, err = client.CreateTask(ctx, "", NewTask{Description: "Personal"})
	require.NoError(t, err)

	toggled, err := client.ToggleTaskCompletion(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)

	assignee := "user-2"
	moved, err := client.UpdateTask(ctx, task.ID, TaskUpdate{AssigneeID: &assignee})
	require.NoError(t, err)
	assert.Equal(t, "user-2", moved.AssigneeID)
	assert.Equal(t, "Budget", moved.Description)
	assert.True(t, moved.Completed)

	list, err := client.FetchTasksForApplication(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	all, err := client.FetchTasks(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, client.DeleteTask(ctx, task.ID))
	assert.ErrorIs(t, client.DeleteTask(ctx, task.ID), ErrNotFound)

	dash, err := client.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, dash.TotalApplications)
	assert.Equal(t, 1, dash.ByStatus["drafting"])
}

func TestClient_DrivesProgressController(t *testing.T) {
	client, sess := setupClient(t)
	ctx := context.Background()

	app, err := client.CreateApplication(ctx, NewApplication{Title: "Arts Fund"})
	require.NoError(t, err)
	_, err = client.ListApplications(ctx)
	require.NoError(t, err)

	c, err := progress.New(app.ID, app.Status, client, sess, progress.Options{Interactive: true, Invalidator: client, Logger: discardLogger()})
	require.NoError(t, err)

	require.True(t, c.RequestStatusChange(ctx, "Submitted").Ok())
	require.True(t, c.RequestStatusChange(ctx, "In Review").Ok())

	res := c.RequestStatusChange(ctx, "Outcome")
	require.Equal(t, progress.OutcomeAwaitingConfirmation, res.Outcome)
	require.True(t, c.Resolve(ctx, progress.DecisionReject).Ok())

	list, err := client.ListApplications(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, pipeline.StatusRejected, list[0].Status)
	require.NotNil(t, list[0].Progress)
	assert.True(t, list[0].Progress.IsTerminalFailure)
}

func TestClient_FailedUpdateRollsBack(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"database is locked"}`))
	}))
	defer ts.Close()

	sess := session.New()
	sess.Start("token", "user-1", "org-1")
	client, err := New(Config{BaseURL: ts.URL}, sess, discardLogger())
	require.NoError(t, err)

	var notified atomic.Int32
	c, err := progress.New("app-1", pipeline.StatusSubmitted, client, sess, progress.Options{
		Notifier: progress.NotifierFunc(func(string, string) { notified.Add(1) }),
		Logger:   discardLogger(),
	})
	require.NoError(t, err)

	res := c.RequestStatus(context.Background(), pipeline.StatusInReview)
	assert.Equal(t, progress.OutcomeRolledBack, res.Outcome)
	assert.Equal(t, pipeline.StatusSubmitted, c.Status())
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int32(1), notified.Load())

	var apiErr *APIError
	require.ErrorAs(t, res.Err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "database is locked", apiErr.Message)
}

func countingListServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"applications":[{"id":"app-1","title":"Arts Fund","status":"submitted","assigned_to":["user-1"],"progress":{"step":2}}]}`))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestClient_ListApplicationsHonorsCacheExpiration(t *testing.T) {
	var hits atomic.Int32
	ts := countingListServer(t, &hits)

	sess := session.New()
	sess.Start("token", "user-1", "org-1")
	client, err := New(Config{BaseURL: ts.URL, CacheExpiration: 50 * time.Millisecond, CacheCleanup: time.Hour}, sess, discardLogger())
	require.NoError(t, err)

	ctx := context.Background()
	_, err = client.ListApplications(ctx)
	require.NoError(t, err)
	_, err = client.ListApplications(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())

	time.Sleep(150 * time.Millisecond)
	_, err = client.ListApplications(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestClient_ListApplicationsReturnsCopies(t *testing.T) {
	var hits atomic.Int32
	ts := countingListServer(t, &hits)

	sess := session.New()
	sess.Start("token", "user-1", "org-1")
	client, err := New(Config{BaseURL: ts.URL}, sess, discardLogger())
	require.NoError(t, err)

	ctx := context.Background()
	list, err := client.ListApplications(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	list[0].Title = "changed"
	list[0].Status = pipeline.StatusRejected
	list[0].AssignedTo[0] = "someone-else"
	list[0].Progress.Step = 4

	again, err := client.ListApplications(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, "Arts Fund", again[0].Title)
	assert.Equal(t, pipeline.StatusSubmitted, again[0].Status)
	assert.Equal(t, []string{"user-1"}, again[0].AssignedTo)
	assert.Equal(t, 2, again[0].Progress.Step)
}
