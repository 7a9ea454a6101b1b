package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"grantiv/internal/auth"
	"grantiv/internal/models"
	"grantiv/internal/pipeline"
	"grantiv/internal/tasks"
)

type applicationRequest struct {
	Title      string   `json:"title" binding:"required"`
	Agency     string   `json:"agency"`
	Amount     float64  `json:"amount" binding:"gte=0"`
	Deadline   string   `json:"deadline"`
	Status     string   `json:"status"`
	AssignedTo []string `json:"assigned_to"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// applicationView is an application with its render-time progress data.
// Progress is nil when the stored status is not renderable.
type applicationView struct {
	models.GrantApplication
	Progress *pipeline.Descriptor `json:"progress"`
	Tasks    *tasks.Stats         `json:"tasks,omitempty"`
}

func (s *Server) view(app models.GrantApplication) applicationView {
	v := applicationView{GrantApplication: app}
	d, err := pipeline.Describe(app.Status)
	if err != nil {
		s.logger.Warn("application not renderable", slog.String("id", app.ID), slog.String("error", err.Error()))
		return v
	}
	v.Progress = &d
	return v
}

// handleListApplications returns the caller's tracked applications.
func (s *Server) handleListApplications(c *gin.Context) {
	apps, err := s.store.ListApplications(c.Request.Context(), auth.OrgID(c))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	views := make([]applicationView, 0, len(apps))
	for _, app := range apps {
		views = append(views, s.view(app))
	}
	respondSuccess(c, http.StatusOK, gin.H{"applications": views})
}

// handleGetApplication returns one application with its task statistics.
func (s *Server) handleGetApplication(c *gin.Context) {
	ctx := c.Request.Context()
	orgID := auth.OrgID(c)

	app, err := s.store.GetApplication(ctx, orgID, c.Param("id"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	list, err := s.store.ListTasksForApplication(ctx, orgID, app.ID)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}

	v := s.view(app)
	stats := tasks.Aggregate(list, s.now())
	v.Tasks = &stats
	respondSuccess(c, http.StatusOK, gin.H{"application": v})
}

// handleCreateApplication starts tracking a new grant.
func (s *Server) handleCreateApplication(c *gin.Context) {
	var req applicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	app := models.GrantApplication{
		OrgID:      auth.OrgID(c),
		Title:      req.Title,
		Agency:     req.Agency,
		Amount:     req.Amount,
		Deadline:   req.Deadline,
		AssignedTo: req.AssignedTo,
	}
	if req.Status != "" {
		status, err := pipeline.ParseStatus(req.Status)
		if err != nil {
			s.respondError(c, http.StatusBadRequest, err)
			return
		}
		app.Status = status
	}

	created, err := s.store.CreateApplication(c.Request.Context(), app)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"application": s.view(created)})
}

// handleUpdateStatus moves an application through the pipeline. The status
// may be sent in enum or lower-case form.
func (s *Server) handleUpdateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	status, err := pipeline.ParseStatus(req.Status)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	app, err := s.store.UpdateApplicationStatus(c.Request.Context(), auth.OrgID(c), c.Param("id"), status)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	s.logger.Info("application status changed",
		slog.String("id", app.ID),
		slog.String("status", app.Status.String()),
		slog.String("user", auth.UserID(c)))
	respondSuccess(c, http.StatusOK, gin.H{"application": s.view(app)})
}

// handleDeleteApplication stops tracking an application and drops its tasks.
func (s *Server) handleDeleteApplication(c *gin.Context) {
	if err := s.store.DeleteApplication(c.Request.Context(), auth.OrgID(c), c.Param("id")); err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

// handleDashboard returns organization-wide statistics.
func (s *Server) handleDashboard(c *gin.Context) {
	ctx := c.Request.Context()
	orgID := auth.OrgID(c)

	apps, err := s.store.ListApplications(ctx, orgID)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	list, err := s.store.ListTasks(ctx, orgID)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"dashboard": tasks.Dashboard(apps, list, s.now())})
}
