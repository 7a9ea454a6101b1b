package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"grantiv/internal/auth"
	"grantiv/internal/models"
	"grantiv/internal/pipeline"
	"grantiv/internal/storage/sqlite"
)

// Store is the persistence the API needs.
type Store interface {
	Ping(ctx context.Context) error
	ListApplications(ctx context.Context, orgID string) ([]models.GrantApplication, error)
	GetApplication(ctx context.Context, orgID, id string) (models.GrantApplication, error)
	CreateApplication(ctx context.Context, a models.GrantApplication) (models.GrantApplication, error)
	UpdateApplicationStatus(ctx context.Context, orgID, id string, status pipeline.Status) (models.GrantApplication, error)
	DeleteApplication(ctx context.Context, orgID, id string) error
	ListTasks(ctx context.Context, orgID string) ([]models.Task, error)
	ListTasksForApplication(ctx context.Context, orgID, grantID string) ([]models.Task, error)
	CreateTask(ctx context.Context, t models.Task) (models.Task, error)
	UpdateTask(ctx context.Context, orgID, id string, changes sqlite.TaskChanges) (models.Task, error)
	ToggleTask(ctx context.Context, orgID, id string) (models.Task, error)
	DeleteTask(ctx context.Context, orgID, id string) error
}

// Options configures optional server behavior.
type Options struct {
	StaticDir      string
	AllowedOrigins []string
	Now            func() time.Time
}

// Server provides HTTP handlers for the grant tracking backend.
type Server struct {
	engine    *gin.Engine
	store     Store
	issuer    *auth.Issuer
	logger    *slog.Logger
	staticDir string
	now       func() time.Time
}

// New constructs the HTTP server with routes and middleware configured.
func New(store Store, issuer *auth.Issuer, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/api/healthz"))
	router.Use(corsMiddleware(opts.AllowedOrigins))

	srv := &Server{
		engine:    router,
		store:     store,
		issuer:    issuer,
		logger:    logger,
		staticDir: opts.StaticDir,
		now:       now,
	}

	srv.registerRoutes()
	return srv
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AddAllowHeaders("Authorization")
	cfg.AddAllowMethods("PATCH")
	return cors.New(cfg)
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes() {
	s.engine.GET("/api/healthz", s.handleHealth)

	api := s.engine.Group("/api", s.issuer.Middleware())
	{
		apps := api.Group("/applications")
		{
			apps.GET("", s.handleListApplications)
			apps.POST("", s.handleCreateApplication)
			apps.GET(":id", s.handleGetApplication)
			apps.DELETE(":id", s.handleDeleteApplication)
			apps.PATCH(":id/status", s.handleUpdateStatus)
			apps.GET(":id/tasks", s.handleListApplicationTasks)
			apps.POST(":id/tasks", s.handleCreateApplicationTask)
		}

		tasks := api.Group("/tasks")
		{
			tasks.GET("", s.handleListTasks)
			tasks.POST("", s.handleCreatePersonalTask)
			tasks.PUT(":id", s.handleUpdateTask)
			tasks.POST(":id/toggle", s.handleToggleTask)
			tasks.DELETE(":id", s.handleDeleteTask)
		}

		api.GET("/dashboard", s.handleDashboard)
	}

	s.mountStatic()
}

// handleHealth reports readiness including database reachability.
func (s *Server) handleHealth(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		s.respondError(c, http.StatusServiceUnavailable, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondError logs the error and returns a JSON payload.
func (s *Server) respondError(c *gin.Context, status int, err error) {
	s.logger.Error("request failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
	c.JSON(status, gin.H{"error": err.Error()})
}

// respondStoreError maps storage errors onto HTTP status codes.
func (s *Server) respondStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, sqlite.ErrNotFound):
		s.respondError(c, http.StatusNotFound, err)
	case errors.Is(err, pipeline.ErrInvalidStatus):
		s.respondError(c, http.StatusBadRequest, err)
	default:
		s.respondError(c, http.StatusInternalServerError, err)
	}
}

// respondSuccess wraps a payload in a JSON envelope for consistency.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}
