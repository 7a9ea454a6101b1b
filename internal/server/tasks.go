package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"grantiv/internal/auth"
	"grantiv/internal/models"
	"grantiv/internal/storage/sqlite"
	"grantiv/internal/tasks"
)

type taskRequest struct {
	Description *string `json:"description"`
	AssigneeID  *string `json:"assignee_id"`
	Deadline    *string `json:"deadline"`
	Completed   *bool   `json:"completed"`
}

// handleListTasks returns every task of the organization with statistics.
func (s *Server) handleListTasks(c *gin.Context) {
	list, err := s.store.ListTasks(c.Request.Context(), auth.OrgID(c))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"tasks": list, "stats": tasks.Aggregate(list, s.now())})
}

// handleListApplicationTasks fetches the checklist of one application.
func (s *Server) handleListApplicationTasks(c *gin.Context) {
	list, err := s.store.ListTasksForApplication(c.Request.Context(), auth.OrgID(c), c.Param("id"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"tasks": list, "stats": tasks.Aggregate(list, s.now())})
}

// handleCreateApplicationTask adds a checklist item to an application.
func (s *Server) handleCreateApplicationTask(c *gin.Context) {
	s.createTask(c, c.Param("id"))
}

// handleCreatePersonalTask adds a task that belongs to no application.
func (s *Server) handleCreatePersonalTask(c *gin.Context) {
	s.createTask(c, "")
}

func (s *Server) createTask(c *gin.Context, grantID string) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Description == nil || *req.Description == "" {
		s.respondError(c, http.StatusBadRequest, errors.New("description is required"))
		return
	}

	task, err := s.store.CreateTask(c.Request.Context(), models.Task{
		OrgID:       auth.OrgID(c),
		GrantID:     grantID,
		Description: *req.Description,
		AssigneeID:  getString(req.AssigneeID),
		Deadline:    getString(req.Deadline),
		Completed:   req.Completed != nil && *req.Completed,
	})
	if err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			s.respondError(c, http.StatusNotFound, err)
			return
		}
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"task": task})
}

// handleUpdateTask edits description, assignee, deadline or completion.
func (s *Server) handleUpdateTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	task, err := s.store.UpdateTask(c.Request.Context(), auth.OrgID(c), c.Param("id"), sqlite.TaskChanges{
		Description: req.Description,
		AssigneeID:  req.AssigneeID,
		Deadline:    req.Deadline,
		Completed:   req.Completed,
	})
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleToggleTask flips a task between done and open.
func (s *Server) handleToggleTask(c *gin.Context) {
	task, err := s.store.ToggleTask(c.Request.Context(), auth.OrgID(c), c.Param("id"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleDeleteTask removes a task completely.
func (s *Server) handleDeleteTask(c *gin.Context) {
	if err := s.store.DeleteTask(c.Request.Context(), auth.OrgID(c), c.Param("id")); err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

func getString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
