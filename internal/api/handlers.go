package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"routinelink/internal/model"
	"routinelink/internal/repository"
	"routinelink/internal/service"
)

func okBody(data interface{}) gin.H {
	return gin.H{"success": true, "data": data}
}

func errorBody(msg string) gin.H {
	return gin.H{"success": false, "error": msg}
}

// respondErr maps the domain error taxonomy onto HTTP statuses.
func respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		c.JSON(http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, model.ErrForbidden):
		c.JSON(http.StatusForbidden, errorBody("forbidden"))
	case errors.Is(err, model.ErrInvalidTransition):
		c.JSON(http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, model.ErrConcurrencyConflict):
		c.JSON(http.StatusConflict, errorBody("conflict, retry"))
	default:
		c.JSON(http.StatusInternalServerError, errorBody("internal error"))
	}
}

// Task handlers

func (s *Server) handleListTasks(c *gin.Context) {
	priority, _ := strconv.Atoi(c.Query("priority"))
	filter := repository.TaskFilter{
		View:      c.DefaultQuery("view", repository.ViewAll),
		ProjectID: c.Query("projectId"),
		Priority:  priority,
		Search:    c.Query("search"),
	}

	tasks, err := s.tasks.List(c.Request.Context(), currentUser(c), filter)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, okBody(tasks))
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var input service.TaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	task, err := s.tasks.Create(c.Request.Context(), currentUser(c), input)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, okBody(task))
}

func (s *Server) handleGetTask(c *gin.Context) {
	task, err := s.tasks.Get(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, okBody(task))
}

// taskPatch accepts metadata edits and/or a completion toggle in one body,
// mirroring a single PATCH endpoint on the client side.
type taskPatch struct {
	service.TaskUpdate
	Completed *bool `json:"completed"`
}

func (p taskPatch) hasMetadata() bool {
	u := p.TaskUpdate
	return u.Title != nil || u.Description != nil || u.DueDate != nil ||
		u.Priority != nil || u.Labels != nil || u.ProjectID != nil ||
		u.IsShared != nil || u.AssignedTo != nil || u.Recurrence != nil ||
		u.IsRecurring != nil
}

func (s *Server) handlePatchTask(c *gin.Context) {
	var patch taskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
		return
	}

	actor := currentUser(c)
	id := c.Param("id")

	var task *model.Task
	var err error
	if patch.hasMetadata() {
		task, err = s.tasks.Update(c.Request.Context(), actor, id, patch.TaskUpdate)
		if err != nil {
			respondErr(c, err)
			return
		}
	}
	if patch.Completed != nil {
		task, err = s.tasks.ToggleComplete(c.Request.Context(), actor, id, *patch.Completed)
		if err != nil {
			respondErr(c, err)
			return
		}
	}
	if task == nil {
		task, err = s.tasks.Get(c.Request.Context(), actor, id)
		if err != nil {
			respondErr(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, okBody(task))
}

func (s *Server) handleToggleTask(c *gin.Context) {
	var body struct {
		Completed bool `json:"completed"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	task, err := s.tasks.ToggleComplete(c.Request.Context(), currentUser(c), c.Param("id"), body.Completed)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, okBody(task))
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	if err := s.tasks.Delete(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, okBody(nil))
}

// Project handlers

func (s *Server) handleListProjects(c *gin.Context) {
	projects, err := s.projects.List(c.Request.Context(), currentUser(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, okBody(projects))
}

func (s *Server) handleCreateProject(c *gin.Context) {
	var input service.ProjectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	project, err := s.projects.Create(c.Request.Context(), currentUser(c), input)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, okBody(project))
}

func (s *Server) handleGetProject(c *gin.Context) {
	project, err := s.projects.Get(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, okBody(project))
}

func (s *Server) handlePatchProject(c *gin.Context) {
	var input service.ProjectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	project, err := s.projects.Update(c.Request.Context(), currentUser(c), c.Param("id"), input)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, okBody(project))
}

func (s *Server) handleDeleteProject(c *gin.Context) {
	if err := s.projects.Delete(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, okBody(nil))
}

// Stats handlers

func (s *Server) handleStats(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "365"))
	summary, err := s.stats.Summary(c.Request.Context(), currentUser(c), c.Query("userId"), days)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, okBody(summary))
}

func (s *Server) handleResetStats(c *gin.Context) {
	var body struct {
		UserID    string `json:"userId"`
		ResetType string `json:"resetType"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	if err := s.stats.ResetStats(c.Request.Context(), currentUser(c), body.UserID, body.ResetType); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, okBody(nil))
}

func (s *Server) handleTogether(c *gin.Context) {
	users, err := s.stats.Together(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, okBody(users))
}

// Admin handlers

func (s *Server) handleAdminStats(c *gin.Context) {
	overview, err := s.stats.Overview(c.Request.Context(), currentUser(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, okBody(overview))
}

func (s *Server) handleAdminTasks(c *gin.Context) {
	tasks, err := s.tasks.ListAll(c.Request.Context(), currentUser(c), c.Query("userId"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, okBody(tasks))
}
