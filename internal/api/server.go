// Package api exposes the tracker over HTTP+JSON. Authentication lives in
// front of this service; requests identify their user with the X-User-ID
// header and the handlers trust it.
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"routinelink/internal/model"
	"routinelink/internal/repository"
	"routinelink/internal/service"
)

// TaskAPI is the task surface the handlers call.
type TaskAPI interface {
	Create(ctx context.Context, actor *model.User, input service.TaskInput) (*model.Task, error)
	Get(ctx context.Context, actor *model.User, id string) (*model.Task, error)
	List(ctx context.Context, actor *model.User, filter repository.TaskFilter) ([]model.Task, error)
	ListAll(ctx context.Context, actor *model.User, createdBy string) ([]model.Task, error)
	Update(ctx context.Context, actor *model.User, id string, upd service.TaskUpdate) (*model.Task, error)
	Delete(ctx context.Context, actor *model.User, id string) error
	ToggleComplete(ctx context.Context, actor *model.User, id string, completed bool) (*model.Task, error)
}

// ProjectAPI is the project surface the handlers call.
type ProjectAPI interface {
	Create(ctx context.Context, actor *model.User, input service.ProjectInput) (*model.Project, error)
	Get(ctx context.Context, actor *model.User, id string) (*service.ProjectWithCount, error)
	List(ctx context.Context, actor *model.User) ([]service.ProjectWithCount, error)
	Update(ctx context.Context, actor *model.User, id string, input service.ProjectInput) (*model.Project, error)
	Delete(ctx context.Context, actor *model.User, id string) error
}

// StatsAPI is the stats surface the handlers call.
type StatsAPI interface {
	Summary(ctx context.Context, viewer *model.User, targetUserID string, days int) (*service.Summary, error)
	Together(ctx context.Context) ([]service.TogetherUser, error)
	ResetStats(ctx context.Context, actor *model.User, userID, resetType string) error
	Overview(ctx context.Context, actor *model.User) (*service.AdminOverview, error)
}

// UserResolver resolves the identity header to a user.
type UserResolver interface {
	Get(ctx context.Context, id string) (*model.User, error)
}

// Server wires the services to the gin router.
type Server struct {
	tasks    TaskAPI
	projects ProjectAPI
	stats    StatsAPI
	users    UserResolver
	router   *gin.Engine
}

func NewServer(tasks TaskAPI, projects ProjectAPI, stats StatsAPI, users UserResolver) *Server {
	router := gin.Default()

	s := &Server{
		tasks:    tasks,
		projects: projects,
		stats:    stats,
		users:    users,
		router:   router,
	}

	api := router.Group("/api", s.identify)
	{
		api.GET("/tasks", s.handleListTasks)
		api.POST("/tasks", s.handleCreateTask)
		api.GET("/tasks/:id", s.handleGetTask)
		api.PATCH("/tasks/:id", s.handlePatchTask)
		api.DELETE("/tasks/:id", s.handleDeleteTask)
		api.POST("/tasks/:id/toggle", s.handleToggleTask)

		api.GET("/projects", s.handleListProjects)
		api.POST("/projects", s.handleCreateProject)
		api.GET("/projects/:id", s.handleGetProject)
		api.PATCH("/projects/:id", s.handlePatchProject)
		api.DELETE("/projects/:id", s.handleDeleteProject)

		api.GET("/stats", s.handleStats)
		api.POST("/stats/reset", s.handleResetStats)
		api.GET("/together", s.handleTogether)

		api.GET("/admin/stats", s.handleAdminStats)
		api.GET("/admin/tasks", s.handleAdminTasks)
	}

	return s
}

// Handler returns the underlying http.Handler for embedding in a server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// identify resolves the X-User-ID header. Not authentication: the deployment
// puts that in front of this service.
func (s *Server) identify(c *gin.Context) {
	id := c.GetHeader("X-User-ID")
	if id == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody("missing X-User-ID header"))
		return
	}
	user, err := s.users.Get(c.Request.Context(), id)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody("unknown user"))
		return
	}
	c.Set(ctxUserKey, user)
	c.Next()
}

const ctxUserKey = "user"

func currentUser(c *gin.Context) *model.User {
	return c.MustGet(ctxUserKey).(*model.User)
}
