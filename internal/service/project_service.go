package service

import (
	"context"
	"fmt"
	"regexp"

	"routinelink/internal/model"
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

const defaultProjectColor = "#6366f1"

// ProjectInput carries the fields a client may set on a project.
type ProjectInput struct {
	Name     string `json:"name"`
	Color    string `json:"color"`
	IsShared bool   `json:"isShared"`
}

// ProjectWithCount pairs a project with its task count for list views.
type ProjectWithCount struct {
	model.Project
	TaskCount int64 `json:"taskCount"`
}

// ProjectStore is the slice of the record store the project service needs.
type ProjectStore interface {
	Create(ctx context.Context, project *model.Project) error
	Get(ctx context.Context, id string) (*model.Project, error)
	Save(ctx context.Context, project *model.Project) error
	Delete(ctx context.Context, id string) error
	ListVisible(ctx context.Context, userID string) ([]model.Project, error)
	CountTasks(ctx context.Context, projectID string) (int64, error)
}

// ProjectService enforces the shared-project rules: a nil owner means
// shared, and shared projects are only mutable by an admin.
type ProjectService struct {
	projects ProjectStore
}

func NewProjectService(projects ProjectStore) *ProjectService {
	return &ProjectService{projects: projects}
}

func (s *ProjectService) Create(ctx context.Context, actor *model.User, input ProjectInput) (*model.Project, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", model.ErrInvalidTransition)
	}
	color := input.Color
	if color == "" {
		color = defaultProjectColor
	}
	if !colorPattern.MatchString(color) {
		return nil, fmt.Errorf("%w: invalid color %q", model.ErrInvalidTransition, color)
	}
	if input.IsShared && !actor.IsAdmin() {
		return nil, model.ErrForbidden
	}

	project := &model.Project{Name: input.Name, Color: color}
	if !input.IsShared {
		id := actor.ID
		project.OwnerID = &id
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) Get(ctx context.Context, actor *model.User, id string) (*ProjectWithCount, error) {
	project, err := s.projects.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !project.VisibleTo(actor) {
		return nil, model.ErrForbidden
	}
	count, err := s.projects.CountTasks(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	return &ProjectWithCount{Project: *project, TaskCount: count}, nil
}

func (s *ProjectService) List(ctx context.Context, actor *model.User) ([]ProjectWithCount, error) {
	projects, err := s.projects.ListVisible(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	out := make([]ProjectWithCount, 0, len(projects))
	for _, p := range projects {
		count, err := s.projects.CountTasks(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, ProjectWithCount{Project: p, TaskCount: count})
	}
	return out, nil
}

func (s *ProjectService) Update(ctx context.Context, actor *model.User, id string, input ProjectInput) (*model.Project, error) {
	project, err := s.projects.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.canMutate(actor, project); err != nil {
		return nil, err
	}

	if input.Name != "" {
		project.Name = input.Name
	}
	if input.Color != "" {
		if !colorPattern.MatchString(input.Color) {
			return nil, fmt.Errorf("%w: invalid color %q", model.ErrInvalidTransition, input.Color)
		}
		project.Color = input.Color
	}
	if input.IsShared && !project.IsShared() {
		if !actor.IsAdmin() {
			return nil, model.ErrForbidden
		}
		project.OwnerID = nil
	}

	if err := s.projects.Save(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) Delete(ctx context.Context, actor *model.User, id string) error {
	project, err := s.projects.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.canMutate(actor, project); err != nil {
		return err
	}
	return s.projects.Delete(ctx, id)
}

func (s *ProjectService) canMutate(actor *model.User, project *model.Project) error {
	if actor.IsAdmin() {
		return nil
	}
	if project.IsShared() {
		return model.ErrForbidden
	}
	if *project.OwnerID != actor.ID {
		return model.ErrForbidden
	}
	return nil
}
