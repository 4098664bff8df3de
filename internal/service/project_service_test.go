package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"routinelink/internal/model"
)

type memProjectStore struct {
	projects map[string]model.Project
	counts   map[string]int64
}

func newMemProjectStore(projects ...model.Project) *memProjectStore {
	s := &memProjectStore{projects: make(map[string]model.Project), counts: make(map[string]int64)}
	for _, p := range projects {
		s.projects[p.ID] = p
	}
	return s
}

func (s *memProjectStore) Create(_ context.Context, project *model.Project) error {
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	s.projects[project.ID] = *project
	return nil
}

func (s *memProjectStore) Get(_ context.Context, id string) (*model.Project, error) {
	p, ok := s.projects[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	out := p
	return &out, nil
}

func (s *memProjectStore) Save(_ context.Context, project *model.Project) error {
	s.projects[project.ID] = *project
	return nil
}

func (s *memProjectStore) Delete(_ context.Context, id string) error {
	if _, ok := s.projects[id]; !ok {
		return model.ErrNotFound
	}
	delete(s.projects, id)
	return nil
}

func (s *memProjectStore) ListVisible(_ context.Context, userID string) ([]model.Project, error) {
	var out []model.Project
	for _, p := range s.projects {
		if p.OwnerID == nil || *p.OwnerID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memProjectStore) CountTasks(_ context.Context, projectID string) (int64, error) {
	return s.counts[projectID], nil
}

func ownedProject(id, name, ownerID string) model.Project {
	return model.Project{ID: id, Name: name, Color: "#ff0000", OwnerID: &ownerID}
}

func TestProjectCreate_DefaultsAndOwnership(t *testing.T) {
	store := newMemProjectStore()
	svc := NewProjectService(store)

	p, err := svc.Create(context.Background(), bob, ProjectInput{Name: "chores"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Color != "#6366f1" {
		t.Errorf("expected default color, got %s", p.Color)
	}
	if p.OwnerID == nil || *p.OwnerID != bob.ID {
		t.Error("expected project owned by creator")
	}
	if p.IsShared() {
		t.Error("owned project must not be shared")
	}
}

func TestProjectCreate_SharedRequiresAdmin(t *testing.T) {
	store := newMemProjectStore()
	svc := NewProjectService(store)

	if _, err := svc.Create(context.Background(), bob, ProjectInput{Name: "house", IsShared: true}); !errors.Is(err, model.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	p, err := svc.Create(context.Background(), alice, ProjectInput{Name: "house", IsShared: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.IsShared() || p.OwnerID != nil {
		t.Error("expected a shared project with nil owner")
	}
}

func TestProjectCreate_Validation(t *testing.T) {
	svc := NewProjectService(newMemProjectStore())
	if _, err := svc.Create(context.Background(), bob, ProjectInput{}); !errors.Is(err, model.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition for empty name, got %v", err)
	}
	if _, err := svc.Create(context.Background(), bob, ProjectInput{Name: "x", Color: "red"}); !errors.Is(err, model.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition for bad color, got %v", err)
	}
}

func TestProjectUpdate_OwnershipRules(t *testing.T) {
	store := newMemProjectStore(
		ownedProject("p1", "mine", bob.ID),
		model.Project{ID: "p2", Name: "house", Color: "#00ff00"},
	)
	svc := NewProjectService(store)

	name := ProjectInput{Name: "renamed"}
	if _, err := svc.Update(context.Background(), bob, "p1", name); err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if _, err := svc.Update(context.Background(), bob, "p2", name); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("member must not edit a shared project, got %v", err)
	}
	if _, err := svc.Update(context.Background(), alice, "p2", name); err != nil {
		t.Errorf("admin update of shared project: %v", err)
	}

	carol := &model.User{ID: "u-carol", Role: model.RoleMember}
	if _, err := svc.Update(context.Background(), carol, "p1", name); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("non-owner member must not edit, got %v", err)
	}
}

func TestProjectUpdate_PromoteToShared(t *testing.T) {
	store := newMemProjectStore(ownedProject("p1", "mine", bob.ID))
	svc := NewProjectService(store)

	if _, err := svc.Update(context.Background(), bob, "p1", ProjectInput{IsShared: true}); !errors.Is(err, model.ErrForbidden) {
		t.Fatalf("member must not promote to shared, got %v", err)
	}
	p, err := svc.Update(context.Background(), alice, "p1", ProjectInput{IsShared: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.IsShared() {
		t.Error("expected project promoted to shared")
	}
}

func TestProjectList_VisibilityAndCounts(t *testing.T) {
	store := newMemProjectStore(
		ownedProject("p1", "mine", bob.ID),
		ownedProject("p2", "carols", "u-carol"),
		model.Project{ID: "p3", Name: "house", Color: "#00ff00"},
	)
	store.counts["p1"] = 7
	svc := NewProjectService(store)

	out, err := svc.List(context.Background(), bob)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected own + shared project, got %d", len(out))
	}
	for _, p := range out {
		if p.ID == "p1" && p.TaskCount != 7 {
			t.Errorf("expected task count 7 for p1, got %d", p.TaskCount)
		}
	}
}

func TestProjectDelete_Permissions(t *testing.T) {
	store := newMemProjectStore(
		ownedProject("p1", "mine", bob.ID),
		model.Project{ID: "p2", Name: "house", Color: "#00ff00"},
	)
	svc := NewProjectService(store)

	if err := svc.Delete(context.Background(), bob, "p2"); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("member must not delete a shared project, got %v", err)
	}
	if err := svc.Delete(context.Background(), bob, "p1"); err != nil {
		t.Errorf("owner delete: %v", err)
	}
	if err := svc.Delete(context.Background(), bob, "ghost"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
