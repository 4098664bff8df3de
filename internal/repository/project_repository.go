package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"routinelink/internal/model"
)

// ProjectRepository handles CRUD for projects.
type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(ctx context.Context, project *model.Project) error {
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(project).Error; err != nil {
		return fmt.Errorf("create project: %w", translateErr(err))
	}
	return nil
}

func (r *ProjectRepository) Get(ctx context.Context, id string) (*model.Project, error) {
	var project model.Project
	if err := r.db.WithContext(ctx).First(&project, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("find project: %w", translateErr(err))
	}
	return &project, nil
}

func (r *ProjectRepository) Save(ctx context.Context, project *model.Project) error {
	if err := r.db.WithContext(ctx).Save(project).Error; err != nil {
		return fmt.Errorf("save project: %w", translateErr(err))
	}
	return nil
}

func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&model.Project{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete project: %w", translateErr(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete project: %w", model.ErrNotFound)
	}
	return nil
}

// ListVisible returns the user's own projects plus the shared ones.
func (r *ProjectRepository) ListVisible(ctx context.Context, userID string) ([]model.Project, error) {
	var projects []model.Project
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? OR owner_id IS NULL", userID).
		Order("created_at DESC").
		Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("list projects: %w", translateErr(err))
	}
	return projects, nil
}

// CountTasks returns how many tasks reference the project.
func (r *ProjectRepository) CountTasks(ctx context.Context, projectID string) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("project_id = ?", projectID).
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count project tasks: %w", translateErr(err))
	}
	return n, nil
}

// CountAll returns the total number of projects.
func (r *ProjectRepository) CountAll(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Project{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count projects: %w", translateErr(err))
	}
	return n, nil
}
