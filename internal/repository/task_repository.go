package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"routinelink/internal/model"
)

// TaskRepository handles persistence for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", translateErr(err))
	}
	return nil
}

func (r *TaskRepository) Get(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("find task: %w", translateErr(err))
	}
	return &task, nil
}

func (r *TaskRepository) Save(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return fmt.Errorf("save task: %w", translateErr(err))
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&model.Task{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete task: %w", translateErr(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete task: %w", model.ErrNotFound)
	}
	return nil
}

// List returns the tasks matching the filter that the viewer may see.
func (r *TaskRepository) List(ctx context.Context, viewer *model.User, filter TaskFilter) ([]model.Task, error) {
	where := filter.Build(viewer)
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Where(where.expr, where.args...).
		Order("priority ASC, due_date ASC, created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", translateErr(err))
	}
	return tasks, nil
}

// ListAll returns every task, optionally narrowed to one creator. Admin use.
func (r *TaskRepository) ListAll(ctx context.Context, createdBy string) ([]model.Task, error) {
	q := r.db.WithContext(ctx)
	if createdBy != "" {
		q = q.Where("created_by = ?", createdBy)
	}
	var tasks []model.Task
	if err := q.Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list all tasks: %w", translateErr(err))
	}
	return tasks, nil
}

// ListPendingResets returns recurring tasks whose deferred reset deadline
// has already passed.
func (r *TaskRepository) ListPendingResets(ctx context.Context, before time.Time) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Where("is_recurring = ? AND pending_reset_at IS NOT NULL AND pending_reset_at <= ?", true, before).
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list pending resets: %w", translateErr(err))
	}
	return tasks, nil
}

// ListTodayFor returns the user's tasks relevant to the given day: due
// today, daily routines, or undated tasks created today.
func (r *TaskRepository) ListTodayFor(ctx context.Context, user *model.User, now time.Time) ([]model.Task, error) {
	today := model.StartOfDay(now)
	end := model.EndOfDay(now)
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Where("created_by = ? OR assigned_to = ? OR is_shared = ?", user.ID, user.ID, true).
		Where(
			r.db.Where("is_recurring = ? AND due_date >= ? AND due_date <= ?", false, today, end).
				Or("is_recurring = ? AND recurrence = ?", true, string(model.RecurDaily)).
				Or("due_date IS NULL AND created_at >= ?", today),
		).
		Order("completed ASC, priority ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("list today tasks: %w", translateErr(err))
	}
	return tasks, nil
}

// CountOpen returns (dueToday, upcoming) open task counts for the user.
func (r *TaskRepository) CountOpen(ctx context.Context, userID string, now time.Time) (int64, int64, error) {
	today := model.StartOfDay(now)
	end := model.EndOfDay(now)

	var dueToday int64
	err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("created_by = ? AND completed = ?", userID, false).
		Where("(due_date >= ? AND due_date <= ?) OR due_date IS NULL", today, end).
		Count(&dueToday).Error
	if err != nil {
		return 0, 0, fmt.Errorf("count today tasks: %w", translateErr(err))
	}

	var upcoming int64
	err = r.db.WithContext(ctx).Model(&model.Task{}).
		Where("created_by = ? AND completed = ? AND due_date > ?", userID, false, end).
		Count(&upcoming).Error
	if err != nil {
		return 0, 0, fmt.Errorf("count upcoming tasks: %w", translateErr(err))
	}

	return dueToday, upcoming, nil
}

// Totals returns overall and completed task counts across all users.
func (r *TaskRepository) Totals(ctx context.Context) (total int64, completed int64, err error) {
	if err = r.db.WithContext(ctx).Model(&model.Task{}).Count(&total).Error; err != nil {
		return 0, 0, fmt.Errorf("count tasks: %w", translateErr(err))
	}
	if err = r.db.WithContext(ctx).Model(&model.Task{}).Where("completed = ?", true).Count(&completed).Error; err != nil {
		return 0, 0, fmt.Errorf("count completed tasks: %w", translateErr(err))
	}
	return total, completed, nil
}

// CountCreatedSince returns how many tasks the user created since the cutoff.
func (r *TaskRepository) CountCreatedSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("created_by = ? AND created_at >= ?", userID, since).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count created tasks: %w", translateErr(err))
	}
	return n, nil
}
