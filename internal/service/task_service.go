package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"routinelink/internal/clock"
	"routinelink/internal/event"
	"routinelink/internal/model"
	"routinelink/internal/repository"
)

// TaskStore is the slice of the record store the task service needs.
type TaskStore interface {
	Get(ctx context.Context, id string) (*model.Task, error)
	Create(ctx context.Context, task *model.Task) error
	Save(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, viewer *model.User, filter repository.TaskFilter) ([]model.Task, error)
	ListAll(ctx context.Context, createdBy string) ([]model.Task, error)
}

// DeltaApplier feeds completion deltas into the daily stat accumulator.
type DeltaApplier interface {
	ApplyDelta(ctx context.Context, userID string, day time.Time, delta int) (*model.DailyStat, error)
}

// Recurrer hands completed recurring tasks to the recurrence scheduler.
type Recurrer interface {
	OnCompleted(ctx context.Context, task *model.Task, actorID string) error
	OnUncompleted(ctx context.Context, task *model.Task) (bool, error)
}

// TaskInput carries the fields a client may set when creating a task.
type TaskInput struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	DueDate     *time.Time       `json:"dueDate"`
	Priority    int              `json:"priority"`
	Labels      []string         `json:"labels"`
	ProjectID   *string          `json:"projectId"`
	IsRecurring bool             `json:"isRecurring"`
	Recurrence  model.Recurrence `json:"recurrence"`
	IsShared    bool             `json:"isShared"`
	AssignedTo  *string          `json:"assignedTo"`
}

// TaskUpdate is a partial metadata update; nil fields are left untouched.
// Concurrent edits are resolved last-write-wins.
type TaskUpdate struct {
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	DueDate     *time.Time        `json:"dueDate"`
	Priority    *int              `json:"priority"`
	Labels      *[]string         `json:"labels"`
	ProjectID   *string           `json:"projectId"`
	IsShared    *bool             `json:"isShared"`
	AssignedTo  *string           `json:"assignedTo"`
	Recurrence  *model.Recurrence `json:"recurrence"`
	IsRecurring *bool             `json:"isRecurring"`
}

// TaskService coordinates task lifecycle: CRUD, the completion toggle, the
// stat accumulator, and the recurrence hand-off.
type TaskService struct {
	tasks  TaskStore
	deltas DeltaApplier
	recur  Recurrer
	bus    event.Broadcaster
	clk    clock.Clock
	logger *log.Logger
}

func NewTaskService(tasks TaskStore, deltas DeltaApplier, recur Recurrer, bus event.Broadcaster, clk clock.Clock, logger *log.Logger) *TaskService {
	if bus == nil {
		bus = event.Discard
	}
	return &TaskService{tasks: tasks, deltas: deltas, recur: recur, bus: bus, clk: clk, logger: logger}
}

func (s *TaskService) Create(ctx context.Context, actor *model.User, input TaskInput) (*model.Task, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title is required", model.ErrInvalidTransition)
	}
	priority := input.Priority
	if priority == 0 {
		priority = 4
	}

	task := &model.Task{
		Title:       input.Title,
		Description: input.Description,
		DueDate:     input.DueDate,
		Priority:    priority,
		Labels:      input.Labels,
		ProjectID:   input.ProjectID,
		CreatedBy:   actor.ID,
		AssignedTo:  input.AssignedTo,
		IsRecurring: input.IsRecurring,
		IsShared:    input.IsShared,
	}
	if input.IsRecurring {
		task.Recurrence = input.Recurrence
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	s.bus.Publish(event.Event{
		Kind:     event.TaskCreated,
		Task:     task,
		UserID:   actor.ID,
		Username: actor.Username,
		At:       s.clk.Now(),
	})
	return task, nil
}

func (s *TaskService) Get(ctx context.Context, actor *model.User, taskID string) (*model.Task, error) {
	task, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !task.VisibleTo(actor) {
		return nil, model.ErrForbidden
	}
	return task, nil
}

func (s *TaskService) List(ctx context.Context, actor *model.User, filter repository.TaskFilter) ([]model.Task, error) {
	if filter.Now.IsZero() {
		filter.Now = s.clk.Now()
	}
	return s.tasks.List(ctx, actor, filter)
}

// ListAll returns every task regardless of visibility. Admin only.
func (s *TaskService) ListAll(ctx context.Context, actor *model.User, createdBy string) ([]model.Task, error) {
	if !actor.IsAdmin() {
		return nil, model.ErrForbidden
	}
	return s.tasks.ListAll(ctx, createdBy)
}

// Update applies a partial metadata edit. Completion state is not touched
// here; that goes through ToggleComplete.
func (s *TaskService) Update(ctx context.Context, actor *model.User, taskID string, upd TaskUpdate) (*model.Task, error) {
	task, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !task.VisibleTo(actor) {
		return nil, model.ErrForbidden
	}

	if upd.Title != nil {
		task.Title = *upd.Title
	}
	if upd.Description != nil {
		task.Description = *upd.Description
	}
	if upd.DueDate != nil {
		task.DueDate = upd.DueDate
	}
	if upd.Priority != nil {
		task.Priority = *upd.Priority
	}
	if upd.Labels != nil {
		task.Labels = *upd.Labels
	}
	if upd.ProjectID != nil {
		task.ProjectID = upd.ProjectID
	}
	if upd.IsShared != nil {
		task.IsShared = *upd.IsShared
	}
	if upd.AssignedTo != nil {
		task.AssignedTo = upd.AssignedTo
	}
	if upd.IsRecurring != nil {
		task.IsRecurring = *upd.IsRecurring
		if !task.IsRecurring {
			task.Recurrence = ""
		}
	}
	if upd.Recurrence != nil {
		task.Recurrence = *upd.Recurrence
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}

	if err := s.tasks.Save(ctx, task); err != nil {
		return nil, err
	}

	s.bus.Publish(event.Event{
		Kind:     event.TaskUpdated,
		Task:     task,
		UserID:   actor.ID,
		Username: actor.Username,
		At:       s.clk.Now(),
	})
	return task, nil
}

// Delete removes a task. Only the creator or an admin may delete.
func (s *TaskService) Delete(ctx context.Context, actor *model.User, taskID string) error {
	task, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return err
	}
	if task.CreatedBy != actor.ID && !actor.IsAdmin() {
		return model.ErrForbidden
	}
	if err := s.tasks.Delete(ctx, taskID); err != nil {
		return err
	}
	s.bus.Publish(event.Event{
		Kind:     event.TaskDeleted,
		TaskID:   taskID,
		UserID:   actor.ID,
		Username: actor.Username,
		At:       s.clk.Now(),
	})
	return nil
}

// ToggleComplete flips a task's completion state for the acting user.
// Duplicate requests (network retries) are absorbed as no-ops. The stat
// delta accrues to the acting user's day bucket, who may differ from the
// task owner on shared tasks.
func (s *TaskService) ToggleComplete(ctx context.Context, actor *model.User, taskID string, completed bool) (*model.Task, error) {
	task, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !task.VisibleTo(actor) {
		return nil, model.ErrForbidden
	}

	now := s.clk.Now()

	// Duplicate guard. For recurring tasks "done" is derived from
	// LastCompleted: during the reset window Completed is still true and
	// after the reset it is false again, but either way the task was done
	// today and a second complete (or a repeated undo) must not double
	// count.
	currently := task.Completed
	if task.IsRecurring {
		currently = task.DoneOn(now)
	}
	if currently == completed {
		return task, nil
	}

	if completed {
		task.Completed = true
		task.CompletedAt = &now
	} else {
		task.Completed = false
		task.CompletedAt = nil
	}
	if err := s.tasks.Save(ctx, task); err != nil {
		return nil, err
	}

	delta := 1
	if !completed {
		delta = -1
	}
	if _, err := s.deltas.ApplyDelta(ctx, actor.ID, now, delta); err != nil {
		return nil, fmt.Errorf("apply stat delta: %w", err)
	}

	if task.IsRecurring {
		if completed {
			if err := s.recur.OnCompleted(ctx, task, actor.ID); err != nil {
				// The completion itself already succeeded; a failed reset
				// schedule is reconciled later.
				if errors.Is(err, model.ErrSchedulingFailure) {
					s.logger.Error("schedule deferred reset", "task", task.ID, "err", err)
				} else {
					return nil, err
				}
			}
		} else {
			if _, err := s.recur.OnUncompleted(ctx, task); err != nil {
				return nil, err
			}
		}
	}

	kind := event.TaskCompleted
	if !completed {
		kind = event.TaskUpdated
	}
	s.bus.Publish(event.Event{
		Kind:     kind,
		Task:     task,
		UserID:   actor.ID,
		Username: actor.Username,
		At:       now,
	})
	return task, nil
}
