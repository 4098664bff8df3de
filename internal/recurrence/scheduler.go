// Package recurrence owns the lifecycle of recurring tasks: the deferred
// reset back to pending after a completion, its cancellation on undo, and
// the reconciliation of resets that were lost to a restart.
package recurrence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"routinelink/internal/clock"
	"routinelink/internal/event"
	"routinelink/internal/model"
)

// DefaultResetDelay is how long a just-completed recurring task stays
// visibly completed before flipping back to pending. Long enough for the
// client to render completion feedback, short enough not to look like a due
// date change.
const DefaultResetDelay = 2 * time.Second

const resetTimeout = 10 * time.Second

// TaskStore is the slice of the record store the scheduler needs.
type TaskStore interface {
	Get(ctx context.Context, id string) (*model.Task, error)
	Save(ctx context.Context, task *model.Task) error
	// ListPendingResets returns recurring tasks whose persisted reset
	// deadline has passed.
	ListPendingResets(ctx context.Context, before time.Time) ([]model.Task, error)
}

// Scheduler runs the Pending -> CompletedToday -> Pending state machine for
// recurring tasks. The reset intent is persisted on the task row
// (PendingResetAt) so a sweep can recover resets whose in-memory timer died
// with the process.
type Scheduler struct {
	store  TaskStore
	bus    event.Broadcaster
	clk    clock.Clock
	logger *log.Logger
	delay  time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewScheduler(store TaskStore, bus event.Broadcaster, clk clock.Clock, logger *log.Logger) *Scheduler {
	if bus == nil {
		bus = event.Discard
	}
	return &Scheduler{
		store:  store,
		bus:    bus,
		clk:    clk,
		logger: logger,
		delay:  DefaultResetDelay,
		timers: make(map[string]*time.Timer),
	}
}

// SetResetDelay overrides the deferred reset delay. Tests only.
func (s *Scheduler) SetResetDelay(d time.Duration) {
	s.delay = d
}

// OnCompleted moves a recurring task into CompletedToday: stamps
// LastCompleted, persists the reset deadline, and arms the detached timer.
// The caller has already applied and persisted the completion fields; a
// failure here is a scheduling failure, not a failed completion.
func (s *Scheduler) OnCompleted(ctx context.Context, task *model.Task, actorID string) error {
	if !task.IsRecurring {
		return nil
	}

	now := s.clk.Now()
	resetAt := now.Add(s.delay)
	task.LastCompleted = &now
	task.PendingResetAt = &resetAt

	if err := s.store.Save(ctx, task); err != nil {
		return fmt.Errorf("%w: persist reset deadline for task %s: %v", model.ErrSchedulingFailure, task.ID, err)
	}

	s.arm(task.ID, actorID)
	return nil
}

// OnUncompleted makes an undo stick: it short-circuits a pending deferred
// reset when one is still armed, and in every case clears LastCompleted so
// the derived done-today state flips back. Without that a repeated undo
// after the reset fired would keep passing the caller's duplicate guard and
// decrement again. Reports whether a reset was still pending.
func (s *Scheduler) OnUncompleted(ctx context.Context, task *model.Task) (bool, error) {
	if !task.IsRecurring {
		return false, nil
	}

	s.disarm(task.ID)

	wasPending := task.PendingResetAt != nil
	if !wasPending && task.LastCompleted == nil {
		return false, nil
	}
	task.PendingResetAt = nil
	task.LastCompleted = nil
	if err := s.store.Save(ctx, task); err != nil {
		return wasPending, fmt.Errorf("cancel reset for task %s: %w", task.ID, err)
	}
	return wasPending, nil
}

// Reconcile resets every recurring task whose persisted deadline elapsed
// without its timer firing, e.g. after a restart. Safe to run repeatedly.
func (s *Scheduler) Reconcile(ctx context.Context) error {
	now := s.clk.Now()
	tasks, err := s.store.ListPendingResets(ctx, now)
	if err != nil {
		return fmt.Errorf("list pending resets: %w", err)
	}
	for i := range tasks {
		task := tasks[i]
		s.disarm(task.ID)
		if err := s.resetTask(ctx, &task, ""); err != nil {
			s.logger.Error("reconcile reset failed", "task", task.ID, "err", err)
		}
	}
	return nil
}

// Stop cancels all armed timers. Pending resets survive in the store and
// are picked up by the next Reconcile.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

func (s *Scheduler) arm(taskID, actorID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[taskID]; ok {
		t.Stop()
	}
	s.timers[taskID] = time.AfterFunc(s.delay, func() {
		s.fire(taskID, actorID)
	})
}

func (s *Scheduler) disarm(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[taskID]; ok {
		t.Stop()
		delete(s.timers, taskID)
	}
}

// fire runs detached from the request that armed it.
func (s *Scheduler) fire(taskID, actorID string) {
	s.mu.Lock()
	delete(s.timers, taskID)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), resetTimeout)
	defer cancel()

	task, err := s.store.Get(ctx, taskID)
	if err != nil {
		s.logger.Error("deferred reset: load task", "task", taskID, "err", err)
		return
	}
	if err := s.resetTask(ctx, task, actorID); err != nil {
		s.logger.Error("deferred reset failed", "task", taskID, "err", err)
	}
}

// resetTask performs the CompletedToday -> Pending transition. Idempotent:
// a task that is no longer completed or has no pending deadline is left
// alone, so a timer racing the reconciliation sweep (or a cancelled undo)
// cannot double-reset.
func (s *Scheduler) resetTask(ctx context.Context, task *model.Task, actorID string) error {
	if !task.IsRecurring || !task.Completed || task.PendingResetAt == nil {
		return nil
	}

	anchor := s.clk.Now()
	if task.LastCompleted != nil {
		anchor = *task.LastCompleted
	}
	due := task.Recurrence.NextDueDate(anchor)

	task.Completed = false
	task.CompletedAt = nil
	task.DueDate = &due
	task.PendingResetAt = nil

	if err := s.store.Save(ctx, task); err != nil {
		return fmt.Errorf("%w: reset task %s: %v", model.ErrSchedulingFailure, task.ID, err)
	}

	s.bus.Publish(event.Event{
		Kind:             event.TaskUpdated,
		Task:             task,
		UserID:           actorID,
		IsRecurringReset: true,
		At:               s.clk.Now(),
	})
	return nil
}
