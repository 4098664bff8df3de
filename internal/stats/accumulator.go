// Package stats owns the per-user daily completion counters and their
// streak write-back. DailyStat rows are mutated here and nowhere else.
package stats

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"routinelink/internal/clock"
	"routinelink/internal/event"
	"routinelink/internal/model"
	"routinelink/internal/streak"
)

// historyDays bounds how far back the streak recomputation looks.
const historyDays = 365

const (
	maxRetries   = 3
	retryBackoff = 25 * time.Millisecond
)

// StatStore is the slice of the record store the accumulator needs.
type StatStore interface {
	// IncrementDailyStat atomically adds delta to the (userID, day) row,
	// creating it if absent and clamping the count at zero.
	IncrementDailyStat(ctx context.Context, userID string, day time.Time, delta int) (*model.DailyStat, error)
	// ListRecent returns up to limit rows for the user, newest first.
	ListRecent(ctx context.Context, userID string, limit int) ([]model.DailyStat, error)
	UpdateStreak(ctx context.Context, userID string, day time.Time, streakLen int) error
}

// Accumulator applies completion deltas to daily stat rows and keeps the
// streak column consistent. The increment itself is atomic at the store,
// but increment-then-recompute is not, so deltas for the same user are
// serialized behind a per-user mutex.
type Accumulator struct {
	store StatStore
	bus   event.Broadcaster
	clk   clock.Clock

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewAccumulator(store StatStore, bus event.Broadcaster, clk clock.Clock) *Accumulator {
	if bus == nil {
		bus = event.Discard
	}
	return &Accumulator{
		store: store,
		bus:   bus,
		clk:   clk,
		locks: make(map[string]*sync.Mutex),
	}
}

func (a *Accumulator) userLock(userID string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		a.locks[userID] = l
	}
	return l
}

// ApplyDelta adds delta (±1) to the user's stat row for the given day,
// recomputes the streak from the trailing history, writes it back, and
// publishes a stats-updated event after the write is durable.
func (a *Accumulator) ApplyDelta(ctx context.Context, userID string, day time.Time, delta int) (*model.DailyStat, error) {
	lock := a.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	day = model.StartOfDay(day)

	stat, err := a.incrementWithRetry(ctx, userID, day, delta)
	if err != nil {
		return nil, err
	}

	history, err := a.store.ListRecent(ctx, userID, historyDays)
	if err != nil {
		return nil, fmt.Errorf("list stats: %w", err)
	}
	counts := make([]streak.DayCount, 0, len(history))
	for _, row := range history {
		counts = append(counts, streak.DayCount{Date: row.Date, Count: row.CompletedCount})
	}

	current := streak.Compute(counts, a.clk.Now())
	if err := a.store.UpdateStreak(ctx, userID, day, current); err != nil {
		return nil, fmt.Errorf("update streak: %w", err)
	}
	stat.Streak = current

	a.bus.Publish(event.Event{
		Kind:   event.StatsUpdated,
		Stat:   stat,
		UserID: userID,
		At:     a.clk.Now(),
	})
	return stat, nil
}

func (a *Accumulator) incrementWithRetry(ctx context.Context, userID string, day time.Time, delta int) (*model.DailyStat, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		stat, err := a.store.IncrementDailyStat(ctx, userID, day, delta)
		if err == nil {
			return stat, nil
		}
		if !errors.Is(err, model.ErrConcurrencyConflict) {
			return nil, fmt.Errorf("increment stat: %w", err)
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryBackoff * time.Duration(attempt+1)):
		}
	}
	return nil, fmt.Errorf("increment stat after %d attempts: %w", maxRetries, lastErr)
}
