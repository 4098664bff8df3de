package model

import "time"

// Recurrence is the fixed-interval cadence of a recurring task.
type Recurrence string

const (
	RecurDaily   Recurrence = "daily"
	RecurWeekly  Recurrence = "weekly"
	RecurMonthly Recurrence = "monthly"
)

// Valid reports whether the cadence is one of the supported intervals.
func (r Recurrence) Valid() bool {
	switch r {
	case RecurDaily, RecurWeekly, RecurMonthly:
		return true
	}
	return false
}

// NextDueDate returns the next due date one cadence unit after from,
// truncated to start of day.
func (r Recurrence) NextDueDate(from time.Time) time.Time {
	var next time.Time
	switch r {
	case RecurWeekly:
		next = from.AddDate(0, 0, 7)
	case RecurMonthly:
		next = from.AddDate(0, 1, 0)
	default:
		next = from.AddDate(0, 0, 1)
	}
	return StartOfDay(next)
}

// Task represents a single item in the shared tracker.
type Task struct {
	ID             string `gorm:"primaryKey"`
	Title          string
	Description    string
	Completed      bool `gorm:"default:false"`
	CompletedAt    *time.Time
	DueDate        *time.Time
	Priority       int      `gorm:"default:4"` // 1 most urgent .. 4
	Labels         []string `gorm:"serializer:json"`
	ProjectID      *string  `gorm:"index"`
	CreatedBy      string   `gorm:"index"`
	AssignedTo     *string  `gorm:"index"`
	IsRecurring    bool     `gorm:"default:false"`
	Recurrence     Recurrence
	LastCompleted  *time.Time
	PendingResetAt *time.Time `gorm:"index"`
	IsShared       bool       `gorm:"default:false"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate checks the recurrence invariant: a cadence is present iff the
// task is recurring.
func (t *Task) Validate() error {
	if t.IsRecurring {
		if !t.Recurrence.Valid() {
			return ErrInvalidTransition
		}
	} else if t.Recurrence != "" {
		return ErrInvalidTransition
	}
	if t.Priority < 1 || t.Priority > 4 {
		return ErrInvalidTransition
	}
	return nil
}

// DoneOn reports whether the task counts as completed for the given day.
// For recurring tasks the answer is derived from LastCompleted, not from the
// transient Completed flag, which flips back during the reset window.
func (t *Task) DoneOn(day time.Time) bool {
	if t.IsRecurring {
		if t.LastCompleted == nil {
			return false
		}
		return StartOfDay(*t.LastCompleted).Equal(StartOfDay(day))
	}
	return t.Completed
}

// VisibleTo reports whether the user may see and act on the task.
func (t *Task) VisibleTo(u *User) bool {
	if u.IsAdmin() || t.IsShared || t.CreatedBy == u.ID {
		return true
	}
	return t.AssignedTo != nil && *t.AssignedTo == u.ID
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last nanosecond of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
