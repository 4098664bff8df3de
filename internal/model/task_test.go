package model

import (
	"errors"
	"testing"
	"time"
)

func TestRecurrenceNextDueDate(t *testing.T) {
	// a Monday afternoon
	from := time.Date(2025, time.March, 10, 15, 30, 0, 0, time.UTC)
	cases := []struct {
		r    Recurrence
		want time.Time
	}{
		{RecurDaily, time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC)},
		{RecurWeekly, time.Date(2025, time.March, 17, 0, 0, 0, 0, time.UTC)},
		{RecurMonthly, time.Date(2025, time.April, 10, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		if got := tc.r.NextDueDate(from); !got.Equal(tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.r, tc.want, got)
		}
	}
}

func TestTaskValidate(t *testing.T) {
	cases := []struct {
		name string
		task Task
		ok   bool
	}{
		{"plain task", Task{Title: "x", Priority: 4}, true},
		{"recurring daily", Task{Title: "x", Priority: 1, IsRecurring: true, Recurrence: RecurDaily}, true},
		{"recurring without cadence", Task{Title: "x", Priority: 4, IsRecurring: true}, false},
		{"cadence without recurring", Task{Title: "x", Priority: 4, Recurrence: RecurDaily}, false},
		{"unknown cadence", Task{Title: "x", Priority: 4, IsRecurring: true, Recurrence: "hourly"}, false},
		{"priority too low", Task{Title: "x", Priority: 0}, false},
		{"priority too high", Task{Title: "x", Priority: 5}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.task.Validate()
			if tc.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("expected ErrInvalidTransition, got %v", err)
			}
		})
	}
}

func TestTaskDoneOn(t *testing.T) {
	today := time.Date(2025, time.June, 2, 14, 0, 0, 0, time.UTC)
	thisMorning := time.Date(2025, time.June, 2, 8, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)

	oneOff := Task{Completed: true}
	if !oneOff.DoneOn(today) {
		t.Error("completed one-off task must report done")
	}

	routine := Task{IsRecurring: true, Recurrence: RecurDaily, LastCompleted: &thisMorning}
	if !routine.DoneOn(today) {
		t.Error("routine completed this morning must report done today")
	}
	if routine.DoneOn(yesterday) {
		t.Error("routine must not report done for a different day")
	}

	// during the reset window Completed flips back, but the day still counts
	routine.Completed = false
	if !routine.DoneOn(today) {
		t.Error("done-today must be derived from LastCompleted, not Completed")
	}

	fresh := Task{IsRecurring: true, Recurrence: RecurDaily}
	if fresh.DoneOn(today) {
		t.Error("never-completed routine must not report done")
	}
}

func TestTaskVisibleTo(t *testing.T) {
	owner := &User{ID: "u1", Role: RoleMember}
	other := &User{ID: "u2", Role: RoleMember}
	admin := &User{ID: "u3", Role: RoleAdmin}
	assignee := "u2"

	private := Task{CreatedBy: "u1"}
	if !private.VisibleTo(owner) || private.VisibleTo(other) {
		t.Error("private task is visible to its creator only")
	}
	if !private.VisibleTo(admin) {
		t.Error("admin sees everything")
	}

	shared := Task{CreatedBy: "u1", IsShared: true}
	if !shared.VisibleTo(other) {
		t.Error("shared task is visible to everyone")
	}

	assigned := Task{CreatedBy: "u1", AssignedTo: &assignee}
	if !assigned.VisibleTo(other) {
		t.Error("assignee sees the task")
	}
}

func TestDayBounds(t *testing.T) {
	at := time.Date(2025, time.June, 2, 14, 45, 30, 123, time.UTC)
	start := StartOfDay(at)
	end := EndOfDay(at)

	if !start.Equal(time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected start of day %v", start)
	}
	if !end.Before(start.AddDate(0, 0, 1)) || end.Before(at) {
		t.Errorf("end of day %v must be the last instant of the day", end)
	}
}
