package repository

import (
	"strings"
	"time"

	"routinelink/internal/model"
)

// Task list views.
const (
	ViewAll       = "all"
	ViewToday     = "today"
	ViewUpcoming  = "upcoming"
	ViewCompleted = "completed"
	ViewPriority  = "priority"
	ViewShared    = "shared"
)

// TaskFilter selects tasks along the fixed filter dimensions. Zero values
// mean "no constraint". Now anchors the calendar-relative views.
type TaskFilter struct {
	View      string
	ProjectID string
	Priority  int
	Search    string
	Now       time.Time
}

// predicate is one named boolean condition with its bind arguments.
// Predicates compose with explicit AND/OR so the final where clause has a
// fixed precedence instead of ad hoc string concatenation.
type predicate struct {
	expr string
	args []interface{}
}

func pred(expr string, args ...interface{}) predicate {
	return predicate{expr: expr, args: args}
}

func join(op string, ps ...predicate) predicate {
	var parts []string
	var args []interface{}
	for _, p := range ps {
		if p.expr == "" {
			continue
		}
		parts = append(parts, "("+p.expr+")")
		args = append(args, p.args...)
	}
	return predicate{expr: strings.Join(parts, " "+op+" "), args: args}
}

func allOf(ps ...predicate) predicate { return join("AND", ps...) }
func anyOf(ps ...predicate) predicate { return join("OR", ps...) }

// Build compiles the filter into a single where clause for the viewer.
// Visibility (own, shared, assigned) is always applied; the shared view
// narrows it instead of widening it.
func (f TaskFilter) Build(viewer *model.User) predicate {
	now := f.Now
	if now.IsZero() {
		now = time.Now()
	}
	today := model.StartOfDay(now)
	endToday := model.EndOfDay(now)

	visibility := anyOf(
		pred("created_by = ?", viewer.ID),
		pred("is_shared = ?", true),
		pred("assigned_to = ?", viewer.ID),
	)

	conds := []predicate{visibility}

	switch f.View {
	case ViewToday:
		// Daily routines stay listed while briefly completed so they don't
		// flicker out of the view during the deferred reset window.
		conds = append(conds,
			anyOf(
				pred("due_date >= ? AND due_date <= ?", today, endToday),
				pred("due_date IS NULL AND created_at >= ?", today),
				pred("is_recurring = ? AND recurrence = ?", true, string(model.RecurDaily)),
			),
			anyOf(
				pred("completed = ?", false),
				pred("is_recurring = ? AND recurrence = ?", true, string(model.RecurDaily)),
			),
		)
	case ViewUpcoming:
		tomorrow := today.AddDate(0, 0, 1)
		nextWeek := model.EndOfDay(today.AddDate(0, 0, 7))
		conds = append(conds,
			pred("due_date >= ? AND due_date <= ?", tomorrow, nextWeek),
			pred("completed = ?", false),
		)
	case ViewCompleted:
		conds = append(conds, pred("completed = ?", true))
	case ViewPriority:
		conds = append(conds, pred("completed = ?", false))
	case ViewShared:
		conds[0] = anyOf(
			pred("is_shared = ?", true),
			pred("assigned_to = ?", viewer.ID),
		)
	}

	if f.ProjectID != "" {
		conds = append(conds, pred("project_id = ?", f.ProjectID))
	}
	if f.Priority != 0 {
		conds = append(conds, pred("priority = ?", f.Priority))
	}
	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		conds = append(conds, anyOf(
			pred("LOWER(title) LIKE ?", like),
			pred("LOWER(description) LIKE ?", like),
		))
	}

	return allOf(conds...)
}
