package repository

import (
	"strings"
	"testing"
	"time"

	"routinelink/internal/model"
)

var filterNow = time.Date(2025, time.June, 2, 12, 0, 0, 0, time.UTC)

var viewer = &model.User{ID: "u-bob", Username: "bob", Role: model.RoleMember}

func TestBuild_VisibilityAlwaysApplied(t *testing.T) {
	p := TaskFilter{View: ViewAll, Now: filterNow}.Build(viewer)

	for _, col := range []string{"created_by = ?", "is_shared = ?", "assigned_to = ?"} {
		if !strings.Contains(p.expr, col) {
			t.Errorf("expected visibility condition %q in %q", col, p.expr)
		}
	}
	if len(p.args) != 3 {
		t.Fatalf("expected 3 args, got %d: %v", len(p.args), p.args)
	}
	if p.args[0] != viewer.ID || p.args[2] != viewer.ID {
		t.Errorf("visibility args must bind the viewer, got %v", p.args)
	}
}

func TestBuild_TodayView(t *testing.T) {
	p := TaskFilter{View: ViewToday, Now: filterNow}.Build(viewer)

	if !strings.Contains(p.expr, "due_date >= ? AND due_date <= ?") {
		t.Errorf("expected today date range in %q", p.expr)
	}
	if !strings.Contains(p.expr, "is_recurring = ? AND recurrence = ?") {
		t.Errorf("daily routines must always appear in the today view: %q", p.expr)
	}
	if !strings.Contains(p.expr, "completed = ?") {
		t.Errorf("today view must exclude completed tasks: %q", p.expr)
	}

	today := model.StartOfDay(filterNow)
	found := false
	for _, arg := range p.args {
		if ts, ok := arg.(time.Time); ok && ts.Equal(today) {
			found = true
		}
	}
	if !found {
		t.Errorf("expected start-of-day bound %v in args %v", today, p.args)
	}

	// daily routines are exempt from the completed predicate so they stay
	// listed during the reset window
	if got := strings.Count(p.expr, "is_recurring = ? AND recurrence = ?"); got != 2 {
		t.Errorf("expected the daily-routine condition in both selection and completion, got %d in %q", got, p.expr)
	}
}

func TestBuild_UpcomingView(t *testing.T) {
	p := TaskFilter{View: ViewUpcoming, Now: filterNow}.Build(viewer)

	tomorrow := model.StartOfDay(filterNow).AddDate(0, 0, 1)
	var lower time.Time
	for _, arg := range p.args {
		if ts, ok := arg.(time.Time); ok {
			lower = ts
			break
		}
	}
	if !lower.Equal(tomorrow) {
		t.Errorf("upcoming window must start tomorrow, got %v", lower)
	}
}

func TestBuild_SharedViewNarrowsVisibility(t *testing.T) {
	p := TaskFilter{View: ViewShared, Now: filterNow}.Build(viewer)

	if strings.Contains(p.expr, "created_by") {
		t.Errorf("shared view must not include own private tasks: %q", p.expr)
	}
	if !strings.Contains(p.expr, "is_shared = ?") || !strings.Contains(p.expr, "assigned_to = ?") {
		t.Errorf("shared view must keep shared and assigned conditions: %q", p.expr)
	}
}

func TestBuild_DimensionFilters(t *testing.T) {
	p := TaskFilter{View: ViewAll, ProjectID: "p1", Priority: 2, Search: "Groceries", Now: filterNow}.Build(viewer)

	if !strings.Contains(p.expr, "project_id = ?") {
		t.Errorf("expected project filter in %q", p.expr)
	}
	if !strings.Contains(p.expr, "priority = ?") {
		t.Errorf("expected priority filter in %q", p.expr)
	}
	if !strings.Contains(p.expr, "LOWER(title) LIKE ?") || !strings.Contains(p.expr, "LOWER(description) LIKE ?") {
		t.Errorf("expected case-insensitive search in %q", p.expr)
	}
	var like string
	for _, arg := range p.args {
		if s, ok := arg.(string); ok && strings.HasPrefix(s, "%") {
			like = s
			break
		}
	}
	if like != "%groceries%" {
		t.Errorf("expected lowercased like pattern, got %q", like)
	}
}

func TestBuild_CompletedView(t *testing.T) {
	p := TaskFilter{View: ViewCompleted, Now: filterNow}.Build(viewer)
	if !strings.Contains(p.expr, "completed = ?") {
		t.Fatalf("expected completed condition in %q", p.expr)
	}
	hasTrue := false
	for _, arg := range p.args {
		if b, ok := arg.(bool); ok && b {
			hasTrue = true
		}
	}
	if !hasTrue {
		t.Errorf("completed view must bind completed = true, got %v", p.args)
	}
}

func TestJoin_SkipsEmptyPredicates(t *testing.T) {
	p := allOf(pred(""), pred("a = ?", 1), predicate{})
	if p.expr != "(a = ?)" {
		t.Errorf("expected empty predicates dropped, got %q", p.expr)
	}
}
