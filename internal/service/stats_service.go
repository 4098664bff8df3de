package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"routinelink/internal/clock"
	"routinelink/internal/event"
	"routinelink/internal/heatmap"
	"routinelink/internal/model"
)

// Stat reset modes accepted by ResetStats.
const (
	ResetStreak = "streak"
	ResetToday  = "today"
	ResetAll    = "all"
)

// StatReader is the read side of the daily stat store.
type StatReader interface {
	ListRange(ctx context.Context, userID string, from, to time.Time) ([]model.DailyStat, error)
	Latest(ctx context.Context, userID string) (*model.DailyStat, error)
}

// StatAdmin is the administrative reset surface of the stat store.
type StatAdmin interface {
	ResetStreaks(ctx context.Context, userID string) error
	DeleteDay(ctx context.Context, userID string, day time.Time) error
	DeleteAll(ctx context.Context, userID string) error
}

// TaskCounter supplies the task-side numbers for dashboards.
type TaskCounter interface {
	CountOpen(ctx context.Context, userID string, now time.Time) (int64, int64, error)
	ListTodayFor(ctx context.Context, user *model.User, now time.Time) ([]model.Task, error)
	Totals(ctx context.Context) (int64, int64, error)
	CountCreatedSince(ctx context.Context, userID string, since time.Time) (int64, error)
}

// UserReader lists the fixed user set.
type UserReader interface {
	ListAll(ctx context.Context) ([]model.User, error)
}

// Summary is one user's dashboard: heatmap window, streak, and counts.
type Summary struct {
	Heatmap        []heatmap.Point `json:"heatmap"`
	CurrentStreak  int             `json:"currentStreak"`
	TotalCompleted int             `json:"totalCompleted"`
	TodayCompleted int             `json:"todayCompleted"`
	TodayTasks     int64           `json:"todayTasks"`
	UpcomingTasks  int64           `json:"upcomingTasks"`
}

// TogetherTask is the trimmed task shape in the side-by-side view. Completed
// is the derived done-today state for daily routines.
type TogetherTask struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Completed   bool   `json:"completed"`
	Priority    int    `json:"priority"`
	IsRecurring bool   `json:"isRecurring"`
}

// TogetherUser is one user's column in the side-by-side view.
type TogetherUser struct {
	ID             string          `json:"id"`
	Username       string          `json:"username"`
	Role           string          `json:"role"`
	TodayTasks     int             `json:"todayTasks"`
	TodayCompleted int             `json:"todayCompleted"`
	CurrentStreak  int             `json:"currentStreak"`
	TotalCompleted int             `json:"totalCompleted"`
	Heatmap        []heatmap.Point `json:"heatmap"`
	TodayTasksList []TogetherTask  `json:"todayTasksList"`
}

// AdminUserRow is one user's line in the admin overview.
type AdminUserRow struct {
	ID                 string    `json:"id"`
	Username           string    `json:"username"`
	Role               string    `json:"role"`
	CompletedThisWeek  int       `json:"completedThisWeek"`
	CurrentStreak      int       `json:"currentStreak"`
	TasksCreatedInWeek int64     `json:"tasksCreatedThisWeek"`
	LastActive         time.Time `json:"lastActive"`
}

// AdminOverview is the whole-system dashboard.
type AdminOverview struct {
	Users  []AdminUserRow `json:"users"`
	Totals struct {
		TotalTasks     int64 `json:"totalTasks"`
		CompletedTasks int64 `json:"completedTasks"`
		TotalProjects  int64 `json:"totalProjects"`
		CompletionRate int   `json:"completionRate"`
	} `json:"totals"`
}

// ProjectCounter exposes the one project number the overview needs.
type ProjectCounter interface {
	CountAll(ctx context.Context) (int64, error)
}

// StatsService serves the read paths over daily stats: dashboards, the
// heatmap window, the together view, and administrative resets. Heatmap
// projection happens here, on reads, never on the write path.
type StatsService struct {
	stats    StatReader
	admin    StatAdmin
	tasks    TaskCounter
	users    UserReader
	projects ProjectCounter
	bus      event.Broadcaster
	clk      clock.Clock
}

func NewStatsService(stats StatReader, admin StatAdmin, tasks TaskCounter, users UserReader, projects ProjectCounter, bus event.Broadcaster, clk clock.Clock) *StatsService {
	if bus == nil {
		bus = event.Discard
	}
	return &StatsService{stats: stats, admin: admin, tasks: tasks, users: users, projects: projects, bus: bus, clk: clk}
}

// Summary builds the dashboard for targetUserID over the trailing window.
// Viewing another user's summary requires the admin role.
func (s *StatsService) Summary(ctx context.Context, viewer *model.User, targetUserID string, days int) (*Summary, error) {
	if targetUserID == "" {
		targetUserID = viewer.ID
	}
	if targetUserID != viewer.ID && !viewer.IsAdmin() {
		return nil, model.ErrForbidden
	}
	if days <= 0 {
		days = 365
	}

	now := s.clk.Now()
	today := model.StartOfDay(now)
	from := today.AddDate(0, 0, -days)

	rows, err := s.stats.ListRange(ctx, targetUserID, from, now)
	if err != nil {
		return nil, err
	}

	sum := &Summary{Heatmap: heatmap.Project(rows, from, now)}
	for _, row := range rows {
		sum.TotalCompleted += row.CompletedCount
		if model.StartOfDay(row.Date).Equal(today) {
			sum.TodayCompleted = row.CompletedCount
		}
	}

	latest, err := s.stats.Latest(ctx, targetUserID)
	switch {
	case err == nil:
		sum.CurrentStreak = latest.Streak
	case errors.Is(err, model.ErrNotFound):
		// no history yet
	default:
		return nil, err
	}

	sum.TodayTasks, sum.UpcomingTasks, err = s.tasks.CountOpen(ctx, targetUserID, now)
	if err != nil {
		return nil, err
	}
	return sum, nil
}

// Together builds the side-by-side view over the whole fixed user set.
func (s *StatsService) Together(ctx context.Context) ([]TogetherUser, error) {
	users, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clk.Now()
	today := model.StartOfDay(now)
	yearAgo := today.AddDate(0, 0, -365)

	out := make([]TogetherUser, 0, len(users))
	for i := range users {
		u := users[i]
		rows, err := s.stats.ListRange(ctx, u.ID, yearAgo, now)
		if err != nil {
			return nil, err
		}

		entry := TogetherUser{
			ID:       u.ID,
			Username: u.Username,
			Role:     u.Role,
			Heatmap:  heatmap.Project(rows, yearAgo, now),
		}
		for _, row := range rows {
			entry.TotalCompleted += row.CompletedCount
		}

		latest, err := s.stats.Latest(ctx, u.ID)
		switch {
		case err == nil:
			entry.CurrentStreak = latest.Streak
		case errors.Is(err, model.ErrNotFound):
		default:
			return nil, err
		}

		tasks, err := s.tasks.ListTodayFor(ctx, &u, now)
		if err != nil {
			return nil, err
		}
		for _, task := range tasks {
			done := task.Completed
			if task.IsRecurring && task.Recurrence == model.RecurDaily {
				done = task.DoneOn(today)
			}
			if done {
				entry.TodayCompleted++
			}
			entry.TodayTasksList = append(entry.TodayTasksList, TogetherTask{
				ID:          task.ID,
				Title:       task.Title,
				Completed:   done,
				Priority:    task.Priority,
				IsRecurring: task.IsRecurring,
			})
		}
		entry.TodayTasks = len(tasks)

		out = append(out, entry)
	}
	return out, nil
}

// ResetStats clears stat state for a user. Admin only.
func (s *StatsService) ResetStats(ctx context.Context, actor *model.User, userID, resetType string) error {
	if !actor.IsAdmin() {
		return model.ErrForbidden
	}
	if userID == "" {
		return fmt.Errorf("%w: user id required", model.ErrInvalidTransition)
	}

	var err error
	switch resetType {
	case ResetStreak:
		err = s.admin.ResetStreaks(ctx, userID)
	case ResetToday:
		err = s.admin.DeleteDay(ctx, userID, s.clk.Now())
	case ResetAll:
		err = s.admin.DeleteAll(ctx, userID)
	default:
		return fmt.Errorf("%w: unknown reset type %q", model.ErrInvalidTransition, resetType)
	}
	if err != nil {
		return err
	}

	s.bus.Publish(event.Event{
		Kind:   event.StatsUpdated,
		UserID: userID,
		At:     s.clk.Now(),
	})
	return nil
}

// Overview builds the admin dashboard. Admin only.
func (s *StatsService) Overview(ctx context.Context, actor *model.User) (*AdminOverview, error) {
	if !actor.IsAdmin() {
		return nil, model.ErrForbidden
	}

	now := s.clk.Now()
	weekAgo := model.StartOfDay(now).AddDate(0, 0, -7)

	users, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	overview := &AdminOverview{}
	for i := range users {
		u := users[i]
		row := AdminUserRow{ID: u.ID, Username: u.Username, Role: u.Role, LastActive: u.CreatedAt}

		rows, err := s.stats.ListRange(ctx, u.ID, weekAgo, now)
		if err != nil {
			return nil, err
		}
		for _, st := range rows {
			row.CompletedThisWeek += st.CompletedCount
		}
		if len(rows) > 0 {
			row.LastActive = rows[len(rows)-1].Date
		}

		latest, err := s.stats.Latest(ctx, u.ID)
		switch {
		case err == nil:
			row.CurrentStreak = latest.Streak
		case errors.Is(err, model.ErrNotFound):
		default:
			return nil, err
		}

		row.TasksCreatedInWeek, err = s.tasks.CountCreatedSince(ctx, u.ID, weekAgo)
		if err != nil {
			return nil, err
		}
		overview.Users = append(overview.Users, row)
	}

	total, completed, err := s.tasks.Totals(ctx)
	if err != nil {
		return nil, err
	}
	projects, err := s.projects.CountAll(ctx)
	if err != nil {
		return nil, err
	}
	overview.Totals.TotalTasks = total
	overview.Totals.CompletedTasks = completed
	overview.Totals.TotalProjects = projects
	if total > 0 {
		overview.Totals.CompletionRate = int(float64(completed)/float64(total)*100 + 0.5)
	}
	return overview, nil
}
