package notify

import (
	"strings"
	"testing"
	"time"

	"routinelink/internal/event"
	"routinelink/internal/model"
	"routinelink/internal/service"
)

func TestFormatEvent(t *testing.T) {
	task := &model.Task{ID: "t1", Title: "Buy <milk>"}
	routine := &model.Task{ID: "t2", Title: "Run", IsRecurring: true}

	cases := []struct {
		name     string
		e        event.Event
		contains []string
		empty    bool
	}{
		{
			name:     "created",
			e:        event.Event{Kind: event.TaskCreated, Task: task, Username: "alice"},
			contains: []string{"alice", "Buy &lt;milk&gt;"},
		},
		{
			name:     "completed",
			e:        event.Event{Kind: event.TaskCompleted, Task: task, Username: "bob"},
			contains: []string{"✅", "bob"},
		},
		{
			name:     "recurring completed",
			e:        event.Event{Kind: event.TaskCompleted, Task: routine, Username: "bob"},
			contains: []string{"♻️"},
		},
		{
			name:     "deleted without task payload",
			e:        event.Event{Kind: event.TaskDeleted, TaskID: "t1", Username: "bob"},
			contains: []string{"deleted"},
		},
		{
			name:  "metadata update suppressed",
			e:     event.Event{Kind: event.TaskUpdated, Task: task, Username: "bob"},
			empty: true,
		},
		{
			name:  "recurring reset suppressed",
			e:     event.Event{Kind: event.TaskUpdated, Task: routine, IsRecurringReset: true},
			empty: true,
		},
		{
			name:  "short streak suppressed",
			e:     event.Event{Kind: event.StatsUpdated, Username: "bob", Stat: &model.DailyStat{Streak: 1}},
			empty: true,
		},
		{
			name:     "streak milestone",
			e:        event.Event{Kind: event.StatsUpdated, Username: "bob", Stat: &model.DailyStat{Streak: 7}},
			contains: []string{"7-day", "bob"},
		},
		{
			name:     "anonymous actor",
			e:        event.Event{Kind: event.TaskDeleted},
			contains: []string{"someone"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := formatEvent(tc.e)
			if tc.empty {
				if got != "" {
					t.Fatalf("expected suppressed message, got %q", got)
				}
				return
			}
			if got == "" {
				t.Fatal("expected a message")
			}
			for _, want := range tc.contains {
				if !strings.Contains(got, want) {
					t.Errorf("expected %q in %q", want, got)
				}
			}
		})
	}
}

func TestBuildDigest(t *testing.T) {
	now := time.Date(2025, time.June, 2, 21, 0, 0, 0, time.UTC)
	users := []service.TogetherUser{
		{
			Username:       "bob",
			TodayTasks:     2,
			TodayCompleted: 1,
			CurrentStreak:  4,
			TodayTasksList: []service.TogetherTask{
				{Title: "Run", Completed: true, IsRecurring: true},
				{Title: "Dishes & more"},
			},
		},
		{Username: "alice"},
	}

	digest := BuildDigest(users, now)

	if !strings.Contains(digest, "2025-06-02") {
		t.Errorf("expected date in digest: %q", digest)
	}
	// users render alphabetically
	if strings.Index(digest, "alice") > strings.Index(digest, "bob") {
		t.Error("expected users sorted by username")
	}
	if !strings.Contains(digest, "1/2 done") {
		t.Errorf("expected completion ratio in digest: %q", digest)
	}
	if !strings.Contains(digest, "4-day streak") {
		t.Errorf("expected streak line: %q", digest)
	}
	if !strings.Contains(digest, "Dishes &amp; more") {
		t.Errorf("expected escaped title: %q", digest)
	}
	if !strings.Contains(digest, "nothing scheduled today") {
		t.Errorf("expected empty-day line for alice: %q", digest)
	}
	if !strings.Contains(digest, "✅ ♻️ Run") {
		t.Errorf("expected completed routine icons: %q", digest)
	}
}
