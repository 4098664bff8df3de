package notify

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"routinelink/internal/service"
)

// SendDigest posts the daily side-by-side summary to the chat: everyone's
// open tasks, completions, and streaks for the day.
func (n *Notifier) SendDigest(users []service.TogetherUser, now time.Time) error {
	return n.send(BuildDigest(users, now))
}

// BuildDigest renders the summary as Telegram HTML.
func BuildDigest(users []service.TogetherUser, now time.Time) string {
	sorted := make([]service.TogetherUser, len(users))
	copy(sorted, users)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Username < sorted[j].Username
	})

	var b strings.Builder
	b.WriteString("📋 <b>Daily summary</b>\n")
	b.WriteString(fmt.Sprintf("🗓 %s\n", now.Format("2006-01-02")))

	for _, u := range sorted {
		b.WriteString(fmt.Sprintf("\n<b>%s</b> — %d/%d done", html.EscapeString(u.Username), u.TodayCompleted, u.TodayTasks))
		if u.CurrentStreak > 0 {
			b.WriteString(fmt.Sprintf(" · 🔥 %d-day streak", u.CurrentStreak))
		}
		b.WriteByte('\n')

		for _, t := range u.TodayTasksList {
			icon := "⬜"
			if t.Completed {
				icon = "✅"
			}
			if t.IsRecurring {
				icon += " ♻️"
			}
			b.WriteString(fmt.Sprintf("  %s %s\n", icon, html.EscapeString(strings.TrimSpace(t.Title))))
		}
		if len(u.TodayTasksList) == 0 {
			b.WriteString("  — nothing scheduled today\n")
		}
	}

	return strings.TrimSpace(b.String())
}
