// Package notify bridges domain events to Telegram so the shared chat sees
// activity without polling the API.
package notify

import (
	"context"
	"fmt"
	"html"

	"github.com/charmbracelet/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"routinelink/internal/event"
)

// Notifier forwards events to a single configured chat. Delivery is
// best-effort; failures are logged and never propagate to the write path.
type Notifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger *log.Logger
}

func NewTelegram(token string, chatID int64, logger *log.Logger) (*Notifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return &Notifier{api: api, chatID: chatID, logger: logger}, nil
}

// Run consumes events until the context is cancelled or the channel closes.
func (n *Notifier) Run(ctx context.Context, events <-chan event.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			text := formatEvent(e)
			if text == "" {
				continue
			}
			if err := n.send(text); err != nil {
				n.logger.Error("telegram send", "kind", e.Kind, "err", err)
			}
		}
	}
}

func (n *Notifier) send(text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := n.api.Send(msg)
	return err
}

func formatEvent(e event.Event) string {
	actor := html.EscapeString(e.Username)
	if actor == "" {
		actor = "someone"
	}

	switch e.Kind {
	case event.TaskCreated:
		if e.Task == nil {
			return ""
		}
		return fmt.Sprintf("🆕 %s added <b>%s</b>", actor, html.EscapeString(e.Task.Title))
	case event.TaskCompleted:
		if e.Task == nil {
			return ""
		}
		icon := "✅"
		if e.Task.IsRecurring {
			icon = "♻️"
		}
		return fmt.Sprintf("%s %s completed <b>%s</b>", icon, actor, html.EscapeString(e.Task.Title))
	case event.TaskDeleted:
		return fmt.Sprintf("🗑 %s deleted a task", actor)
	case event.TaskUpdated:
		// Recurring resets and metadata edits are noise in chat.
		return ""
	case event.StatsUpdated:
		if e.Stat == nil || e.Stat.Streak < 2 {
			return ""
		}
		return fmt.Sprintf("🔥 %s is on a <b>%d-day</b> streak", actor, e.Stat.Streak)
	default:
		return ""
	}
}
