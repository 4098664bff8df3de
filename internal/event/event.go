// Package event defines the domain events emitted after each state
// transition and an in-process bus that fans them out to subscribers.
package event

import (
	"time"

	"routinelink/internal/model"
)

type Kind string

const (
	TaskCreated   Kind = "task-created"
	TaskUpdated   Kind = "task-updated"
	TaskCompleted Kind = "task-completed"
	TaskDeleted   Kind = "task-deleted"
	StatsUpdated  Kind = "stats-updated"
)

// Event carries enough denormalized state for a subscriber to update its
// view without a follow-up fetch.
type Event struct {
	Kind             Kind             `json:"kind"`
	Task             *model.Task      `json:"task,omitempty"`
	TaskID           string           `json:"taskId,omitempty"`
	Stat             *model.DailyStat `json:"stat,omitempty"`
	UserID           string           `json:"userId"`
	Username         string           `json:"username,omitempty"`
	IsRecurringReset bool             `json:"isRecurringReset,omitempty"`
	At               time.Time        `json:"at"`
}

// Broadcaster is the sink the core publishes to after each durable write.
// The transport behind it is at-least-once; implementations must tolerate
// redelivery.
type Broadcaster interface {
	Publish(Event)
}

// PublishFunc adapts a function to the Broadcaster interface.
type PublishFunc func(Event)

func (f PublishFunc) Publish(e Event) { f(e) }

// Discard drops every event. Useful as a default and in tests.
var Discard Broadcaster = PublishFunc(func(Event) {})
