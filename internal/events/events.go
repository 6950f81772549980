// Package events implements the run-level notifications that
// accompany a scheduling run: one backend dispatches in-process for a
// single-binary deployment, the other publishes to Kafka for a
// multi-consumer deployment (dashboards, audit log, alerting) — both
// satisfy the same Manager interface so callers don't care which is
// wired in.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// EventType names one of the run lifecycle events a caller can
// subscribe to.
type EventType string

const (
	EventRunStarted         EventType = "run.started"
	EventRunCompleted       EventType = "run.completed"
	EventRunFailed          EventType = "run.failed"
	EventInstanceFailed     EventType = "instance.failed"
	EventOptimizerIteration EventType = "optimizer.iteration"
)

// Event is a single, discrete notification about a scheduling run.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	RunID     string          `json:"run_id"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// EventHandler processes one event; an error is logged by the manager
// but never aborts the run that produced the event.
type EventHandler func(ctx context.Context, event Event) error

// Manager is the interface both backends implement: publish an event,
// subscribe a handler to a type, and shut down cleanly.
type Manager interface {
	// Publish sends an event to the bus.
	Publish(ctx context.Context, event Event) error

	// Subscribe listens for events of a specific type. The handler
	// runs in a background goroutine owned by the implementation.
	Subscribe(ctx context.Context, eventType EventType, handler EventHandler) error

	// Close gracefully shuts down the connection to the event bus.
	Close() error
}
