package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Event is something a service did that other components may react to.
type Event interface {
	EventType() string
	EventID() string
	OccurredAt() time.Time
	Payload() any
}

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

func (e BaseEvent) EventType() string { return e.Type }
func (e BaseEvent) EventID() string { return e.ID }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }
func (e BaseEvent) Payload() any { return e.Data }

type Handler func(ctx context.Context, event Event) error

// EventBus fans an event out to the handlers subscribed to its type. Handlers
// run inline on the publishing goroutine so they observe the request's tenant
// and principal; anything slow belongs behind the audit dispatcher.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *slog.Logger
}

func NewEventBus(logger *slog.Logger) *EventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventBus{
		handlers: make(map[string][]Handler),
		logger:   logger.With("component", "event_bus"),
	}
}

func (eb *EventBus) Subscribe(eventType string, handler Handler) {
	eb.SubscribeAll(handler, eventType)
}

// SubscribeAll registers handler for each event type.
func (eb *EventBus) SubscribeAll(handler Handler, eventTypes ...string) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	for _, t := range eventTypes {
		eb.handlers[t] = append(eb.handlers[t], handler)
	}
	eb.logger.Debug("event handler registered", "event_types", eventTypes)
}

func (eb *EventBus) subscribers(eventType string) []Handler {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return eb.handlers[eventType]
}

// PublishSync runs every handler in subscription order. A failing handler
// does not stop the others; all failures come back joined.
func (eb *EventBus) PublishSync(ctx context.Context, event Event) error {
	hs := eb.subscribers(event.EventType())
	if len(hs) == 0 {
		return nil
	}

	var errs []error
	for i, h := range hs {
		if err := h(ctx, event); err != nil {
			eb.logger.ErrorContext(ctx, "event handler failed",
				"event_type", event.EventType(),
				"event_id", event.EventID(),
				"handler", i,
				"error", err)
			errs = append(errs, fmt.Errorf("%s handler %d: %w", event.EventType(), i, err))
		}
	}
	return errors.Join(errs...)
}
