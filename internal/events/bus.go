package events

import (
	"context"
	"log"
	"sync"
)

// EventBus is the in-process Manager implementation: a buffered
// channel and a background dispatch goroutine, for a single-binary
// deployment with no external broker.
type EventBus struct {
	handlers map[EventType][]EventHandler
	mu       sync.RWMutex
	queue    chan Event
	cancel   context.CancelFunc
}

// NewEventBus builds an EventBus and starts its dispatch goroutine,
// bound to ctx's lifetime.
func NewEventBus(ctx context.Context) *EventBus {
	runCtx, cancel := context.WithCancel(ctx)
	eb := &EventBus{
		handlers: make(map[EventType][]EventHandler),
		queue:    make(chan Event, 1000),
		cancel:   cancel,
	}
	go eb.run(runCtx)
	return eb
}

func (eb *EventBus) Subscribe(ctx context.Context, eventType EventType, handler EventHandler) error {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.handlers[eventType] = append(eb.handlers[eventType], handler)
	return nil
}

func (eb *EventBus) Publish(ctx context.Context, event Event) error {
	select {
	case eb.queue <- event:
		return nil
	default:
		log.Printf("event bus full, dropping event: %s", event.ID)
		return nil
	}
}

func (eb *EventBus) Close() error {
	eb.cancel()
	return nil
}

func (eb *EventBus) run(ctx context.Context) {
	for {
		select {
		case event := <-eb.queue:
			eb.dispatch(ctx, event)
		case <-ctx.Done():
			return
		}
	}
}

func (eb *EventBus) dispatch(ctx context.Context, event Event) {
	eb.mu.RLock()
	handlers := eb.handlers[event.Type]
	eb.mu.RUnlock()

	for _, handler := range handlers {
		go func(h EventHandler) {
			if err := h(ctx, event); err != nil {
				log.Printf("handler error for event %s: %v", event.ID, err)
			}
		}(handler)
	}
}

var _ Manager = (*EventBus)(nil)
