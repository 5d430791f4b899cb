package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

// Executor runs handlers in the background. worker.Pool satisfies it.
type Executor interface {
	Submit(name string, fn func(context.Context) error) error
}

type dispatcher struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
	executor  Executor
	logger    *zap.Logger
}

// NewDispatcher creates a dispatcher that hands every handler invocation to
// executor. With a nil executor handlers run inline on a context detached from
// the publisher's cancellation.
func NewDispatcher(executor Executor, logger *zap.Logger) Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &dispatcher{
		listeners: make(map[EventType][]EventHandler),
		executor:  executor,
		logger:    logger,
	}
}

// Publish schedules all handlers subscribed to event.Type. It never waits for
// queued handlers; the returned error only reports handlers that could not be
// scheduled.
func (d *dispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	handlers := append([]EventHandler{}, d.listeners[event.Type]...)
	d.mu.RUnlock()

	var errs []error
	for _, handler := range handlers {
		handler := handler
		if d.executor == nil {
			if err := handler(context.WithoutCancel(ctx), event); err != nil {
				d.logger.Error("event handler failed",
					zap.String("event_type", string(event.Type)),
					zap.String("ticket_id", event.TicketID),
					zap.Error(err))
			}
			continue
		}
		err := d.executor.Submit(string(event.Type), func(taskCtx context.Context) error {
			return handler(taskCtx, event)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("schedule %s handler: %w", event.Type, err))
		}
	}
	return errors.Join(errs...)
}

// Subscribe registers a handler for the given event type.
func (d *dispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}
