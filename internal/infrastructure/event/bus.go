// Package event provides the in-process event bus the record store uses to
// notify its subscribers after each mutation.
package event

import (
	"context"

	"github.com/shipshape/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// InMemoryEventBus delivers domain events to registered handlers synchronously,
// on the publishing goroutine, in registration order.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger
	onError  func(eventType string, err error)
}

// Option configures an InMemoryEventBus
type Option func(*InMemoryEventBus)

// WithErrorHook registers a callback invoked when a handler fails or panics
func WithErrorHook(fn func(eventType string, err error)) Option {
	return func(b *InMemoryEventBus) {
		b.onError = fn
	}
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger, opts ...Option) *InMemoryEventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish hands every event to its handlers. A failing handler is logged and
// does not stop delivery to the others, so Publish only fails on a cancelled context.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, handler := range b.registry.GetHandlers(event.EventType()) {
			if err := b.dispatchToHandler(ctx, handler, event); err != nil {
				b.logger.Error("handler failed to process event",
					zap.String("event_type", event.EventType()),
					zap.String("event_id", event.EventID().String()),
					zap.Error(err),
				)
				if b.onError != nil {
					b.onError(event.EventType(), err)
				}
			}
		}
	}
	return nil
}

// Subscribe registers a handler. Without explicit types the handler's own
// EventTypes are used; an empty list subscribes to everything.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("handler subscribed",
		zap.Strings("event_types", eventTypes),
	)
}

// Unsubscribe removes a handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
	b.logger.Debug("handler unsubscribed")
}

// HandlerCount returns the number of distinct registered handlers
func (b *InMemoryEventBus) HandlerCount() int {
	return len(b.registry.GetAllHandlers())
}

// dispatchToHandler converts a handler panic into an error
func (b *InMemoryEventBus) dispatchToHandler(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panicked",
				zap.String("event_type", event.EventType()),
				zap.Any("panic", r),
			)
			err = &HandlerPanicError{Value: r}
		}
	}()

	return handler.Handle(ctx, event)
}

// HandlerPanicError reports a recovered handler panic
type HandlerPanicError struct {
	Value any
}

func (e *HandlerPanicError) Error() string {
	return "event handler panicked"
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
