package shared

import "context"

// EventHandler handles domain events
type EventHandler interface {
	// Handle processes a domain event
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes returns the event types this handler is interested in
	// An empty slice means the handler receives all events
	EventTypes() []string
}

// EventHandlerFunc adapts a plain function to EventHandler for all event types.
// Handlers are compared by identity on Unsubscribe, so callers must keep the
// returned pointer.
type EventHandlerFunc struct {
	Fn    func(ctx context.Context, event DomainEvent) error
	Types []string
}

// Handle calls the wrapped function
func (h *EventHandlerFunc) Handle(ctx context.Context, event DomainEvent) error {
	return h.Fn(ctx, event)
}

// EventTypes returns the configured event types
func (h *EventHandlerFunc) EventTypes() []string {
	return h.Types
}

// EventPublisher publishes domain events
type EventPublisher interface {
	// Publish publishes one or more domain events
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventSubscriber subscribes to domain events
type EventSubscriber interface {
	// Subscribe registers a handler for specific event types
	// If no event types are provided, the handler receives all events
	Subscribe(handler EventHandler, eventTypes ...string)
	// Unsubscribe removes a handler from the subscription list
	Unsubscribe(handler EventHandler)
}

// EventBus combines publisher and subscriber capabilities
type EventBus interface {
	EventPublisher
	EventSubscriber
}
