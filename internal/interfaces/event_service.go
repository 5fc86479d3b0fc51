package interfaces

import "context"

// EventType represents different event types in the system
type EventType string

const (
	// EventJobSnapshot carries a *models.IndexJob snapshot whenever job or
	// document state changes. The websocket layer fans these out to clients.
	EventJobSnapshot EventType = "job_snapshot"

	// EventDocumentIndexed carries a *models.Document after successful indexing
	EventDocumentIndexed EventType = "document_indexed"

	// EventCollectionChanged carries a *models.Collection after CRUD changes
	EventCollectionChanged EventType = "collection_changed"
)

// Event represents a system event
type Event struct {
	Type    EventType
	Payload interface{}
}

// EventHandler is a function that handles events
type EventHandler func(ctx context.Context, event Event) error

// EventService manages the in-process pub/sub event bus
type EventService interface {
	// Subscribe to an event type
	Subscribe(eventType EventType, handler EventHandler) error

	// Publish an event to all subscribers asynchronously
	Publish(ctx context.Context, event Event) error

	// PublishSync publishes an event and waits for all handlers to complete
	PublishSync(ctx context.Context, event Event) error

	// Close shuts down the event service
	Close() error
}
