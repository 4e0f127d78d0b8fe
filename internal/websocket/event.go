package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents what happened to an entity
type EventType string

const (
	EventTypeCreated     EventType = "created"
	EventTypeUpdated     EventType = "updated"
	EventTypeDeleted     EventType = "deleted"
	EventTypeInvalidated EventType = "invalidated"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeAccount      EntityType = "account"
	EntityTypeCategory     EntityType = "category"
	EntityTypeTransaction  EntityType = "transaction"
	EntityTypeCard         EntityType = "card"
	EntityTypeTransfer     EntityType = "transfer"
	EntityTypeSimulation   EntityType = "simulation"
	EntityTypeLedger       EntityType = "ledger"
	EntityTypeSubscription EntityType = "subscription"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`
	Entity    EntityType  `json:"entity"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// InvalidationPayload lists the derived views a client should refetch
type InvalidationPayload struct {
	Cause      string   `json:"cause"`
	Aggregates []string `json:"aggregates"`
	AccountIDs []int32  `json:"accountIds,omitempty"`
	CardIDs    []int32  `json:"cardIds,omitempty"`
	Months     []string `json:"months,omitempty"`
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EntityCreated creates an <entity>.created event
func EntityCreated(entity EntityType, payload interface{}) Event {
	return NewEvent(EventTypeCreated, entity, payload)
}

// EntityUpdated creates an <entity>.updated event
func EntityUpdated(entity EntityType, payload interface{}) Event {
	return NewEvent(EventTypeUpdated, entity, payload)
}

// EntityDeleted creates an <entity>.deleted event
func EntityDeleted(entity EntityType, payload interface{}) Event {
	return NewEvent(EventTypeDeleted, entity, payload)
}

// LedgerInvalidated creates a ledger.invalidated event
func LedgerInvalidated(payload InvalidationPayload) Event {
	return NewEvent(EventTypeInvalidated, EntityTypeLedger, payload)
}
