package websocket

// EventPublisher defines the interface for publishing events to WebSocket clients
type EventPublisher interface {
	// Publish sends an event to all clients connected for the specified user
	Publish(userID int32, event Event)
}

var _ EventPublisher = (*Hub)(nil)

// Publish implements EventPublisher by broadcasting the event to the user
func (h *Hub) Publish(userID int32, event Event) {
	h.Broadcast(userID, event)
}

// NoOpPublisher is a publisher that does nothing (for testing or when WebSocket is disabled)
type NoOpPublisher struct{}

// Publish does nothing
func (n *NoOpPublisher) Publish(userID int32, event Event) {}
