package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHub_Publish(t *testing.T) {
	hub := NewHub()

	client := newMockClient("client-1", 1)
	hub.Register(client)

	var publisher EventPublisher = hub
	publisher.Publish(1, EntityCreated(EntityTypeSimulation, map[string]interface{}{"id": float64(42)}))

	assert.Len(t, waitForMessages(client, 1), 1)
}

func TestNoOpPublisher_Publish(t *testing.T) {
	publisher := &NoOpPublisher{}

	assert.NotPanics(t, func() {
		publisher.Publish(1, EntityCreated(EntityTypeTransaction, map[string]interface{}{"id": float64(1)}))
	})
}

func TestNoOpPublisher_Implements_EventPublisher(t *testing.T) {
	var _ EventPublisher = (*NoOpPublisher)(nil)
}
