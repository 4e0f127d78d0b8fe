package websocket

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient captures sent messages
type mockClient struct {
	id       string
	userID   int32
	messages [][]byte
	mu       sync.Mutex
	closed   bool
}

func newMockClient(id string, userID int32) *mockClient {
	return &mockClient{id: id, userID: userID}
}

func (m *mockClient) ID() string    { return m.id }
func (m *mockClient) UserID() int32 { return m.userID }

func (m *mockClient) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClientClosed
	}
	m.messages = append(m.messages, data)
	return nil
}

func (m *mockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockClient) GetMessages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make([][]byte, len(m.messages))
	copy(copied, m.messages)
	return copied
}

// waitForMessages polls until the client has n messages or the deadline passes
func waitForMessages(c *mockClient, n int) [][]byte {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if msgs := c.GetMessages(); len(msgs) >= n {
			return msgs
		}
		time.Sleep(2 * time.Millisecond)
	}
	return c.GetMessages()
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()

	client1 := newMockClient("client-1", 1)
	client2 := newMockClient("client-2", 1)
	client3 := newMockClient("client-3", 2)

	hub.Register(client1)
	hub.Register(client2)
	hub.Register(client3)

	assert.Equal(t, 2, hub.ClientCount(1))
	assert.Equal(t, 1, hub.ClientCount(2))
	assert.Equal(t, 0, hub.ClientCount(999))
	assert.Equal(t, 3, hub.TotalClientCount())

	hub.Unregister(client1)
	assert.Equal(t, 1, hub.ClientCount(1))

	hub.Unregister(client2)
	hub.Unregister(client3)
	assert.Equal(t, 0, hub.ClientCount(1))
	assert.Equal(t, 0, hub.ClientCount(2))
	assert.Equal(t, 0, hub.TotalClientCount())
}

func TestHub_Broadcast_UserIsolation(t *testing.T) {
	hub := NewHub()

	client1a := newMockClient("client-1a", 1)
	client1b := newMockClient("client-1b", 1)
	client2 := newMockClient("client-2", 2)

	hub.Register(client1a)
	hub.Register(client1b)
	hub.Register(client2)

	hub.Broadcast(1, EntityCreated(EntityTypeTransaction, map[string]interface{}{"id": float64(42)}))

	assert.Len(t, waitForMessages(client1a, 1), 1)
	assert.Len(t, waitForMessages(client1b, 1), 1)

	time.Sleep(10 * time.Millisecond)
	assert.Len(t, client2.GetMessages(), 0, "client2 should not receive another user's event")
}

func TestHub_Broadcast_MultipleFanOut(t *testing.T) {
	hub := NewHub()

	clients := make([]*mockClient, 5)
	for i := range clients {
		clients[i] = newMockClient(fmt.Sprintf("client-%d", i), 1)
		hub.Register(clients[i])
	}

	hub.Broadcast(1, EntityUpdated(EntityTypeAccount, map[string]interface{}{"id": float64(1)}))

	for i, c := range clients {
		assert.Len(t, waitForMessages(c, 1), 1, "client %d should receive message", i)
	}
}

func TestHub_Broadcast_ClosedClient(t *testing.T) {
	hub := NewHub()

	open := newMockClient("open", 1)
	closed := newMockClient("closed", 1)
	require.NoError(t, closed.Close())

	hub.Register(open)
	hub.Register(closed)

	require.NotPanics(t, func() {
		hub.Broadcast(1, LedgerInvalidated(InvalidationPayload{Cause: "transaction"}))
	})

	assert.Len(t, waitForMessages(open, 1), 1)
	assert.Len(t, closed.GetMessages(), 0)
}

func TestHub_ConcurrentAccess(t *testing.T) {
	hub := NewHub()

	var wg sync.WaitGroup
	clientCount := 50

	clients := make([]*mockClient, clientCount)
	for i := 0; i < clientCount; i++ {
		clients[i] = newMockClient(fmt.Sprintf("client-%d", i), int32(i%5))
	}

	for i := 0; i < clientCount; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			hub.Register(clients[idx])
		}(i)
	}
	wg.Wait()

	assert.Equal(t, clientCount, hub.TotalClientCount())

	for i := 0; i < clientCount; i++ {
		wg.Add(2)
		go func(idx int) {
			defer wg.Done()
			hub.Broadcast(int32(idx%5), EntityCreated(EntityTypeTransaction, map[string]interface{}{"id": float64(idx)}))
		}(i)
		go func(idx int) {
			defer wg.Done()
			hub.Unregister(clients[idx])
		}(i)
	}
	wg.Wait()

	for u := int32(0); u < 5; u++ {
		assert.Equal(t, 0, hub.ClientCount(u))
	}
}

func TestHub_UnregisterNonexistent(t *testing.T) {
	hub := NewHub()

	require.NotPanics(t, func() {
		hub.Unregister(newMockClient("client-1", 1))
	})
}

func TestHub_BroadcastToUserWithoutClients(t *testing.T) {
	hub := NewHub()

	require.NotPanics(t, func() {
		hub.Broadcast(999, EntityDeleted(EntityTypeCard, map[string]interface{}{"id": float64(1)}))
	})
}

// filteredClient is a mockClient that only accepts some events
type filteredClient struct {
	*mockClient
	sub Subscription
}

func (f *filteredClient) Accepts(event Event) bool { return f.sub.Accepts(event) }

func TestHub_Broadcast_RespectsSubscription(t *testing.T) {
	hub := NewHub()

	sub, err := ParseSubscription("", "card_usage")
	require.NoError(t, err)
	cards := &filteredClient{mockClient: newMockClient("cards", 1), sub: sub}
	everything := newMockClient("all", 1)
	hub.Register(cards)
	hub.Register(everything)

	hub.Broadcast(1, LedgerInvalidated(InvalidationPayload{Cause: "transfer", Aggregates: []string{"account_balance"}}))
	hub.Broadcast(1, LedgerInvalidated(InvalidationPayload{Cause: "card", Aggregates: []string{"card_usage"}}))

	assert.Len(t, waitForMessages(everything, 2), 2)
	msgs := waitForMessages(cards.mockClient, 1)
	require.Len(t, msgs, 1)
	assert.Contains(t, string(msgs[0]), `"cause":"card"`)
}
