package websocket

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Feed connection limits. Pings go out often enough that the peer's pong
// always lands before the read deadline.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 1024
	sendBuffer     = 64
)

// ErrClientBacklogged is returned when a client has stopped draining its queue
var ErrClientBacklogged = errors.New("client send queue is full")

// Client is one connection following a user's ledger changes
type Client struct {
	id     string
	userID int32
	conn   *websocket.Conn
	hub    *Hub
	queue  chan []byte

	mu     sync.RWMutex
	sub    Subscription
	closed bool
	once   sync.Once
}

// NewClient creates a client for the user limited to the given subscription
func NewClient(conn *websocket.Conn, userID int32, hub *Hub, sub Subscription) *Client {
	return &Client{
		id:     uuid.New().String(),
		userID: userID,
		conn:   conn,
		hub:    hub,
		queue:  make(chan []byte, sendBuffer),
		sub:    sub,
	}
}

// ID returns the client's unique identifier
func (c *Client) ID() string {
	return c.id
}

// UserID returns the ID of the user the client belongs to
func (c *Client) UserID() int32 {
	return c.userID
}

// Subscription returns the client's current subscription
func (c *Client) Subscription() Subscription {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sub
}

// Accepts reports whether the event matches the client's subscription
func (c *Client) Accepts(event Event) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sub.Accepts(event)
}

// Send queues a serialized event without blocking the publisher
func (c *Client) Send(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.queue <- data:
		return nil
	default:
		return ErrClientBacklogged
	}
}

// Close closes the queue and the connection. Later calls are no-ops.
func (c *Client) Close() error {
	var err error
	c.once.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.queue)
		c.mu.Unlock()

		if c.conn != nil {
			err = c.conn.Close()
		}
	})
	return err
}

// Announce queues a subscription.created event describing what the client
// will receive
func (c *Client) Announce() error {
	return c.sendEvent(NewEvent(EventTypeCreated, EntityTypeSubscription, c.Subscription()))
}

// Run serves the connection until the peer disconnects or stops answering
// pings. Writes happen on their own goroutine.
func (c *Client) Run() {
	go c.writeLoop()
	c.readLoop()
}

// readLoop accepts subscription changes from the peer
func (c *Client) readLoop() {
	defer func() {
		if c.hub != nil {
			c.hub.Unregister(c)
		}
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("client_id", c.id).Int32("user_id", c.userID).Msg("Ledger feed closed unexpectedly")
			}
			return
		}
		if err := c.resubscribe(message); err != nil {
			log.Debug().Err(err).Str("client_id", c.id).Msg("Ignoring feed message")
		}
	}
}

// subscriptionRequest is the only message a peer may send
type subscriptionRequest struct {
	Entities   []string `json:"entities"`
	Aggregates []string `json:"aggregates"`
}

// resubscribe replaces the subscription and confirms it with a
// subscription.updated event
func (c *Client) resubscribe(message []byte) error {
	var req subscriptionRequest
	if err := json.Unmarshal(message, &req); err != nil {
		return err
	}
	sub, err := NewSubscription(req.Entities, req.Aggregates)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.sub = sub
	c.mu.Unlock()

	return c.sendEvent(NewEvent(EventTypeUpdated, EntityTypeSubscription, sub))
}

func (c *Client) sendEvent(event Event) error {
	data, err := event.ToJSON()
	if err != nil {
		return err
	}
	return c.Send(data)
}

func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case data, ok := <-c.queue:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("client_id", c.id).Int32("user_id", c.userID).Msg("Ledger feed write failed")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
