package session

import (
	"sync"
	"time"

	"food-ordering-platform/ordersync/internal/hub"
	orderdomain "food-ordering-platform/ordersync/internal/order/domain"
)

// Conn is one authenticated connection. Messages published to its rooms are queued on a bounded
// buffer; when the buffer is full the hub drops the message and the reconciliation poll makes up
// for it.
type Conn struct {
	id        string
	actorID   string
	actorType orderdomain.ActorType
	connected time.Time

	mu       sync.Mutex
	closed   bool
	out      chan hub.Message
	lastSeen time.Time
}

func newConn(id, actorID string, actorType orderdomain.ActorType, buffer int, now time.Time) *Conn {
	return &Conn{
		id:        id,
		actorID:   actorID,
		actorType: actorType,
		connected: now,
		out:       make(chan hub.Message, buffer),
		lastSeen:  now,
	}
}

func (c *Conn) ID() string                       { return c.id }
func (c *Conn) ActorID() string                  { return c.actorID }
func (c *Conn) ActorType() orderdomain.ActorType { return c.actorType }

// Deliver queues m without blocking. It returns false if the buffer is full or the connection is
// closed.
func (c *Conn) Deliver(m hub.Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.out <- m:
		return true
	default:
		return false
	}
}

// Messages is closed when the connection is torn down.
func (c *Conn) Messages() <-chan hub.Message { return c.out }

// Closed reports whether the connection has been torn down.
func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Conn) touch(now time.Time) {
	c.mu.Lock()
	c.lastSeen = now
	c.mu.Unlock()
}

func (c *Conn) lastSeenAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}

// close stops deliveries and closes the channel. It reports false if already closed.
func (c *Conn) close() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.closed = true
	close(c.out)
	return true
}
