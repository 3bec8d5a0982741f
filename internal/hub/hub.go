// Package hub is the room-scoped broadcaster that pushes order transitions and presence updates
// to connected sessions. Delivery is at-least-once to currently connected members only; nothing
// is queued for members that join later.
package hub

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	orderdomain "food-ordering-platform/ordersync/internal/order/domain"
)

// ErrConnClosed is returned when joining a room on a connection that is not registered, either
// because it never was or because it has already been torn down.
var ErrConnClosed = errors.New("hub: connection closed")

// Conn is a connected session as seen by the hub.
type Conn interface {
	ID() string
	ActorID() string
	ActorType() orderdomain.ActorType
	// Deliver must not block. It returns false if the message was dropped.
	Deliver(Message) bool
}

// Recipient identifies a connection a message was delivered to.
type Recipient struct {
	ConnID    string
	ActorID   string
	ActorType orderdomain.ActorType
}

// Observer is notified after every publish, outside the hub lock.
type Observer interface {
	Delivered(ctx context.Context, msg Message, recipients []Recipient)
}

// RoomCloser is implemented by observers that track per-order state and need to release it when
// an order room is torn down.
type RoomCloser interface {
	RoomClosed(room string)
}

type member struct {
	conn  Conn
	rooms map[string]struct{}
}

type room struct {
	members  map[string]struct{}
	terminal bool
}

// Hub owns room membership. The zero value is not usable; call New.
type Hub struct {
	mu        sync.RWMutex
	conns     map[string]*member
	rooms     map[string]*room
	observers []Observer
	logger    *slog.Logger

	published metric.Int64Counter
	dropped   metric.Int64Counter
}

// New returns an empty hub. logger may be nil.
func New(logger *slog.Logger, observers ...Observer) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	meter := otel.Meter("food-ordering-platform/ordersync/hub")
	published, _ := meter.Int64Counter("ordersync.hub.published",
		metric.WithDescription("Messages published to the hub"))
	dropped, _ := meter.Int64Counter("ordersync.hub.dropped",
		metric.WithDescription("Deliveries dropped because a session buffer was full or closed"))
	return &Hub{
		conns:     make(map[string]*member),
		rooms:     make(map[string]*room),
		observers: observers,
		logger:    logger,
		published: published,
		dropped:   dropped,
	}
}

// AddObserver registers o for subsequent publishes.
func (h *Hub) AddObserver(o Observer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.observers = append(h.observers, o)
}

// Register makes c known to the hub. Registering the same ID twice is a no-op.
func (h *Hub) Register(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[c.ID()]; ok {
		return
	}
	h.conns[c.ID()] = &member{conn: c, rooms: make(map[string]struct{})}
}

// Join adds a registered connection to roomName. Joining a room twice is a no-op.
func (h *Hub) Join(connID, roomName string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.conns[connID]
	if !ok {
		return ErrConnClosed
	}
	r := h.rooms[roomName]
	if r == nil {
		r = &room{members: make(map[string]struct{})}
		h.rooms[roomName] = r
	}
	r.members[connID] = struct{}{}
	m.rooms[roomName] = struct{}{}
	return nil
}

// Leave removes a connection from roomName. Leaving a room not joined is a no-op.
func (h *Hub) Leave(connID, roomName string) {
	h.mu.Lock()
	closed := h.leaveLocked(connID, roomName)
	h.mu.Unlock()
	h.notifyClosed(closed)
}

// LeaveAll removes the connection from every room and unregisters it in one step, so no
// membership outlives the connection. It returns the rooms the connection was in.
func (h *Hub) LeaveAll(connID string) []string {
	h.mu.Lock()
	m, ok := h.conns[connID]
	if !ok {
		h.mu.Unlock()
		return nil
	}
	left := make([]string, 0, len(m.rooms))
	var closed []string
	for name := range m.rooms {
		left = append(left, name)
		closed = append(closed, h.leaveLocked(connID, name)...)
	}
	delete(h.conns, connID)
	h.mu.Unlock()
	h.notifyClosed(closed)
	return left
}

// MarkTerminal records that the order behind an order room is terminal, so the room is torn down
// once it is empty. An empty room is closed immediately.
func (h *Hub) MarkTerminal(orderID string) {
	name := OrderRoom(orderID)
	h.mu.Lock()
	closed := h.markTerminalLocked(name)
	h.mu.Unlock()
	h.notifyClosed(closed)
}

// Publish delivers msg once to every connection joined to any of rooms, then notifies observers.
// A terminal order envelope marks its order room terminal. It returns the number of deliveries.
func (h *Hub) Publish(ctx context.Context, msg Message, rooms ...string) int {
	h.mu.Lock()
	seen := make(map[string]struct{})
	var targets []Conn
	for _, name := range rooms {
		r := h.rooms[name]
		if r == nil {
			continue
		}
		for id := range r.members {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if m, ok := h.conns[id]; ok {
				targets = append(targets, m.conn)
			}
		}
	}
	var closed []string
	if msg.Kind == KindOrder && msg.Order != nil && msg.Order.Status.Terminal() {
		closed = h.markTerminalLocked(OrderRoom(msg.Order.OrderID))
	}
	observers := append([]Observer(nil), h.observers...)
	h.mu.Unlock()

	kind := attribute.String("kind", string(msg.Kind))
	h.published.Add(ctx, 1, metric.WithAttributes(kind))

	recipients := make([]Recipient, 0, len(targets))
	for _, c := range targets {
		if !c.Deliver(msg) {
			h.dropped.Add(ctx, 1, metric.WithAttributes(kind))
			h.logger.Warn("hub: delivery dropped", "connection_id", c.ID(), "kind", msg.Kind)
			continue
		}
		recipients = append(recipients, Recipient{ConnID: c.ID(), ActorID: c.ActorID(), ActorType: c.ActorType()})
	}
	for _, o := range observers {
		o.Delivered(ctx, msg, recipients)
	}
	h.notifyClosed(closed)
	return len(recipients)
}

// Members returns the connection IDs joined to roomName.
func (h *Hub) Members(roomName string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r := h.rooms[roomName]
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.members))
	for id := range r.members {
		out = append(out, id)
	}
	return out
}

// Rooms returns the rooms a connection is joined to.
func (h *Hub) Rooms(connID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	m := h.conns[connID]
	if m == nil {
		return nil
	}
	out := make([]string, 0, len(m.rooms))
	for name := range m.rooms {
		out = append(out, name)
	}
	return out
}

// HasRoom reports whether roomName currently exists.
func (h *Hub) HasRoom(roomName string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rooms[roomName]
	return ok
}

// leaveLocked removes connID from roomName and returns the room if it was torn down.
// Actor and presence rooms vanish when empty. Order rooms are kept while the order is live.
func (h *Hub) leaveLocked(connID, roomName string) []string {
	if m, ok := h.conns[connID]; ok {
		delete(m.rooms, roomName)
	}
	r := h.rooms[roomName]
	if r == nil {
		return nil
	}
	delete(r.members, connID)
	if len(r.members) > 0 {
		return nil
	}
	if !IsOrderRoom(roomName) {
		delete(h.rooms, roomName)
		return nil
	}
	if r.terminal {
		delete(h.rooms, roomName)
		return []string{roomName}
	}
	return nil
}

func (h *Hub) markTerminalLocked(roomName string) []string {
	r := h.rooms[roomName]
	if r == nil {
		// Never subscribed; per-order observer state may still exist from actor-room deliveries.
		return []string{roomName}
	}
	r.terminal = true
	if len(r.members) == 0 {
		delete(h.rooms, roomName)
		return []string{roomName}
	}
	return nil
}

func (h *Hub) notifyClosed(closed []string) {
	if len(closed) == 0 {
		return
	}
	h.mu.RLock()
	observers := append([]Observer(nil), h.observers...)
	h.mu.RUnlock()
	for _, name := range closed {
		h.logger.Debug("hub: order room closed", "room", name)
		for _, o := range observers {
			if rc, ok := o.(RoomCloser); ok {
				rc.RoomClosed(name)
			}
		}
	}
}
