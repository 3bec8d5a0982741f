// Package session owns authenticated connections: the token handshake, the actor room every
// session joins, order and presence subscriptions, and atomic teardown on disconnect. It also
// tracks seller availability, which follows the seller's live sessions.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"food-ordering-platform/ordersync/internal/clock"
	"food-ordering-platform/ordersync/internal/hub"
	orderdomain "food-ordering-platform/ordersync/internal/order/domain"
	"food-ordering-platform/ordersync/internal/policy/engine"
	presencedomain "food-ordering-platform/ordersync/internal/presence/domain"
	"food-ordering-platform/ordersync/internal/session/domain"
)

// DefaultSendBuffer is the per-connection delivery buffer.
const DefaultSendBuffer = 64

var (
	// ErrAuth is returned when the handshake token is missing or invalid. No room is joined.
	ErrAuth = errors.New("session: authentication failed")
	// ErrForbidden is returned when policy denies a subscription or the actor may not perform
	// the operation.
	ErrForbidden = errors.New("session: forbidden")
	// ErrUnknownConnection is returned for a connection ID that is not open.
	ErrUnknownConnection = errors.New("session: unknown connection")
)

// TokenValidator verifies a handshake token and returns the actor it was issued to.
type TokenValidator interface {
	ValidateAccess(token string) (actorID string, actorType orderdomain.ActorType, err error)
}

// OrderSource returns the canonical order, or (nil, nil) when it does not exist.
type OrderSource interface {
	GetOrder(ctx context.Context, id string) (*orderdomain.Order, error)
}

// Options configures a Manager. Zero values select defaults.
type Options struct {
	SendBuffer int
	Clock      clock.Clock
	Logger     *slog.Logger
}

// Manager tracks every open session.
type Manager struct {
	hub    *hub.Hub
	tokens TokenValidator
	orders OrderSource
	policy engine.Evaluator
	clock  clock.Clock
	logger *slog.Logger
	buffer int

	mu       sync.Mutex
	conns    map[string]*Conn
	byActor  map[string]map[string]struct{}
	presence map[string]presencedomain.Update

	// pubMu serializes presence publishes so a superseded update is never sent after a newer one.
	pubMu sync.Mutex

	opened metric.Int64Counter
	denied metric.Int64Counter
}

// NewManager returns a Manager publishing through h.
func NewManager(h *hub.Hub, tokens TokenValidator, orders OrderSource, policy engine.Evaluator, opts Options) *Manager {
	if opts.SendBuffer < 1 {
		opts.SendBuffer = DefaultSendBuffer
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	meter := otel.Meter("food-ordering-platform/ordersync/session")
	opened, _ := meter.Int64Counter("ordersync.session.opened",
		metric.WithDescription("Sessions that completed the handshake"))
	denied, _ := meter.Int64Counter("ordersync.session.denied",
		metric.WithDescription("Handshakes and subscriptions that were refused"))
	return &Manager{
		hub:      h,
		tokens:   tokens,
		orders:   orders,
		policy:   policy,
		clock:    opts.Clock,
		logger:   opts.Logger,
		buffer:   opts.SendBuffer,
		conns:    make(map[string]*Conn),
		byActor:  make(map[string]map[string]struct{}),
		presence: make(map[string]presencedomain.Update),
		opened:   opened,
		denied:   denied,
	}
}

// Authenticate completes the handshake for token. On success the connection is registered with
// the hub and has joined its actor room. A seller's first live session marks it online.
func (m *Manager) Authenticate(ctx context.Context, token string) (*Conn, error) {
	if token == "" {
		m.denied.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "missing_token")))
		return nil, ErrAuth
	}
	actorID, actorType, err := m.tokens.ValidateAccess(token)
	if err != nil {
		m.denied.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "invalid_token")))
		return nil, fmt.Errorf("%w: %v", ErrAuth, err)
	}

	c := newConn(uuid.NewString(), actorID, actorType, m.buffer, m.clock.Now())
	m.hub.Register(c)
	if err := m.hub.Join(c.id, hub.ActorRoom(actorID)); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.conns[c.id] = c
	set := m.byActor[actorID]
	if set == nil {
		set = make(map[string]struct{})
		m.byActor[actorID] = set
	}
	set[c.id] = struct{}{}
	first := len(set) == 1
	var update *presencedomain.Update
	if first && actorType == orderdomain.ActorSeller {
		update = m.setPresenceLocked(actorID, presencedomain.StatusOnline)
	}
	m.mu.Unlock()

	m.opened.Add(ctx, 1, metric.WithAttributes(attribute.String("actor_type", string(actorType))))
	m.logger.Debug("session opened", "connection_id", c.id, "actor_id", actorID, "actor_type", actorType)
	m.publishPresence(ctx, update)
	return c, nil
}

// Disconnect tears the connection down. Every room membership is released in one hub operation
// before the delivery channel closes, so no subscription outlives the session. A seller's last
// session ending marks it offline. Disconnecting an unknown connection is a no-op.
func (m *Manager) Disconnect(ctx context.Context, connID string) {
	m.mu.Lock()
	c, ok := m.conns[connID]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.conns, connID)
	set := m.byActor[c.actorID]
	delete(set, connID)
	last := len(set) == 0
	if last {
		delete(m.byActor, c.actorID)
	}
	var update *presencedomain.Update
	if last && c.actorType == orderdomain.ActorSeller {
		update = m.setPresenceLocked(c.actorID, presencedomain.StatusOffline)
	}
	m.mu.Unlock()

	left := m.hub.LeaveAll(connID)
	c.close()
	m.logger.Debug("session closed", "connection_id", connID, "actor_id", c.actorID, "rooms", len(left))
	m.publishPresence(ctx, update)
}

// Subscribe joins the connection to orderID's room after a policy check and returns the canonical
// order so the caller can seed its view. Subscribing twice is a no-op.
func (m *Manager) Subscribe(ctx context.Context, connID, orderID string) (*orderdomain.Order, error) {
	c, err := m.conn(connID)
	if err != nil {
		return nil, err
	}
	o, err := m.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, orderdomain.ErrOrderNotFound
	}
	allowed, err := m.policy.AllowOrderRoom(ctx, c.actorID, c.actorType, engine.OrderRoomInput{
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		SellerID:   o.SellerID,
		Status:     o.Status,
	})
	if err != nil {
		return nil, fmt.Errorf("evaluate order room policy: %w", err)
	}
	if !allowed {
		m.denied.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "order_room")))
		return nil, ErrForbidden
	}
	if err := m.hub.Join(connID, hub.OrderRoom(o.ID)); err != nil {
		if errors.Is(err, hub.ErrConnClosed) {
			return nil, ErrUnknownConnection
		}
		return nil, err
	}
	if o.Status.Terminal() {
		m.hub.MarkTerminal(o.ID)
	}
	c.touch(m.clock.Now())
	return o, nil
}

// Unsubscribe leaves orderID's room. Leaving a room not joined is a no-op.
func (m *Manager) Unsubscribe(_ context.Context, connID, orderID string) error {
	c, err := m.conn(connID)
	if err != nil {
		return err
	}
	m.hub.Leave(connID, hub.OrderRoom(orderID))
	c.touch(m.clock.Now())
	return nil
}

// WatchSeller joins the seller's presence room and returns the current presence.
func (m *Manager) WatchSeller(ctx context.Context, connID, sellerID string) (presencedomain.Update, error) {
	c, err := m.conn(connID)
	if err != nil {
		return presencedomain.Update{}, err
	}
	allowed, err := m.policy.AllowPresenceWatch(ctx, c.actorID, c.actorType, sellerID)
	if err != nil {
		return presencedomain.Update{}, fmt.Errorf("evaluate presence policy: %w", err)
	}
	if !allowed {
		m.denied.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "presence_watch")))
		return presencedomain.Update{}, ErrForbidden
	}
	if err := m.hub.Join(connID, hub.PresenceRoom(sellerID)); err != nil {
		return presencedomain.Update{}, ErrUnknownConnection
	}
	c.touch(m.clock.Now())
	return m.Presence(sellerID), nil
}

// UnwatchSeller leaves the seller's presence room.
func (m *Manager) UnwatchSeller(_ context.Context, connID, sellerID string) error {
	if _, err := m.conn(connID); err != nil {
		return err
	}
	m.hub.Leave(connID, hub.PresenceRoom(sellerID))
	return nil
}

// UpdatePresence sets the calling seller's availability. Only sellers may call it, and offline is
// reserved for the last session ending. Setting the current status again publishes nothing.
func (m *Manager) UpdatePresence(ctx context.Context, connID string, status presencedomain.Status) (presencedomain.Update, error) {
	c, err := m.conn(connID)
	if err != nil {
		return presencedomain.Update{}, err
	}
	if c.actorType != orderdomain.ActorSeller || status == presencedomain.StatusOffline {
		return presencedomain.Update{}, ErrForbidden
	}

	m.mu.Lock()
	cur := m.presenceLocked(c.actorID)
	changed, err := presencedomain.Transition(cur.Status, status)
	if err != nil {
		m.mu.Unlock()
		return presencedomain.Update{}, err
	}
	var update *presencedomain.Update
	if changed {
		update = m.setPresenceLocked(c.actorID, status)
		cur = *update
	}
	m.mu.Unlock()

	c.touch(m.clock.Now())
	m.publishPresence(ctx, update)
	return cur, nil
}

// Presence returns the seller's current availability. A seller never seen is offline.
func (m *Manager) Presence(sellerID string) presencedomain.Update {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.presenceLocked(sellerID)
}

// Touch records activity on the connection.
func (m *Manager) Touch(connID string) {
	if c, err := m.conn(connID); err == nil {
		c.touch(m.clock.Now())
	}
}

// Session returns a snapshot of the open connection.
func (m *Manager) Session(connID string) (domain.Session, bool) {
	c, err := m.conn(connID)
	if err != nil {
		return domain.Session{}, false
	}
	rooms := m.hub.Rooms(connID)
	sort.Strings(rooms)
	return domain.Session{
		ConnectionID:  c.id,
		ActorID:       c.actorID,
		ActorType:     c.actorType,
		JoinedRooms:   rooms,
		Authenticated: true,
		ConnectedAt:   c.connected,
		LastSeenAt:    c.lastSeenAt(),
	}, true
}

// Count returns the number of open sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.conns)
}

// Close disconnects every open session.
func (m *Manager) Close(ctx context.Context) {
	m.mu.Lock()
	ids := make([]string, 0, len(m.conns))
	for id := range m.conns {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	for _, id := range ids {
		m.Disconnect(ctx, id)
	}
}

func (m *Manager) conn(connID string) (*Conn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conns[connID]
	if !ok {
		return nil, ErrUnknownConnection
	}
	return c, nil
}

func (m *Manager) presenceLocked(sellerID string) presencedomain.Update {
	if u, ok := m.presence[sellerID]; ok {
		return u
	}
	return presencedomain.Update{SellerID: sellerID, Status: presencedomain.StatusOffline}
}

// setPresenceLocked records status for sellerID and returns the update to publish, or nil when
// nothing changed.
func (m *Manager) setPresenceLocked(sellerID string, status presencedomain.Status) *presencedomain.Update {
	cur := m.presenceLocked(sellerID)
	if cur.Status == status {
		return nil
	}
	u := presencedomain.Update{SellerID: sellerID, Status: status, Version: cur.Version + 1, UpdatedAt: m.clock.Now().UTC()}
	m.presence[sellerID] = u
	return &u
}

// publishPresence sends u unless a newer update for the seller has been recorded since. The
// newer update's own publish then carries the latest value.
func (m *Manager) publishPresence(ctx context.Context, u *presencedomain.Update) {
	if u == nil {
		return
	}
	m.pubMu.Lock()
	defer m.pubMu.Unlock()
	if cur := m.Presence(u.SellerID); cur.Version != u.Version {
		m.logger.Debug("presence: superseded update skipped", "seller_id", u.SellerID,
			"status", u.Status, "version", u.Version, "current_version", cur.Version)
		return
	}
	m.hub.Publish(ctx, hub.PresenceMessage(*u), hub.PresenceRoom(u.SellerID))
}
