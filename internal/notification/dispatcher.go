// Package notification turns published order envelopes into per-actor feed entries, with at most
// one entry per (order, status) for each actor.
package notification

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"food-ordering-platform/ordersync/internal/clock"
	"food-ordering-platform/ordersync/internal/hub"
	"food-ordering-platform/ordersync/internal/notification/domain"
)

// ErrNotFound is returned when a feed mutation names an unknown notification.
var ErrNotFound = errors.New("notification not found")

// DefaultClosedRetention is how many closed orders keep their dedup keys, so a redelivered
// terminal envelope stays suppressed after its order room is gone.
const DefaultClosedRetention = 1024

// Dispatcher is a hub observer that owns every actor's feed.
type Dispatcher struct {
	mu       sync.Mutex
	capacity int
	feeds    map[string]*Feed
	// seen holds the dedup keys each actor has been notified of, mapped to their order ID.
	seen map[string]map[string]string
	// byOrder indexes seen by order so keys can be released once a closed order ages out.
	byOrder map[string]map[string]struct{}
	// closed lists orders whose rooms closed, oldest first. closedSet mirrors it.
	closed    []string
	closedSet map[string]struct{}
	retain    int

	clock  clock.Clock
	logger *slog.Logger
}

// NewDispatcher returns a dispatcher whose feeds hold at most capacity entries each.
func NewDispatcher(capacity int, clk clock.Clock, logger *slog.Logger) *Dispatcher {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		capacity:  capacity,
		feeds:     make(map[string]*Feed),
		seen:      make(map[string]map[string]string),
		byOrder:   make(map[string]map[string]struct{}),
		closedSet: make(map[string]struct{}),
		retain:    DefaultClosedRetention,
		clock:     clk,
		logger:    logger,
	}
}

// Delivered renders one notification per distinct recipient actor. The actor who caused the
// transition is skipped.
func (d *Dispatcher) Delivered(_ context.Context, msg hub.Message, recipients []hub.Recipient) {
	if msg.Kind != hub.KindOrder || msg.Order == nil {
		return
	}
	env := *msg.Order
	key := domain.DedupKey(env.OrderID, env.Status)

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, r := range recipients {
		if r.ActorID == "" || r.ActorID == env.ActorID {
			continue
		}
		if _, dup := d.seen[r.ActorID][key]; dup {
			continue
		}
		title, message, ok := domain.Render(r.ActorType, env)
		if !ok {
			continue
		}
		d.remember(r.ActorID, env.OrderID, key)
		n := domain.Notification{
			ID:            uuid.NewString(),
			TargetActorID: r.ActorID,
			OrderID:       env.OrderID,
			Type:          domain.TypeOrderStatus,
			Status:        env.Status,
			Title:         title,
			Message:       message,
			DedupKey:      key,
			CreatedAt:     d.clock.Now(),
		}
		if old, evicted := d.feed(r.ActorID).Push(n); evicted {
			d.logger.Debug("notification: evicted oldest entry", "actor_id", r.ActorID, "notification_id", old.ID)
		}
	}
}

// RoomClosed retires the dedup keys of a torn-down order room. They are kept until more than
// DefaultClosedRetention orders have closed after it.
func (d *Dispatcher) RoomClosed(room string) {
	orderID, ok := hub.OrderIDFromRoom(room)
	if !ok {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, dup := d.closedSet[orderID]; dup {
		return
	}
	d.closedSet[orderID] = struct{}{}
	d.closed = append(d.closed, orderID)
	for len(d.closed) > d.retain {
		oldest := d.closed[0]
		d.closed = d.closed[1:]
		delete(d.closedSet, oldest)
		d.release(oldest)
	}
}

func (d *Dispatcher) release(orderID string) {
	for actorID := range d.byOrder[orderID] {
		for key, oid := range d.seen[actorID] {
			if oid == orderID {
				delete(d.seen[actorID], key)
			}
		}
		if len(d.seen[actorID]) == 0 {
			delete(d.seen, actorID)
		}
	}
	delete(d.byOrder, orderID)
}

// List returns actorID's feed, newest first.
func (d *Dispatcher) List(actorID string) []domain.Notification {
	d.mu.Lock()
	defer d.mu.Unlock()
	f := d.feeds[actorID]
	if f == nil {
		return nil
	}
	return f.List()
}

// Unread returns the number of unread entries in actorID's feed.
func (d *Dispatcher) Unread(actorID string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	f := d.feeds[actorID]
	if f == nil {
		return 0
	}
	return f.Unread()
}

// MarkRead marks one of actorID's notifications read.
func (d *Dispatcher) MarkRead(actorID, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	f := d.feeds[actorID]
	if f == nil || !f.MarkRead(id) {
		return ErrNotFound
	}
	return nil
}

// MarkAllRead marks every notification in actorID's feed read and returns how many changed.
func (d *Dispatcher) MarkAllRead(actorID string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	f := d.feeds[actorID]
	if f == nil {
		return 0
	}
	return f.MarkAllRead()
}

// Remove deletes one of actorID's notifications. Its dedup key stays recorded.
func (d *Dispatcher) Remove(actorID, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	f := d.feeds[actorID]
	if f == nil || !f.Remove(id) {
		return ErrNotFound
	}
	return nil
}

// Clear empties actorID's feed. Dedup keys stay recorded.
func (d *Dispatcher) Clear(actorID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if f := d.feeds[actorID]; f != nil {
		f.Clear()
	}
}

func (d *Dispatcher) feed(actorID string) *Feed {
	f := d.feeds[actorID]
	if f == nil {
		f = NewFeed(d.capacity)
		d.feeds[actorID] = f
	}
	return f
}

func (d *Dispatcher) remember(actorID, orderID, key string) {
	keys := d.seen[actorID]
	if keys == nil {
		keys = make(map[string]string)
		d.seen[actorID] = keys
	}
	keys[key] = orderID
	actors := d.byOrder[orderID]
	if actors == nil {
		actors = make(map[string]struct{})
		d.byOrder[orderID] = actors
	}
	actors[actorID] = struct{}{}
}
