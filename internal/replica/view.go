// Package replica holds a client's local view of the orders it tracks. Pushed envelopes and
// polled canonical snapshots both enter through domain.Apply.
package replica

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"food-ordering-platform/ordersync/internal/order/domain"
)

// Source says how an update reached the view.
type Source string

const (
	SourcePush Source = "push"
	SourcePoll Source = "poll"
	SourceSeed Source = "seed"
)

// ChangeFunc is called after the view commits a newer version of an order. It runs without the
// view lock held.
type ChangeFunc func(o domain.Order, src Source)

// View is a set of orders keyed by ID. Safe for concurrent use.
type View struct {
	mu     sync.RWMutex
	orders map[string]domain.Order
	logger *slog.Logger
	change ChangeFunc
}

// NewView returns an empty view. logger and onChange may be nil.
func NewView(logger *slog.Logger, onChange ChangeFunc) *View {
	if logger == nil {
		logger = slog.Default()
	}
	return &View{orders: make(map[string]domain.Order), logger: logger, change: onChange}
}

// Seed stores o when the view has no newer copy. It reports whether o was stored.
func (v *View) Seed(o domain.Order) bool {
	v.mu.Lock()
	cur, ok := v.orders[o.ID]
	if ok && cur.Sequence >= o.Sequence {
		v.mu.Unlock()
		return false
	}
	v.orders[o.ID] = o.Clone()
	v.mu.Unlock()
	v.notify(o, SourceSeed)
	return true
}

// Apply runs ev against the local copy of its order. An envelope for an order the view does not
// hold is ignored with Duplicate set: the next poll seeds it.
func (v *View) Apply(ev domain.Envelope, src Source) (domain.Result, error) {
	return v.apply(ev, src, nil)
}

// apply commits ev through domain.Apply. When canonical is set, the accepted result is replaced
// by the canonical record so timestamps of skipped steps are filled in.
func (v *View) apply(ev domain.Envelope, src Source, canonical *domain.Order) (domain.Result, error) {
	v.mu.Lock()
	cur, ok := v.orders[ev.OrderID]
	if !ok {
		v.mu.Unlock()
		return domain.Result{Duplicate: true}, nil
	}
	res, err := domain.Apply(cur, ev)
	if err != nil {
		v.mu.Unlock()
		return domain.Result{}, err
	}
	if res.Duplicate {
		v.mu.Unlock()
		if ev.SequenceNumber == cur.Sequence && ev.Status != cur.Status {
			v.logger.Warn("replica: sequence collision",
				"order_id", ev.OrderID, "sequence", ev.SequenceNumber,
				"local_status", cur.Status, "event_status", ev.Status, "source", src)
		}
		return res, nil
	}
	if canonical != nil {
		res.Order = canonical.Clone()
	}
	v.orders[ev.OrderID] = res.Order
	v.mu.Unlock()
	v.logger.Debug("replica: applied", "order_id", ev.OrderID, "status", res.Order.Status,
		"sequence", res.Order.Sequence, "source", src)
	v.notify(res.Order, src)
	return res, nil
}

// Reconcile folds a canonical snapshot into the view. A snapshot that is not strictly newer than
// the local copy is a duplicate. An unknown order is seeded. An accepted snapshot leaves the local
// copy equal to canonical.
func (v *View) Reconcile(_ context.Context, canonical domain.Order) (domain.Result, error) {
	v.mu.RLock()
	cur, ok := v.orders[canonical.ID]
	v.mu.RUnlock()
	if !ok {
		v.Seed(canonical)
		return domain.Result{Order: canonical.Clone(), Publish: true}, nil
	}
	if canonical.Sequence <= cur.Sequence {
		return domain.Result{Order: cur, Duplicate: true}, nil
	}
	return v.apply(domain.EnvelopeFromOrder(canonical), SourcePoll, &canonical)
}

// Get returns a copy of the local order.
func (v *View) Get(orderID string) (domain.Order, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	o, ok := v.orders[orderID]
	if !ok {
		return domain.Order{}, false
	}
	return o.Clone(), true
}

// Sequence returns the local sequence number of orderID.
func (v *View) Sequence(orderID string) (int64, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	o, ok := v.orders[orderID]
	return o.Sequence, ok
}

// Forget drops orderID from the view.
func (v *View) Forget(orderID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.orders, orderID)
}

// IDs returns the tracked order IDs, sorted.
func (v *View) IDs() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]string, 0, len(v.orders))
	for id := range v.orders {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (v *View) notify(o domain.Order, src Source) {
	if v.change != nil {
		v.change(o.Clone(), src)
	}
}
