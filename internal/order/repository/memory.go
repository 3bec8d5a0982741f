package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"food-ordering-platform/ordersync/internal/order/domain"
)

// MemoryRepository is an in-process Repository. Orders are cloned on the way in and out.
type MemoryRepository struct {
	mu     sync.Mutex
	orders map[string]domain.Order
}

// NewMemoryRepository returns an empty store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{orders: make(map[string]domain.Order)}
}

func (r *MemoryRepository) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	c := o.Clone()
	return &c, nil
}

func (r *MemoryRepository) Create(_ context.Context, o *domain.Order) error {
	if o == nil || o.ID == "" {
		return fmt.Errorf("create order: missing id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; ok {
		return fmt.Errorf("create order %s: already exists", o.ID)
	}
	r.orders[o.ID] = o.Clone()
	return nil
}

func (r *MemoryRepository) CommitTransition(_ context.Context, id string, fromSeq int64, t domain.Transition) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	if o.Sequence != fromSeq {
		return nil, domain.ErrConflict
	}
	next := o.Clone()
	applyTransition(&next, t)
	r.orders[id] = next
	c := next.Clone()
	return &c, nil
}

func (r *MemoryRepository) ListByActor(_ context.Context, actorID string, actorType domain.ActorType) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Order
	for _, o := range r.orders {
		if o.IsParticipant(actorID, actorType) {
			c := o.Clone()
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepository) Ping(context.Context) error { return nil }

// applyTransition mirrors the Postgres UPDATE.
func applyTransition(o *domain.Order, t domain.Transition) {
	o.Status = t.Status
	o.Sequence++
	o.UpdatedBy = t.ActorType
	if o.Timestamps == nil {
		o.Timestamps = make(map[domain.Status]time.Time, 1)
	}
	o.Timestamps[t.Status] = t.At
	if t.Status.RequiresReason() {
		o.CancellationReason = t.Reason
		o.CancelledBy = t.ActorType
	}
}
