package repository

import (
	"context"

	"food-ordering-platform/ordersync/internal/order/domain"
)

// Repository is the authoritative order store.
type Repository interface {
	// GetOrder returns the canonical order, or nil if not found. It returns an error only for
	// storage failures, not for missing rows.
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	// Create stores a new order. o must have ID and Ref set.
	Create(ctx context.Context, o *domain.Order) error
	// CommitTransition writes t when the stored sequence is still fromSeq, advancing it to
	// fromSeq+1. It returns domain.ErrConflict if another writer committed first and
	// domain.ErrOrderNotFound if the order does not exist.
	CommitTransition(ctx context.Context, id string, fromSeq int64, t domain.Transition) (*domain.Order, error)
	// ListByActor returns the orders the actor participates in on the given side, newest first.
	ListByActor(ctx context.Context, actorID string, actorType domain.ActorType) ([]*domain.Order, error)
	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}
