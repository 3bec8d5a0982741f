// Package engine decides room admission with OPA Rego: which actors may join an order room and
// whose presence they may watch.
package engine

import (
	"context"

	"food-ordering-platform/ordersync/internal/order/domain"
)

// OrderRoomInput is the order side of an admission decision.
type OrderRoomInput struct {
	OrderID    string
	CustomerID string
	SellerID   string
	Status     domain.Status
}

// Evaluator answers room-admission questions.
type Evaluator interface {
	AllowOrderRoom(ctx context.Context, actorID string, actorType domain.ActorType, order OrderRoomInput) (bool, error)
	AllowPresenceWatch(ctx context.Context, actorID string, actorType domain.ActorType, sellerID string) (bool, error)
}
