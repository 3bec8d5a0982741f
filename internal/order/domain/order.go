package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is a step in the order pipeline.
type Status string

const (
	StatusPendingSeller  Status = "pending_seller"
	StatusSellerAccepted Status = "seller_accepted"
	StatusPreparing      Status = "preparing"
	StatusReady          Status = "ready"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusSellerRejected Status = "seller_rejected"
	StatusCancelled      Status = "cancelled"
)

// Valid reports whether s is one of the defined statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPendingSeller, StatusSellerAccepted, StatusPreparing, StatusReady,
		StatusOutForDelivery, StatusDelivered, StatusSellerRejected, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are accepted from s.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusSellerRejected || s == StatusCancelled
}

// RequiresReason reports whether entering s requires a cancellation reason and attribution.
func (s Status) RequiresReason() bool {
	return s == StatusSellerRejected || s == StatusCancelled
}

// ParseStatus returns the Status for s or an error if s is not a defined status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown order status %q", s)
	}
	return st, nil
}

// ActorType identifies which side of an order an actor is on.
type ActorType string

const (
	ActorCustomer ActorType = "customer"
	ActorSeller   ActorType = "seller"
)

// Valid reports whether a is customer or seller.
func (a ActorType) Valid() bool {
	return a == ActorCustomer || a == ActorSeller
}

// Counterpart returns the other side of the order.
func (a ActorType) Counterpart() ActorType {
	if a == ActorSeller {
		return ActorCustomer
	}
	return ActorSeller
}

// Order is the lifecycle-relevant view of an order record. The record itself is owned by the
// order store; everything here is a copy.
type Order struct {
	// ID is the stable customer-facing order code.
	ID string `json:"id"`
	// Ref is the store's internal reference.
	Ref        string `json:"ref"`
	CustomerID string `json:"customerId"`
	SellerID   string `json:"sellerId"`
	Status     Status `json:"status"`
	// Sequence increases by one with every accepted transition and is the only ordering signal.
	Sequence           int64     `json:"sequenceNumber"`
	CancellationReason string    `json:"cancellationReason,omitempty"`
	CancelledBy        ActorType `json:"cancelledBy,omitempty"`
	// UpdatedBy is the actor type that made the latest transition; empty for a fresh order.
	UpdatedBy  ActorType            `json:"updatedBy,omitempty"`
	Timestamps map[Status]time.Time `json:"timestamps,omitempty"`
	// Snapshot is the item/payment snapshot, opaque to lifecycle code.
	Snapshot  json.RawMessage `json:"snapshot,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Clone returns a deep copy of o so callers can mutate the result freely.
func (o Order) Clone() Order {
	out := o
	if o.Timestamps != nil {
		out.Timestamps = make(map[Status]time.Time, len(o.Timestamps))
		for k, v := range o.Timestamps {
			out.Timestamps[k] = v
		}
	}
	if o.Snapshot != nil {
		out.Snapshot = append(json.RawMessage(nil), o.Snapshot...)
	}
	return out
}

// ParticipantID returns the actor ID on the given side of the order.
func (o Order) ParticipantID(t ActorType) string {
	if t == ActorSeller {
		return o.SellerID
	}
	return o.CustomerID
}

// IsParticipant reports whether actorID is the order's customer or seller on the given side.
func (o Order) IsParticipant(actorID string, t ActorType) bool {
	return actorID != "" && o.ParticipantID(t) == actorID
}

// NewOrder returns a pending_seller order at sequence 1.
func NewOrder(id, ref, customerID, sellerID string, snapshot json.RawMessage, now time.Time) Order {
	return Order{
		ID:         id,
		Ref:        ref,
		CustomerID: customerID,
		SellerID:   sellerID,
		Status:     StatusPendingSeller,
		Sequence:   1,
		Timestamps: map[Status]time.Time{StatusPendingSeller: now},
		Snapshot:   snapshot,
		CreatedAt:  now,
	}
}
