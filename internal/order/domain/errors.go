package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when the attempted edge is not in the graph or the actor
	// may not take it. Match with errors.Is; the concrete *TransitionError carries the current status.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrConflict is returned by the store when the commit's fromSeq no longer matches.
	ErrConflict = errors.New("order changed concurrently")
	// ErrOrderNotFound is returned when the store has no order with the given ID.
	ErrOrderNotFound = errors.New("order not found")
	// ErrReasonRequired is returned for rejections and cancellations without a reason.
	ErrReasonRequired = errors.New("cancellation reason required")
	// ErrInvalidActor is returned when an event carries an unknown actor type.
	ErrInvalidActor = errors.New("invalid actor type")
	// ErrOrderMismatch is returned when an event is applied to a different order.
	ErrOrderMismatch = errors.New("event does not belong to order")
	// ErrNotParticipant is returned when the acting actor is not on the order.
	ErrNotParticipant = errors.New("actor is not a participant of the order")
)

// TransitionError describes a rejected transition. Current is the order's status at the time of
// the rejection so callers can resync their view.
type TransitionError struct {
	OrderID string
	Current Status
	Target  Status
	Actor   ActorType
	Detail  string
}

func (e *TransitionError) Error() string {
	msg := fmt.Sprintf("invalid transition for order %s: %s -> %s by %s", e.OrderID, e.Current, e.Target, e.Actor)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Unwrap lets errors.Is(err, ErrInvalidTransition) match.
func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// CurrentStatus extracts the current status from a *TransitionError in err's chain.
func CurrentStatus(err error) (Status, bool) {
	var te *TransitionError
	if errors.As(err, &te) {
		return te.Current, true
	}
	return "", false
}
