package domain

import "time"

// graph lists every allowed edge and which actor types may take it. Customers may cancel only
// before preparation starts; after that only the seller-side cancellation path remains.
var graph = map[Status]map[Status][]ActorType{
	StatusPendingSeller: {
		StatusSellerAccepted: {ActorSeller},
		StatusSellerRejected: {ActorSeller},
		StatusCancelled:      {ActorCustomer, ActorSeller},
	},
	StatusSellerAccepted: {
		StatusPreparing: {ActorSeller},
		StatusCancelled: {ActorCustomer, ActorSeller},
	},
	StatusPreparing: {
		StatusReady:     {ActorSeller},
		StatusCancelled: {ActorSeller},
	},
	StatusReady: {
		StatusOutForDelivery: {ActorSeller},
		StatusCancelled:      {ActorSeller},
	},
	StatusOutForDelivery: {
		StatusDelivered: {ActorSeller},
		StatusCancelled: {ActorSeller},
	},
}

// CanTransition reports whether actor may move an order directly from one status to another.
func CanTransition(from, to Status, actor ActorType) bool {
	for _, a := range graph[from][to] {
		if a == actor {
			return true
		}
	}
	return false
}

// Next returns the statuses reachable from s in one step by any actor.
func Next(s Status) []Status {
	out := make([]Status, 0, len(graph[s]))
	for to := range graph[s] {
		out = append(out, to)
	}
	return out
}

// Result is the outcome of Apply.
type Result struct {
	// Order is the updated order on commit, or the unchanged input on a duplicate.
	Order Order
	// Duplicate is set when the event's sequence number is not newer than the order's.
	Duplicate bool
	// Publish is set when a transition was committed and should be broadcast.
	Publish bool
}

// Apply validates ev against o and returns the resulting order. It never mutates o.
//
// An event whose sequence number is not newer than the order's is a duplicate: o is returned
// as-is with Duplicate set and a nil error. An event more than one step ahead (a canonical
// snapshot after missed pushes) is accepted when a path of exactly that many steps leads to the
// target and the actor may take its last edge.
func Apply(o Order, ev Envelope) (Result, error) {
	if ev.OrderID != o.ID {
		return Result{}, ErrOrderMismatch
	}
	if !ev.ActorType.Valid() {
		return Result{}, ErrInvalidActor
	}
	if ev.SequenceNumber <= o.Sequence {
		return Result{Order: o, Duplicate: true}, nil
	}
	if o.Status.Terminal() {
		return Result{}, &TransitionError{OrderID: o.ID, Current: o.Status, Target: ev.Status, Actor: ev.ActorType, Detail: "order is terminal"}
	}
	if !reachable(o.Status, ev.Status, ev.SequenceNumber-o.Sequence, ev.ActorType) {
		return Result{}, &TransitionError{OrderID: o.ID, Current: o.Status, Target: ev.Status, Actor: ev.ActorType}
	}
	if ev.Status.RequiresReason() && ev.CancellationReason == "" {
		return Result{}, ErrReasonRequired
	}

	next := o.Clone()
	next.Status = ev.Status
	next.Sequence = ev.SequenceNumber
	next.UpdatedBy = ev.ActorType
	if next.Timestamps == nil {
		next.Timestamps = make(map[Status]time.Time, 1)
	}
	next.Timestamps[ev.Status] = ev.EmittedAt
	if ev.Status.RequiresReason() {
		next.CancellationReason = ev.CancellationReason
		next.CancelledBy = ev.ActorType
	}
	return Result{Order: next, Publish: true}, nil
}

// reachable reports whether to can be reached from from in exactly steps transitions, with the
// final edge permitted for actor.
func reachable(from, to Status, steps int64, actor ActorType) bool {
	frontier := map[Status]struct{}{from: {}}
	for i := int64(1); i < steps; i++ {
		next := make(map[Status]struct{})
		for s := range frontier {
			for n := range graph[s] {
				next[n] = struct{}{}
			}
		}
		if len(next) == 0 {
			return false
		}
		frontier = next
	}
	for s := range frontier {
		if CanTransition(s, to, actor) {
			return true
		}
	}
	return false
}
