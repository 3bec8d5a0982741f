package domain

import "time"

// Envelope is the event published for one accepted transition. Envelopes are values and are never
// mutated after they are built.
type Envelope struct {
	OrderID            string    `json:"orderId"`
	Status             Status    `json:"status"`
	ActorID            string    `json:"actorId"`
	ActorType          ActorType `json:"actorType"`
	CancellationReason string    `json:"cancellationReason,omitempty"`
	SequenceNumber     int64     `json:"sequenceNumber"`
	EmittedAt          time.Time `json:"emittedAt"`
}

// Transition is the attribute set written by the store's compare-and-set commit.
type Transition struct {
	Status    Status
	ActorType ActorType
	Reason    string
	At        time.Time
}

// TransitionOf returns the store attributes that turn next's predecessor into next, where next is
// the Order produced by a committing Apply.
func TransitionOf(next Order) Transition {
	t := Transition{
		Status:    next.Status,
		ActorType: next.UpdatedBy,
		At:        next.Timestamps[next.Status],
	}
	if next.Status.RequiresReason() {
		t.Reason = next.CancellationReason
		t.ActorType = next.CancelledBy
	}
	return t
}

// SameCommit reports whether a stored order carries the lifecycle fields of the applied result.
func SameCommit(stored, applied Order) bool {
	return stored.ID == applied.ID &&
		stored.Status == applied.Status &&
		stored.Sequence == applied.Sequence &&
		stored.UpdatedBy == applied.UpdatedBy &&
		stored.CancellationReason == applied.CancellationReason &&
		stored.CancelledBy == applied.CancelledBy
}

// EnvelopeFromOrder describes the latest committed transition of o as an envelope. It is how a
// canonical snapshot re-enters Apply, so reconciliation and push share one code path.
func EnvelopeFromOrder(o Order) Envelope {
	env := Envelope{
		OrderID:        o.ID,
		Status:         o.Status,
		ActorType:      o.UpdatedBy,
		ActorID:        o.ParticipantID(o.UpdatedBy),
		SequenceNumber: o.Sequence,
		EmittedAt:      o.Timestamps[o.Status],
	}
	if o.Status.RequiresReason() {
		env.CancellationReason = o.CancellationReason
		if o.CancelledBy != "" {
			env.ActorType = o.CancelledBy
			env.ActorID = o.ParticipantID(o.CancelledBy)
		}
	}
	return env
}
