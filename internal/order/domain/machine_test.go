package domain

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestOrder() Order {
	return NewOrder("ORD-1", "ref-1", "cust-1", "seller-1", nil, t0)
}

func event(o Order, status Status, actor ActorType, reason string) Envelope {
	return Envelope{
		OrderID:            o.ID,
		Status:             status,
		ActorID:            o.ParticipantID(actor),
		ActorType:          actor,
		CancellationReason: reason,
		SequenceNumber:     o.Sequence + 1,
		EmittedAt:          t0.Add(time.Duration(o.Sequence) * time.Minute),
	}
}

func mustApply(t *testing.T, o Order, ev Envelope) Order {
	t.Helper()
	res, err := Apply(o, ev)
	if err != nil {
		t.Fatalf("Apply(%s -> %s): %v", o.Status, ev.Status, err)
	}
	if !res.Publish || res.Duplicate {
		t.Fatalf("Apply(%s -> %s): publish=%v duplicate=%v, want commit", o.Status, ev.Status, res.Publish, res.Duplicate)
	}
	return res.Order
}

func TestApply_HappyPathReachesDelivered(t *testing.T) {
	o := newTestOrder()
	for _, st := range []Status{StatusSellerAccepted, StatusPreparing, StatusReady, StatusOutForDelivery, StatusDelivered} {
		o = mustApply(t, o, event(o, st, ActorSeller, ""))
	}
	if o.Status != StatusDelivered {
		t.Fatalf("status = %s, want delivered", o.Status)
	}
	if o.Sequence != 6 {
		t.Errorf("sequence = %d, want 6", o.Sequence)
	}
	if !o.Status.Terminal() {
		t.Error("delivered should be terminal")
	}
	if len(o.Timestamps) != 6 {
		t.Errorf("timestamps = %d, want 6", len(o.Timestamps))
	}
}

func TestApply_AcceptScenario(t *testing.T) {
	o := newTestOrder()
	next := mustApply(t, o, event(o, StatusSellerAccepted, ActorSeller, ""))
	if next.Status != StatusSellerAccepted || next.Sequence != 2 {
		t.Errorf("got %s seq %d, want seller_accepted seq 2", next.Status, next.Sequence)
	}
	if o.Status != StatusPendingSeller || o.Sequence != 1 {
		t.Error("input order was mutated")
	}
	if next.UpdatedBy != ActorSeller {
		t.Errorf("UpdatedBy = %s, want seller", next.UpdatedBy)
	}
}

func TestApply_RejectThenAdvanceFails(t *testing.T) {
	o := newTestOrder()
	o = mustApply(t, o, event(o, StatusSellerRejected, ActorSeller, "Out of stock"))
	if o.CancellationReason != "Out of stock" || o.CancelledBy != ActorSeller {
		t.Errorf("reason = %q by %q", o.CancellationReason, o.CancelledBy)
	}
	_, err := Apply(o, event(o, StatusPreparing, ActorSeller, ""))
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("advance after reject: err = %v, want ErrInvalidTransition", err)
	}
	if cur, ok := CurrentStatus(err); !ok || cur != StatusSellerRejected {
		t.Errorf("CurrentStatus = %q, %v", cur, ok)
	}
}

func TestApply_CustomerCancelWindow(t *testing.T) {
	testCases := []struct {
		name    string
		path    []Status
		wantErr bool
	}{
		{"pending", nil, false},
		{"accepted", []Status{StatusSellerAccepted}, false},
		{"preparing", []Status{StatusSellerAccepted, StatusPreparing}, true},
		{"ready", []Status{StatusSellerAccepted, StatusPreparing, StatusReady}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			o := newTestOrder()
			for _, st := range tc.path {
				o = mustApply(t, o, event(o, st, ActorSeller, ""))
			}
			res, err := Apply(o, event(o, StatusCancelled, ActorCustomer, "changed my mind"))
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Fatalf("err = %v, want ErrInvalidTransition", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if res.Order.CancelledBy != ActorCustomer {
				t.Errorf("CancelledBy = %s, want customer", res.Order.CancelledBy)
			}
		})
	}
}

func TestApply_SellerCancelAfterPreparing(t *testing.T) {
	o := newTestOrder()
	o = mustApply(t, o, event(o, StatusSellerAccepted, ActorSeller, ""))
	o = mustApply(t, o, event(o, StatusPreparing, ActorSeller, ""))
	o = mustApply(t, o, event(o, StatusCancelled, ActorSeller, "kitchen fire"))
	if o.Status != StatusCancelled || o.CancelledBy != ActorSeller {
		t.Errorf("got %s by %s", o.Status, o.CancelledBy)
	}
}

func TestApply_CustomerCannotAdvance(t *testing.T) {
	o := newTestOrder()
	for _, st := range []Status{StatusSellerAccepted, StatusSellerRejected} {
		if _, err := Apply(o, event(o, st, ActorCustomer, "x")); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("customer -> %s: err = %v, want ErrInvalidTransition", st, err)
		}
	}
}

func TestApply_DuplicateIsIdenticalNoOp(t *testing.T) {
	o := newTestOrder()
	ev := event(o, StatusSellerAccepted, ActorSeller, "")
	o = mustApply(t, o, ev)

	res, err := Apply(o, ev)
	if err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if !res.Duplicate || res.Publish {
		t.Errorf("duplicate=%v publish=%v, want duplicate only", res.Duplicate, res.Publish)
	}
	if !reflect.DeepEqual(res.Order, o) {
		t.Errorf("order changed on duplicate: %+v vs %+v", res.Order, o)
	}
}

func TestApply_StaleEventDiscarded(t *testing.T) {
	o := newTestOrder()
	o = mustApply(t, o, event(o, StatusSellerAccepted, ActorSeller, ""))
	o = mustApply(t, o, event(o, StatusPreparing, ActorSeller, ""))

	stale := Envelope{OrderID: o.ID, Status: StatusSellerAccepted, ActorType: ActorSeller, SequenceNumber: 2, EmittedAt: t0}
	res, err := Apply(o, stale)
	if err != nil {
		t.Fatalf("stale: %v", err)
	}
	if !res.Duplicate || res.Order.Status != StatusPreparing || res.Order.Sequence != 3 {
		t.Errorf("stale event mutated state: %+v", res)
	}
}

func TestApply_GapReplayJumpsToCanonical(t *testing.T) {
	o := newTestOrder()
	ev := Envelope{OrderID: o.ID, Status: StatusPreparing, ActorType: ActorSeller, SequenceNumber: 3, EmittedAt: t0}
	next := mustApply(t, o, ev)
	if next.Status != StatusPreparing || next.Sequence != 3 {
		t.Errorf("got %s seq %d, want preparing seq 3", next.Status, next.Sequence)
	}
}

func TestApply_GapReplayWrongLengthRejected(t *testing.T) {
	o := newTestOrder()
	// preparing is two steps from pending_seller, not three.
	ev := Envelope{OrderID: o.ID, Status: StatusPreparing, ActorType: ActorSeller, SequenceNumber: 4, EmittedAt: t0}
	if _, err := Apply(o, ev); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestApply_Validation(t *testing.T) {
	o := newTestOrder()

	if _, err := Apply(o, event(o, StatusSellerRejected, ActorSeller, "")); !errors.Is(err, ErrReasonRequired) {
		t.Errorf("reject without reason: err = %v", err)
	}
	if _, err := Apply(o, Envelope{OrderID: "other", Status: StatusSellerAccepted, ActorType: ActorSeller, SequenceNumber: 2}); !errors.Is(err, ErrOrderMismatch) {
		t.Errorf("wrong order: err = %v", err)
	}
	if _, err := Apply(o, Envelope{OrderID: o.ID, Status: StatusSellerAccepted, ActorType: "courier", SequenceNumber: 2}); !errors.Is(err, ErrInvalidActor) {
		t.Errorf("bad actor: err = %v", err)
	}
	if _, err := Apply(o, event(o, StatusDelivered, ActorSeller, "")); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("skip to delivered: err = %v", err)
	}
}

func TestApply_OnlyDocumentedTerminalsReachable(t *testing.T) {
	seen := map[Status]bool{}
	var walk func(s Status)
	walk = func(s Status) {
		if seen[s] {
			return
		}
		seen[s] = true
		for _, n := range Next(s) {
			walk(n)
		}
	}
	walk(StatusPendingSeller)
	for s := range seen {
		if len(Next(s)) == 0 && !s.Terminal() {
			t.Errorf("%s has no outgoing edges but is not terminal", s)
		}
		if s.Terminal() && len(Next(s)) != 0 {
			t.Errorf("terminal %s has outgoing edges", s)
		}
	}
	for _, term := range []Status{StatusDelivered, StatusSellerRejected, StatusCancelled} {
		if !seen[term] {
			t.Errorf("terminal %s unreachable", term)
		}
	}
}

func TestEnvelopeFromOrder_Cancelled(t *testing.T) {
	o := newTestOrder()
	o = mustApply(t, o, event(o, StatusCancelled, ActorCustomer, "too slow"))
	env := EnvelopeFromOrder(o)
	if env.ActorType != ActorCustomer || env.ActorID != "cust-1" {
		t.Errorf("actor = %s/%s", env.ActorType, env.ActorID)
	}
	if env.CancellationReason != "too slow" || env.SequenceNumber != 2 {
		t.Errorf("envelope = %+v", env)
	}
}
