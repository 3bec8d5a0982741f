package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"food-ordering-platform/ordersync/internal/clock"
	"food-ordering-platform/ordersync/internal/order/domain"
	"food-ordering-platform/ordersync/internal/replica"
)

const interval = 5 * time.Second

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeStore struct {
	mu     sync.Mutex
	orders map[string]domain.Order
	err    error
	calls  int
}

func newFakeStore(orders ...domain.Order) *fakeStore {
	s := &fakeStore{orders: make(map[string]domain.Order)}
	for _, o := range orders {
		s.orders[o.ID] = o
	}
	return s
}

func (s *fakeStore) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	c := o.Clone()
	return &c, nil
}

func (s *fakeStore) advance(t *testing.T, id string, status domain.Status, actor domain.ActorType, reason string) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.orders[id]
	res, err := domain.Apply(o, domain.Envelope{
		OrderID: id, Status: status, ActorID: o.ParticipantID(actor), ActorType: actor,
		CancellationReason: reason, SequenceNumber: o.Sequence + 1, EmittedAt: t0,
	})
	if err != nil {
		t.Fatalf("advance %s: %v", status, err)
	}
	s.orders[id] = res.Order
}

func (s *fakeStore) fetches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

type stops struct {
	mu      sync.Mutex
	reasons map[string]string
}

func (s *stops) record(id, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reasons == nil {
		s.reasons = make(map[string]string)
	}
	s.reasons[id] = reason
}

func (s *stops) get(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reasons[id]
}

func setup(t *testing.T, store *fakeStore) (*Poller, *replica.View, *clock.FakeClock, *stops) {
	t.Helper()
	clk := clock.Fake(t0)
	view := replica.NewView(nil, nil)
	st := &stops{}
	p := NewPoller(store, view, Options{Interval: interval, Clock: clk, OnStop: st.record})
	t.Cleanup(p.Stop)
	return p, view, clk, st
}

func TestPoller_ConvergesWithinOneIntervalAfterMissedPushes(t *testing.T) {
	o := domain.NewOrder("ORD-1", "ref", "cust-1", "seller-1", nil, t0)
	store := newFakeStore(o)
	p, view, clk, _ := setup(t, store)
	view.Seed(o)
	p.Track("ORD-1")

	// Both pushes are lost.
	store.advance(t, "ORD-1", domain.StatusSellerAccepted, domain.ActorSeller, "")
	store.advance(t, "ORD-1", domain.StatusPreparing, domain.ActorSeller, "")

	clk.Advance(interval)
	waitFor(t, "repair", func() bool {
		seq, _ := view.Sequence("ORD-1")
		return seq == 3
	})
	got, _ := view.Get("ORD-1")
	if got.Status != domain.StatusPreparing {
		t.Errorf("status = %s, want preparing", got.Status)
	}
	if tr := p.Tracking(); len(tr) != 1 {
		t.Errorf("Tracking = %v, want one task", tr)
	}
}

func TestPoller_StopsAtTerminal(t *testing.T) {
	o := domain.NewOrder("ORD-1", "ref", "cust-1", "seller-1", nil, t0)
	store := newFakeStore(o)
	p, view, clk, st := setup(t, store)
	view.Seed(o)
	p.Track("ORD-1")

	store.advance(t, "ORD-1", domain.StatusSellerRejected, domain.ActorSeller, "Out of stock")
	clk.Advance(interval)
	waitFor(t, "terminal stop", func() bool { return st.get("ORD-1") == "terminal" })

	got, _ := view.Get("ORD-1")
	if got.Status != domain.StatusSellerRejected || got.CancellationReason != "Out of stock" {
		t.Errorf("local = %s %q", got.Status, got.CancellationReason)
	}
	if tr := p.Tracking(); len(tr) != 0 {
		t.Errorf("Tracking = %v, want none", tr)
	}
	if clk.Pending() != 0 {
		t.Errorf("pending timers = %d, want 0", clk.Pending())
	}
}

func TestPoller_PollerOnlyConvergence(t *testing.T) {
	// No push path at all: every transition is observed by polling.
	o := domain.NewOrder("ORD-1", "ref", "cust-1", "seller-1", nil, t0)
	store := newFakeStore(o)
	p, view, clk, st := setup(t, store)
	p.Track("ORD-1")

	steps := []domain.Status{domain.StatusSellerAccepted, domain.StatusPreparing, domain.StatusReady,
		domain.StatusOutForDelivery, domain.StatusDelivered}
	for i, status := range steps {
		store.advance(t, "ORD-1", status, domain.ActorSeller, "")
		want := int64(i + 2)
		before := store.fetches()
		clk.Advance(interval)
		waitFor(t, string(status), func() bool {
			seq, _ := view.Sequence("ORD-1")
			return seq == want && store.fetches() > before
		})
	}
	waitFor(t, "terminal stop", func() bool { return st.get("ORD-1") == "terminal" })
	got, _ := view.Get("ORD-1")
	if got.Status != domain.StatusDelivered {
		t.Errorf("status = %s, want delivered", got.Status)
	}
}

func TestPoller_FetchErrorKeepsPolling(t *testing.T) {
	o := domain.NewOrder("ORD-1", "ref", "cust-1", "seller-1", nil, t0)
	store := newFakeStore(o)
	p, view, clk, _ := setup(t, store)
	view.Seed(o)
	store.err = errors.New("unavailable")
	p.Track("ORD-1")

	clk.Advance(interval)
	waitFor(t, "first fetch", func() bool { return store.fetches() == 1 })

	store.mu.Lock()
	store.err = nil
	store.mu.Unlock()
	store.advance(t, "ORD-1", domain.StatusSellerAccepted, domain.ActorSeller, "")
	clk.Advance(interval)
	waitFor(t, "repair after error", func() bool {
		seq, _ := view.Sequence("ORD-1")
		return seq == 2
	})
}

func TestPoller_NotFoundStopsTask(t *testing.T) {
	store := newFakeStore()
	p, _, clk, st := setup(t, store)
	p.Track("ghost")
	clk.Advance(interval)
	waitFor(t, "not found stop", func() bool { return st.get("ghost") == "not_found" })
}

func TestPoller_TrackIdempotentUntrackAndStop(t *testing.T) {
	a := domain.NewOrder("A", "ref", "cust-1", "seller-1", nil, t0)
	b := domain.NewOrder("B", "ref", "cust-1", "seller-1", nil, t0)
	store := newFakeStore(a, b)
	p, _, clk, st := setup(t, store)

	p.Track("A")
	p.Track("A")
	p.Track("B")
	if tr := p.Tracking(); len(tr) != 2 || tr[0] != "A" || tr[1] != "B" {
		t.Fatalf("Tracking = %v, want [A B]", tr)
	}
	if clk.Pending() != 2 {
		t.Errorf("pending timers = %d, want 2", clk.Pending())
	}

	p.Untrack("A")
	waitFor(t, "untrack", func() bool { return st.get("A") == "untracked" })

	p.Stop()
	if st.get("B") != "stopped" {
		t.Errorf("B stop reason = %q, want stopped", st.get("B"))
	}
	if p.Track("C") {
		t.Error("Track after Stop should fail")
	}
	if tr := p.Tracking(); len(tr) != 0 {
		t.Errorf("Tracking = %v after Stop", tr)
	}
}

func TestPollOnce_DuplicateSnapshotIsNoOp(t *testing.T) {
	o := domain.NewOrder("ORD-1", "ref", "cust-1", "seller-1", nil, t0)
	store := newFakeStore(o)
	p, view, _, _ := setup(t, store)
	view.Seed(o)

	more, reason := p.PollOnce(context.Background(), "ORD-1")
	if !more || reason != "" {
		t.Errorf("PollOnce = %v, %q", more, reason)
	}
	got, _ := view.Get("ORD-1")
	if got.Sequence != 1 || got.Status != domain.StatusPendingSeller {
		t.Errorf("local = %s seq %d", got.Status, got.Sequence)
	}
}
