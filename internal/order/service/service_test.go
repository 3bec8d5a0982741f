package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"food-ordering-platform/ordersync/internal/clock"
	"food-ordering-platform/ordersync/internal/hub"
	"food-ordering-platform/ordersync/internal/order/domain"
	"food-ordering-platform/ordersync/internal/order/repository"
)

var (
	seller   = Actor{ID: "seller-1", Type: domain.ActorSeller}
	customer = Actor{ID: "cust-1", Type: domain.ActorCustomer}
	t0       = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

type published struct {
	msg   hub.Message
	rooms []string
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []published
}

func (p *recordingPublisher) Publish(_ context.Context, msg hub.Message, rooms ...string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, published{msg: msg, rooms: rooms})
	return len(rooms)
}

// racingRepo commits a competing transition just before the first N commits it sees.
type racingRepo struct {
	*repository.MemoryRepository
	races []domain.Transition
	calls int
}

func (r *racingRepo) CommitTransition(ctx context.Context, id string, fromSeq int64, t domain.Transition) (*domain.Order, error) {
	r.calls++
	if len(r.races) > 0 {
		race := r.races[0]
		r.races = r.races[1:]
		if _, err := r.MemoryRepository.CommitTransition(ctx, id, fromSeq, race); err != nil {
			return nil, err
		}
	}
	return r.MemoryRepository.CommitTransition(ctx, id, fromSeq, t)
}

// skewedRepo commits normally but reports a different status back.
type skewedRepo struct {
	*repository.MemoryRepository
}

func (r skewedRepo) CommitTransition(ctx context.Context, id string, fromSeq int64, t domain.Transition) (*domain.Order, error) {
	o, err := r.MemoryRepository.CommitTransition(ctx, id, fromSeq, t)
	if err != nil {
		return nil, err
	}
	o.Status = domain.StatusPreparing
	return o, nil
}

func newTestService(t *testing.T, repo repository.Repository) (*Service, *recordingPublisher) {
	t.Helper()
	o := domain.NewOrder("ORD-1", "ref-1", "cust-1", "seller-1", nil, t0)
	if err := repo.Create(context.Background(), &o); err != nil {
		t.Fatalf("Create: %v", err)
	}
	pub := &recordingPublisher{}
	return NewService(repo, pub, Options{Clock: clock.Fake(t0.Add(time.Minute))}), pub
}

func TestAcceptOrder_CommitsAndPublishesToBothRooms(t *testing.T) {
	svc, pub := newTestService(t, repository.NewMemoryRepository())
	o, err := svc.AcceptOrder(context.Background(), seller, "ORD-1")
	if err != nil {
		t.Fatalf("AcceptOrder: %v", err)
	}
	if o.Status != domain.StatusSellerAccepted || o.Sequence != 2 {
		t.Errorf("got %s seq %d, want seller_accepted seq 2", o.Status, o.Sequence)
	}
	if len(pub.msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(pub.msgs))
	}
	rooms := append([]string(nil), pub.msgs[0].rooms...)
	sort.Strings(rooms)
	want := []string{hub.ActorRoom("cust-1"), hub.OrderRoom("ORD-1")}
	if len(rooms) != 2 || rooms[0] != want[0] || rooms[1] != want[1] {
		t.Errorf("rooms = %v, want %v", rooms, want)
	}
	env := pub.msgs[0].msg.Order
	if env.SequenceNumber != 2 || env.ActorID != "seller-1" || !env.EmittedAt.Equal(t0.Add(time.Minute)) {
		t.Errorf("envelope = %+v", env)
	}
}

func TestRejectOrder_TerminalThenAdvanceFails(t *testing.T) {
	svc, pub := newTestService(t, repository.NewMemoryRepository())
	ctx := context.Background()
	o, err := svc.RejectOrder(ctx, seller, "ORD-1", "Out of stock")
	if err != nil {
		t.Fatalf("RejectOrder: %v", err)
	}
	if o.Status != domain.StatusSellerRejected || o.CancellationReason != "Out of stock" || o.CancelledBy != domain.ActorSeller {
		t.Errorf("rejected = %+v", o)
	}

	_, err = svc.AdvanceStatus(ctx, seller, "ORD-1", domain.StatusPreparing)
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("AdvanceStatus: err = %v, want ErrInvalidTransition", err)
	}
	if cur, ok := domain.CurrentStatus(err); !ok || cur != domain.StatusSellerRejected {
		t.Errorf("CurrentStatus = %q, %v", cur, ok)
	}
	if len(pub.msgs) != 1 {
		t.Errorf("published %d messages, want 1", len(pub.msgs))
	}
}

func TestRejectOrder_ReasonRequired(t *testing.T) {
	svc, _ := newTestService(t, repository.NewMemoryRepository())
	if _, err := svc.RejectOrder(context.Background(), seller, "ORD-1", "   "); !errors.Is(err, domain.ErrReasonRequired) {
		t.Errorf("err = %v, want ErrReasonRequired", err)
	}
}

func TestCancelOrder_CustomerWindowClosedAtPreparing(t *testing.T) {
	svc, _ := newTestService(t, repository.NewMemoryRepository())
	ctx := context.Background()
	if _, err := svc.AcceptOrder(ctx, seller, "ORD-1"); err != nil {
		t.Fatalf("AcceptOrder: %v", err)
	}
	if _, err := svc.AdvanceStatus(ctx, seller, "ORD-1", domain.StatusPreparing); err != nil {
		t.Fatalf("AdvanceStatus: %v", err)
	}
	if _, err := svc.CancelOrder(ctx, customer, "ORD-1", "too slow"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("CancelOrder: err = %v, want ErrInvalidTransition", err)
	}
	o, err := svc.CancelOrder(ctx, seller, "ORD-1", "kitchen closed")
	if err != nil {
		t.Fatalf("seller CancelOrder: %v", err)
	}
	if o.CancelledBy != domain.ActorSeller {
		t.Errorf("CancelledBy = %s", o.CancelledBy)
	}
}

func TestCancelOrder_PublishesToSellerRoom(t *testing.T) {
	svc, pub := newTestService(t, repository.NewMemoryRepository())
	if _, err := svc.CancelOrder(context.Background(), customer, "ORD-1", "ordered twice"); err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	found := false
	for _, r := range pub.msgs[0].rooms {
		if r == hub.ActorRoom("seller-1") {
			found = true
		}
	}
	if !found {
		t.Errorf("rooms = %v, want seller actor room", pub.msgs[0].rooms)
	}
}

func TestTransition_RetriesAfterConflict(t *testing.T) {
	repo := &racingRepo{
		MemoryRepository: repository.NewMemoryRepository(),
		races:            []domain.Transition{{Status: domain.StatusSellerAccepted, ActorType: domain.ActorSeller, At: t0}},
	}
	svc, _ := newTestService(t, repo)

	// The seller's accept lands first; the customer's cancel is still legal from seller_accepted.
	o, err := svc.CancelOrder(context.Background(), customer, "ORD-1", "changed my mind")
	if err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	if o.Status != domain.StatusCancelled || o.Sequence != 3 {
		t.Errorf("got %s seq %d, want cancelled seq 3", o.Status, o.Sequence)
	}
	if repo.calls != 2 {
		t.Errorf("commit calls = %d, want 2", repo.calls)
	}
}

func TestTransition_ConflictThenEdgeNoLongerLegal(t *testing.T) {
	repo := &racingRepo{
		MemoryRepository: repository.NewMemoryRepository(),
		races:            []domain.Transition{{Status: domain.StatusSellerRejected, ActorType: domain.ActorSeller, Reason: "closed", At: t0}},
	}
	svc, _ := newTestService(t, repo)

	_, err := svc.CancelOrder(context.Background(), customer, "ORD-1", "changed my mind")
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
	if cur, _ := domain.CurrentStatus(err); cur != domain.StatusSellerRejected {
		t.Errorf("current = %s, want seller_rejected", cur)
	}
}

func TestTransition_ConflictExhaustsAttempts(t *testing.T) {
	repo := &racingRepo{MemoryRepository: repository.NewMemoryRepository()}
	svc, _ := newTestService(t, repo)
	svc.maxAttempts = 2
	repo.races = []domain.Transition{
		{Status: domain.StatusSellerAccepted, ActorType: domain.ActorSeller, At: t0},
		{Status: domain.StatusPreparing, ActorType: domain.ActorSeller, At: t0},
	}
	_, err := svc.AdvanceStatus(context.Background(), seller, "ORD-1", domain.StatusCancelled)
	if !errors.Is(err, domain.ErrReasonRequired) {
		t.Fatalf("err = %v, want ErrReasonRequired before any commit", err)
	}

	_, err = svc.CancelOrder(context.Background(), seller, "ORD-1", "closing early")
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestTransition_StoreMismatchNotPublished(t *testing.T) {
	svc, pub := newTestService(t, skewedRepo{repository.NewMemoryRepository()})
	_, err := svc.AcceptOrder(context.Background(), seller, "ORD-1")
	if !errors.Is(err, ErrCommitMismatch) {
		t.Fatalf("err = %v, want ErrCommitMismatch", err)
	}
	if len(pub.msgs) != 0 {
		t.Errorf("published %d messages, want 0", len(pub.msgs))
	}
}

func TestTransitionOf_MatchesApply(t *testing.T) {
	o := domain.NewOrder("ORD-9", "ref-9", "cust-1", "seller-1", nil, t0)
	res, err := domain.Apply(o, domain.Envelope{
		OrderID: o.ID, Status: domain.StatusCancelled, ActorID: "cust-1", ActorType: domain.ActorCustomer,
		CancellationReason: "too slow", SequenceNumber: 2, EmittedAt: t0.Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	repo := repository.NewMemoryRepository()
	if err := repo.Create(context.Background(), &o); err != nil {
		t.Fatalf("Create: %v", err)
	}
	stored, err := repo.CommitTransition(context.Background(), o.ID, 1, domain.TransitionOf(res.Order))
	if err != nil {
		t.Fatalf("CommitTransition: %v", err)
	}
	if !domain.SameCommit(*stored, res.Order) {
		t.Errorf("stored = %+v, want %+v", *stored, res.Order)
	}
	if !stored.Timestamps[domain.StatusCancelled].Equal(res.Order.Timestamps[domain.StatusCancelled]) {
		t.Errorf("cancelled timestamp = %v, want %v", stored.Timestamps[domain.StatusCancelled], res.Order.Timestamps[domain.StatusCancelled])
	}
}

func TestTransition_OwnershipAndLookup(t *testing.T) {
	svc, _ := newTestService(t, repository.NewMemoryRepository())
	ctx := context.Background()
	if _, err := svc.AcceptOrder(ctx, Actor{ID: "seller-2", Type: domain.ActorSeller}, "ORD-1"); !errors.Is(err, domain.ErrNotParticipant) {
		t.Errorf("foreign seller: err = %v, want ErrNotParticipant", err)
	}
	if _, err := svc.AcceptOrder(ctx, seller, "ORD-404"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("missing order: err = %v, want ErrOrderNotFound", err)
	}
	if _, err := svc.AcceptOrder(ctx, Actor{ID: "x", Type: "courier"}, "ORD-1"); !errors.Is(err, domain.ErrInvalidActor) {
		t.Errorf("bad actor: err = %v, want ErrInvalidActor", err)
	}
	if _, err := svc.GetOrder(ctx, Actor{ID: "cust-2", Type: domain.ActorCustomer}, "ORD-1"); !errors.Is(err, domain.ErrNotParticipant) {
		t.Errorf("GetOrder foreign: err = %v", err)
	}
	if _, err := svc.AdvanceStatus(ctx, seller, "ORD-1", "teleported"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("unknown status: err = %v", err)
	}
}

func TestCreateOrder(t *testing.T) {
	repo := repository.NewMemoryRepository()
	svc := NewService(repo, nil, Options{Clock: clock.Fake(t0)})
	o, err := svc.CreateOrder(context.Background(), "cust-1", "seller-1", []byte(`{"items":[]}`))
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if o.Status != domain.StatusPendingSeller || o.Sequence != 1 || len(o.ID) != 14 {
		t.Errorf("order = %+v", o)
	}
	got, _ := svc.GetOrder(context.Background(), customer, o.ID)
	if got == nil || got.Ref != o.Ref {
		t.Errorf("stored = %+v", got)
	}
	if _, err := svc.CreateOrder(context.Background(), "", "seller-1", nil); err == nil {
		t.Error("CreateOrder without customer should fail")
	}
}

func TestHappyPath_EndToEndThroughHub(t *testing.T) {
	repo := repository.NewMemoryRepository()
	o := domain.NewOrder("ORD-1", "ref-1", "cust-1", "seller-1", nil, t0)
	_ = repo.Create(context.Background(), &o)
	h := hub.New(nil)
	svc := NewService(repo, h, Options{})

	ctx := context.Background()
	if _, err := svc.AcceptOrder(ctx, seller, "ORD-1"); err != nil {
		t.Fatalf("accept: %v", err)
	}
	for _, st := range []domain.Status{domain.StatusPreparing, domain.StatusReady, domain.StatusOutForDelivery, domain.StatusDelivered} {
		if _, err := svc.AdvanceStatus(ctx, seller, "ORD-1", st); err != nil {
			t.Fatalf("advance to %s: %v", st, err)
		}
	}
	final, _ := repo.GetOrder(ctx, "ORD-1")
	if final.Status != domain.StatusDelivered || final.Sequence != 6 {
		t.Errorf("final = %s seq %d", final.Status, final.Sequence)
	}
}
