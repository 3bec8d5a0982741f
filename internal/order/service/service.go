// Package service implements the actor-facing order actions. Each action fetches the canonical
// order, runs it through domain.Apply, commits with a compare-and-set on the sequence number and
// publishes the resulting envelope.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"food-ordering-platform/ordersync/internal/clock"
	"food-ordering-platform/ordersync/internal/hub"
	"food-ordering-platform/ordersync/internal/order/domain"
	"food-ordering-platform/ordersync/internal/order/repository"
	"food-ordering-platform/ordersync/internal/telemetry"
)

// DefaultMaxAttempts bounds commit retries after store conflicts.
const DefaultMaxAttempts = 3

// ErrCommitMismatch is returned when the store's committed order differs from the applied result.
var ErrCommitMismatch = errors.New("store commit does not match applied transition")

// Publisher is the hub surface the service needs.
type Publisher interface {
	Publish(ctx context.Context, msg hub.Message, rooms ...string) int
}

// Actor is the authenticated caller.
type Actor struct {
	ID   string
	Type domain.ActorType
}

// Options configures a Service. Zero values select defaults.
type Options struct {
	MaxAttempts int
	Clock       clock.Clock
	Emitter     telemetry.Emitter
	Logger      *slog.Logger
}

// Service runs order transitions against the authoritative store.
type Service struct {
	repo        repository.Repository
	pub         Publisher
	emitter     telemetry.Emitter
	clock       clock.Clock
	maxAttempts int
	logger      *slog.Logger
	tracer      trace.Tracer

	commits   metric.Int64Counter
	conflicts metric.Int64Counter
}

// NewService returns a Service. pub may be nil, in which case nothing is published.
func NewService(repo repository.Repository, pub Publisher, opts Options) *Service {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	meter := otel.Meter("food-ordering-platform/ordersync/order")
	commits, _ := meter.Int64Counter("ordersync.order.commits",
		metric.WithDescription("Committed order transitions"))
	conflicts, _ := meter.Int64Counter("ordersync.order.conflicts",
		metric.WithDescription("Commit attempts rejected because the order changed concurrently"))
	return &Service{
		repo:        repo,
		pub:         pub,
		emitter:     opts.Emitter,
		clock:       opts.Clock,
		maxAttempts: opts.MaxAttempts,
		logger:      opts.Logger,
		tracer:      otel.Tracer("food-ordering-platform/ordersync/order"),
		commits:     commits,
		conflicts:   conflicts,
	}
}

// AcceptOrder moves a pending order to seller_accepted.
func (s *Service) AcceptOrder(ctx context.Context, actor Actor, orderID string) (*domain.Order, error) {
	return s.transition(ctx, actor, orderID, domain.StatusSellerAccepted, "")
}

// RejectOrder moves a pending order to seller_rejected with reason.
func (s *Service) RejectOrder(ctx context.Context, actor Actor, orderID, reason string) (*domain.Order, error) {
	return s.transition(ctx, actor, orderID, domain.StatusSellerRejected, reason)
}

// AdvanceStatus moves an order to status.
func (s *Service) AdvanceStatus(ctx context.Context, actor Actor, orderID string, status domain.Status) (*domain.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidTransition, status)
	}
	return s.transition(ctx, actor, orderID, status, "")
}

// CancelOrder cancels an order with reason, attributed to the caller.
func (s *Service) CancelOrder(ctx context.Context, actor Actor, orderID, reason string) (*domain.Order, error) {
	return s.transition(ctx, actor, orderID, domain.StatusCancelled, reason)
}

// GetOrder returns the canonical order if actor participates in it.
func (s *Service) GetOrder(ctx context.Context, actor Actor, orderID string) (*domain.Order, error) {
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrOrderNotFound
	}
	if !o.IsParticipant(actor.ID, actor.Type) {
		return nil, domain.ErrNotParticipant
	}
	return o, nil
}

// ListOrders returns the caller's orders, newest first.
func (s *Service) ListOrders(ctx context.Context, actor Actor) ([]*domain.Order, error) {
	return s.repo.ListByActor(ctx, actor.ID, actor.Type)
}

// CreateOrder stores a new pending_seller order.
func (s *Service) CreateOrder(ctx context.Context, customerID, sellerID string, snapshot json.RawMessage) (*domain.Order, error) {
	if customerID == "" || sellerID == "" {
		return nil, errors.New("create order: customer and seller are required")
	}
	ref := uuid.New()
	id := "ORD-" + strings.ToUpper(strings.ReplaceAll(ref.String(), "-", "")[:10])
	o := domain.NewOrder(id, ref.String(), customerID, sellerID, snapshot, s.clock.Now().UTC())
	if err := s.repo.Create(ctx, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Service) transition(ctx context.Context, actor Actor, orderID string, target domain.Status, reason string) (_ *domain.Order, err error) {
	ctx, span := s.tracer.Start(ctx, "order.transition", trace.WithAttributes(
		attribute.String("order.id", orderID),
		attribute.String("order.target_status", string(target)),
		attribute.String("actor.type", string(actor.Type)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if !actor.Type.Valid() || actor.ID == "" {
		return nil, domain.ErrInvalidActor
	}

	for attempt := 1; ; attempt++ {
		cur, err := s.repo.GetOrder(ctx, orderID)
		if err != nil {
			return nil, fmt.Errorf("get order %s: %w", orderID, err)
		}
		if cur == nil {
			return nil, domain.ErrOrderNotFound
		}
		if !cur.IsParticipant(actor.ID, actor.Type) {
			return nil, domain.ErrNotParticipant
		}

		ev := domain.Envelope{
			OrderID:            orderID,
			Status:             target,
			ActorID:            actor.ID,
			ActorType:          actor.Type,
			CancellationReason: strings.TrimSpace(reason),
			SequenceNumber:     cur.Sequence + 1,
			EmittedAt:          s.clock.Now().UTC(),
		}
		res, err := domain.Apply(*cur, ev)
		if err != nil {
			return nil, err
		}

		committed, err := s.repo.CommitTransition(ctx, orderID, cur.Sequence, domain.TransitionOf(res.Order))
		if errors.Is(err, domain.ErrConflict) {
			s.conflicts.Add(ctx, 1)
			s.logger.Info("order: commit conflict, refetching", "order_id", orderID, "from_seq", cur.Sequence, "attempt", attempt)
			if attempt < s.maxAttempts {
				continue
			}
			return nil, fmt.Errorf("commit order %s after %d attempts: %w", orderID, attempt, err)
		}
		if err != nil {
			return nil, fmt.Errorf("commit order %s: %w", orderID, err)
		}
		if !domain.SameCommit(*committed, res.Order) {
			s.logger.Error("order: store diverged from applied transition", "order_id", orderID,
				"stored_status", committed.Status, "stored_sequence", committed.Sequence,
				"applied_status", res.Order.Status, "applied_sequence", res.Order.Sequence)
			return nil, fmt.Errorf("commit order %s: %w", orderID, ErrCommitMismatch)
		}

		s.commits.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(target))))
		span.SetAttributes(attribute.Int64("order.sequence_number", committed.Sequence), attribute.Int("order.attempts", attempt))
		s.publish(ctx, *committed, ev)
		telemetry.EmitAsync(s.emitter, &telemetry.TransitionRecord{
			OrderID:      orderID,
			FromStatus:   string(cur.Status),
			Status:       string(committed.Status),
			FromSequence: cur.Sequence,
			Sequence:     committed.Sequence,
			ActorID:      actor.ID,
			ActorType:    string(actor.Type),
			Reason:       ev.CancellationReason,
			Attempts:     attempt,
			At:           ev.EmittedAt,
		})
		return committed, nil
	}
}

// publish sends the committed envelope to the order room and the counterpart's actor room.
func (s *Service) publish(ctx context.Context, committed domain.Order, ev domain.Envelope) {
	if s.pub == nil {
		return
	}
	ev.SequenceNumber = committed.Sequence
	counterpart := committed.ParticipantID(ev.ActorType.Counterpart())
	n := s.pub.Publish(ctx, hub.OrderMessage(ev), hub.OrderRoom(committed.ID), hub.ActorRoom(counterpart))
	s.logger.Debug("order: published", "order_id", committed.ID, "status", committed.Status,
		"sequence_number", committed.Sequence, "deliveries", n)
}
