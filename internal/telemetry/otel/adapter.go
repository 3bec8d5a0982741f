package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"food-ordering-platform/ordersync/internal/telemetry"
)

// recordLogger is the part of otellog.Logger the emitter uses; tests substitute a capture.
type recordLogger interface {
	Emit(ctx context.Context, rec otellog.Record)
}

// NewTransitionEmitter returns an emitter that writes transition records as OTel log records.
// If provider is nil, it returns a no-op emitter.
func NewTransitionEmitter(provider *sdklog.LoggerProvider) telemetry.Emitter {
	if provider == nil {
		return noopEmitter{}
	}
	return &otelEmitter{logger: provider.Logger("ordersync.transitions")}
}

// NewTransitionEmitterWithLogger wraps an existing logger.
func NewTransitionEmitterWithLogger(logger recordLogger) telemetry.Emitter {
	return &otelEmitter{logger: logger}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *telemetry.TransitionRecord) error { return nil }

type otelEmitter struct {
	logger recordLogger
}

func (e *otelEmitter) Emit(ctx context.Context, r *telemetry.TransitionRecord) error {
	if r == nil {
		return nil
	}
	rec := otellog.Record{}
	at := r.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	rec.SetTimestamp(at)
	rec.SetSeverity(otellog.SeverityInfo)
	rec.SetBody(otellog.StringValue("order transition committed"))
	rec.AddAttributes(
		otellog.String("event_type", "order_transition"),
		otellog.String("order_id", r.OrderID),
		otellog.String("from_status", r.FromStatus),
		otellog.String("status", r.Status),
		otellog.Int64("from_sequence", r.FromSequence),
		otellog.Int64("sequence_number", r.Sequence),
		otellog.Int("attempts", r.Attempts),
	)
	if r.ActorID != "" {
		rec.AddAttributes(otellog.String("actor_id", r.ActorID))
	}
	if r.ActorType != "" {
		rec.AddAttributes(otellog.String("actor_type", r.ActorType))
	}
	if r.Reason != "" {
		rec.AddAttributes(otellog.String("cancellation_reason", r.Reason))
	}
	e.logger.Emit(ctx, rec)
	return nil
}
