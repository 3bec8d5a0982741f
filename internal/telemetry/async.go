package telemetry

import (
	"context"
	"log/slog"
	"time"
)

// emitTimeout bounds a single async emit.
const emitTimeout = 5 * time.Second

// ShutdownDrainDuration is how long to wait after the gRPC server stops before shutting down
// OTel providers, so in-flight async emits can finish. Must be >= emitTimeout.
const ShutdownDrainDuration = emitTimeout

// EmitAsync runs Emit in a goroutine so the caller is not blocked. emitter and rec may be nil.
// The goroutine uses a fresh context so request cancellation does not abort the emit.
func EmitAsync(emitter Emitter, rec *TransitionRecord) {
	if emitter == nil || rec == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if err := emitter.Emit(ctx, rec); err != nil {
			slog.Warn("telemetry: async emit failed", "order_id", rec.OrderID, "error", err)
		}
	}()
}
