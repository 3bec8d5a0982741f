// Package telemetry carries the audit trail of committed order transitions. Emission is
// best-effort: failures are logged and never fail the transition.
package telemetry

import (
	"context"
	"time"
)

// TransitionRecord describes one committed transition.
type TransitionRecord struct {
	OrderID      string
	FromStatus   string
	Status       string
	FromSequence int64
	Sequence     int64
	ActorID      string
	ActorType    string
	Reason       string
	// Attempts is the number of commit attempts, greater than one after store conflicts.
	Attempts int
	At       time.Time
}

// Emitter sends transition records to a sink such as OTel Logs.
type Emitter interface {
	Emit(ctx context.Context, rec *TransitionRecord) error
}
