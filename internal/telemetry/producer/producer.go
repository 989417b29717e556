// Package producer defines the interface for emitting telemetry events to a broker.
package producer

import (
	"context"

	"workspace-tracker/internal/telemetry/domain"
)

// Emitter sends a single event. Implementations may block briefly; use EmitAsync from request paths.
type Emitter interface {
	Emit(ctx context.Context, event *domain.Event) error
}

// Producer emits telemetry events. Callers use it best-effort: log and ignore errors.
type Producer interface {
	Emitter
	// Close releases resources (e.g. Kafka writer). Safe to call if already closed.
	Close() error
}
