package producer

import (
	"context"
	"log"
	"sync"
	"time"

	"workspace-tracker/internal/telemetry/domain"
)

// emitTimeout is the max time allowed for a single async emit.
const emitTimeout = 5 * time.Second

// ShutdownDrainDuration bounds how long Drain waits after gRPC GracefulStop before the OTel
// providers and the Kafka writer are shut down. Must be >= emitTimeout.
const ShutdownDrainDuration = emitTimeout

var pending sync.WaitGroup

// EmitAsync runs Emit in a goroutine with a short timeout so the caller is not blocked.
// The goroutine uses context.Background() so request cancellation does not abort the emit.
// emitter and event may be nil; EmitAsync then returns immediately.
func EmitAsync(emitter Emitter, event *domain.Event) {
	if emitter == nil || event == nil {
		return
	}
	pending.Add(1)
	go func() {
		defer pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if err := emitter.Emit(ctx, event); err != nil {
			log.Printf("telemetry: async emit %s failed: %v", event.EventType, err)
		}
	}()
}

// Drain waits until every EmitAsync goroutine has returned or timeout elapses.
// It reports whether all pending emits finished.
func Drain(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
