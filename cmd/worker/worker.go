package main

import (
	"context"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

const pushTimeout = 10 * time.Second

// messageReader is the subset of *kafka.Reader the worker uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// eventSink is implemented by *loki.Client.
type eventSink interface {
	PushEventJSON(ctx context.Context, rawJSON []byte) error
}

// worker forwards messages to the sink. A message is committed after it was pushed, or after the
// retries are exhausted so one poison message cannot stall the partition.
type worker struct {
	reader  messageReader
	sink    eventSink
	retries int
	backoff time.Duration
}

func (w *worker) run(ctx context.Context) {
	for {
		msg, err := w.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("worker: kafka fetch error: %v", err)
			continue
		}
		if !w.push(ctx, msg) && ctx.Err() != nil {
			// Left uncommitted; redelivered after restart.
			return
		}
		if err := w.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			log.Printf("worker: commit offset %d: %v", msg.Offset, err)
		}
	}
}

// push reports whether the message reached the sink.
func (w *worker) push(ctx context.Context, msg kafka.Message) bool {
	for attempt := 0; ; attempt++ {
		pushCtx, cancel := context.WithTimeout(ctx, pushTimeout)
		err := w.sink.PushEventJSON(pushCtx, msg.Value)
		cancel()
		if err == nil {
			return true
		}
		if attempt >= w.retries {
			log.Printf("worker: dropping offset %d after %d attempts: %v", msg.Offset, attempt+1, err)
			return false
		}
		log.Printf("worker: loki push failed (offset %d, attempt %d): %v", msg.Offset, attempt+1, err)
		select {
		case <-ctx.Done():
			return false
		case <-time.After(w.backoff << attempt):
		}
	}
}
