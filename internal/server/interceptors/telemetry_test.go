package interceptors

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"workspace-tracker/internal/telemetry/domain"
	"workspace-tracker/internal/telemetry/producer"
)

type recordingProducer struct {
	mu     sync.Mutex
	events []*domain.Event
	done   chan struct{}
	err    error
}

func (p *recordingProducer) Emit(ctx context.Context, event *domain.Event) error {
	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()
	if p.done != nil {
		p.done <- struct{}{}
	}
	return p.err
}

func (p *recordingProducer) Close() error { return nil }

func TestTelemetryUnary_EmitsGRPCRequest(t *testing.T) {
	p := &recordingProducer{done: make(chan struct{}, 1)}
	telemetry := TelemetryUnary(p, nil)
	audit := AuditUnary(&mockAuditRepoForInterceptor{}, nil)
	info := &grpc.UnaryServerInfo{FullMethod: "/tracker.project.v1.ProjectService/DeleteProject"}

	ctx := WithIdentity(context.Background(), "user-1", "sess-1")
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		AnnotateAudit(ctx, "ws-1", "project/p1")
		return nil, status.Error(codes.PermissionDenied, "access denied")
	}
	_, err := audit(ctx, nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return telemetry(ctx, req, info, handler)
	})
	if status.Code(err) != codes.PermissionDenied {
		t.Fatalf("err = %v", err)
	}
	select {
	case <-p.done:
	case <-time.After(2 * time.Second):
		t.Fatal("event not emitted")
	}

	p.mu.Lock()
	ev := p.events[0]
	p.mu.Unlock()
	if ev.EventType != domain.EventTypeGRPCRequest || ev.WorkspaceID != "ws-1" || ev.UserID != "user-1" || ev.SessionID != "sess-1" {
		t.Errorf("event = %+v", ev)
	}
	var meta grpcRequestMetadata
	if err := json.Unmarshal(ev.Metadata, &meta); err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if meta.FullMethod != info.FullMethod || meta.StatusCode != "PermissionDenied" {
		t.Errorf("metadata = %+v", meta)
	}
}

func TestTelemetryUnary_SkipAndNil(t *testing.T) {
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) { return "ok", nil }

	p := &recordingProducer{}
	resp, err := TelemetryUnary(p, map[string]bool{info.FullMethod: true})(context.Background(), nil, info, handler)
	if err != nil || resp != "ok" {
		t.Fatalf("resp = %v, err = %v", resp, err)
	}
	time.Sleep(20 * time.Millisecond)
	p.mu.Lock()
	n := len(p.events)
	p.mu.Unlock()
	if n != 0 {
		t.Errorf("skipped method emitted %d events", n)
	}

	if _, err := TelemetryUnary(nil, nil)(context.Background(), nil, info, handler); err != nil {
		t.Errorf("nil producer: %v", err)
	}
}

func TestTelemetryUnary_EmitFailureDoesNotFailRPC(t *testing.T) {
	p := &recordingProducer{done: make(chan struct{}, 1), err: errors.New("broker down")}
	info := &grpc.UnaryServerInfo{FullMethod: "/tracker.task.v1.TaskService/GetTask"}
	resp, err := TelemetryUnary(p, nil)(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return "task", nil
	})
	if err != nil || resp != "task" {
		t.Fatalf("resp = %v, err = %v", resp, err)
	}
	select {
	case <-p.done:
	case <-time.After(2 * time.Second):
		t.Fatal("event not emitted")
	}
}

type gatedProducer struct {
	release chan struct{}
	emitted chan struct{}
}

func (p *gatedProducer) Emit(ctx context.Context, event *domain.Event) error {
	<-p.release
	close(p.emitted)
	return nil
}

func (p *gatedProducer) Close() error { return nil }

func TestTelemetryUnary_DrainWaitsForRequestEvent(t *testing.T) {
	p := &gatedProducer{release: make(chan struct{}), emitted: make(chan struct{})}
	info := &grpc.UnaryServerInfo{FullMethod: "/tracker.task.v1.TaskService/GetTask"}
	if _, err := TelemetryUnary(p, nil)(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return "task", nil
	}); err != nil {
		t.Fatalf("err = %v", err)
	}

	if producer.Drain(20 * time.Millisecond) {
		t.Fatal("Drain finished while the request event was still being emitted")
	}
	close(p.release)
	if !producer.Drain(2 * time.Second) {
		t.Fatal("Drain timed out after the emit was released")
	}
	select {
	case <-p.emitted:
	default:
		t.Error("request event not emitted before Drain returned")
	}
}
