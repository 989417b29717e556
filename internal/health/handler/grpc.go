package handler

import (
	"context"
	"log"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const checkTimeout = 2 * time.Second

// Pinger is implemented by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PolicyChecker verifies the role catalog policy still compiles and evaluates.
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server serves the standard grpc.health.v1.Health service. The server-wide status ("") is
// SERVING only while the database answers pings and the policy check passes.
type Server struct {
	*health.Server
	pinger Pinger
	policy PolicyChecker
}

// NewServer returns a health server; nil checks are skipped. The status is NOT_SERVING until the
// first Refresh.
func NewServer(pinger Pinger, policy PolicyChecker) *Server {
	s := &Server{Server: health.NewServer(), pinger: pinger, policy: policy}
	s.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// Register registers the health service on r.
func (s *Server) Register(r grpc.ServiceRegistrar) {
	healthpb.RegisterHealthServer(r, s.Server)
}

// Refresh runs the checks once and publishes the resulting status.
func (s *Server) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	st := healthpb.HealthCheckResponse_SERVING
	if s.pinger != nil {
		pingCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := s.pinger.PingContext(pingCtx)
		cancel()
		if err != nil {
			log.Printf("health: database ping: %v", err)
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	if s.policy != nil {
		policyCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := s.policy.HealthCheck(policyCtx)
		cancel()
		if err != nil {
			log.Printf("health: policy check: %v", err)
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.SetServingStatus("", st)
	return st
}

// Run refreshes the status immediately and then every interval until ctx is done.
func (s *Server) Run(ctx context.Context, interval time.Duration) {
	s.Refresh(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}
