package handler

import (
	"context"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// checkTimeout bounds a single readiness probe.
const checkTimeout = 2 * time.Second

// Pinger reports whether the order store is reachable (e.g. a repository's Ping).
type Pinger interface {
	Ping(ctx context.Context) error
}

// PolicyChecker reports whether the admission policy can be evaluated (e.g. the OPA evaluator).
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server is the standard gRPC health service with a readiness Check that probes the order store
// and the policy engine. Watch and List use the last status Check recorded.
type Server struct {
	*health.Server
	pinger Pinger
	policy PolicyChecker
}

// NewServer returns a health server. Either dependency may be nil, in which case it is skipped.
func NewServer(pinger Pinger, policy PolicyChecker) *Server {
	s := &Server{Server: health.NewServer(), pinger: pinger, policy: policy}
	s.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	return s
}

// Check runs the readiness probes and reports SERVING only when all of them pass.
func (s *Server) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	st := healthpb.HealthCheckResponse_SERVING
	if err := s.probe(ctx); err != nil {
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.SetServingStatus(req.GetService(), st)
	return &healthpb.HealthCheckResponse{Status: st}, nil
}

func (s *Server) probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	if s.pinger != nil {
		if err := s.pinger.Ping(ctx); err != nil {
			return err
		}
	}
	if s.policy != nil {
		if err := s.policy.HealthCheck(ctx); err != nil {
			return err
		}
	}
	return nil
}
