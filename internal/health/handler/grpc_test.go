package handler

import (
	"context"
	"errors"
	"testing"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type mockPinger struct{ err error }

func (m mockPinger) Ping(context.Context) error { return m.err }

type mockPolicyChecker struct{ err error }

func (m mockPolicyChecker) HealthCheck(context.Context) error { return m.err }

func TestCheck(t *testing.T) {
	testCases := []struct {
		name   string
		pinger Pinger
		policy PolicyChecker
		want   healthpb.HealthCheckResponse_ServingStatus
	}{
		{"no dependencies", nil, nil, healthpb.HealthCheckResponse_SERVING},
		{"all healthy", mockPinger{}, mockPolicyChecker{}, healthpb.HealthCheckResponse_SERVING},
		{"store down", mockPinger{err: errors.New("connection refused")}, mockPolicyChecker{}, healthpb.HealthCheckResponse_NOT_SERVING},
		{"policy broken", mockPinger{}, mockPolicyChecker{err: errors.New("eval failed")}, healthpb.HealthCheckResponse_NOT_SERVING},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv := NewServer(tc.pinger, tc.policy)
			resp, err := srv.Check(context.Background(), &healthpb.HealthCheckRequest{})
			if err != nil {
				t.Fatalf("Check: %v", err)
			}
			if resp.GetStatus() != tc.want {
				t.Errorf("status = %v, want %v", resp.GetStatus(), tc.want)
			}
		})
	}
}
