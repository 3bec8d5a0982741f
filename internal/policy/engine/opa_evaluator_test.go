package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"food-ordering-platform/ordersync/internal/order/domain"
)

func newEvaluator(t *testing.T) *OPAEvaluator {
	t.Helper()
	e, err := NewOPAEvaluator(context.Background(), "")
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}
	return e
}

func TestAllowOrderRoom(t *testing.T) {
	e := newEvaluator(t)
	order := OrderRoomInput{OrderID: "ORD-1", CustomerID: "cust-1", SellerID: "seller-1", Status: domain.StatusPreparing}
	testCases := []struct {
		name      string
		actorID   string
		actorType domain.ActorType
		want      bool
	}{
		{"owning customer", "cust-1", domain.ActorCustomer, true},
		{"owning seller", "seller-1", domain.ActorSeller, true},
		{"other customer", "cust-2", domain.ActorCustomer, false},
		{"other seller", "seller-2", domain.ActorSeller, false},
		{"customer id on seller side", "seller-1", domain.ActorCustomer, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := e.AllowOrderRoom(context.Background(), tc.actorID, tc.actorType, order)
			if err != nil {
				t.Fatalf("AllowOrderRoom: %v", err)
			}
			if got != tc.want {
				t.Errorf("AllowOrderRoom = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAllowPresenceWatch(t *testing.T) {
	e := newEvaluator(t)
	ctx := context.Background()
	if ok, _ := e.AllowPresenceWatch(ctx, "cust-1", domain.ActorCustomer, "seller-1"); !ok {
		t.Error("customer should watch any seller")
	}
	if ok, _ := e.AllowPresenceWatch(ctx, "seller-1", domain.ActorSeller, "seller-1"); !ok {
		t.Error("seller should watch itself")
	}
	if ok, _ := e.AllowPresenceWatch(ctx, "seller-2", domain.ActorSeller, "seller-1"); ok {
		t.Error("seller should not watch a competitor")
	}
}

func TestHealthCheck(t *testing.T) {
	if err := newEvaluator(t).HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck: %v", err)
	}
}

func TestNewOPAEvaluator_InvalidPolicy(t *testing.T) {
	if _, err := NewOPAEvaluator(context.Background(), "package broken\nallow if {"); err == nil {
		t.Error("invalid policy should fail to compile")
	}
}

func TestNewOPAEvaluatorFromFile_CustomPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rooms.rego")
	policy := `package ordersync.rooms

default allow_order_room := false

allow_order_room if {
	input.actor.type == "seller"
}

default allow_presence_watch := true
`
	if err := os.WriteFile(path, []byte(policy), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	e, err := NewOPAEvaluatorFromFile(context.Background(), path)
	if err != nil {
		t.Fatalf("NewOPAEvaluatorFromFile: %v", err)
	}
	ok, err := e.AllowOrderRoom(context.Background(), "seller-9", domain.ActorSeller, OrderRoomInput{OrderID: "ORD-1", SellerID: "seller-1"})
	if err != nil || !ok {
		t.Errorf("custom policy: ok = %v, err = %v", ok, err)
	}
	if _, err := NewOPAEvaluatorFromFile(context.Background(), filepath.Join(t.TempDir(), "missing.rego")); err == nil {
		t.Error("missing file should fail")
	}
}
