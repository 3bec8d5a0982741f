package interceptors

import (
	"context"
	"testing"

	orderdomain "food-ordering-platform/ordersync/internal/order/domain"
)

func TestWithIdentity_SetsAllValues(t *testing.T) {
	ctx := WithIdentity(context.Background(), "cust-1", orderdomain.ActorCustomer, "conn-1")

	actorID, ok := GetActorID(ctx)
	if !ok || actorID != "cust-1" {
		t.Errorf("actor_id = %q, ok = %v, want %q", actorID, ok, "cust-1")
	}
	actorType, ok := GetActorType(ctx)
	if !ok || actorType != orderdomain.ActorCustomer {
		t.Errorf("actor_type = %q, ok = %v, want customer", actorType, ok)
	}
	connID, ok := GetConnectionID(ctx)
	if !ok || connID != "conn-1" {
		t.Errorf("connection_id = %q, ok = %v, want %q", connID, ok, "conn-1")
	}
}

func TestGetters_ReturnFalseWhenNotSet(t *testing.T) {
	ctx := context.Background()
	if v, ok := GetActorID(ctx); ok || v != "" {
		t.Errorf("GetActorID = %q, %v", v, ok)
	}
	if v, ok := GetActorType(ctx); ok || v != "" {
		t.Errorf("GetActorType = %q, %v", v, ok)
	}
	if v, ok := GetConnectionID(ctx); ok || v != "" {
		t.Errorf("GetConnectionID = %q, %v", v, ok)
	}
}

func TestGetConnectionID_EmptyIsUnset(t *testing.T) {
	ctx := WithIdentity(context.Background(), "cust-1", orderdomain.ActorCustomer, "")
	if _, ok := GetConnectionID(ctx); ok {
		t.Error("GetConnectionID should return false for an empty connection ID")
	}
}

func TestWithIdentity_Chaining(t *testing.T) {
	ctx := WithIdentity(context.Background(), "cust-1", orderdomain.ActorCustomer, "conn-1")
	ctx = WithIdentity(ctx, "seller-1", orderdomain.ActorSeller, "conn-2")
	if v, _ := GetActorID(ctx); v != "seller-1" {
		t.Errorf("actor_id = %q, want seller-1", v)
	}
	if v, _ := GetConnectionID(ctx); v != "conn-2" {
		t.Errorf("connection_id = %q, want conn-2", v)
	}
}
