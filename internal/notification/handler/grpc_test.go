package handler

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apiv1 "food-ordering-platform/ordersync/internal/api/v1"
	"food-ordering-platform/ordersync/internal/clock"
	"food-ordering-platform/ordersync/internal/hub"
	"food-ordering-platform/ordersync/internal/notification"
	orderdomain "food-ordering-platform/ordersync/internal/order/domain"
	"food-ordering-platform/ordersync/internal/server/interceptors"
)

type stubConn struct{ id, actor string }

func (c stubConn) ID() string                       { return c.id }
func (c stubConn) ActorID() string                  { return c.actor }
func (c stubConn) ActorType() orderdomain.ActorType { return orderdomain.ActorCustomer }
func (c stubConn) Deliver(hub.Message) bool         { return true }

func newServer(t *testing.T) *Server {
	t.Helper()
	d := notification.NewDispatcher(10, clock.Fake(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)), nil)
	h := hub.New(nil, d)
	h.Register(stubConn{"c1", "cust-1"})
	if err := h.Join("c1", hub.ActorRoom("cust-1")); err != nil {
		t.Fatalf("Join: %v", err)
	}
	for i, st := range []orderdomain.Status{orderdomain.StatusSellerAccepted, orderdomain.StatusPreparing} {
		env := orderdomain.Envelope{OrderID: "ORD-1", Status: st, ActorID: "seller-1", ActorType: orderdomain.ActorSeller, SequenceNumber: int64(i + 2)}
		h.Publish(context.Background(), hub.OrderMessage(env), hub.ActorRoom("cust-1"))
	}
	return NewServer(d)
}

func customerCtx() context.Context {
	return interceptors.WithIdentity(context.Background(), "cust-1", orderdomain.ActorCustomer, "")
}

func TestListNotifications(t *testing.T) {
	srv := newServer(t)
	resp, err := srv.ListNotifications(customerCtx(), &apiv1.Empty{})
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if len(resp.Notifications) != 2 || resp.Unread != 2 {
		t.Fatalf("got %d notifications, %d unread; want 2, 2", len(resp.Notifications), resp.Unread)
	}
	if resp.Notifications[0].Status != orderdomain.StatusPreparing {
		t.Errorf("newest = %s, want preparing", resp.Notifications[0].Status)
	}

	other := interceptors.WithIdentity(context.Background(), "cust-2", orderdomain.ActorCustomer, "")
	resp, err = srv.ListNotifications(other, &apiv1.Empty{})
	if err != nil {
		t.Fatalf("ListNotifications(other): %v", err)
	}
	if len(resp.Notifications) != 0 {
		t.Errorf("another actor sees %d notifications", len(resp.Notifications))
	}
}

func TestMutations(t *testing.T) {
	srv := newServer(t)
	ctx := customerCtx()
	list, _ := srv.ListNotifications(ctx, &apiv1.Empty{})
	first := list.Notifications[0].ID

	if _, err := srv.MarkRead(ctx, &apiv1.NotificationRequest{NotificationID: first}); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if _, err := srv.MarkRead(ctx, &apiv1.NotificationRequest{NotificationID: "missing"}); status.Code(err) != codes.NotFound {
		t.Errorf("MarkRead(missing) err = %v, want NotFound", err)
	}
	all, err := srv.MarkAllRead(ctx, &apiv1.Empty{})
	if err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if all.Updated != 1 {
		t.Errorf("MarkAllRead updated %d, want 1", all.Updated)
	}
	if _, err := srv.RemoveNotification(ctx, &apiv1.NotificationRequest{NotificationID: first}); err != nil {
		t.Fatalf("RemoveNotification: %v", err)
	}
	if _, err := srv.RemoveNotification(ctx, &apiv1.NotificationRequest{}); status.Code(err) != codes.InvalidArgument {
		t.Errorf("RemoveNotification(empty) err = %v, want InvalidArgument", err)
	}
	if _, err := srv.ClearNotifications(ctx, &apiv1.Empty{}); err != nil {
		t.Fatalf("ClearNotifications: %v", err)
	}
	list, _ = srv.ListNotifications(ctx, &apiv1.Empty{})
	if len(list.Notifications) != 0 {
		t.Errorf("feed after clear = %d entries", len(list.Notifications))
	}
}

func TestAuthAndNilDispatcher(t *testing.T) {
	srv := newServer(t)
	if _, err := srv.ListNotifications(context.Background(), &apiv1.Empty{}); status.Code(err) != codes.Unauthenticated {
		t.Errorf("err = %v, want Unauthenticated", err)
	}
	if _, err := NewServer(nil).ClearNotifications(customerCtx(), &apiv1.Empty{}); status.Code(err) != codes.Unimplemented {
		t.Errorf("err = %v, want Unimplemented", err)
	}
}
