// Package client is the actor-side gRPC client: typed order, session and notification calls plus a
// Connector that keeps the push stream alive across reconnects.
package client

import (
	"context"
	"errors"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	apiv1 "food-ordering-platform/ordersync/internal/api/v1"
	"food-ordering-platform/ordersync/internal/order/domain"
	presencedomain "food-ordering-platform/ordersync/internal/presence/domain"
)

// Client issues calls as one actor. Safe for concurrent use.
type Client struct {
	conn  grpc.ClientConnInterface
	token string

	Orders        apiv1.OrderServiceClient
	Sessions      apiv1.SessionServiceClient
	Notifications apiv1.NotificationServiceClient
}

// Dial opens a plaintext connection to addr with the OTel stats handler installed.
// grpc.NewClient does not connect until the first call.
func Dial(addr string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	base := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}
	return grpc.NewClient(addr, append(base, opts...)...)
}

// New returns a client that authenticates every call with token.
func New(cc grpc.ClientConnInterface, token string) *Client {
	return &Client{
		conn:          cc,
		token:         token,
		Orders:        apiv1.NewOrderServiceClient(cc),
		Sessions:      apiv1.NewSessionServiceClient(cc),
		Notifications: apiv1.NewNotificationServiceClient(cc),
	}
}

// Context attaches the bearer token and, when connID is non-empty, the connection ID header.
func (c *Client) Context(ctx context.Context, connID string) context.Context {
	kv := []string{"authorization", "Bearer " + c.token}
	if connID != "" {
		kv = append(kv, apiv1.ConnectionIDHeader, connID)
	}
	return metadata.AppendToOutgoingContext(ctx, kv...)
}

// GetOrder fetches the canonical order. codes.NotFound maps to domain.ErrOrderNotFound so the
// reconciliation poller can stop.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	resp, err := c.Orders.GetOrder(c.Context(ctx, ""), &apiv1.GetOrderRequest{OrderID: orderID})
	if err != nil {
		return nil, fromStatus(err)
	}
	return resp.Order, nil
}

// Accept accepts orderID as the seller.
func (c *Client) Accept(ctx context.Context, orderID string) (*domain.Order, error) {
	resp, err := c.Orders.AcceptOrder(c.Context(ctx, ""), &apiv1.OrderActionRequest{OrderID: orderID})
	return orderOf(resp, err)
}

// Reject rejects orderID as the seller.
func (c *Client) Reject(ctx context.Context, orderID, reason string) (*domain.Order, error) {
	resp, err := c.Orders.RejectOrder(c.Context(ctx, ""), &apiv1.OrderActionRequest{OrderID: orderID, Reason: reason})
	return orderOf(resp, err)
}

// Advance moves orderID to status as the seller.
func (c *Client) Advance(ctx context.Context, orderID string, st domain.Status) (*domain.Order, error) {
	resp, err := c.Orders.AdvanceStatus(c.Context(ctx, ""), &apiv1.AdvanceStatusRequest{OrderID: orderID, Status: string(st)})
	return orderOf(resp, err)
}

// Cancel cancels orderID.
func (c *Client) Cancel(ctx context.Context, orderID, reason string) (*domain.Order, error) {
	resp, err := c.Orders.CancelOrder(c.Context(ctx, ""), &apiv1.OrderActionRequest{OrderID: orderID, Reason: reason})
	return orderOf(resp, err)
}

// ListNotifications returns the actor's feed, newest first, and the unread count.
func (c *Client) ListNotifications(ctx context.Context) (*apiv1.ListNotificationsResponse, error) {
	return c.Notifications.ListNotifications(c.Context(ctx, ""), &apiv1.Empty{})
}

func orderOf(resp *apiv1.OrderResponse, err error) (*domain.Order, error) {
	if err != nil {
		return nil, fromStatus(err)
	}
	return resp.Order, nil
}

// fromStatus maps well-known status codes back to domain sentinels. The original status error
// stays in the chain.
func fromStatus(err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return errors.Join(domain.ErrOrderNotFound, err)
	case codes.FailedPrecondition:
		return errors.Join(domain.ErrInvalidTransition, err)
	}
	return err
}

func presenceOf(resp *apiv1.PresenceResponse, err error) (presencedomain.Update, error) {
	if err != nil {
		return presencedomain.Update{}, err
	}
	return resp.Presence, nil
}
