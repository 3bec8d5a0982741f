package v1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const NotificationServiceName = "ordersync.v1.NotificationService"

const (
	NotificationService_ListNotifications_FullMethodName  = "/" + NotificationServiceName + "/ListNotifications"
	NotificationService_MarkRead_FullMethodName           = "/" + NotificationServiceName + "/MarkRead"
	NotificationService_MarkAllRead_FullMethodName        = "/" + NotificationServiceName + "/MarkAllRead"
	NotificationService_RemoveNotification_FullMethodName = "/" + NotificationServiceName + "/RemoveNotification"
	NotificationService_ClearNotifications_FullMethodName = "/" + NotificationServiceName + "/ClearNotifications"
)

// NotificationServiceServer is the server API for NotificationService. Every call acts on the
// caller's own feed.
type NotificationServiceServer interface {
	ListNotifications(context.Context, *Empty) (*ListNotificationsResponse, error)
	MarkRead(context.Context, *NotificationRequest) (*Empty, error)
	MarkAllRead(context.Context, *Empty) (*MarkAllReadResponse, error)
	RemoveNotification(context.Context, *NotificationRequest) (*Empty, error)
	ClearNotifications(context.Context, *Empty) (*Empty, error)
}

// UnimplementedNotificationServiceServer returns Unimplemented for every method.
type UnimplementedNotificationServiceServer struct{}

func (UnimplementedNotificationServiceServer) ListNotifications(context.Context, *Empty) (*ListNotificationsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListNotifications not implemented")
}
func (UnimplementedNotificationServiceServer) MarkRead(context.Context, *NotificationRequest) (*Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method MarkRead not implemented")
}
func (UnimplementedNotificationServiceServer) MarkAllRead(context.Context, *Empty) (*MarkAllReadResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method MarkAllRead not implemented")
}
func (UnimplementedNotificationServiceServer) RemoveNotification(context.Context, *NotificationRequest) (*Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method RemoveNotification not implemented")
}
func (UnimplementedNotificationServiceServer) ClearNotifications(context.Context, *Empty) (*Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method ClearNotifications not implemented")
}

// NotificationService_ServiceDesc is the grpc.ServiceDesc for NotificationService.
var NotificationService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: NotificationServiceName,
	HandlerType: (*NotificationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(NotificationServiceName, "ListNotifications", NotificationServiceServer.ListNotifications),
		unary(NotificationServiceName, "MarkRead", NotificationServiceServer.MarkRead),
		unary(NotificationServiceName, "MarkAllRead", NotificationServiceServer.MarkAllRead),
		unary(NotificationServiceName, "RemoveNotification", NotificationServiceServer.RemoveNotification),
		unary(NotificationServiceName, "ClearNotifications", NotificationServiceServer.ClearNotifications),
	},
	Metadata: "ordersync/v1/notification",
}

func RegisterNotificationServiceServer(s grpc.ServiceRegistrar, srv NotificationServiceServer) {
	s.RegisterService(&NotificationService_ServiceDesc, srv)
}

// NotificationServiceClient is the client API for NotificationService.
type NotificationServiceClient interface {
	ListNotifications(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ListNotificationsResponse, error)
	MarkRead(ctx context.Context, in *NotificationRequest, opts ...grpc.CallOption) (*Empty, error)
	MarkAllRead(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*MarkAllReadResponse, error)
	RemoveNotification(ctx context.Context, in *NotificationRequest, opts ...grpc.CallOption) (*Empty, error)
	ClearNotifications(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*Empty, error)
}

type notificationServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewNotificationServiceClient(cc grpc.ClientConnInterface) NotificationServiceClient {
	return &notificationServiceClient{cc}
}

func (c *notificationServiceClient) ListNotifications(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ListNotificationsResponse, error) {
	out := new(ListNotificationsResponse)
	if err := c.cc.Invoke(ctx, NotificationService_ListNotifications_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *notificationServiceClient) MarkRead(ctx context.Context, in *NotificationRequest, opts ...grpc.CallOption) (*Empty, error) {
	out := new(Empty)
	if err := c.cc.Invoke(ctx, NotificationService_MarkRead_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *notificationServiceClient) MarkAllRead(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*MarkAllReadResponse, error) {
	out := new(MarkAllReadResponse)
	if err := c.cc.Invoke(ctx, NotificationService_MarkAllRead_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *notificationServiceClient) RemoveNotification(ctx context.Context, in *NotificationRequest, opts ...grpc.CallOption) (*Empty, error) {
	out := new(Empty)
	if err := c.cc.Invoke(ctx, NotificationService_RemoveNotification_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *notificationServiceClient) ClearNotifications(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*Empty, error) {
	out := new(Empty)
	if err := c.cc.Invoke(ctx, NotificationService_ClearNotifications_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}
