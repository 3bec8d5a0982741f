package handler

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apiv1 "food-ordering-platform/ordersync/internal/api/v1"
	"food-ordering-platform/ordersync/internal/notification"
	"food-ordering-platform/ordersync/internal/server/interceptors"
)

// Server implements NotificationService over the caller's in-memory feed.
type Server struct {
	apiv1.UnimplementedNotificationServiceServer
	dispatcher *notification.Dispatcher
}

// NewServer returns a new Notification gRPC server. If d is nil, all RPCs return Unimplemented.
func NewServer(d *notification.Dispatcher) *Server {
	return &Server{dispatcher: d}
}

func (s *Server) ListNotifications(ctx context.Context, _ *apiv1.Empty) (*apiv1.ListNotificationsResponse, error) {
	actorID, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	return &apiv1.ListNotificationsResponse{
		Notifications: s.dispatcher.List(actorID),
		Unread:        s.dispatcher.Unread(actorID),
	}, nil
}

func (s *Server) MarkRead(ctx context.Context, req *apiv1.NotificationRequest) (*apiv1.Empty, error) {
	actorID, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if req.NotificationID == "" {
		return nil, status.Error(codes.InvalidArgument, "notification_id is required")
	}
	if err := s.dispatcher.MarkRead(actorID, req.NotificationID); err != nil {
		return nil, toStatus(err)
	}
	return &apiv1.Empty{}, nil
}

func (s *Server) MarkAllRead(ctx context.Context, _ *apiv1.Empty) (*apiv1.MarkAllReadResponse, error) {
	actorID, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	return &apiv1.MarkAllReadResponse{Updated: s.dispatcher.MarkAllRead(actorID)}, nil
}

func (s *Server) RemoveNotification(ctx context.Context, req *apiv1.NotificationRequest) (*apiv1.Empty, error) {
	actorID, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if req.NotificationID == "" {
		return nil, status.Error(codes.InvalidArgument, "notification_id is required")
	}
	if err := s.dispatcher.Remove(actorID, req.NotificationID); err != nil {
		return nil, toStatus(err)
	}
	return &apiv1.Empty{}, nil
}

func (s *Server) ClearNotifications(ctx context.Context, _ *apiv1.Empty) (*apiv1.Empty, error) {
	actorID, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	s.dispatcher.Clear(actorID)
	return &apiv1.Empty{}, nil
}

func (s *Server) actor(ctx context.Context) (string, error) {
	if s.dispatcher == nil {
		return "", status.Error(codes.Unimplemented, "notification service not configured")
	}
	id, ok := interceptors.GetActorID(ctx)
	if !ok || id == "" {
		return "", status.Error(codes.Unauthenticated, "missing actor")
	}
	return id, nil
}

func toStatus(err error) error {
	if errors.Is(err, notification.ErrNotFound) {
		return status.Error(codes.NotFound, "notification not found")
	}
	return status.Error(codes.Internal, "internal error")
}
