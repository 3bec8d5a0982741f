package handler

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apiv1 "food-ordering-platform/ordersync/internal/api/v1"
	"food-ordering-platform/ordersync/internal/hub"
	orderdomain "food-ordering-platform/ordersync/internal/order/domain"
	presencedomain "food-ordering-platform/ordersync/internal/presence/domain"
	"food-ordering-platform/ordersync/internal/server/interceptors"
	"food-ordering-platform/ordersync/internal/session"
)

// Server implements SessionService on top of a session.Manager.
type Server struct {
	apiv1.UnimplementedSessionServiceServer
	mgr    *session.Manager
	logger *slog.Logger
}

// NewServer returns a new Session gRPC server. If mgr is nil, all RPCs return Unimplemented.
func NewServer(mgr *session.Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{mgr: mgr, logger: logger}
}

// Connect authenticates with the bearer token in metadata, sends a hello frame carrying the
// connection ID and then forwards every message delivered to the session. The session is torn
// down when the stream ends.
func (s *Server) Connect(_ *apiv1.ConnectRequest, stream grpc.ServerStreamingServer[apiv1.StreamMessage]) error {
	if s.mgr == nil {
		return status.Error(codes.Unimplemented, "method Connect not implemented")
	}
	ctx := stream.Context()
	conn, err := s.mgr.Authenticate(ctx, interceptors.BearerToken(ctx))
	if err != nil {
		return status.Error(codes.Unauthenticated, "missing or invalid authorization")
	}
	defer s.mgr.Disconnect(context.WithoutCancel(ctx), conn.ID())

	if err := stream.Send(&apiv1.StreamMessage{Kind: apiv1.StreamHello, ConnectionID: conn.ID()}); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-conn.Messages():
			if !ok {
				return status.Error(codes.Unavailable, "session closed")
			}
			if err := stream.Send(toStreamMessage(msg)); err != nil {
				s.logger.Debug("session: send failed", "connection_id", conn.ID(), "error", err)
				return err
			}
		}
	}
}

func (s *Server) Subscribe(ctx context.Context, req *apiv1.SubscribeRequest) (*apiv1.SubscribeResponse, error) {
	connID, err := s.connection(ctx)
	if err != nil {
		return nil, err
	}
	if req.OrderID == "" {
		return nil, status.Error(codes.InvalidArgument, "order_id is required")
	}
	o, err := s.mgr.Subscribe(ctx, connID, req.OrderID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &apiv1.SubscribeResponse{Order: o}, nil
}

func (s *Server) Unsubscribe(ctx context.Context, req *apiv1.SubscribeRequest) (*apiv1.Empty, error) {
	connID, err := s.connection(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.mgr.Unsubscribe(ctx, connID, req.OrderID); err != nil {
		return nil, toStatus(err)
	}
	return &apiv1.Empty{}, nil
}

func (s *Server) WatchSeller(ctx context.Context, req *apiv1.WatchSellerRequest) (*apiv1.PresenceResponse, error) {
	connID, err := s.connection(ctx)
	if err != nil {
		return nil, err
	}
	if req.SellerID == "" {
		return nil, status.Error(codes.InvalidArgument, "seller_id is required")
	}
	u, err := s.mgr.WatchSeller(ctx, connID, req.SellerID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &apiv1.PresenceResponse{Presence: u}, nil
}

func (s *Server) UnwatchSeller(ctx context.Context, req *apiv1.WatchSellerRequest) (*apiv1.Empty, error) {
	connID, err := s.connection(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.mgr.UnwatchSeller(ctx, connID, req.SellerID); err != nil {
		return nil, toStatus(err)
	}
	return &apiv1.Empty{}, nil
}

func (s *Server) UpdatePresence(ctx context.Context, req *apiv1.UpdatePresenceRequest) (*apiv1.PresenceResponse, error) {
	connID, err := s.connection(ctx)
	if err != nil {
		return nil, err
	}
	st, err := presencedomain.ParseStatus(req.Status)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	u, err := s.mgr.UpdatePresence(ctx, connID, st)
	if err != nil {
		return nil, toStatus(err)
	}
	return &apiv1.PresenceResponse{Presence: u}, nil
}

// connection resolves the caller's connection from the x-connection-id header. The connection
// must belong to the authenticated actor.
func (s *Server) connection(ctx context.Context) (string, error) {
	if s.mgr == nil {
		return "", status.Error(codes.Unimplemented, "session service not configured")
	}
	actorID, ok := interceptors.GetActorID(ctx)
	if !ok || actorID == "" {
		return "", status.Error(codes.Unauthenticated, "missing actor")
	}
	connID, ok := interceptors.GetConnectionID(ctx)
	if !ok {
		return "", status.Error(codes.FailedPrecondition, apiv1.ConnectionIDHeader+" header is required")
	}
	sess, ok := s.mgr.Session(connID)
	if !ok {
		return "", status.Error(codes.NotFound, apiv1.UnknownConnectionMessage)
	}
	if sess.ActorID != actorID {
		return "", status.Error(codes.PermissionDenied, "connection belongs to another actor")
	}
	return connID, nil
}

func toStreamMessage(m hub.Message) *apiv1.StreamMessage {
	switch m.Kind {
	case hub.KindPresence:
		return &apiv1.StreamMessage{Kind: apiv1.StreamPresence, Presence: m.Presence}
	default:
		return &apiv1.StreamMessage{Kind: apiv1.StreamOrder, Order: m.Order}
	}
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, session.ErrAuth):
		return status.Error(codes.Unauthenticated, "missing or invalid authorization")
	case errors.Is(err, session.ErrForbidden):
		return status.Error(codes.PermissionDenied, "not allowed")
	case errors.Is(err, session.ErrUnknownConnection):
		return status.Error(codes.NotFound, apiv1.UnknownConnectionMessage)
	case errors.Is(err, orderdomain.ErrOrderNotFound):
		return status.Error(codes.NotFound, "order not found")
	case errors.Is(err, presencedomain.ErrInvalidTransition):
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	return status.Error(codes.Internal, "internal error")
}
