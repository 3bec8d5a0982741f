package handler

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apiv1 "food-ordering-platform/ordersync/internal/api/v1"
	"food-ordering-platform/ordersync/internal/order/domain"
	"food-ordering-platform/ordersync/internal/order/service"
	"food-ordering-platform/ordersync/internal/server/interceptors"
)

// Server implements OrderService.
type Server struct {
	apiv1.UnimplementedOrderServiceServer
	svc *service.Service
}

// NewServer returns a new Order gRPC server. If svc is nil, all RPCs return Unimplemented.
func NewServer(svc *service.Service) *Server {
	return &Server{svc: svc}
}

// CreateOrder places a pending order for the calling customer. Only customers may create orders.
func (s *Server) CreateOrder(ctx context.Context, req *apiv1.CreateOrderRequest) (*apiv1.OrderResponse, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if actor.Type != domain.ActorCustomer {
		return nil, status.Error(codes.PermissionDenied, "only customers can place orders")
	}
	if req.SellerID == "" {
		return nil, status.Error(codes.InvalidArgument, "seller_id is required")
	}
	o, err := s.svc.CreateOrder(ctx, actor.ID, req.SellerID, req.Snapshot)
	if err != nil {
		return nil, toStatus(err)
	}
	return &apiv1.OrderResponse{Order: o}, nil
}

func (s *Server) AcceptOrder(ctx context.Context, req *apiv1.OrderActionRequest) (*apiv1.OrderResponse, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if req.OrderID == "" {
		return nil, status.Error(codes.InvalidArgument, "order_id is required")
	}
	return respond(s.svc.AcceptOrder(ctx, actor, req.OrderID))
}

func (s *Server) RejectOrder(ctx context.Context, req *apiv1.OrderActionRequest) (*apiv1.OrderResponse, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if req.OrderID == "" {
		return nil, status.Error(codes.InvalidArgument, "order_id is required")
	}
	return respond(s.svc.RejectOrder(ctx, actor, req.OrderID, req.Reason))
}

func (s *Server) AdvanceStatus(ctx context.Context, req *apiv1.AdvanceStatusRequest) (*apiv1.OrderResponse, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if req.OrderID == "" {
		return nil, status.Error(codes.InvalidArgument, "order_id is required")
	}
	st, err := domain.ParseStatus(req.Status)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return respond(s.svc.AdvanceStatus(ctx, actor, req.OrderID, st))
}

func (s *Server) CancelOrder(ctx context.Context, req *apiv1.OrderActionRequest) (*apiv1.OrderResponse, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if req.OrderID == "" {
		return nil, status.Error(codes.InvalidArgument, "order_id is required")
	}
	return respond(s.svc.CancelOrder(ctx, actor, req.OrderID, req.Reason))
}

// GetOrder returns the canonical order. Pollers call it to reconcile.
func (s *Server) GetOrder(ctx context.Context, req *apiv1.GetOrderRequest) (*apiv1.OrderResponse, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if req.OrderID == "" {
		return nil, status.Error(codes.InvalidArgument, "order_id is required")
	}
	return respond(s.svc.GetOrder(ctx, actor, req.OrderID))
}

func (s *Server) ListOrders(ctx context.Context, _ *apiv1.Empty) (*apiv1.ListOrdersResponse, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.svc.ListOrders(ctx, actor)
	if err != nil {
		return nil, toStatus(err)
	}
	return &apiv1.ListOrdersResponse{Orders: orders}, nil
}

func (s *Server) actor(ctx context.Context) (service.Actor, error) {
	if s.svc == nil {
		return service.Actor{}, status.Error(codes.Unimplemented, "order service not configured")
	}
	id, ok := interceptors.GetActorID(ctx)
	if !ok || id == "" {
		return service.Actor{}, status.Error(codes.Unauthenticated, "missing actor")
	}
	typ, _ := interceptors.GetActorType(ctx)
	return service.Actor{ID: id, Type: typ}, nil
}

func respond(o *domain.Order, err error) (*apiv1.OrderResponse, error) {
	if err != nil {
		return nil, toStatus(err)
	}
	return &apiv1.OrderResponse{Order: o}, nil
}

// toStatus maps order errors to gRPC codes. A rejected transition carries the current status so
// the caller can resync.
func toStatus(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidTransition):
		if cur, ok := domain.CurrentStatus(err); ok {
			return status.Error(codes.FailedPrecondition, fmt.Sprintf("%s (current status: %s)", err.Error(), cur))
		}
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, domain.ErrOrderNotFound):
		return status.Error(codes.NotFound, "order not found")
	case errors.Is(err, domain.ErrNotParticipant):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, domain.ErrReasonRequired), errors.Is(err, domain.ErrInvalidActor), errors.Is(err, domain.ErrOrderMismatch):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Internal, "internal error")
}
