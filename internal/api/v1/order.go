package v1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const OrderServiceName = "ordersync.v1.OrderService"

const (
	OrderService_CreateOrder_FullMethodName   = "/" + OrderServiceName + "/CreateOrder"
	OrderService_AcceptOrder_FullMethodName   = "/" + OrderServiceName + "/AcceptOrder"
	OrderService_RejectOrder_FullMethodName   = "/" + OrderServiceName + "/RejectOrder"
	OrderService_AdvanceStatus_FullMethodName = "/" + OrderServiceName + "/AdvanceStatus"
	OrderService_CancelOrder_FullMethodName   = "/" + OrderServiceName + "/CancelOrder"
	OrderService_GetOrder_FullMethodName      = "/" + OrderServiceName + "/GetOrder"
	OrderService_ListOrders_FullMethodName    = "/" + OrderServiceName + "/ListOrders"
)

// OrderServiceServer is the server API for OrderService.
type OrderServiceServer interface {
	CreateOrder(context.Context, *CreateOrderRequest) (*OrderResponse, error)
	AcceptOrder(context.Context, *OrderActionRequest) (*OrderResponse, error)
	RejectOrder(context.Context, *OrderActionRequest) (*OrderResponse, error)
	AdvanceStatus(context.Context, *AdvanceStatusRequest) (*OrderResponse, error)
	CancelOrder(context.Context, *OrderActionRequest) (*OrderResponse, error)
	GetOrder(context.Context, *GetOrderRequest) (*OrderResponse, error)
	ListOrders(context.Context, *Empty) (*ListOrdersResponse, error)
}

// UnimplementedOrderServiceServer returns Unimplemented for every method.
type UnimplementedOrderServiceServer struct{}

func (UnimplementedOrderServiceServer) CreateOrder(context.Context, *CreateOrderRequest) (*OrderResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateOrder not implemented")
}
func (UnimplementedOrderServiceServer) AcceptOrder(context.Context, *OrderActionRequest) (*OrderResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method AcceptOrder not implemented")
}
func (UnimplementedOrderServiceServer) RejectOrder(context.Context, *OrderActionRequest) (*OrderResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RejectOrder not implemented")
}
func (UnimplementedOrderServiceServer) AdvanceStatus(context.Context, *AdvanceStatusRequest) (*OrderResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method AdvanceStatus not implemented")
}
func (UnimplementedOrderServiceServer) CancelOrder(context.Context, *OrderActionRequest) (*OrderResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CancelOrder not implemented")
}
func (UnimplementedOrderServiceServer) GetOrder(context.Context, *GetOrderRequest) (*OrderResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetOrder not implemented")
}
func (UnimplementedOrderServiceServer) ListOrders(context.Context, *Empty) (*ListOrdersResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListOrders not implemented")
}

// OrderService_ServiceDesc is the grpc.ServiceDesc for OrderService.
var OrderService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: OrderServiceName,
	HandlerType: (*OrderServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(OrderServiceName, "CreateOrder", OrderServiceServer.CreateOrder),
		unary(OrderServiceName, "AcceptOrder", OrderServiceServer.AcceptOrder),
		unary(OrderServiceName, "RejectOrder", OrderServiceServer.RejectOrder),
		unary(OrderServiceName, "AdvanceStatus", OrderServiceServer.AdvanceStatus),
		unary(OrderServiceName, "CancelOrder", OrderServiceServer.CancelOrder),
		unary(OrderServiceName, "GetOrder", OrderServiceServer.GetOrder),
		unary(OrderServiceName, "ListOrders", OrderServiceServer.ListOrders),
	},
	Metadata: "ordersync/v1/order",
}

func RegisterOrderServiceServer(s grpc.ServiceRegistrar, srv OrderServiceServer) {
	s.RegisterService(&OrderService_ServiceDesc, srv)
}

// OrderServiceClient is the client API for OrderService.
type OrderServiceClient interface {
	CreateOrder(ctx context.Context, in *CreateOrderRequest, opts ...grpc.CallOption) (*OrderResponse, error)
	AcceptOrder(ctx context.Context, in *OrderActionRequest, opts ...grpc.CallOption) (*OrderResponse, error)
	RejectOrder(ctx context.Context, in *OrderActionRequest, opts ...grpc.CallOption) (*OrderResponse, error)
	AdvanceStatus(ctx context.Context, in *AdvanceStatusRequest, opts ...grpc.CallOption) (*OrderResponse, error)
	CancelOrder(ctx context.Context, in *OrderActionRequest, opts ...grpc.CallOption) (*OrderResponse, error)
	GetOrder(ctx context.Context, in *GetOrderRequest, opts ...grpc.CallOption) (*OrderResponse, error)
	ListOrders(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ListOrdersResponse, error)
}

type orderServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewOrderServiceClient(cc grpc.ClientConnInterface) OrderServiceClient {
	return &orderServiceClient{cc}
}

func (c *orderServiceClient) CreateOrder(ctx context.Context, in *CreateOrderRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	out := new(OrderResponse)
	if err := c.cc.Invoke(ctx, OrderService_CreateOrder_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *orderServiceClient) AcceptOrder(ctx context.Context, in *OrderActionRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	out := new(OrderResponse)
	if err := c.cc.Invoke(ctx, OrderService_AcceptOrder_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *orderServiceClient) RejectOrder(ctx context.Context, in *OrderActionRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	out := new(OrderResponse)
	if err := c.cc.Invoke(ctx, OrderService_RejectOrder_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *orderServiceClient) AdvanceStatus(ctx context.Context, in *AdvanceStatusRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	out := new(OrderResponse)
	if err := c.cc.Invoke(ctx, OrderService_AdvanceStatus_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *orderServiceClient) CancelOrder(ctx context.Context, in *OrderActionRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	out := new(OrderResponse)
	if err := c.cc.Invoke(ctx, OrderService_CancelOrder_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *orderServiceClient) GetOrder(ctx context.Context, in *GetOrderRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	out := new(OrderResponse)
	if err := c.cc.Invoke(ctx, OrderService_GetOrder_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *orderServiceClient) ListOrders(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ListOrdersResponse, error) {
	out := new(ListOrdersResponse)
	if err := c.cc.Invoke(ctx, OrderService_ListOrders_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}
