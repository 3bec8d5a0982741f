package v1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const SessionServiceName = "ordersync.v1.SessionService"

const (
	SessionService_Connect_FullMethodName        = "/" + SessionServiceName + "/Connect"
	SessionService_Subscribe_FullMethodName      = "/" + SessionServiceName + "/Subscribe"
	SessionService_Unsubscribe_FullMethodName    = "/" + SessionServiceName + "/Unsubscribe"
	SessionService_WatchSeller_FullMethodName    = "/" + SessionServiceName + "/WatchSeller"
	SessionService_UnwatchSeller_FullMethodName  = "/" + SessionServiceName + "/UnwatchSeller"
	SessionService_UpdatePresence_FullMethodName = "/" + SessionServiceName + "/UpdatePresence"
)

// ConnectionIDHeader carries the connection ID from the hello frame on unary session calls.
const ConnectionIDHeader = "x-connection-id"

// UnknownConnectionMessage is the NotFound status message for a connection the server no longer
// holds. Clients reconnect instead of dropping the request.
const UnknownConnectionMessage = "connection not found"

// SessionServiceServer is the server API for SessionService.
type SessionServiceServer interface {
	// Connect performs the handshake and streams pushes until the client goes away.
	Connect(*ConnectRequest, grpc.ServerStreamingServer[StreamMessage]) error
	Subscribe(context.Context, *SubscribeRequest) (*SubscribeResponse, error)
	Unsubscribe(context.Context, *SubscribeRequest) (*Empty, error)
	WatchSeller(context.Context, *WatchSellerRequest) (*PresenceResponse, error)
	UnwatchSeller(context.Context, *WatchSellerRequest) (*Empty, error)
	UpdatePresence(context.Context, *UpdatePresenceRequest) (*PresenceResponse, error)
}

// UnimplementedSessionServiceServer returns Unimplemented for every method.
type UnimplementedSessionServiceServer struct{}

func (UnimplementedSessionServiceServer) Connect(*ConnectRequest, grpc.ServerStreamingServer[StreamMessage]) error {
	return status.Error(codes.Unimplemented, "method Connect not implemented")
}
func (UnimplementedSessionServiceServer) Subscribe(context.Context, *SubscribeRequest) (*SubscribeResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Subscribe not implemented")
}
func (UnimplementedSessionServiceServer) Unsubscribe(context.Context, *SubscribeRequest) (*Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method Unsubscribe not implemented")
}
func (UnimplementedSessionServiceServer) WatchSeller(context.Context, *WatchSellerRequest) (*PresenceResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method WatchSeller not implemented")
}
func (UnimplementedSessionServiceServer) UnwatchSeller(context.Context, *WatchSellerRequest) (*Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method UnwatchSeller not implemented")
}
func (UnimplementedSessionServiceServer) UpdatePresence(context.Context, *UpdatePresenceRequest) (*PresenceResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdatePresence not implemented")
}

func sessionConnectHandler(srv any, stream grpc.ServerStream) error {
	in := new(ConnectRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(SessionServiceServer).Connect(in, &grpc.GenericServerStream[ConnectRequest, StreamMessage]{ServerStream: stream})
}

// SessionService_ServiceDesc is the grpc.ServiceDesc for SessionService.
var SessionService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: SessionServiceName,
	HandlerType: (*SessionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(SessionServiceName, "Subscribe", SessionServiceServer.Subscribe),
		unary(SessionServiceName, "Unsubscribe", SessionServiceServer.Unsubscribe),
		unary(SessionServiceName, "WatchSeller", SessionServiceServer.WatchSeller),
		unary(SessionServiceName, "UnwatchSeller", SessionServiceServer.UnwatchSeller),
		unary(SessionServiceName, "UpdatePresence", SessionServiceServer.UpdatePresence),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Connect",
			Handler:       sessionConnectHandler,
			ServerStreams: true,
		},
	},
	Metadata: "ordersync/v1/session",
}

func RegisterSessionServiceServer(s grpc.ServiceRegistrar, srv SessionServiceServer) {
	s.RegisterService(&SessionService_ServiceDesc, srv)
}

// SessionServiceClient is the client API for SessionService.
type SessionServiceClient interface {
	Connect(ctx context.Context, in *ConnectRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[StreamMessage], error)
	Subscribe(ctx context.Context, in *SubscribeRequest, opts ...grpc.CallOption) (*SubscribeResponse, error)
	Unsubscribe(ctx context.Context, in *SubscribeRequest, opts ...grpc.CallOption) (*Empty, error)
	WatchSeller(ctx context.Context, in *WatchSellerRequest, opts ...grpc.CallOption) (*PresenceResponse, error)
	UnwatchSeller(ctx context.Context, in *WatchSellerRequest, opts ...grpc.CallOption) (*Empty, error)
	UpdatePresence(ctx context.Context, in *UpdatePresenceRequest, opts ...grpc.CallOption) (*PresenceResponse, error)
}

type sessionServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewSessionServiceClient(cc grpc.ClientConnInterface) SessionServiceClient {
	return &sessionServiceClient{cc}
}

func (c *sessionServiceClient) Connect(ctx context.Context, in *ConnectRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[StreamMessage], error) {
	stream, err := c.cc.NewStream(ctx, &SessionService_ServiceDesc.Streams[0], SessionService_Connect_FullMethodName, withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[ConnectRequest, StreamMessage]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func (c *sessionServiceClient) Subscribe(ctx context.Context, in *SubscribeRequest, opts ...grpc.CallOption) (*SubscribeResponse, error) {
	out := new(SubscribeResponse)
	if err := c.cc.Invoke(ctx, SessionService_Subscribe_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *sessionServiceClient) Unsubscribe(ctx context.Context, in *SubscribeRequest, opts ...grpc.CallOption) (*Empty, error) {
	out := new(Empty)
	if err := c.cc.Invoke(ctx, SessionService_Unsubscribe_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *sessionServiceClient) WatchSeller(ctx context.Context, in *WatchSellerRequest, opts ...grpc.CallOption) (*PresenceResponse, error) {
	out := new(PresenceResponse)
	if err := c.cc.Invoke(ctx, SessionService_WatchSeller_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *sessionServiceClient) UnwatchSeller(ctx context.Context, in *WatchSellerRequest, opts ...grpc.CallOption) (*Empty, error) {
	out := new(Empty)
	if err := c.cc.Invoke(ctx, SessionService_UnwatchSeller_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *sessionServiceClient) UpdatePresence(ctx context.Context, in *UpdatePresenceRequest, opts ...grpc.CallOption) (*PresenceResponse, error) {
	out := new(PresenceResponse)
	if err := c.cc.Invoke(ctx, SessionService_UpdatePresence_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}
