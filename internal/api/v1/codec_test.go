package v1

import (
	"context"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	orderdomain "food-ordering-platform/ordersync/internal/order/domain"
)

func TestCodecRegistered(t *testing.T) {
	c := encoding.GetCodec(CodecName)
	if c == nil {
		t.Fatalf("codec %q not registered", CodecName)
	}
	msg := &StreamMessage{
		Kind:  StreamOrder,
		Order: &orderdomain.Envelope{OrderID: "ORD-1", Status: orderdomain.StatusReady, SequenceNumber: 4},
	}
	b, err := c.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got StreamMessage
	if err := c.Unmarshal(b, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Kind != StreamOrder || got.Order == nil || got.Order.SequenceNumber != 4 || got.Presence != nil {
		t.Errorf("decoded = %+v", got)
	}
}

func TestCodec_WireIsProtobufStruct(t *testing.T) {
	c := encoding.GetCodec(CodecName)
	b, err := c.Marshal(&GetOrderRequest{OrderID: "ORD-7"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var s structpb.Struct
	if err := proto.Unmarshal(b, &s); err != nil {
		t.Fatalf("proto.Unmarshal: %v", err)
	}
	if len(s.GetFields()) == 0 {
		t.Fatalf("struct has no fields: %v", &s)
	}
	for _, v := range s.GetFields() {
		if v.GetStringValue() != "ORD-7" {
			t.Errorf("field = %v, want ORD-7", v)
		}
	}
	if _, err := c.Marshal([]string{"not", "an", "object"}); err == nil {
		t.Error("Marshal of a non-object should fail")
	}
}

type stubOrderServer struct {
	UnimplementedOrderServiceServer
	gotID string
}

func (s *stubOrderServer) GetOrder(_ context.Context, in *GetOrderRequest) (*OrderResponse, error) {
	s.gotID = in.OrderID
	return &OrderResponse{Order: &orderdomain.Order{ID: in.OrderID}}, nil
}

func methodHandler(t *testing.T, desc grpc.ServiceDesc, name string) grpc.MethodHandler {
	t.Helper()
	for _, m := range desc.Methods {
		if m.MethodName == name {
			return m.Handler
		}
	}
	t.Fatalf("method %s not in %s", name, desc.ServiceName)
	return nil
}

func TestUnaryDescriptor_DecodesAndRunsInterceptor(t *testing.T) {
	srv := &stubOrderServer{}
	h := methodHandler(t, OrderService_ServiceDesc, "GetOrder")
	dec := func(v any) error {
		v.(*GetOrderRequest).OrderID = "ORD-9"
		return nil
	}
	var gotMethod string
	interceptor := func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		gotMethod = info.FullMethod
		return handler(ctx, req)
	}

	resp, err := h(srv, context.Background(), dec, interceptor)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if gotMethod != OrderService_GetOrder_FullMethodName {
		t.Errorf("FullMethod = %q, want %q", gotMethod, OrderService_GetOrder_FullMethodName)
	}
	if srv.gotID != "ORD-9" || resp.(*OrderResponse).Order.ID != "ORD-9" {
		t.Errorf("request not passed through: %q", srv.gotID)
	}

	if _, err := h(srv, context.Background(), dec, nil); err != nil {
		t.Errorf("handler without interceptor: %v", err)
	}
}

func TestServiceDescriptors(t *testing.T) {
	testCases := []struct {
		desc    grpc.ServiceDesc
		methods int
		streams int
	}{
		{OrderService_ServiceDesc, 7, 0},
		{SessionService_ServiceDesc, 5, 1},
		{NotificationService_ServiceDesc, 5, 0},
	}
	for _, tc := range testCases {
		if len(tc.desc.Methods) != tc.methods || len(tc.desc.Streams) != tc.streams {
			t.Errorf("%s: %d methods %d streams, want %d/%d",
				tc.desc.ServiceName, len(tc.desc.Methods), len(tc.desc.Streams), tc.methods, tc.streams)
		}
	}
}
