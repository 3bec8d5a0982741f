package server

import (
	"log/slog"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	apiv1 "food-ordering-platform/ordersync/internal/api/v1"
	healthhandler "food-ordering-platform/ordersync/internal/health/handler"
	"food-ordering-platform/ordersync/internal/notification"
	notificationhandler "food-ordering-platform/ordersync/internal/notification/handler"
	orderhandler "food-ordering-platform/ordersync/internal/order/handler"
	orderservice "food-ordering-platform/ordersync/internal/order/service"
	"food-ordering-platform/ordersync/internal/server/interceptors"
	"food-ordering-platform/ordersync/internal/session"
	sessionhandler "food-ordering-platform/ordersync/internal/session/handler"
)

// Deps holds optional service dependencies for gRPC handlers.
type Deps struct {
	// Orders runs order transitions. If nil, OrderService RPCs return Unimplemented.
	Orders *orderservice.Service
	// Sessions owns connections and subscriptions. If nil, SessionService RPCs return Unimplemented.
	Sessions *session.Manager
	// Notifications holds actor feeds. If nil, NotificationService RPCs return Unimplemented.
	Notifications *notification.Dispatcher
	// HealthPinger is used by the health service for readiness (e.g. the order repository). If nil, the store probe is skipped.
	HealthPinger healthhandler.Pinger
	// HealthPolicyChecker is used by the health service for readiness (e.g. OPA evaluator). If nil, the policy probe is skipped.
	HealthPolicyChecker healthhandler.PolicyChecker
	// Logger is used by handlers that log. Defaults to slog.Default().
	Logger *slog.Logger
}

// PublicMethods are served without a bearer token. Connect authenticates inside the
// session manager instead of the unary interceptor.
var PublicMethods = map[string]bool{
	healthpb.Health_Check_FullMethodName: true,
	healthpb.Health_Watch_FullMethodName: true,
}

// RegisterServices registers all gRPC services with the given server.
//
// Service → handler mapping:
//   - OrderService        → internal/order/handler
//   - SessionService      → internal/session/handler
//   - NotificationService → internal/notification/handler
//   - grpc.health.v1      → internal/health/handler
func RegisterServices(s grpc.ServiceRegistrar, deps Deps) {
	apiv1.RegisterOrderServiceServer(s, orderhandler.NewServer(deps.Orders))
	apiv1.RegisterSessionServiceServer(s, sessionhandler.NewServer(deps.Sessions, deps.Logger))
	apiv1.RegisterNotificationServiceServer(s, notificationhandler.NewServer(deps.Notifications))
	healthpb.RegisterHealthServer(s, healthhandler.NewServer(deps.HealthPinger, deps.HealthPolicyChecker))
}

// NewGRPCServer returns a server with OTel instrumentation, bearer auth and request logging.
func NewGRPCServer(tokens interceptors.TokenValidator, logger *slog.Logger, opts ...grpc.ServerOption) *grpc.Server {
	base := []grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			interceptors.AuthUnary(tokens, PublicMethods),
			interceptors.LoggingUnary(logger, PublicMethods),
		),
	}
	return grpc.NewServer(append(base, opts...)...)
}
