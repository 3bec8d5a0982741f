package main

import (
	"context"
	"log"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"food-ordering-platform/ordersync/internal/clock"
	"food-ordering-platform/ordersync/internal/config"
	"food-ordering-platform/ordersync/internal/db"
	"food-ordering-platform/ordersync/internal/events/producer"
	"food-ordering-platform/ordersync/internal/hub"
	"food-ordering-platform/ordersync/internal/notification"
	"food-ordering-platform/ordersync/internal/order/repository"
	orderservice "food-ordering-platform/ordersync/internal/order/service"
	"food-ordering-platform/ordersync/internal/policy/engine"
	"food-ordering-platform/ordersync/internal/security"
	"food-ordering-platform/ordersync/internal/server"
	"food-ordering-platform/ordersync/internal/session"
	"food-ordering-platform/ordersync/internal/telemetry"
	teleotel "food-ordering-platform/ordersync/internal/telemetry/otel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	ctx := context.Background()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if cfg.Env == "production" {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	slog.SetDefault(logger)

	providers, err := teleotel.NewProviders(ctx, teleotel.Options{
		Endpoint:    cfg.OTelEndpoint,
		Insecure:    cfg.OTelInsecure,
		ServiceName: cfg.OTelServiceName,
		Environment: cfg.Env,
	})
	if err != nil {
		log.Fatalf("otel: %v", err)
	}
	providers.SetGlobal()

	tokens, err := tokenProvider(cfg, logger)
	if err != nil {
		log.Fatalf("jwt: %v", err)
	}

	var repo repository.Repository
	if cfg.DatabaseURL != "" {
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		defer conn.Close()
		repo = repository.NewPostgresRepository(conn)
	} else {
		logger.Warn("DATABASE_URL is not set; orders are kept in memory")
		repo = repository.NewMemoryRepository()
	}

	policy, err := engine.NewOPAEvaluator(ctx, "")
	if err != nil {
		log.Fatalf("policy: %v", err)
	}

	clk := clock.Real()
	dispatcher := notification.NewDispatcher(cfg.NotificationFeedCap, clk, logger)
	h := hub.New(logger, dispatcher)

	var relay *producer.Relay
	if w := producer.NewKafkaWriter(cfg.KafkaBrokersList(), cfg.OrderEventsTopic); w != nil {
		relay = producer.NewRelay(w, producer.DefaultQueueSize, logger)
		h.AddObserver(relay)
		logger.Info("relaying order events to kafka", "topic", cfg.OrderEventsTopic)
	}

	orders := orderservice.NewService(repo, h, orderservice.Options{
		MaxAttempts: cfg.CommitMaxAttempts,
		Clock:       clk,
		Emitter:     teleotel.NewTransitionEmitter(providers.LoggerProvider),
		Logger:      logger,
	})
	sessions := session.NewManager(h, tokens, repo, policy, session.Options{
		SendBuffer: cfg.SessionSendBuffer,
		Clock:      clk,
		Logger:     logger,
	})

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("listen: %v", err)
	}
	defer lis.Close()

	s := server.NewGRPCServer(tokens, logger)
	server.RegisterServices(s, server.Deps{
		Orders:              orders,
		Sessions:            sessions,
		Notifications:       dispatcher,
		HealthPinger:        repo,
		HealthPolicyChecker: policy,
		Logger:              logger,
	})

	go func() {
		log.Printf("gRPC server listening on %s", cfg.GRPCAddr)
		if err := s.Serve(lis); err != nil {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down gRPC server...")
	// Connect streams only end once their sessions are closed.
	sessions.Close(ctx)
	s.GracefulStop()
	log.Println("gRPC server stopped")

	time.Sleep(telemetry.ShutdownDrainDuration)
	if err := relay.Close(); err != nil {
		logger.Warn("kafka relay close", "error", err)
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := providers.Shutdown(shutdownCtx); err != nil {
		logger.Warn("otel shutdown", "error", err)
	}
}

// tokenProvider builds the JWT provider from configured keys. Without keys (development only) an
// ephemeral pair is generated and tokens from cmd/seed will not validate across restarts.
func tokenProvider(cfg *config.Config, logger *slog.Logger) (*security.TokenProvider, error) {
	priv, pub := cfg.JWTPrivateKey, cfg.JWTPublicKey
	if priv == "" {
		var err error
		if priv, pub, err = security.GenerateDevKeyPair(); err != nil {
			return nil, err
		}
		logger.Warn("JWT keys not configured; using an ephemeral development key pair")
	}
	return security.NewTokenProviderFromPEM(priv, pub, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL())
}
