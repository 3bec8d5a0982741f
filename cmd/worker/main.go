// Worker consumes relayed order envelopes from Kafka and logs them with per-order sequence checks.
// Set KAFKA_BROKERS, ORDER_EVENTS_TOPIC and KAFKA_GROUP_ID.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"food-ordering-platform/ordersync/internal/config"
	"food-ordering-platform/ordersync/internal/events/consumer"
	orderdomain "food-ordering-platform/ordersync/internal/order/domain"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	brokers := cfg.KafkaBrokersList()
	if len(brokers) == 0 {
		log.Fatal("worker: KAFKA_BROKERS is required")
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	reader := consumer.NewKafkaReader(brokers, cfg.OrderEventsTopic, cfg.KafkaGroupID)
	defer reader.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Printf("worker: consuming from %s (group %s)", cfg.OrderEventsTopic, cfg.KafkaGroupID)
	seq := consumer.NewSequencer()
	err = consumer.Consume(ctx, reader, seq, logger, func(env orderdomain.Envelope, outcome consumer.Outcome) {
		level := slog.LevelInfo
		if outcome != consumer.OutcomeNext {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, "order event",
			"order_id", env.OrderID, "status", env.Status, "sequence", env.SequenceNumber,
			"actor_type", env.ActorType, "outcome", outcome)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("worker: %v", err)
	}
	log.Println("worker: stopped")
}
