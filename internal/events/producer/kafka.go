// Package producer relays published order envelopes to Kafka for downstream consumers.
package producer

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"food-ordering-platform/ordersync/internal/hub"
	orderdomain "food-ordering-platform/ordersync/internal/order/domain"
)

const (
	// DefaultQueueSize bounds envelopes waiting to be written.
	DefaultQueueSize = 256
	writeTimeout     = 5 * time.Second
)

// Writer is the subset of *kafka.Writer used by the relay.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriter returns a writer for topic. It returns nil when brokers or topic are empty.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
	}
}

// Relay is a hub observer that writes every published order envelope to Kafka, keyed by order ID
// so one order's envelopes stay on one partition. Enqueueing never blocks publish; when the queue
// is full the envelope is dropped and counted.
type Relay struct {
	w      Writer
	logger *slog.Logger
	queue  chan orderdomain.Envelope

	mu     sync.Mutex
	closed bool
	done   chan struct{}

	written metric.Int64Counter
	dropped metric.Int64Counter
}

// NewRelay starts the background writer. queueSize <= 0 uses DefaultQueueSize. logger may be nil.
func NewRelay(w Writer, queueSize int, logger *slog.Logger) *Relay {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	meter := otel.Meter("food-ordering-platform/ordersync/events")
	written, _ := meter.Int64Counter("ordersync.events.relayed",
		metric.WithDescription("Order envelopes written to Kafka"))
	dropped, _ := meter.Int64Counter("ordersync.events.dropped",
		metric.WithDescription("Order envelopes not relayed because the queue was full or the write failed"))
	r := &Relay{
		w:       w,
		logger:  logger,
		queue:   make(chan orderdomain.Envelope, queueSize),
		done:    make(chan struct{}),
		written: written,
		dropped: dropped,
	}
	go r.run()
	return r
}

// Delivered implements hub.Observer. Presence messages are not relayed.
func (r *Relay) Delivered(ctx context.Context, msg hub.Message, _ []hub.Recipient) {
	if r == nil || msg.Kind != hub.KindOrder || msg.Order == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	select {
	case r.queue <- *msg.Order:
	default:
		r.dropped.Add(ctx, 1)
		r.logger.Warn("events: relay queue full", "order_id", msg.Order.OrderID, "sequence", msg.Order.SequenceNumber)
	}
}

func (r *Relay) run() {
	defer close(r.done)
	for env := range r.queue {
		r.write(env)
	}
}

func (r *Relay) write(env orderdomain.Envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		r.logger.Error("events: encode envelope", "order_id", env.OrderID, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	err = r.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(env.OrderID),
		Value: payload,
		Time:  env.EmittedAt,
	})
	if err != nil {
		r.dropped.Add(ctx, 1)
		r.logger.Warn("events: kafka write failed", "order_id", env.OrderID, "sequence", env.SequenceNumber, "error", err)
		return
	}
	r.written.Add(ctx, 1)
}

// Close stops accepting envelopes, drains the queue and closes the writer. Safe to call multiple times.
func (r *Relay) Close() error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		<-r.done
		return nil
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()
	<-r.done
	return r.w.Close()
}

// Decode parses a relayed message value back into an envelope.
func Decode(m kafka.Message) (orderdomain.Envelope, error) {
	var env orderdomain.Envelope
	err := json.Unmarshal(m.Value, &env)
	return env, err
}
