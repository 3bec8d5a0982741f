// Package consumer reads relayed order envelopes from Kafka and checks per-order sequence
// continuity. The relay is best-effort, so gaps are expected and reported rather than repaired.
package consumer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"food-ordering-platform/ordersync/internal/events/producer"
	orderdomain "food-ordering-platform/ordersync/internal/order/domain"
)

// Outcome classifies an envelope against the last sequence seen for its order.
type Outcome string

const (
	OutcomeNext      Outcome = "next"
	OutcomeGap       Outcome = "gap"
	OutcomeDuplicate Outcome = "duplicate"
)

// DefaultTerminalRetention is how many finished orders a Sequencer remembers, so a redelivered
// terminal envelope is classified as a duplicate.
const DefaultTerminalRetention = 4096

// Sequencer tracks the last sequence number seen per order. Terminal orders move to a bounded
// set of finished orders, oldest evicted first.
type Sequencer struct {
	mu       sync.Mutex
	last     map[string]int64
	finished map[string]int64
	order    []string
	retain   int
}

// NewSequencer returns an empty Sequencer.
func NewSequencer() *Sequencer {
	return &Sequencer{
		last:     make(map[string]int64),
		finished: make(map[string]int64),
		retain:   DefaultTerminalRetention,
	}
}

// Observe records env and returns how it relates to what was seen before. The first envelope
// of an order is a gap unless it is sequence 2, the first transition.
func (s *Sequencer) Observe(env orderdomain.Envelope) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	if final, done := s.finished[env.OrderID]; done && env.SequenceNumber <= final {
		return OutcomeDuplicate
	}
	last, ok := s.last[env.OrderID]
	if !ok {
		last = 1
	}
	var out Outcome
	switch {
	case env.SequenceNumber <= last && ok:
		return OutcomeDuplicate
	case env.SequenceNumber == last+1:
		out = OutcomeNext
	default:
		out = OutcomeGap
	}
	if env.Status.Terminal() {
		delete(s.last, env.OrderID)
		s.finish(env.OrderID, env.SequenceNumber)
	} else {
		s.last[env.OrderID] = env.SequenceNumber
	}
	return out
}

func (s *Sequencer) finish(orderID string, seq int64) {
	if _, ok := s.finished[orderID]; !ok {
		s.order = append(s.order, orderID)
	}
	s.finished[orderID] = seq
	for len(s.order) > s.retain {
		delete(s.finished, s.order[0])
		s.order = s.order[1:]
	}
}

// Tracked returns the number of open orders being followed.
func (s *Sequencer) Tracked() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.last)
}

// Reader is the subset of *kafka.Reader used by Consume.
type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// NewKafkaReader returns a consumer-group reader for topic.
func NewKafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		CommitInterval: time.Second,
	})
}

// Consume reads until ctx is done, passing every decoded envelope and its outcome to handle.
// Read and decode errors are logged and skipped.
func Consume(ctx context.Context, r Reader, seq *Sequencer, logger *slog.Logger, handle func(orderdomain.Envelope, Outcome)) error {
	if logger == nil {
		logger = slog.Default()
	}
	for {
		msg, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("events: kafka read error", "error", err)
			continue
		}
		env, err := producer.Decode(msg)
		if err != nil {
			logger.Warn("events: undecodable message", "offset", msg.Offset, "error", err)
			continue
		}
		handle(env, seq.Observe(env))
	}
}
