// Package reconcile runs one scheduled fetch-and-apply task per open order so that local state
// converges on the canonical record even when pushes are lost.
//
// Each task is stopped unconditionally once the canonical (or local) status is terminal, when the
// order is untracked, or when the poller stops. There is no poll count limit.
package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"food-ordering-platform/ordersync/internal/clock"
	"food-ordering-platform/ordersync/internal/order/domain"
)

// DefaultInterval is the poll period when Options.Interval is zero.
const DefaultInterval = 5 * time.Second

// Fetcher returns the canonical order.
type Fetcher interface {
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
}

// Cache is the local state being repaired. Reconcile must route canonical through the same
// Apply path as pushed envelopes.
type Cache interface {
	Sequence(orderID string) (int64, bool)
	Reconcile(ctx context.Context, canonical domain.Order) (domain.Result, error)
}

// Options configures a Poller.
type Options struct {
	Interval time.Duration
	Clock    clock.Clock
	Logger   *slog.Logger
	// OnStop is called when a task ends, with the reason ("terminal", "untracked", "not_found", "stopped").
	OnStop func(orderID, reason string)
}

// Poller owns the per-order tasks. The zero value is not usable; call NewPoller.
type Poller struct {
	fetch    Fetcher
	cache    Cache
	interval time.Duration
	clk      clock.Clock
	logger   *slog.Logger
	onStop   func(orderID, reason string)

	mu      sync.Mutex
	tasks   map[string]*task
	stopped bool
	wg      sync.WaitGroup

	polls   metric.Int64Counter
	repairs metric.Int64Counter
}

type task struct {
	cancel context.CancelFunc
}

// NewPoller returns a poller that is not yet tracking anything.
func NewPoller(fetch Fetcher, cache Cache, opts Options) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	meter := otel.Meter("food-ordering-platform/ordersync/reconcile")
	polls, _ := meter.Int64Counter("ordersync.reconcile.polls",
		metric.WithDescription("Canonical order fetches made by the reconciliation poller"))
	repairs, _ := meter.Int64Counter("ordersync.reconcile.repairs",
		metric.WithDescription("Polls that advanced local state past what push delivery achieved"))
	return &Poller{
		fetch:    fetch,
		cache:    cache,
		interval: opts.Interval,
		clk:      opts.Clock,
		logger:   opts.Logger,
		onStop:   opts.OnStop,
		tasks:    make(map[string]*task),
		polls:    polls,
		repairs:  repairs,
	}
}

// Track starts polling orderID. Tracking an order twice is a no-op. It returns false after Stop.
func (p *Poller) Track(orderID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return false
	}
	if _, ok := p.tasks[orderID]; ok {
		return true
	}
	ctx, cancel := context.WithCancel(context.Background())
	t := &task{cancel: cancel}
	p.tasks[orderID] = t
	ticker := p.clk.NewTicker(p.interval)
	p.wg.Add(1)
	go p.run(ctx, orderID, t, ticker)
	return true
}

// Untrack stops polling orderID.
func (p *Poller) Untrack(orderID string) {
	p.mu.Lock()
	t, ok := p.tasks[orderID]
	p.mu.Unlock()
	if ok {
		t.cancel()
	}
}

// Tracking returns the IDs with a live task, sorted.
func (p *Poller) Tracking() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.tasks))
	for id := range p.tasks {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Stop cancels every task and waits for them to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	p.stopped = true
	for _, t := range p.tasks {
		t.cancel()
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// PollOnce fetches orderID and folds it into the cache. It reports whether the task should
// continue.
func (p *Poller) PollOnce(ctx context.Context, orderID string) (bool, string) {
	p.polls.Add(ctx, 1)
	canonical, err := p.fetch.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			p.logger.Warn("reconcile: order not found", "order_id", orderID)
			return false, "not_found"
		}
		if ctx.Err() == nil {
			p.logger.Warn("reconcile: fetch failed", "order_id", orderID, "error", err)
		}
		return true, ""
	}
	local, known := p.cache.Sequence(orderID)
	if !known || canonical.Sequence > local {
		res, err := p.cache.Reconcile(ctx, *canonical)
		switch {
		case err != nil:
			p.logger.Error("reconcile: apply canonical", "order_id", orderID,
				"local_sequence", local, "canonical_sequence", canonical.Sequence, "error", err)
		case res.Publish && known:
			p.repairs.Add(ctx, 1)
			p.logger.Info("reconcile: repaired", "order_id", orderID, "status", canonical.Status,
				"from_sequence", local, "sequence", canonical.Sequence)
		}
	}
	if canonical.Status.Terminal() {
		return false, "terminal"
	}
	return true, ""
}

func (p *Poller) run(ctx context.Context, orderID string, t *task, ticker *clock.Ticker) {
	defer p.wg.Done()
	reason := "untracked"
	defer func() {
		ticker.Stop()
		p.mu.Lock()
		if p.tasks[orderID] == t {
			delete(p.tasks, orderID)
		}
		if p.stopped && reason == "untracked" {
			reason = "stopped"
		}
		p.mu.Unlock()
		t.cancel()
		p.logger.Debug("reconcile: task stopped", "order_id", orderID, "reason", reason)
		if p.onStop != nil {
			p.onStop(orderID, reason)
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			more, why := p.PollOnce(ctx, orderID)
			if !more {
				reason = why
				return
			}
		}
	}
}
