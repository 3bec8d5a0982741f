package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apiv1 "food-ordering-platform/ordersync/internal/api/v1"
	"food-ordering-platform/ordersync/internal/clock"
	"food-ordering-platform/ordersync/internal/order/domain"
	presencedomain "food-ordering-platform/ordersync/internal/presence/domain"
	sessiondomain "food-ordering-platform/ordersync/internal/session/domain"
)

var (
	// ErrAuth is returned by Run when the server rejects the token. It is not retried.
	ErrAuth = errors.New("client: authentication rejected")
	// ErrNotConnected is returned by calls that need a live connection while the connector is
	// between connections. Subscriptions requested meanwhile are still joined on the next connect.
	ErrNotConnected = errors.New("client: not connected")
)

// Handlers receive what arrives on the push stream and on re-join. Any field may be nil. They are
// called from the connector goroutine and must not block for long.
type Handlers struct {
	Envelope func(env domain.Envelope)
	// Snapshot receives the canonical order returned whenever a subscription is (re)joined.
	Snapshot func(o domain.Order)
	Presence func(u presencedomain.Update)
	State    func(s sessiondomain.State)
}

// ConnectorOptions configures a Connector.
type ConnectorOptions struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Clock           clock.Clock
	Logger          *slog.Logger
	Handlers        Handlers
}

// Connector runs the session lifecycle disconnected → authenticating → authenticated → joined and
// back to disconnected on any stream failure, reconnecting with exponential backoff. On every
// connect it re-joins the order rooms and seller presence rooms requested so far.
type Connector struct {
	client   *Client
	clk      clock.Clock
	logger   *slog.Logger
	handlers Handlers
	initial  time.Duration
	max      time.Duration

	mu      sync.Mutex
	state   sessiondomain.State
	connID  string
	orders  map[string]struct{}
	sellers map[string]struct{}

	reconnects metric.Int64Counter
}

// NewConnector returns a connector in the disconnected state. Call Run to start it.
func NewConnector(c *Client, opts ConnectorOptions) *Connector {
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = 500 * time.Millisecond
	}
	if opts.MaxInterval < opts.InitialInterval {
		opts.MaxInterval = 30 * time.Second
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	meter := otel.Meter("food-ordering-platform/ordersync/client")
	reconnects, _ := meter.Int64Counter("ordersync.client.reconnects",
		metric.WithDescription("Push stream reconnect attempts"))
	return &Connector{
		client:     c,
		clk:        opts.Clock,
		logger:     opts.Logger,
		handlers:   opts.Handlers,
		initial:    opts.InitialInterval,
		max:        opts.MaxInterval,
		state:      sessiondomain.StateDisconnected,
		orders:     make(map[string]struct{}),
		sellers:    make(map[string]struct{}),
		reconnects: reconnects,
	}
}

// State returns the current lifecycle state.
func (c *Connector) State() sessiondomain.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ConnectionID returns the server-assigned ID of the live connection, or "".
func (c *Connector) ConnectionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connID
}

// Subscriptions returns the order IDs re-joined on every connect, sorted.
func (c *Connector) Subscriptions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return sortedKeys(c.orders)
}

// Run connects and keeps reconnecting until ctx is done or the token is rejected.
func (c *Connector) Run(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initial
	b.MaxInterval = c.max
	b.Reset()

	for {
		err := c.session(ctx, b)
		c.setState(sessiondomain.StateDisconnected, "")
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if status.Code(err) == codes.Unauthenticated {
			return fmt.Errorf("%w: %v", ErrAuth, err)
		}
		wait := b.NextBackOff()
		c.logger.Info("client: connection lost, retrying", "error", err, "retry_in", wait)
		c.reconnects.Add(ctx, 1)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.clk.After(wait):
		}
	}
}

// session runs one connection until the stream ends. It resets b once the connection is joined.
func (c *Connector) session(ctx context.Context, b *backoff.ExponentialBackOff) error {
	c.setState(sessiondomain.StateAuthenticating, "")
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := c.client.Sessions.Connect(c.client.Context(streamCtx, ""), &apiv1.ConnectRequest{})
	if err != nil {
		return err
	}
	hello, err := stream.Recv()
	if err != nil {
		return err
	}
	if hello.Kind != apiv1.StreamHello || hello.ConnectionID == "" {
		return fmt.Errorf("client: unexpected first stream message %q", hello.Kind)
	}
	c.setState(sessiondomain.StateAuthenticated, hello.ConnectionID)
	c.logger.Debug("client: connected", "connection_id", hello.ConnectionID)

	if err := c.rejoin(ctx, hello.ConnectionID); err != nil {
		return err
	}
	c.setState(sessiondomain.StateJoined, hello.ConnectionID)
	b.Reset()

	for {
		msg, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return status.Error(codes.Unavailable, "stream closed by server")
			}
			return err
		}
		c.dispatch(msg)
	}
}

// rejoin subscribes the connection to every requested room. Orders that no longer exist or may
// not be watched are dropped from the request set.
func (c *Connector) rejoin(ctx context.Context, connID string) error {
	c.mu.Lock()
	orders := sortedKeys(c.orders)
	sellers := sortedKeys(c.sellers)
	c.mu.Unlock()

	for _, id := range orders {
		resp, err := c.client.Sessions.Subscribe(c.client.Context(ctx, connID), &apiv1.SubscribeRequest{OrderID: id})
		if err != nil {
			if dropsRequest(err) {
				c.logger.Warn("client: dropping subscription", "order_id", id, "error", err)
				c.forgetOrder(id)
				continue
			}
			return err
		}
		c.snapshot(resp.Order)
	}
	for _, id := range sellers {
		resp, err := c.client.Sessions.WatchSeller(c.client.Context(ctx, connID), &apiv1.WatchSellerRequest{SellerID: id})
		if err != nil {
			if dropsRequest(err) {
				c.logger.Warn("client: dropping presence watch", "seller_id", id, "error", err)
				c.mu.Lock()
				delete(c.sellers, id)
				c.mu.Unlock()
				continue
			}
			return err
		}
		if c.handlers.Presence != nil {
			c.handlers.Presence(resp.Presence)
		}
	}
	return nil
}

// Subscribe records orderID for re-join and, when connected, joins its room now and returns the
// canonical order. While disconnected it returns ErrNotConnected.
func (c *Connector) Subscribe(ctx context.Context, orderID string) (*domain.Order, error) {
	c.mu.Lock()
	c.orders[orderID] = struct{}{}
	connID := c.liveConnLocked()
	c.mu.Unlock()
	if connID == "" {
		return nil, ErrNotConnected
	}
	resp, err := c.client.Sessions.Subscribe(c.client.Context(ctx, connID), &apiv1.SubscribeRequest{OrderID: orderID})
	if err != nil {
		if isUnknownConnection(err) {
			return nil, errors.Join(ErrNotConnected, err)
		}
		if dropsRequest(err) {
			c.forgetOrder(orderID)
		}
		return nil, fromStatus(err)
	}
	return resp.Order, nil
}

// Unsubscribe stops re-joining orderID and leaves its room if connected.
func (c *Connector) Unsubscribe(ctx context.Context, orderID string) error {
	c.mu.Lock()
	delete(c.orders, orderID)
	connID := c.liveConnLocked()
	c.mu.Unlock()
	if connID == "" {
		return nil
	}
	_, err := c.client.Sessions.Unsubscribe(c.client.Context(ctx, connID), &apiv1.SubscribeRequest{OrderID: orderID})
	return err
}

// WatchSeller records sellerID for re-join and returns its current presence when connected.
func (c *Connector) WatchSeller(ctx context.Context, sellerID string) (presencedomain.Update, error) {
	c.mu.Lock()
	c.sellers[sellerID] = struct{}{}
	connID := c.liveConnLocked()
	c.mu.Unlock()
	if connID == "" {
		return presencedomain.Update{}, ErrNotConnected
	}
	return presenceOf(c.client.Sessions.WatchSeller(c.client.Context(ctx, connID), &apiv1.WatchSellerRequest{SellerID: sellerID}))
}

// UpdatePresence sets the seller's own presence. It needs a live connection.
func (c *Connector) UpdatePresence(ctx context.Context, st presencedomain.Status) (presencedomain.Update, error) {
	connID := c.ConnectionID()
	if connID == "" {
		return presencedomain.Update{}, ErrNotConnected
	}
	return presenceOf(c.client.Sessions.UpdatePresence(c.client.Context(ctx, connID), &apiv1.UpdatePresenceRequest{Status: string(st)}))
}

func (c *Connector) dispatch(msg *apiv1.StreamMessage) {
	switch msg.Kind {
	case apiv1.StreamOrder:
		if msg.Order != nil && c.handlers.Envelope != nil {
			c.handlers.Envelope(*msg.Order)
		}
	case apiv1.StreamPresence:
		if msg.Presence != nil && c.handlers.Presence != nil {
			c.handlers.Presence(*msg.Presence)
		}
	default:
		c.logger.Debug("client: ignoring stream message", "kind", msg.Kind)
	}
}

func (c *Connector) snapshot(o *domain.Order) {
	if o != nil && c.handlers.Snapshot != nil {
		c.handlers.Snapshot(*o)
	}
}

func (c *Connector) forgetOrder(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.orders, id)
}

// liveConnLocked returns the connection ID once the hello frame has arrived.
func (c *Connector) liveConnLocked() string {
	if c.state == sessiondomain.StateAuthenticated || c.state == sessiondomain.StateJoined {
		return c.connID
	}
	return ""
}

func (c *Connector) setState(to sessiondomain.State, connID string) {
	c.mu.Lock()
	from := c.state
	if from == to {
		c.mu.Unlock()
		return
	}
	if !sessiondomain.CanMove(from, to) {
		c.mu.Unlock()
		c.logger.Error("client: illegal state change", "from", from, "to", to)
		return
	}
	c.state = to
	c.connID = connID
	c.mu.Unlock()
	if c.handlers.State != nil {
		c.handlers.State(to)
	}
}

func dropsRequest(err error) bool {
	switch status.Code(err) {
	case codes.NotFound, codes.PermissionDenied:
		return !isUnknownConnection(err)
	}
	return false
}

// isUnknownConnection reports whether err is the server losing our connection rather than the
// order, which the next reconnect repairs.
func isUnknownConnection(err error) bool {
	s, ok := status.FromError(err)
	return ok && s.Code() == codes.NotFound && s.Message() == apiv1.UnknownConnectionMessage
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
