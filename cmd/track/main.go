// track follows one order as a customer or seller until it reaches a terminal status. Pushes and
// polls feed the same local view; every change and new notification is printed.
//
//	go run ./cmd/track --order ORD-DEV0000001 --token "$TOKEN"
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/pflag"

	"food-ordering-platform/ordersync/internal/client"
	"food-ordering-platform/ordersync/internal/config"
	"food-ordering-platform/ordersync/internal/order/domain"
	presencedomain "food-ordering-platform/ordersync/internal/presence/domain"
	"food-ordering-platform/ordersync/internal/reconcile"
	"food-ordering-platform/ordersync/internal/replica"
	sessiondomain "food-ordering-platform/ordersync/internal/session/domain"
)

func main() {
	var (
		orderID string
		token   string
		addr    string
		seller  bool
	)
	flagSet := pflag.NewFlagSet("track", pflag.ContinueOnError)
	flagSet.StringVarP(&orderID, "order", "o", "", "order ID to track")
	flagSet.StringVarP(&token, "token", "t", os.Getenv("ORDERSYNC_TOKEN"), "access token (default $ORDERSYNC_TOKEN)")
	flagSet.StringVar(&addr, "addr", "", "server address (default GRPC_ADDR)")
	flagSet.BoolVar(&seller, "watch-seller", false, "also follow the seller's presence")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if orderID == "" || token == "" {
		fmt.Fprintln(os.Stderr, "track: --order and --token are required")
		flagSet.PrintDefaults()
		os.Exit(2)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	target := addr
	if target == "" {
		target = cfg.GRPCAddr
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	conn, err := client.Dial(target)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	c := client.New(conn, token)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	feed := &feedPrinter{c: c, seen: map[string]bool{}}
	view := replica.NewView(logger, func(o domain.Order, src replica.Source) {
		fmt.Printf("%s  %-16s seq %-3d via %s", o.ID, o.Status, o.Sequence, src)
		if o.CancellationReason != "" {
			fmt.Printf("  (%s: %s)", o.CancelledBy, o.CancellationReason)
		}
		fmt.Println()
		feed.print(ctx)
		if o.Status.Terminal() {
			cancel()
		}
	})

	initial, err := c.GetOrder(ctx, orderID)
	if err != nil {
		log.Fatalf("get order: %v", err)
	}
	view.Seed(*initial)
	if initial.Status.Terminal() {
		return
	}

	poller := reconcile.NewPoller(c, view, reconcile.Options{Interval: cfg.PollEvery(), Logger: logger})
	defer poller.Stop()
	poller.Track(orderID)

	connector := client.NewConnector(c, client.ConnectorOptions{
		InitialInterval: cfg.ReconnectInitial(),
		MaxInterval:     cfg.ReconnectMax(),
		Logger:          logger,
		Handlers: client.Handlers{
			Envelope: func(env domain.Envelope) {
				if _, err := view.Apply(env, replica.SourcePush); err != nil {
					logger.Warn("push rejected", "order_id", env.OrderID, "error", err)
				}
			},
			Snapshot: func(o domain.Order) { _, _ = view.Reconcile(ctx, o) },
			Presence: func(u presencedomain.Update) {
				fmt.Printf("seller %s is %s\n", u.SellerID, u.Status)
			},
			State: func(s sessiondomain.State) {
				if s == sessiondomain.StateDisconnected && ctx.Err() == nil {
					fmt.Println("connection lost; showing last known state")
				}
			},
		},
	})
	_, _ = connector.Subscribe(ctx, orderID)
	if seller {
		_, _ = connector.WatchSeller(ctx, initial.SellerID)
	}

	if err := connector.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("track: %v", err)
	}
}

type feedPrinter struct {
	c    *client.Client
	mu   sync.Mutex
	seen map[string]bool
}

// print prints feed entries not printed before, oldest first.
func (f *feedPrinter) print(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	resp, err := f.c.ListNotifications(ctx)
	if err != nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(resp.Notifications) - 1; i >= 0; i-- {
		n := resp.Notifications[i]
		if f.seen[n.ID] {
			continue
		}
		f.seen[n.ID] = true
		fmt.Printf("  notification: %s  %s\n", n.Title, n.Message)
	}
}
