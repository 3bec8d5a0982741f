// seed inserts development orders and prints access tokens for the dev customer and seller.
// Idempotent: orders that already exist are left alone.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"food-ordering-platform/ordersync/internal/config"
	"food-ordering-platform/ordersync/internal/db"
	"food-ordering-platform/ordersync/internal/order/domain"
	"food-ordering-platform/ordersync/internal/order/repository"
	"food-ordering-platform/ordersync/internal/security"
)

const (
	devCustomerID = "dev-customer-001"
	devSellerID   = "dev-seller-001"
)

var devOrders = []struct {
	id       string
	snapshot string
}{
	{"ORD-DEV0000001", `{"items":[{"dish":"Margherita","qty":1,"price":950}],"total":950,"currency":"EUR"}`},
	{"ORD-DEV0000002", `{"items":[{"dish":"Pad Thai","qty":2,"price":1200}],"total":2400,"currency":"EUR"}`},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	repo := repository.NewPostgresRepository(conn)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, d := range devOrders {
		existing, err := repo.GetOrder(ctx, d.id)
		if err != nil {
			log.Fatalf("seed check %s: %v", d.id, err)
		}
		if existing != nil {
			log.Printf("Order %s already exists (%s, seq %d). Skipping.", d.id, existing.Status, existing.Sequence)
			continue
		}
		o := domain.NewOrder(d.id, uuid.NewString(), devCustomerID, devSellerID, json.RawMessage(d.snapshot), now)
		if err := repo.Create(ctx, &o); err != nil {
			log.Fatalf("create order %s: %v", d.id, err)
		}
		log.Printf("Created order %s", d.id)
	}

	priv, pub := cfg.JWTPrivateKey, cfg.JWTPublicKey
	if priv == "" {
		if priv, pub, err = security.GenerateDevKeyPair(); err != nil {
			log.Fatalf("generate keys: %v", err)
		}
		fmt.Println("No JWT keys configured. Add these to .env so the server accepts the tokens below:")
		fmt.Printf("JWT_PRIVATE_KEY=%q\nJWT_PUBLIC_KEY=%q\n\n", priv, pub)
	}
	tokens, err := security.NewTokenProviderFromPEM(priv, pub, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL())
	if err != nil {
		log.Fatalf("jwt: %v", err)
	}
	for _, actor := range []struct {
		id  string
		typ domain.ActorType
	}{{devCustomerID, domain.ActorCustomer}, {devSellerID, domain.ActorSeller}} {
		token, exp, err := tokens.IssueAccess(actor.id, actor.typ)
		if err != nil {
			log.Fatalf("issue token for %s: %v", actor.id, err)
		}
		fmt.Printf("%s (%s), expires %s:\n%s\n\n", actor.id, actor.typ, exp.Format(time.RFC3339), token)
	}
	log.Println("Seed completed successfully.")
}
