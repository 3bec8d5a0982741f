package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"food-ordering-platform/ordersync/internal/order/domain"
)

// PostgresRepository stores orders in the orders table and records every committed transition in
// order_transitions.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an order repository backed by db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const orderColumns = `id, ref, customer_id, seller_id, status, sequence_number, cancellation_reason,
	cancelled_by, updated_by, status_timestamps, snapshot, created_at`

// GetOrder returns the order for id, or nil if not found.
func (r *PostgresRepository) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return o, err
}

// Create inserts o at its current status and sequence.
func (r *PostgresRepository) Create(ctx context.Context, o *domain.Order) error {
	ts, err := encodeTimestamps(o.Timestamps)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO orders (id, ref, customer_id, seller_id, status, sequence_number,
		status_timestamps, snapshot, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		o.ID, o.Ref, o.CustomerID, o.SellerID, string(o.Status), o.Sequence, ts, nullJSON(o.Snapshot), o.CreatedAt)
	if err != nil {
		return fmt.Errorf("create order %s: %w", o.ID, err)
	}
	return nil
}

// CommitTransition performs a compare-and-set on sequence_number inside one transaction.
func (r *PostgresRepository) CommitTransition(ctx context.Context, id string, fromSeq int64, t domain.Transition) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var reason, cancelledBy sql.NullString
	if t.Status.RequiresReason() {
		reason = sql.NullString{String: t.Reason, Valid: true}
		cancelledBy = sql.NullString{String: string(t.ActorType), Valid: true}
	}
	at := t.At.UTC().Format(time.RFC3339Nano)

	row := tx.QueryRowContext(ctx, `UPDATE orders SET
			status = $3,
			sequence_number = sequence_number + 1,
			updated_by = $4,
			cancellation_reason = COALESCE($5, cancellation_reason),
			cancelled_by = COALESCE($6, cancelled_by),
			status_timestamps = status_timestamps || jsonb_build_object($3::text, $7::text)
		WHERE id = $1 AND sequence_number = $2
		RETURNING `+orderColumns,
		id, fromSeq, string(t.Status), string(t.ActorType), reason, cancelledBy, at)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
			return nil, err
		}
		if !exists {
			return nil, domain.ErrOrderNotFound
		}
		return nil, domain.ErrConflict
	}
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO order_transitions (order_id, sequence_number, status, actor_type,
		cancellation_reason, emitted_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, o.Sequence, string(t.Status), string(t.ActorType), reason, t.At); err != nil {
		return nil, fmt.Errorf("record transition %s#%d: %w", id, o.Sequence, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return o, nil
}

// ListByActor returns the actor's orders, newest first.
func (r *PostgresRepository) ListByActor(ctx context.Context, actorID string, actorType domain.ActorType) ([]*domain.Order, error) {
	column := "customer_id"
	if actorType == domain.ActorSeller {
		column = "seller_id"
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE `+column+` = $1 ORDER BY created_at DESC`, actorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Ping checks connectivity.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(s scanner) (*domain.Order, error) {
	var (
		o                              domain.Order
		status                         string
		reason, cancelledBy, updatedBy sql.NullString
		timestamps, snapshot           []byte
	)
	if err := s.Scan(&o.ID, &o.Ref, &o.CustomerID, &o.SellerID, &status, &o.Sequence, &reason,
		&cancelledBy, &updatedBy, &timestamps, &snapshot, &o.CreatedAt); err != nil {
		return nil, err
	}
	o.Status = domain.Status(status)
	o.CancellationReason = reason.String
	o.CancelledBy = domain.ActorType(cancelledBy.String)
	o.UpdatedBy = domain.ActorType(updatedBy.String)
	if len(snapshot) > 0 {
		o.Snapshot = json.RawMessage(snapshot)
	}
	ts, err := decodeTimestamps(timestamps)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", o.ID, err)
	}
	o.Timestamps = ts
	return &o, nil
}

func encodeTimestamps(ts map[domain.Status]time.Time) ([]byte, error) {
	raw := make(map[string]string, len(ts))
	for st, at := range ts {
		raw[string(st)] = at.UTC().Format(time.RFC3339Nano)
	}
	return json.Marshal(raw)
}

func decodeTimestamps(b []byte) (map[domain.Status]time.Time, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var raw map[string]string
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode status_timestamps: %w", err)
	}
	out := make(map[domain.Status]time.Time, len(raw))
	for st, s := range raw {
		at, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, fmt.Errorf("decode status_timestamps[%s]: %w", st, err)
		}
		out[domain.Status(st)] = at
	}
	return out, nil
}

func nullJSON(b json.RawMessage) any {
	if len(b) == 0 {
		return nil
	}
	return []byte(b)
}
