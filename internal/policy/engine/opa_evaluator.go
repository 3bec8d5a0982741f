package engine

import (
	"context"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"

	"food-ordering-platform/ordersync/internal/order/domain"
)

const (
	policyPackage      = "data.ordersync.rooms"
	orderRoomQuery     = policyPackage + ".allow_order_room"
	presenceWatchQuery = policyPackage + ".allow_presence_watch"
)

// DefaultPolicy admits an actor to an order room only when it is the order's customer or seller.
// Any customer may watch a seller's presence; a seller may watch only its own.
const DefaultPolicy = `package ordersync.rooms

default allow_order_room := false

allow_order_room if {
	input.actor.type == "customer"
	input.actor.id == input.order.customer_id
}

allow_order_room if {
	input.actor.type == "seller"
	input.actor.id == input.order.seller_id
}

default allow_presence_watch := false

allow_presence_watch if {
	input.actor.type == "customer"
	input.seller_id != ""
}

allow_presence_watch if {
	input.actor.type == "seller"
	input.actor.id == input.seller_id
}
`

// OPAEvaluator evaluates the room policy with queries prepared once at construction.
type OPAEvaluator struct {
	orderRoom     rego.PreparedEvalQuery
	presenceWatch rego.PreparedEvalQuery
}

// NewOPAEvaluator compiles policy (DefaultPolicy when empty).
func NewOPAEvaluator(ctx context.Context, policy string) (*OPAEvaluator, error) {
	if policy == "" {
		policy = DefaultPolicy
	}
	compiler, err := ast.CompileModules(map[string]string{"rooms.rego": policy})
	if err != nil {
		return nil, fmt.Errorf("compile room policy: %w", err)
	}
	orderRoom, err := rego.New(rego.Query(orderRoomQuery), rego.Compiler(compiler)).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare %s: %w", orderRoomQuery, err)
	}
	presenceWatch, err := rego.New(rego.Query(presenceWatchQuery), rego.Compiler(compiler)).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare %s: %w", presenceWatchQuery, err)
	}
	return &OPAEvaluator{orderRoom: orderRoom, presenceWatch: presenceWatch}, nil
}

// NewOPAEvaluatorFromFile loads the policy from path, or uses DefaultPolicy when path is empty.
func NewOPAEvaluatorFromFile(ctx context.Context, path string) (*OPAEvaluator, error) {
	if path == "" {
		return NewOPAEvaluator(ctx, "")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read room policy: %w", err)
	}
	return NewOPAEvaluator(ctx, string(b))
}

func (e *OPAEvaluator) AllowOrderRoom(ctx context.Context, actorID string, actorType domain.ActorType, order OrderRoomInput) (bool, error) {
	input := map[string]interface{}{
		"actor": actorInput(actorID, actorType),
		"order": map[string]interface{}{
			"id":          order.OrderID,
			"customer_id": order.CustomerID,
			"seller_id":   order.SellerID,
			"status":      string(order.Status),
		},
	}
	return eval(ctx, e.orderRoom, input)
}

func (e *OPAEvaluator) AllowPresenceWatch(ctx context.Context, actorID string, actorType domain.ActorType, sellerID string) (bool, error) {
	input := map[string]interface{}{
		"actor":     actorInput(actorID, actorType),
		"seller_id": sellerID,
	}
	return eval(ctx, e.presenceWatch, input)
}

// HealthCheck evaluates the order-room query against a fixed input.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	_, err := e.AllowOrderRoom(ctx, "health", domain.ActorCustomer, OrderRoomInput{OrderID: "health", CustomerID: "health"})
	return err
}

func actorInput(id string, t domain.ActorType) map[string]interface{} {
	return map[string]interface{}{"id": id, "type": string(t)}
}

func eval(ctx context.Context, q rego.PreparedEvalQuery, input map[string]interface{}) (bool, error) {
	rs, err := q.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, fmt.Errorf("eval room policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, nil
	}
	allowed, ok := rs[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("room policy returned %T, want bool", rs[0].Expressions[0].Value)
	}
	return allowed, nil
}
