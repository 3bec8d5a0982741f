package v1

import (
	"encoding/json"

	notificationdomain "food-ordering-platform/ordersync/internal/notification/domain"
	orderdomain "food-ordering-platform/ordersync/internal/order/domain"
	presencedomain "food-ordering-platform/ordersync/internal/presence/domain"
)

// Empty is the request or response of calls that carry nothing.
type Empty struct{}

type CreateOrderRequest struct {
	SellerID string          `json:"sellerId"`
	Snapshot json.RawMessage `json:"snapshot,omitempty"`
}

// OrderActionRequest targets one order. Reason is required by RejectOrder and CancelOrder.
type OrderActionRequest struct {
	OrderID string `json:"orderId"`
	Reason  string `json:"reason,omitempty"`
}

type AdvanceStatusRequest struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

type GetOrderRequest struct {
	OrderID string `json:"orderId"`
}

type OrderResponse struct {
	Order *orderdomain.Order `json:"order"`
}

type ListOrdersResponse struct {
	Orders []*orderdomain.Order `json:"orders"`
}

type ConnectRequest struct{}

// StreamKind tags a message on the Connect stream.
type StreamKind string

const (
	// StreamHello is the first message of every stream and carries the connection ID.
	StreamHello    StreamKind = "hello"
	StreamOrder    StreamKind = "order"
	StreamPresence StreamKind = "presence"
)

// StreamMessage is one server push on the Connect stream.
type StreamMessage struct {
	Kind         StreamKind             `json:"kind"`
	ConnectionID string                 `json:"connectionId,omitempty"`
	Order        *orderdomain.Envelope  `json:"order,omitempty"`
	Presence     *presencedomain.Update `json:"presence,omitempty"`
}

type SubscribeRequest struct {
	OrderID string `json:"orderId"`
}

type SubscribeResponse struct {
	Order *orderdomain.Order `json:"order"`
}

type WatchSellerRequest struct {
	SellerID string `json:"sellerId"`
}

type UpdatePresenceRequest struct {
	Status string `json:"status"`
}

type PresenceResponse struct {
	Presence presencedomain.Update `json:"presence"`
}

type ListNotificationsResponse struct {
	Notifications []notificationdomain.Notification `json:"notifications"`
	Unread        int                               `json:"unread"`
}

type NotificationRequest struct {
	NotificationID string `json:"notificationId"`
}

type MarkAllReadResponse struct {
	Updated int `json:"updated"`
}
