package hub

import (
	"strings"

	orderdomain "food-ordering-platform/ordersync/internal/order/domain"
	presencedomain "food-ordering-platform/ordersync/internal/presence/domain"
)

const (
	orderRoomPrefix    = "order:"
	actorRoomPrefix    = "actor:"
	presenceRoomPrefix = "presence:"
)

// OrderRoom is the ephemeral room for one order.
func OrderRoom(orderID string) string { return orderRoomPrefix + orderID }

// ActorRoom is the persistent room every session of an actor is joined to.
func ActorRoom(actorID string) string { return actorRoomPrefix + actorID }

// PresenceRoom carries a seller's presence updates to sessions viewing that seller.
func PresenceRoom(sellerID string) string { return presenceRoomPrefix + sellerID }

// IsOrderRoom reports whether room is an order room.
func IsOrderRoom(room string) bool { return strings.HasPrefix(room, orderRoomPrefix) }

// OrderIDFromRoom returns the order ID of an order room.
func OrderIDFromRoom(room string) (string, bool) {
	if !IsOrderRoom(room) {
		return "", false
	}
	return strings.TrimPrefix(room, orderRoomPrefix), true
}

// Kind discriminates Message payloads.
type Kind string

const (
	KindOrder    Kind = "order"
	KindPresence Kind = "presence"
)

// Message is what the hub delivers. Exactly one payload is set.
type Message struct {
	Kind     Kind
	Order    *orderdomain.Envelope
	Presence *presencedomain.Update
}

// OrderMessage wraps an order envelope.
func OrderMessage(env orderdomain.Envelope) Message {
	return Message{Kind: KindOrder, Order: &env}
}

// PresenceMessage wraps a presence update.
func PresenceMessage(u presencedomain.Update) Message {
	return Message{Kind: KindPresence, Presence: &u}
}
