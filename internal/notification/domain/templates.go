package domain

import (
	"fmt"

	orderdomain "food-ordering-platform/ordersync/internal/order/domain"
)

type template struct {
	title   string
	message string // formatted with the order ID
}

// templates is keyed by the audience receiving the notification, then by the status entered.
// Actors are never notified of their own transitions, so sellers only hear about cancellations.
var templates = map[orderdomain.ActorType]map[orderdomain.Status]template{
	orderdomain.ActorCustomer: {
		orderdomain.StatusSellerAccepted: {"Restaurant accepted your order", "Order %s has been accepted and will be prepared shortly."},
		orderdomain.StatusSellerRejected: {"Restaurant declined your order", "Order %s was declined."},
		orderdomain.StatusPreparing:      {"Your order is being prepared", "The kitchen has started on order %s."},
		orderdomain.StatusReady:          {"Your order is ready", "Order %s is packed and waiting for pickup."},
		orderdomain.StatusOutForDelivery: {"Your order is on the way", "Order %s is out for delivery."},
		orderdomain.StatusDelivered:      {"Order delivered", "Order %s has been delivered. Enjoy your meal!"},
		orderdomain.StatusCancelled:      {"Your order was cancelled", "Order %s was cancelled."},
	},
	orderdomain.ActorSeller: {
		orderdomain.StatusCancelled: {"Customer cancelled an order", "Order %s was cancelled by the customer."},
	},
}

// Render returns the title and message shown to audience for env. ok is false when the table has
// no entry for the pair.
func Render(audience orderdomain.ActorType, env orderdomain.Envelope) (title, message string, ok bool) {
	tpl, ok := templates[audience][env.Status]
	if !ok {
		return "", "", false
	}
	message = fmt.Sprintf(tpl.message, env.OrderID)
	if env.Status.RequiresReason() && env.CancellationReason != "" {
		message += " Reason: " + env.CancellationReason
	}
	return tpl.title, message, true
}
