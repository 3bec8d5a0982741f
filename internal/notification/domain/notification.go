// Package domain defines feed notifications and the fixed template table that renders them from
// order envelopes.
package domain

import (
	"encoding/hex"
	"time"

	"golang.org/x/crypto/blake2b"

	orderdomain "food-ordering-platform/ordersync/internal/order/domain"
)

// TypeOrderStatus is the only notification type produced today.
const TypeOrderStatus = "order_status"

// Notification is one entry in an actor's feed.
type Notification struct {
	ID            string             `json:"id"`
	TargetActorID string             `json:"targetActorId"`
	OrderID       string             `json:"orderId"`
	Type          string             `json:"type"`
	Status        orderdomain.Status `json:"status"`
	Title         string             `json:"title"`
	Message       string             `json:"message"`
	DedupKey      string             `json:"dedupKey"`
	Read          bool               `json:"read"`
	CreatedAt     time.Time          `json:"createdAt"`
}

// DedupKey hashes (orderID, status). A NUL separator keeps ("ab","c") and ("a","bc") apart.
func DedupKey(orderID string, status orderdomain.Status) string {
	sum := blake2b.Sum256([]byte(orderID + "\x00" + string(status)))
	return hex.EncodeToString(sum[:16])
}
