package domain

import (
	"time"

	orderdomain "food-ordering-platform/ordersync/internal/order/domain"
)

// Session is a snapshot of one authenticated connection. It exists from a successful handshake
// until disconnect; its room memberships are released together with it.
type Session struct {
	ConnectionID  string
	ActorID       string
	ActorType     orderdomain.ActorType
	JoinedRooms   []string
	Authenticated bool
	ConnectedAt   time.Time
	LastSeenAt    time.Time
}

// State is a client connection's position in the connect cycle.
type State string

const (
	StateDisconnected   State = "disconnected"
	StateAuthenticating State = "authenticating"
	StateAuthenticated  State = "authenticated"
	StateJoined         State = "joined"
)

var stateEdges = map[State][]State{
	StateDisconnected:   {StateAuthenticating},
	StateAuthenticating: {StateAuthenticated, StateDisconnected},
	StateAuthenticated:  {StateJoined, StateDisconnected},
	StateJoined:         {StateDisconnected},
}

// CanMove reports whether a connection may move from one state to another.
func CanMove(from, to State) bool {
	for _, s := range stateEdges[from] {
		if s == to {
			return true
		}
	}
	return false
}
