// Package domain holds the seller presence state machine. Presence has no sequence number:
// the latest update wins.
package domain

import (
	"errors"
	"fmt"
	"time"
)

// Status is a seller's availability.
type Status string

const (
	StatusOnline  Status = "online"
	StatusBusy    Status = "busy"
	StatusOffline Status = "offline"
)

// ErrInvalidTransition is returned for a presence change the state machine does not allow.
var ErrInvalidTransition = errors.New("invalid presence transition")

// Valid reports whether s is a defined presence status.
func (s Status) Valid() bool {
	return s == StatusOnline || s == StatusBusy || s == StatusOffline
}

// ParseStatus returns the Status for s.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown presence status %q", s)
	}
	return st, nil
}

var edges = map[Status][]Status{
	StatusOffline: {StatusOnline},
	StatusOnline:  {StatusBusy, StatusOffline},
	StatusBusy:    {StatusOnline, StatusOffline},
}

// Transition validates a move from one status to another. It reports changed=false when from
// and to are equal, which is a no-op rather than an error.
func Transition(from, to Status) (changed bool, err error) {
	if !to.Valid() {
		return false, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	}
	if from == to {
		return false, nil
	}
	for _, s := range edges[from] {
		if s == to {
			return true, nil
		}
	}
	return false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// Update is the presence event pushed to a seller's presence room. Version increases with every
// change for a seller; a higher version always wins.
type Update struct {
	SellerID  string    `json:"sellerId"`
	Status    Status    `json:"status"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
}
