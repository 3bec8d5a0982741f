package notification

import "food-ordering-platform/ordersync/internal/notification/domain"

// Feed is a bounded ring buffer of notifications. Once full, each Push evicts the oldest entry.
// Feed is not safe for concurrent use; the Dispatcher serializes access.
type Feed struct {
	buf  []domain.Notification
	head int // index of the oldest entry
	size int
}

// NewFeed returns a feed holding at most capacity entries. capacity must be positive.
func NewFeed(capacity int) *Feed {
	if capacity < 1 {
		panic("notification: feed capacity must be positive")
	}
	return &Feed{buf: make([]domain.Notification, capacity)}
}

// Cap returns the feed's capacity.
func (f *Feed) Cap() int { return len(f.buf) }

// Len returns the number of entries.
func (f *Feed) Len() int { return f.size }

// Push appends n as the newest entry and returns the evicted entry, if any.
func (f *Feed) Push(n domain.Notification) (evicted domain.Notification, ok bool) {
	if f.size == len(f.buf) {
		evicted = f.buf[f.head]
		f.buf[f.head] = n
		f.head = (f.head + 1) % len(f.buf)
		return evicted, true
	}
	f.buf[(f.head+f.size)%len(f.buf)] = n
	f.size++
	return domain.Notification{}, false
}

// List returns the entries newest first.
func (f *Feed) List() []domain.Notification {
	out := make([]domain.Notification, 0, f.size)
	for i := f.size - 1; i >= 0; i-- {
		out = append(out, f.buf[f.at(i)])
	}
	return out
}

// Unread returns the number of unread entries.
func (f *Feed) Unread() int {
	n := 0
	for i := 0; i < f.size; i++ {
		if !f.buf[f.at(i)].Read {
			n++
		}
	}
	return n
}

// MarkRead marks the entry with id as read. It reports whether the entry exists.
func (f *Feed) MarkRead(id string) bool {
	i := f.find(id)
	if i < 0 {
		return false
	}
	f.buf[f.at(i)].Read = true
	return true
}

// MarkAllRead marks every entry read and returns how many changed.
func (f *Feed) MarkAllRead() int {
	n := 0
	for i := 0; i < f.size; i++ {
		p := &f.buf[f.at(i)]
		if !p.Read {
			p.Read = true
			n++
		}
	}
	return n
}

// Remove deletes the entry with id, preserving the order of the rest.
func (f *Feed) Remove(id string) bool {
	i := f.find(id)
	if i < 0 {
		return false
	}
	for ; i < f.size-1; i++ {
		f.buf[f.at(i)] = f.buf[f.at(i+1)]
	}
	f.buf[f.at(f.size-1)] = domain.Notification{}
	f.size--
	return true
}

// Clear empties the feed.
func (f *Feed) Clear() {
	for i := range f.buf {
		f.buf[i] = domain.Notification{}
	}
	f.head, f.size = 0, 0
}

// at maps a logical offset from the oldest entry to a buffer index.
func (f *Feed) at(i int) int { return (f.head + i) % len(f.buf) }

func (f *Feed) find(id string) int {
	for i := 0; i < f.size; i++ {
		if f.buf[f.at(i)].ID == id {
			return i
		}
	}
	return -1
}
