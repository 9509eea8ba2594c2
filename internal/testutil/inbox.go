package testutil

import (
	"sync"
	"time"

	"github.com/mcoot/rpsduel/internal/model"
)

// Inbox is a connection handle that records every event it is sent
type Inbox struct {
	mu     sync.Mutex
	events []model.Event
	closed bool
	notify chan struct{}
}

// NewInbox creates an empty Inbox
func NewInbox() *Inbox {
	return &Inbox{notify: make(chan struct{}, 1)}
}

// Send records ev unless the inbox is closed
func (i *Inbox) Send(ev model.Event) bool {
	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return false
	}
	i.events = append(i.events, ev)
	i.mu.Unlock()

	select {
	case i.notify <- struct{}{}:
	default:
	}
	return true
}

// Close marks the inbox closed
func (i *Inbox) Close() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.closed = true
}

// Closed reports whether Close was called
func (i *Inbox) Closed() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.closed
}

// Events returns a copy of the recorded events
func (i *Inbox) Events() []model.Event {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]model.Event, len(i.events))
	copy(out, i.events)
	return out
}

// OfType returns the recorded events of the given type
func (i *Inbox) OfType(t model.EventType) []model.Event {
	var out []model.Event
	for _, ev := range i.Events() {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// WaitFor blocks until an event of type t has been recorded or the timeout
// expires, returning the first such event.
func (i *Inbox) WaitFor(t model.EventType, timeout time.Duration) (model.Event, bool) {
	deadline := time.After(timeout)
	for {
		if evs := i.OfType(t); len(evs) > 0 {
			return evs[0], true
		}
		select {
		case <-i.notify:
		case <-deadline:
			return model.Event{}, false
		}
	}
}

// Reset discards recorded events
func (i *Inbox) Reset() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.events = nil
}
