// Package notify is the in-process publish/subscribe channel collections
// publish their mutations through, so several consumers observe changes
// without polling the substrate.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/crmkit/backend/domain"
)

// Handler receives published events synchronously.
type Handler func(domain.Event)

// Notifier dispatches events to subscribers synchronously and in subscription
// order. There is no delivery guarantee across process boundaries.
type Notifier struct {
	mu   sync.RWMutex
	next int
	subs []subscription
}

type subscription struct {
	id int
	fn Handler
}

// New creates an empty notifier.
func New() *Notifier {
	return &Notifier{}
}

// Subscribe registers a handler and returns its unsubscribe function.
// Unsubscribing twice is harmless.
func (n *Notifier) Subscribe(fn Handler) func() {
	if fn == nil {
		return func() {}
	}
	n.mu.Lock()
	id := n.next
	n.next++
	n.subs = append(n.subs, subscription{id: id, fn: fn})
	n.mu.Unlock()

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		for i, s := range n.subs {
			if s.id == id {
				n.subs = append(n.subs[:i], n.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish stamps the event (id, timestamp) and delivers it to every
// subscriber in subscription order before returning.
func (n *Notifier) Publish(evt domain.Event) {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.At.IsZero() {
		evt.At = time.Now()
	}

	n.mu.RLock()
	subs := make([]subscription, len(n.subs))
	copy(subs, n.subs)
	n.mu.RUnlock()

	for _, s := range subs {
		s.fn(evt)
	}
}
