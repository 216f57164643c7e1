package events

import (
	"sync"
	"time"

	"github.com/gracecoe/placement-portal/src/models"
)

// Kind tags an auth event. The set is closed: sign-in/out transitions plus
// the two reconciliation outcomes.
type Kind string

const (
	SignedIn    Kind = "signed_in"
	SignedOut   Kind = "signed_out"
	UserCreated Kind = "user_created"
	UserUpdated Kind = "user_updated"
)

// Event is the payload delivered to subscribers. Identity is nil for
// SignedOut.
type Event struct {
	Kind      Kind
	Identity  *models.CanonicalIdentity
	Timestamp time.Time
}

// Handler receives events. Handlers run synchronously on the publisher's
// goroutine and must be idempotent: independent call sites (login form,
// OAuth callback, session refresh) may publish overlapping notifications
// for the same logical transition.
type Handler func(Event)

// Publisher is the write side of the bus.
type Publisher interface {
	Publish(event Event)
}

type subscriber struct {
	id      int
	kind    Kind
	handler Handler
}

// Bus is an in-process auth notification channel. Dispatch is synchronous,
// in subscription order, with no queueing and no delivery guarantee beyond
// "delivered to whoever is currently subscribed". Safe for concurrent use.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   []subscriber
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for one event kind and returns its
// unsubscribe function. Unsubscribing twice is a no-op.
func (b *Bus) Subscribe(kind Kind, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs = append(b.subs, subscriber{id: id, kind: kind, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// SubscribeAll registers a handler for every event kind.
func (b *Bus) SubscribeAll(handler Handler) func() {
	return b.Subscribe("", handler)
}

// Publish delivers the event to all matching subscribers in registration
// order. Stamps the event time if the caller left it zero.
func (b *Bus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.Lock()
	matched := make([]Handler, 0, len(b.subs))
	for _, s := range b.subs {
		if s.kind == "" || s.kind == event.Kind {
			matched = append(matched, s.handler)
		}
	}
	b.mu.Unlock()

	// Handlers run outside the lock so they can subscribe or unsubscribe.
	for _, h := range matched {
		h(event)
	}
}
