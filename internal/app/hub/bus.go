/*
Package hub implements the connection/session core.

This file defines the in-process multicast bus. Every live connection and the
relay task subscribe; any component may publish. Delivery is fan-out: each
subscriber receives every envelope and filters by addressing fields itself.
Publishing never blocks and never propagates a failure from one subscriber to
another; a subscriber whose buffer is full loses the envelope (logged).
Per-subscriber delivery order matches publish order.
*/
package hub

import (
	"sync"

	"prismhub/internal/pkg/logx"
)

// subscriberBuffer bounds each subscriber's pending envelopes.
const subscriberBuffer = 100

// Bus is an in-process multicast channel over Envelope values.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan Envelope
}

// Subscription is one subscriber's handle on the bus. C is closed on Cancel.
type Subscription struct {
	C  <-chan Envelope
	id int
	b  *Bus
}

// NewBus returns an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Envelope)}
}

// Subscribe registers a new subscriber. The caller must Cancel the
// subscription when done with it.
func (b *Bus) Subscribe() *Subscription {
	ch := make(chan Envelope, subscriberBuffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	return &Subscription{C: ch, id: id, b: b}
}

// Cancel removes the subscription and closes its channel. Safe to call more
// than once.
func (s *Subscription) Cancel() {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	if ch, ok := s.b.subs[s.id]; ok {
		delete(s.b.subs, s.id)
		close(ch)
	}
}

// Publish delivers env to every current subscriber without blocking.
// Subscribers whose buffers are full miss this envelope.
func (b *Bus) Publish(env Envelope) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subs {
		select {
		case ch <- env:
		default:
			logx.Warn("Bus subscriber buffer full, dropping envelope", "subscriber", id)
		}
	}
}

// SubscriberCount returns the number of live subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
