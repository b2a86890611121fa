package notifier

import "sync"

// Event identifies a broadcast signal.
type Event string

// EventTokenExpired is published by the request gateway when a refresh
// attempt fails irrecoverably. The session manager consumes it to force
// logout. This is the only lateral, non-call-stack path in the client.
const EventTokenExpired Event = "auth:token-expired"

// Bus is a process-wide broadcast channel. Publish fans the event out to
// every live subscriber without blocking: a subscriber that has not drained
// its buffer misses the event rather than stalling the publisher.
type Bus struct {
	mu      sync.Mutex
	nextID  int
	subs    map[int]chan Event
	closed  bool
	bufSize int
}

// New creates a bus with a per-subscriber buffer of one event.
func New() *Bus {
	return &Bus{
		subs:    make(map[int]chan Event),
		bufSize: 1,
	}
}

// Subscribe registers a listener and returns its channel plus an unsubscribe
// function. Unsubscribing closes the channel.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, b.bufSize)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.subs[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
}

// Publish delivers the event to all current subscribers.
func (b *Bus) Publish(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Close tears down the bus and closes every subscriber channel.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
