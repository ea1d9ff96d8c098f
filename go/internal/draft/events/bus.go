package events

import (
	"errors"
	"sync"
)

// ErrAlreadySubscribed is returned when a second consumer tries to subscribe to a Bus.
var ErrAlreadySubscribed = errors.New("event bus already has a subscriber")

// Bus is an ordered, single-subscriber event stream. Publish never blocks the
// emitting goroutine; events queue until the subscriber drains them.
type Bus struct {
	mu         sync.Mutex
	queue      []Event
	closed     bool
	subscribed bool

	signal chan struct{}
	done   chan struct{}
	out    chan Event
}

// NewBus creates a bus and starts its delivery goroutine.
func NewBus() *Bus {
	b := &Bus{
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
		out:    make(chan Event),
	}
	go b.pump()
	return b
}

// Publish enqueues an event. It reports false once the bus is closed.
func (b *Bus) Publish(e Event) bool {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return false
	}
	b.queue = append(b.queue, e)
	b.mu.Unlock()

	select {
	case b.signal <- struct{}{}:
	default:
	}
	return true
}

// Subscribe returns the delivery channel. Only one subscriber is allowed.
// The channel is closed when the bus is closed.
func (b *Bus) Subscribe() (<-chan Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subscribed {
		return nil, ErrAlreadySubscribed
	}
	b.subscribed = true
	return b.out, nil
}

// Close stops delivery. Pending events are dropped.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.done)
}

// Pending returns the number of queued, undelivered events.
func (b *Bus) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

func (b *Bus) pump() {
	defer close(b.out)
	for {
		b.mu.Lock()
		if b.closed {
			b.queue = nil
			b.mu.Unlock()
			return
		}
		if len(b.queue) == 0 {
			b.mu.Unlock()
			select {
			case <-b.signal:
			case <-b.done:
			}
			continue
		}
		e := b.queue[0]
		b.queue[0] = Event{}
		b.queue = b.queue[1:]
		b.mu.Unlock()

		select {
		case b.out <- e:
		case <-b.done:
			return
		}
	}
}
