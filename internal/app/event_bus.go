package app

import (
	"sync"

	"github.com/yourusername/mediadl/internal/domain"
)

// EventHandler receives events on the publishing goroutine
type EventHandler func(event domain.Event)

type subscription struct {
	id      int
	handler EventHandler

	// channel subscribers only
	mu      sync.Mutex
	ch      chan domain.Event
	closed  bool
	dropped int
}

func (s *subscription) deliver(event domain.Event) {
	if s.handler != nil {
		s.handler(event)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- event:
	default:
		s.dropped++
	}
}

func (s *subscription) close() {
	if s.ch == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// EventBus fans download events out to subscribers.
// Handlers run synchronously in subscription order, so the events of one URL
// reach every subscriber in emission order. Handlers must not block for long.
type EventBus struct {
	mu     sync.RWMutex
	nextID int
	subs   []*subscription
}

// NewEventBus creates an empty event bus
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe registers a handler and returns its unsubscribe function
func (b *EventBus) Subscribe(handler EventHandler) func() {
	return b.add(&subscription{handler: handler})
}

// SubscribeChan returns a buffered channel of events. Events that do not fit in the
// buffer are dropped for this subscriber only. The channel is closed on unsubscribe.
func (b *EventBus) SubscribeChan(buffer int) (<-chan domain.Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	sub := &subscription{ch: make(chan domain.Event, buffer)}
	return sub.ch, b.add(sub)
}

func (b *EventBus) add(sub *subscription) func() {
	b.mu.Lock()
	b.nextID++
	sub.id = b.nextID
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(sub.id) })
	}
}

func (b *EventBus) remove(id int) {
	b.mu.Lock()
	var removed *subscription
	for i, sub := range b.subs {
		if sub.id == id {
			removed = sub
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			break
		}
	}
	b.mu.Unlock()

	if removed != nil {
		removed.close()
	}
}

// Publish delivers event to every current subscriber
func (b *EventBus) Publish(event domain.Event) {
	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()

	for _, sub := range subs {
		sub.deliver(event)
	}
}

// Len returns the number of subscribers
func (b *EventBus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
