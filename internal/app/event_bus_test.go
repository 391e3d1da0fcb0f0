package app

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/mediadl/internal/domain"
)

func TestEventBus_SubscriptionOrder(t *testing.T) {
	bus := NewEventBus()
	var calls []string

	bus.Subscribe(func(e domain.Event) { calls = append(calls, "first:"+e.Message) })
	bus.Subscribe(func(e domain.Event) { calls = append(calls, "second:"+e.Message) })

	bus.Publish(domain.StatusEvent("https://a/1", "one"))
	bus.Publish(domain.StatusEvent("https://a/1", "two"))

	assert.Equal(t, []string{"first:one", "second:one", "first:two", "second:two"}, calls)
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus()
	count := 0

	unsubscribe := bus.Subscribe(func(domain.Event) { count++ })
	bus.Publish(domain.ProgressEvent("https://a/1", 10))
	unsubscribe()
	unsubscribe()
	bus.Publish(domain.ProgressEvent("https://a/1", 20))

	assert.Equal(t, 1, count)
	assert.Equal(t, 0, bus.Len())
}

func TestEventBus_SubscribeChan(t *testing.T) {
	bus := NewEventBus()
	events, unsubscribe := bus.SubscribeChan(2)

	bus.Publish(domain.TitleEvent("https://a/1", "Song"))
	bus.Publish(domain.CompletedEvent("https://a/1", "Song.mp3"))
	// buffer is full, dropped for this subscriber
	bus.Publish(domain.ErrorEvent("https://a/1", "late"))

	first := <-events
	second := <-events
	assert.Equal(t, domain.EventTitle, first.Type)
	assert.Equal(t, domain.EventCompleted, second.Type)

	unsubscribe()
	_, open := <-events
	assert.False(t, open)

	// publishing after close must not panic
	assert.NotPanics(t, func() { bus.Publish(domain.StatusEvent("https://a/1", "x")) })
}

func TestEventBus_ConcurrentPublishAndUnsubscribe(t *testing.T) {
	bus := NewEventBus()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		events, unsubscribe := bus.SubscribeChan(4)
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range events {
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				bus.Publish(domain.ProgressEvent("https://a/1", j))
			}
			unsubscribe()
		}()
	}

	wg.Wait()
	require.Equal(t, 0, bus.Len())
}
