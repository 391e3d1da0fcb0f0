package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEvicter struct {
	calls int32
}

func (c *countingEvicter) Evict() int {
	atomic.AddInt32(&c.calls, 1)
	return 1
}

func (c *countingEvicter) Calls() int32 {
	return atomic.LoadInt32(&c.calls)
}

func TestCacheJanitor_EvictsOnInterval(t *testing.T) {
	evicter := &countingEvicter{}
	janitor := NewCacheJanitor(evicter, 5*time.Millisecond, nil)

	require.NoError(t, janitor.Start(context.Background()))
	assert.Error(t, janitor.Start(context.Background()))

	require.Eventually(t, func() bool { return evicter.Calls() >= 2 }, time.Second, time.Millisecond)

	janitor.Stop()
	calls := evicter.Calls()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, calls, evicter.Calls())

	// stopping twice is harmless and the janitor can be restarted
	janitor.Stop()
	require.NoError(t, janitor.Start(context.Background()))
	janitor.Stop()
}

func TestCacheJanitor_StopsWithContext(t *testing.T) {
	evicter := &countingEvicter{}
	janitor := NewCacheJanitor(evicter, time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, janitor.Start(ctx))
	cancel()

	done := make(chan struct{})
	go func() {
		janitor.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop on context cancellation")
	}
	janitor.Stop()
}

func TestCacheJanitor_InvalidInterval(t *testing.T) {
	janitor := NewCacheJanitor(&countingEvicter{}, 0, nil)
	assert.Error(t, janitor.Start(context.Background()))
}

func TestCacheJanitor_RunOnce(t *testing.T) {
	evicter := &countingEvicter{}
	janitor := NewCacheJanitor(evicter, time.Hour, nil)
	assert.Equal(t, 1, janitor.RunOnce())
	assert.Equal(t, int32(1), evicter.Calls())
}
