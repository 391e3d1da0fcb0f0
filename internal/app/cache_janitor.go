package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/mediadl/pkg/logger"
)

// Evicter is the part of the content cache the janitor drives
type Evicter interface {
	Evict() int
}

// CacheJanitor runs cache eviction on a fixed interval
type CacheJanitor struct {
	cache       Evicter
	interval    time.Duration
	multiLogger *logger.MultiLogger

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewCacheJanitor creates a janitor; it does nothing until Start
func NewCacheJanitor(cache Evicter, interval time.Duration, multiLogger *logger.MultiLogger) *CacheJanitor {
	return &CacheJanitor{
		cache:       cache,
		interval:    interval,
		multiLogger: multiLogger,
	}
}

// Start launches the eviction loop
func (j *CacheJanitor) Start(ctx context.Context) error {
	if j.interval <= 0 {
		return fmt.Errorf("invalid eviction interval: %s", j.interval)
	}

	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return fmt.Errorf("cache janitor already running")
	}
	j.running = true
	j.stopChan = make(chan struct{})
	j.mu.Unlock()

	j.multiLogger.LogQueueEvent("cache_janitor_started", zap.Duration("interval", j.interval))

	j.wg.Add(1)
	go j.run(ctx, j.stopChan)
	return nil
}

// Stop ends the loop and waits for a running pass to finish
func (j *CacheJanitor) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	j.running = false
	close(j.stopChan)
	j.mu.Unlock()

	j.wg.Wait()
}

// RunOnce evicts immediately and returns the number of removed entries
func (j *CacheJanitor) RunOnce() int {
	removed := j.cache.Evict()
	if removed > 0 {
		j.multiLogger.LogQueueEvent("cache_evicted", zap.Int("removed", removed))
	}
	return removed
}

func (j *CacheJanitor) run(ctx context.Context, stop <-chan struct{}) {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.multiLogger.LogQueueEvent("cache_janitor_stopped", zap.String("reason", "context_cancelled"))
			return
		case <-stop:
			j.multiLogger.LogQueueEvent("cache_janitor_stopped", zap.String("reason", "stop_signal"))
			return
		case <-ticker.C:
			j.RunOnce()
		}
	}
}
