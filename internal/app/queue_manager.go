package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/yourusername/mediadl/internal/domain"
	"github.com/yourusername/mediadl/pkg/logger"
)

// entry is the manager's state for one URL
type entry struct {
	req    *domain.DownloadRequest
	ctx    context.Context // cancelled by Cancel; observed at checkpoints only
	cancel context.CancelFunc

	// emitMu serializes "check status then publish" sequences for this URL
	emitMu sync.Mutex
}

// QueueManager accepts download requests and runs one worker per request.
// mu guards entries and every request's fields; lock order is emitMu before mu.
type QueueManager struct {
	extractor   domain.Extractor
	cache       domain.ContentCache
	history     domain.HistoryRepository
	bus         *EventBus
	config      *domain.DownloadConfig
	multiLogger *logger.MultiLogger
	fs          afero.Fs

	mu      sync.Mutex
	entries map[string]*entry
	stopped bool

	// runCtx is handed to the extractor and only cancelled when Stop gives up waiting
	runCtx    context.Context
	runCancel context.CancelFunc
	slots     chan struct{}
	workerWg  sync.WaitGroup
}

// NewQueueManager creates a new queue manager. cache and history may be nil.
func NewQueueManager(
	extractor domain.Extractor,
	cache domain.ContentCache,
	history domain.HistoryRepository,
	bus *EventBus,
	config *domain.DownloadConfig,
	multiLogger *logger.MultiLogger,
) *QueueManager {
	if bus == nil {
		bus = NewEventBus()
	}
	if config == nil {
		config = &domain.DefaultConfig().Download
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	qm := &QueueManager{
		extractor:   extractor,
		cache:       cache,
		history:     history,
		bus:         bus,
		config:      config,
		multiLogger: multiLogger,
		fs:          afero.NewOsFs(),
		entries:     make(map[string]*entry),
		runCtx:      runCtx,
		runCancel:   runCancel,
	}
	if config.MaxConcurrent > 0 {
		qm.slots = make(chan struct{}, config.MaxConcurrent)
	}
	return qm
}

// Events returns the event bus the manager publishes on
func (qm *QueueManager) Events() *EventBus {
	return qm.bus
}

// Submit queues url and starts its worker. A URL that still has an entry is rejected
// with ErrDuplicateRequest and a rejected error event; the existing entry and its
// event stream are left untouched.
func (qm *QueueManager) Submit(url, destDir string, kind domain.MediaKind) (*domain.DownloadRequest, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("%w: url is required", domain.ErrInvalidRequest)
	}
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown media kind %q", domain.ErrInvalidRequest, kind)
	}
	if destDir == "" {
		destDir = qm.config.KindDir(kind)
	}

	qm.mu.Lock()
	if qm.stopped {
		qm.mu.Unlock()
		return nil, domain.ErrManagerStopped
	}
	if _, exists := qm.entries[url]; exists {
		qm.mu.Unlock()
		qm.bus.Publish(domain.RejectedEvent(url, domain.ErrDuplicateRequest.Error()))
		qm.multiLogger.LogQueueEvent("download_duplicate", zap.String("url", url))
		return nil, domain.ErrDuplicateRequest
	}

	req := domain.NewDownloadRequest(url, destDir, kind)
	ctx, cancel := context.WithCancel(qm.runCtx)
	e := &entry{req: req, ctx: ctx, cancel: cancel}
	qm.entries[url] = e
	snapshot := *req

	qm.workerWg.Add(1)
	qm.mu.Unlock()

	qm.multiLogger.LogQueueEvent("download_submitted",
		zap.String("id", snapshot.ID),
		zap.String("url", url),
		zap.String("kind", string(kind)),
		zap.String("dest_dir", destDir))

	go qm.runWorker(e)
	return &snapshot, nil
}

// Cancel marks a non-terminal request cancelled. The worker notices at its next
// checkpoint; an extractor call already in flight runs to completion.
// It returns false when url has no entry or the entry is already terminal.
func (qm *QueueManager) Cancel(url string) bool {
	qm.mu.Lock()
	e, ok := qm.entries[url]
	qm.mu.Unlock()
	if !ok {
		return false
	}

	e.emitMu.Lock()
	defer e.emitMu.Unlock()

	qm.mu.Lock()
	if qm.entries[url] != e || !e.req.MarkCancelled() {
		qm.mu.Unlock()
		return false
	}
	e.cancel()
	qm.mu.Unlock()

	qm.bus.Publish(domain.StatusEvent(url, domain.MessageCancelling))
	qm.multiLogger.LogQueueEvent("download_cancelled", zap.String("url", url))
	return true
}

// Get returns a copy of the request for url
func (qm *QueueManager) Get(url string) (*domain.DownloadRequest, error) {
	qm.mu.Lock()
	defer qm.mu.Unlock()

	e, ok := qm.entries[url]
	if !ok {
		return nil, domain.ErrNotFound
	}
	snapshot := *e.req
	return &snapshot, nil
}

// GetByID returns a copy of the request with the given ID
func (qm *QueueManager) GetByID(id string) (*domain.DownloadRequest, error) {
	qm.mu.Lock()
	defer qm.mu.Unlock()

	for _, e := range qm.entries {
		if e.req.ID == id {
			snapshot := *e.req
			return &snapshot, nil
		}
	}
	return nil, domain.ErrNotFound
}

// List returns copies of every request, oldest first
func (qm *QueueManager) List() []*domain.DownloadRequest {
	qm.mu.Lock()
	out := make([]*domain.DownloadRequest, 0, len(qm.entries))
	for _, e := range qm.entries {
		snapshot := *e.req
		out = append(out, &snapshot)
	}
	qm.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].URL < out[j].URL
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Remove drops a completed or failed request so its URL can be submitted again.
// Cancelled requests are reaped by their worker once it exits, so removing one
// fails with ErrNotTerminal until then.
func (qm *QueueManager) Remove(url string) error {
	qm.mu.Lock()
	defer qm.mu.Unlock()

	e, ok := qm.entries[url]
	if !ok {
		return domain.ErrNotFound
	}
	if !e.req.IsTerminal() {
		return domain.ErrNotTerminal
	}
	if e.req.IsCancelled() {
		return fmt.Errorf("%w: cancellation still in progress", domain.ErrNotTerminal)
	}
	delete(qm.entries, url)
	return nil
}

// Stats counts the requests currently held by the manager
func (qm *QueueManager) Stats() domain.DownloadStats {
	qm.mu.Lock()
	defer qm.mu.Unlock()

	var stats domain.DownloadStats
	for _, e := range qm.entries {
		stats.Add(e.req.Status, 1)
	}
	return stats
}

// IsRunning returns whether the manager still accepts requests
func (qm *QueueManager) IsRunning() bool {
	qm.mu.Lock()
	defer qm.mu.Unlock()
	return !qm.stopped
}

// Stop stops accepting requests, cancels every active request and waits for the
// workers. When ctx expires first, in-flight extractor calls are interrupted.
func (qm *QueueManager) Stop(ctx context.Context) error {
	qm.mu.Lock()
	if qm.stopped {
		qm.mu.Unlock()
		return nil
	}
	qm.stopped = true
	var active []string
	for url, e := range qm.entries {
		if !e.req.IsTerminal() {
			active = append(active, url)
		}
	}
	qm.mu.Unlock()

	qm.multiLogger.LogQueueEvent("queue_stopping", zap.Int("active", len(active)))
	for _, url := range active {
		qm.Cancel(url)
	}

	done := make(chan struct{})
	go func() {
		qm.workerWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		qm.runCancel()
		qm.multiLogger.LogQueueEvent("queue_stopped")
		return nil
	case <-ctx.Done():
		qm.runCancel()
		qm.multiLogger.LogQueueEvent("queue_stopped", zap.String("reason", "timeout"))
		return ctx.Err()
	}
}
