package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/yourusername/mediadl/internal/domain"
)

const progressStatusDownloading = "downloading"

// runWorker drives one request from pending to a terminal state
func (qm *QueueManager) runWorker(e *entry) {
	defer qm.workerWg.Done()
	defer qm.finalize(e)
	defer func() {
		if r := recover(); r != nil {
			qm.multiLogger.LogAppError("Download worker panicked",
				zap.String("url", e.req.URL),
				zap.Any("panic", r),
				zap.Stack("stack"))
			qm.fail(e, fmt.Errorf("internal error: %v", r))
		}
	}()

	qm.saveHistory(e)

	qm.mu.Lock()
	url, destDir, kind := e.req.URL, e.req.DestDir, e.req.Kind
	qm.mu.Unlock()

	platform := domain.ClassifyPlatform(url)
	qm.mu.Lock()
	e.req.Platform = platform
	qm.mu.Unlock()
	qm.emitStatus(e, fmt.Sprintf("Detected platform: %s", platform))
	qm.multiLogger.LogDownloadEvent("platform_detected", zap.String("url", url), zap.String("platform", string(platform)))

	opts := domain.BuildOptions(platform, kind)
	opts.OutputTemplate = filepath.Join(destDir, "%(title)s.%(ext)s")

	if !qm.acquireSlot(e) {
		qm.emitCancelled(e)
		return
	}
	defer qm.releaseSlot()

	if qm.isCancelled(e) {
		qm.emitCancelled(e)
		return
	}

	qm.emitStatus(e, "Fetching metadata...")
	info, err := qm.extractor.Probe(qm.runCtx, url, opts)
	if err != nil {
		qm.fail(e, err)
		return
	}

	if title := domain.SanitizeTitle(info.Title); title != "" {
		qm.mu.Lock()
		e.req.Title = title
		qm.mu.Unlock()
		qm.emitIfActive(e, domain.TitleEvent(url, title))
	}

	if qm.isCancelled(e) {
		qm.emitCancelled(e)
		return
	}

	qm.mu.Lock()
	started := e.req.MarkDownloading()
	fileName := e.req.FinalFileName()
	qm.mu.Unlock()
	if !started {
		qm.emitCancelled(e)
		return
	}
	qm.saveHistory(e)

	target := filepath.Join(destDir, fileName)
	if qm.restoreFromCache(url, kind, target) {
		qm.complete(e, fileName, target, true)
		return
	}

	produced, err := qm.extractor.Download(qm.runCtx, url, opts, qm.progressFunc(e))
	if err != nil {
		qm.fail(e, err)
		return
	}

	path := qm.placeOutput(produced, target, kind)
	qm.complete(e, fileName, path, false)
}

// acquireSlot waits for a concurrency slot. It returns false if the request is
// cancelled while waiting.
func (qm *QueueManager) acquireSlot(e *entry) bool {
	if qm.slots == nil {
		return true
	}
	select {
	case qm.slots <- struct{}{}:
		return true
	case <-e.ctx.Done():
		return false
	}
}

func (qm *QueueManager) releaseSlot() {
	if qm.slots != nil {
		<-qm.slots
	}
}

func (qm *QueueManager) isCancelled(e *entry) bool {
	qm.mu.Lock()
	defer qm.mu.Unlock()
	return e.req.IsCancelled()
}

// emitIfActive publishes event unless the request already reached a terminal state
func (qm *QueueManager) emitIfActive(e *entry, event domain.Event) {
	e.emitMu.Lock()
	defer e.emitMu.Unlock()

	qm.mu.Lock()
	terminal := e.req.IsTerminal()
	qm.mu.Unlock()
	if !terminal {
		qm.bus.Publish(event)
	}
}

func (qm *QueueManager) emitStatus(e *entry, message string) {
	qm.emitIfActive(e, domain.StatusEvent(e.req.URL, message))
}

// emitCancelled reports a cancellation observed at a checkpoint
func (qm *QueueManager) emitCancelled(e *entry) {
	e.emitMu.Lock()
	defer e.emitMu.Unlock()

	qm.bus.Publish(domain.ErrorEvent(e.req.URL, domain.MessageCancelled))
	qm.multiLogger.LogDownloadEvent("download_cancelled", zap.String("url", e.req.URL))
}

// progressFunc returns the extractor callback for a request. Updates are dropped
// once the request leaves the downloading state.
func (qm *QueueManager) progressFunc(e *entry) domain.ProgressFunc {
	url := e.req.URL
	return func(update domain.ProgressUpdate) {
		if update.Status != progressStatusDownloading {
			return
		}
		total := update.TotalBytes
		if total <= 0 {
			total = update.TotalBytesEstimate
		}
		if total <= 0 {
			return
		}

		percent := int(float64(update.DownloadedBytes) / float64(total) * 100)
		if percent < 0 {
			percent = 0
		} else if percent > 100 {
			percent = 100
		}

		e.emitMu.Lock()
		defer e.emitMu.Unlock()

		qm.mu.Lock()
		if e.req.Status != domain.StatusDownloading {
			qm.mu.Unlock()
			return
		}
		e.req.Progress = percent
		qm.mu.Unlock()

		qm.bus.Publish(domain.ProgressEvent(url, percent))
		qm.bus.Publish(domain.StatusEvent(url, FormatProgressStatus(percent, update.Speed)))
	}
}

// FormatProgressStatus renders "Downloading... N%" with the speed in MB/s when known
func FormatProgressStatus(percent int, speed float64) string {
	msg := fmt.Sprintf("Downloading... %d%%", percent)
	if speed > 0 {
		msg += fmt.Sprintf(" (%.1f MB/s)", speed/1024/1024)
	}
	return msg
}

// complete marks the request completed unless it was cancelled meanwhile
func (qm *QueueManager) complete(e *entry, fileName, path string, fromCache bool) {
	if !qm.publishTerminal(e, func(req *domain.DownloadRequest) (domain.Event, bool) {
		if !req.MarkCompleted(fileName, path) {
			return domain.Event{}, false
		}
		req.FromCache = fromCache
		return domain.CompletedEvent(req.URL, fileName), true
	}) {
		return
	}

	url, kind := e.req.URL, e.req.Kind
	qm.multiLogger.LogQueueEvent("download_completed",
		zap.String("url", url),
		zap.String("file_path", path),
		zap.Bool("from_cache", fromCache))
	qm.saveHistory(e)

	if !fromCache && qm.cache != nil && path != "" {
		if !qm.cache.Store(url, kind, path) {
			qm.multiLogger.Download().Warn("Failed to cache download", zap.String("url", url))
		}
	}
}

// fail marks the request failed with a categorized message. Cancelled requests
// are left alone and reaped silently.
func (qm *QueueManager) fail(e *entry, err error) {
	extErr := domain.NewExtractionError(err)
	if !qm.publishTerminal(e, func(req *domain.DownloadRequest) (domain.Event, bool) {
		if !req.MarkFailed(extErr.Message) {
			return domain.Event{}, false
		}
		return domain.ErrorEvent(req.URL, extErr.Message), true
	}) {
		return
	}

	qm.multiLogger.LogQueueEvent("download_failed",
		zap.String("url", e.req.URL),
		zap.String("category", string(extErr.Category)),
		zap.Error(err))
	qm.saveHistory(e)
}

// publishTerminal applies transition under the guard and publishes the resulting
// event while still holding the entry's emission lock
func (qm *QueueManager) publishTerminal(e *entry, transition func(req *domain.DownloadRequest) (domain.Event, bool)) bool {
	e.emitMu.Lock()
	defer e.emitMu.Unlock()

	qm.mu.Lock()
	event, ok := transition(e.req)
	qm.mu.Unlock()
	if ok {
		qm.bus.Publish(event)
	}
	return ok
}

// finalize reaps cancelled requests
func (qm *QueueManager) finalize(e *entry) {
	qm.mu.Lock()
	reap := e.req.IsCancelled()
	if reap && qm.entries[e.req.URL] == e {
		delete(qm.entries, e.req.URL)
	}
	url := e.req.URL
	qm.mu.Unlock()

	e.cancel()
	if reap {
		qm.saveHistory(e)
		qm.multiLogger.LogQueueEvent("download_reaped", zap.String("url", url))
	}
}

func (qm *QueueManager) saveHistory(e *entry) {
	if qm.history == nil {
		return
	}
	qm.mu.Lock()
	snapshot := *e.req
	qm.mu.Unlock()

	if err := qm.history.Save(&snapshot); err != nil {
		qm.multiLogger.LogAppError("Failed to save download history",
			zap.String("url", snapshot.URL),
			zap.Error(err))
	}
}

// restoreFromCache copies a cached artifact to target. It returns false on a miss
// or when the copy fails.
func (qm *QueueManager) restoreFromCache(url string, kind domain.MediaKind, target string) bool {
	if qm.cache == nil {
		return false
	}
	cached, ok := qm.cache.Lookup(url, kind)
	if !ok {
		return false
	}
	if err := copyFile(qm.fs, cached, target); err != nil {
		qm.multiLogger.Download().Warn("Failed to restore cached file",
			zap.String("url", url),
			zap.String("cached", cached),
			zap.Error(err))
		return false
	}
	qm.multiLogger.LogDownloadEvent("cache_hit", zap.String("url", url), zap.String("path", target))
	return true
}

// placeOutput moves the file produced by the extractor to target. Post-processing
// may have changed the reported extension, so the kind's extension is tried first.
// It returns the final path, or produced when nothing could be found.
func (qm *QueueManager) placeOutput(produced, target string, kind domain.MediaKind) string {
	if produced == "" {
		if ok, _ := afero.Exists(qm.fs, target); ok {
			return target
		}
		return ""
	}

	candidates := []string{
		strings.TrimSuffix(produced, filepath.Ext(produced)) + "." + kind.Extension(),
		produced,
	}
	for _, candidate := range candidates {
		if ok, _ := afero.Exists(qm.fs, candidate); !ok {
			continue
		}
		if candidate == target {
			return target
		}
		if err := qm.fs.Rename(candidate, target); err != nil {
			qm.multiLogger.Download().Warn("Failed to rename output",
				zap.String("from", candidate),
				zap.String("to", target),
				zap.Error(err))
			return candidate
		}
		return target
	}
	return produced
}

func copyFile(fs afero.Fs, src, dst string) error {
	if err := fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	in, err := fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		fs.Remove(dst)
		return err
	}
	return out.Close()
}
