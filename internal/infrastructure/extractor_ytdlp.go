package infrastructure

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"go.uber.org/zap"

	"github.com/yourusername/mediadl/internal/domain"
	"github.com/yourusername/mediadl/pkg/logger"
)

// YtdlpExtractor implements domain.Extractor on top of the yt-dlp binary
type YtdlpExtractor struct {
	config      domain.ExtractorConfig
	logsDir     string
	eventLogger *logger.MultiLogger
}

// NewYtdlpExtractor creates a new yt-dlp extractor. Raw yt-dlp output is appended to
// logsDir/extractor-YYYYMMDD.log when logsDir is set.
func NewYtdlpExtractor(config domain.ExtractorConfig, logsDir string, eventLogger *logger.MultiLogger) *YtdlpExtractor {
	return &YtdlpExtractor{
		config:      config,
		logsDir:     logsDir,
		eventLogger: eventLogger,
	}
}

type probeInfo struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Extractor string `json:"extractor"`
	Ext       string `json:"ext"`
}

// Probe resolves metadata without downloading
func (e *YtdlpExtractor) Probe(ctx context.Context, url string, opts domain.OptionBundle) (*domain.MediaInfo, error) {
	if e.config.ProbeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.ProbeTimeout)
		defer cancel()
	}

	opts = e.withCookiesBrowser(opts)
	dl := e.command(opts).SkipDownload().DumpJSON()

	result, err := dl.Run(ctx, url)
	if err != nil {
		return nil, e.runError("probe", url, result, err)
	}

	line := firstJSONLine(result.Stdout)
	if line == "" {
		return nil, fmt.Errorf("no metadata returned for %s", url)
	}

	var info probeInfo
	if err := json.Unmarshal([]byte(line), &info); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}

	return &domain.MediaInfo{
		ID:        info.ID,
		Title:     info.Title,
		Extractor: info.Extractor,
		Ext:       info.Ext,
		Raw:       line,
	}, nil
}

// Download transfers the media and returns the produced file path when yt-dlp reports it
func (e *YtdlpExtractor) Download(ctx context.Context, url string, opts domain.OptionBundle, progress domain.ProgressFunc) (string, error) {
	if opts.OutputTemplate != "" {
		if err := os.MkdirAll(filepath.Dir(opts.OutputTemplate), 0755); err != nil {
			return "", fmt.Errorf("failed to create destination directory: %w", err)
		}
	}

	opts = e.withCookiesBrowser(opts)
	dl := e.command(opts).DumpJSON().NoSimulate()

	if progress != nil {
		interval := e.config.ProgressInterval
		if interval <= 0 {
			interval = 500 * time.Millisecond
		}
		meter := &speedMeter{}
		dl.Progress().ProgressFunc(interval, func(update ytdlp.ProgressUpdate) {
			progress(toProgressUpdate(update, meter, time.Now()))
		})
	}

	cmdLine := FormatCommand(e.binary(), append(opts.Args(), url)...)
	e.eventLogger.Download().Debug("Running extractor", zap.String("url", url), zap.String("command", cmdLine))

	logFile := e.openLogFile()
	if logFile != nil {
		defer logFile.Close()
		writeLogHeader(logFile, url, cmdLine)
	}

	result, err := dl.Run(ctx, url)
	if logFile != nil && result != nil {
		logFile.WriteString(result.Stderr)
	}
	if err != nil {
		if logFile != nil {
			writeLogFooter(logFile, false, err.Error())
		}
		return "", e.runError("download", url, result, err)
	}

	var path string
	if info, ierr := result.GetExtractedInfo(); ierr == nil && len(info) > 0 && info[0].Filename != nil {
		path = *info[0].Filename
	}
	if logFile != nil {
		writeLogFooter(logFile, true, path)
	}
	return path, nil
}

func (e *YtdlpExtractor) binary() string {
	if e.config.Binary == "" {
		return "yt-dlp"
	}
	return e.config.Binary
}

// withCookiesBrowser swaps the default session browser for the configured one
func (e *YtdlpExtractor) withCookiesBrowser(opts domain.OptionBundle) domain.OptionBundle {
	if opts.CookiesFromBrowser != "" && e.config.CookiesBrowser != "" {
		opts.CookiesFromBrowser = e.config.CookiesBrowser
	}
	return opts
}

// command maps an option bundle onto a go-ytdlp command
func (e *YtdlpExtractor) command(opts domain.OptionBundle) *ytdlp.Command {
	dl := ytdlp.New().
		SetExecutable(e.binary()).
		NoWarnings()

	if opts.Format != "" {
		dl.Format(opts.Format)
	}
	if opts.ExtractAudio != nil {
		dl.ExtractAudio().
			AudioFormat(opts.ExtractAudio.Codec).
			AudioQuality(opts.ExtractAudio.Quality)
	}
	if opts.NoFlatPlaylist {
		dl.NoFlatPlaylist()
	}
	if opts.Referer != "" {
		dl.AddHeaders("Referer:" + opts.Referer)
	}
	for _, k := range opts.HeaderKeys() {
		dl.AddHeaders(k + ":" + opts.Headers[k])
	}
	if opts.CookiesFromBrowser != "" {
		dl.CookiesFromBrowser(opts.CookiesFromBrowser)
	}
	if opts.OutputTemplate != "" {
		dl.Output(opts.OutputTemplate)
	}
	return dl
}

// runError keeps the yt-dlp "ERROR:" line so failures can be categorized
func (e *YtdlpExtractor) runError(op, url string, result *ytdlp.Result, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s interrupted: %w", op, err)
	}

	msg := ""
	if result != nil {
		msg = lastErrorLine(result.Stderr)
	}
	e.eventLogger.LogAppError("Extractor failed",
		zap.String("op", op),
		zap.String("url", url),
		zap.String("stderr", msg),
		zap.Error(err))

	if msg == "" {
		return fmt.Errorf("yt-dlp %s failed: %w", op, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func toProgressUpdate(update ytdlp.ProgressUpdate, meter *speedMeter, at time.Time) domain.ProgressUpdate {
	out := domain.ProgressUpdate{
		Status:          string(update.Status),
		DownloadedBytes: int64(update.DownloadedBytes),
		TotalBytes:      int64(update.TotalBytes),
	}
	out.Speed = meter.sample(out.DownloadedBytes, at, update.Started)
	return out
}

// speedMeter derives the current transfer rate from consecutive progress updates
type speedMeter struct {
	lastBytes int64
	lastAt    time.Time
}

// sample returns bytes per second since the previous sample. The first sample,
// and the first one after yt-dlp moves on to another file, use the average
// since started instead.
func (m *speedMeter) sample(downloaded int64, at, started time.Time) float64 {
	prevBytes, prevAt := m.lastBytes, m.lastAt
	m.lastBytes, m.lastAt = downloaded, at

	if !prevAt.IsZero() && downloaded >= prevBytes {
		if dt := at.Sub(prevAt).Seconds(); dt > 0 {
			return float64(downloaded-prevBytes) / dt
		}
	}
	if !started.IsZero() {
		if elapsed := at.Sub(started).Seconds(); elapsed > 0 {
			return float64(downloaded) / elapsed
		}
	}
	return 0
}

func firstJSONLine(stdout string) string {
	scanner := bufio.NewScanner(strings.NewReader(stdout))
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); strings.HasPrefix(line, "{") {
			return line
		}
	}
	return ""
}

func lastErrorLine(stderr string) string {
	lines := strings.Split(stderr, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); strings.HasPrefix(line, "ERROR:") {
			return line
		}
	}
	return ""
}

// openLogFile opens today's extractor log; nil when disabled or unavailable
func (e *YtdlpExtractor) openLogFile() *os.File {
	if e.logsDir == "" {
		return nil
	}
	if err := os.MkdirAll(e.logsDir, 0755); err != nil {
		return nil
	}
	path := filepath.Join(e.logsDir, "extractor-"+time.Now().Format("20060102")+".log")
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil
	}
	return file
}

func writeLogHeader(file *os.File, url, cmdLine string) {
	fmt.Fprintf(file, "\n=== [%s] %s ===\n$ %s\n", time.Now().Format("2006-01-02 15:04:05"), url, cmdLine)
}

func writeLogFooter(file *os.File, success bool, message string) {
	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	fmt.Fprintf(file, "[%s] %s: %s\n=== END ===\n", time.Now().Format("2006-01-02 15:04:05"), status, message)
}
