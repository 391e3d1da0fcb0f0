package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogCategory represents different log categories
type LogCategory string

const (
	CategoryDownload LogCategory = "download" // Per-request lifecycle and extractor runs
	CategoryQueue    LogCategory = "queue"    // Queue manager events
	CategoryError    LogCategory = "error"    // Application errors
	CategoryWeb      LogCategory = "web"      // HTTP access log
)

// Categories lists every category in display order
var Categories = []LogCategory{CategoryDownload, CategoryQueue, CategoryError, CategoryWeb}

// IsValid reports whether c is a known category
func (c LogCategory) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

const dateLayout = "20060102"

// MultiLogger writes one JSON log file per category per day.
// A nil *MultiLogger is valid and discards everything.
type MultiLogger struct {
	config      MultiLoggerConfig
	mu          sync.RWMutex
	loggers     map[LogCategory]*zap.Logger
	files       []*os.File
	currentDate string
	now         func() time.Time
}

// MultiLoggerConfig contains configuration for multi-output logging
type MultiLoggerConfig struct {
	Level   string // debug, info, warn, error
	LogsDir string
}

// NewMultiLogger creates the logs directory and opens today's category files
func NewMultiLogger(config MultiLoggerConfig) (*MultiLogger, error) {
	if config.LogsDir == "" {
		return nil, fmt.Errorf("logs_dir must be specified")
	}
	if err := os.MkdirAll(config.LogsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	ml := &MultiLogger{config: config, now: time.Now}
	if err := ml.open(ml.now().Format(dateLayout)); err != nil {
		return nil, err
	}
	return ml, nil
}

func (ml *MultiLogger) open(date string) error {
	level, err := zapcore.ParseLevel(ml.config.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	loggers := make(map[LogCategory]*zap.Logger, len(Categories))
	var files []*os.File
	for _, category := range Categories {
		categoryLevel := level
		if category == CategoryError {
			categoryLevel = zapcore.ErrorLevel
		}

		path := filepath.Join(ml.config.LogsDir, fmt.Sprintf("%s-%s.log", category, date))
		file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			for _, f := range files {
				f.Close()
			}
			return fmt.Errorf("failed to open %s log: %w", category, err)
		}
		files = append(files, file)
		loggers[category] = zap.New(zapcore.NewCore(categoryEncoder(), zapcore.AddSync(file), categoryLevel)).
			With(zap.String("category", string(category)))
	}

	old := ml.files
	ml.loggers = loggers
	ml.files = files
	ml.currentDate = date
	for _, f := range old {
		f.Close()
	}
	return nil
}

func categoryEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.CallerKey = ""
	return zapcore.NewJSONEncoder(cfg)
}

// rotate reopens the category files when the date changed
func (ml *MultiLogger) rotate() {
	date := ml.now().Format(dateLayout)

	ml.mu.RLock()
	current := ml.currentDate
	ml.mu.RUnlock()
	if date == current {
		return
	}

	ml.mu.Lock()
	defer ml.mu.Unlock()
	if date != ml.currentDate {
		if err := ml.open(date); err != nil {
			fmt.Fprintf(os.Stderr, "log rotation failed: %v\n", err)
		}
	}
}

// GetLogsDir returns the logs directory path
func (ml *MultiLogger) GetLogsDir() string {
	if ml == nil {
		return ""
	}
	return ml.config.LogsDir
}

// GetLogger returns the logger for a category
func (ml *MultiLogger) GetLogger(category LogCategory) *zap.Logger {
	if ml == nil {
		return zap.NewNop()
	}
	ml.rotate()

	ml.mu.RLock()
	defer ml.mu.RUnlock()
	if logger, ok := ml.loggers[category]; ok {
		return logger
	}
	return ml.loggers[CategoryError]
}

func (ml *MultiLogger) Download() *zap.Logger { return ml.GetLogger(CategoryDownload) }
func (ml *MultiLogger) Queue() *zap.Logger    { return ml.GetLogger(CategoryQueue) }
func (ml *MultiLogger) Error() *zap.Logger    { return ml.GetLogger(CategoryError) }
func (ml *MultiLogger) Web() *zap.Logger      { return ml.GetLogger(CategoryWeb) }

// LogAppError logs an application-level error (Go errors, panics)
func (ml *MultiLogger) LogAppError(msg string, fields ...zap.Field) {
	ml.Error().Error(msg, fields...)
}

// LogQueueEvent logs a queue lifecycle event
func (ml *MultiLogger) LogQueueEvent(event string, fields ...zap.Field) {
	ml.Queue().Info(event, fields...)
}

// LogDownloadEvent logs a per-request event
func (ml *MultiLogger) LogDownloadEvent(event string, fields ...zap.Field) {
	ml.Download().Info(event, fields...)
}

// Sync flushes all loggers
func (ml *MultiLogger) Sync() error {
	if ml == nil {
		return nil
	}
	ml.mu.RLock()
	defer ml.mu.RUnlock()

	var lastErr error
	for _, logger := range ml.loggers {
		if err := logger.Sync(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Close flushes and closes all category files
func (ml *MultiLogger) Close() error {
	if ml == nil {
		return nil
	}
	err := ml.Sync()

	ml.mu.Lock()
	defer ml.mu.Unlock()
	for _, f := range ml.files {
		if cerr := f.Close(); cerr != nil {
			err = cerr
		}
	}
	ml.files = nil
	return err
}
