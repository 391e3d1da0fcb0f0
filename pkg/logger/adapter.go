package logger

import (
	"go.uber.org/zap"
)

// LoggerAdapter pairs the process logger with the optional category files
type LoggerAdapter struct {
	process     *zap.Logger
	multiLogger *MultiLogger
}

// NewLoggerAdapter creates a new logger adapter; multiLogger may be nil
func NewLoggerAdapter(process *zap.Logger, multiLogger *MultiLogger) *LoggerAdapter {
	if process == nil {
		process = zap.NewNop()
	}
	return &LoggerAdapter{process: process, multiLogger: multiLogger}
}

func (la *LoggerAdapter) pick(category LogCategory) *zap.Logger {
	if la.multiLogger == nil {
		return la.process
	}
	return la.multiLogger.GetLogger(category)
}

// Web returns the HTTP access logger
func (la *LoggerAdapter) Web() *zap.Logger { return la.pick(CategoryWeb) }

// Download returns the per-request logger
func (la *LoggerAdapter) Download() *zap.Logger { return la.pick(CategoryDownload) }

// Queue returns the queue logger
func (la *LoggerAdapter) Queue() *zap.Logger { return la.pick(CategoryQueue) }

// General returns the process logger
func (la *LoggerAdapter) General() *zap.Logger { return la.process }

// LogError writes msg to the process logger and, when enabled, the error category
func (la *LoggerAdapter) LogError(msg string, fields ...zap.Field) {
	la.process.Error(msg, fields...)
	if la.multiLogger != nil {
		la.multiLogger.LogAppError(msg, fields...)
	}
}

// MultiLogger returns the category logger, nil when disabled
func (la *LoggerAdapter) MultiLogger() *MultiLogger {
	return la.multiLogger
}

// Sync flushes both loggers
func (la *LoggerAdapter) Sync() error {
	err := la.process.Sync()
	if la.multiLogger != nil {
		if merr := la.multiLogger.Sync(); merr != nil {
			err = merr
		}
	}
	return err
}
