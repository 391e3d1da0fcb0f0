package logger

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewMultiLogger_RequiresLogsDir(t *testing.T) {
	_, err := NewMultiLogger(MultiLoggerConfig{Level: "info"})
	assert.Error(t, err)
}

func TestMultiLogger_WritesCategoryFiles(t *testing.T) {
	dir := t.TempDir()
	ml, err := NewMultiLogger(MultiLoggerConfig{Level: "info", LogsDir: dir})
	require.NoError(t, err)

	ml.LogQueueEvent("Request submitted", zap.String("url", "https://a/1"))
	ml.LogDownloadEvent("Detected platform", zap.String("platform", "YouTube"))
	ml.LogAppError("boom", zap.String("url", "https://a/1"))
	ml.Error().Info("below error level")
	require.NoError(t, ml.Close())

	reader := NewLogReader(afero.NewOsFs(), dir)

	queue, err := reader.ReadLogs(CategoryQueue, time.Now(), 0)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, "Request submitted", queue[0].Message)
	assert.Equal(t, "https://a/1", queue[0].Fields["url"])

	download, err := reader.ReadLogs(CategoryDownload, time.Now(), 0)
	require.NoError(t, err)
	require.Len(t, download, 1)

	errs, err := reader.ReadLogs(CategoryError, time.Now(), 0)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, "boom", errs[0].Message)
	assert.Equal(t, "error", errs[0].Level)
}

func TestMultiLogger_RotatesOnDateChange(t *testing.T) {
	dir := t.TempDir()
	ml, err := NewMultiLogger(MultiLoggerConfig{Level: "info", LogsDir: dir})
	require.NoError(t, err)
	defer ml.Close()

	tomorrow := time.Now().Add(24 * time.Hour)
	ml.now = func() time.Time { return tomorrow }
	ml.LogQueueEvent("next day")

	assert.FileExists(t, filepath.Join(dir, "queue-"+tomorrow.Format(dateLayout)+".log"))
}

func TestMultiLogger_NilIsNoop(t *testing.T) {
	var ml *MultiLogger

	assert.NotPanics(t, func() {
		ml.LogQueueEvent("ignored")
		ml.LogAppError("ignored")
		ml.Web().Info("ignored")
	})
	assert.NoError(t, ml.Sync())
	assert.NoError(t, ml.Close())
	assert.Empty(t, ml.GetLogsDir())
}

func TestLogCategory_IsValid(t *testing.T) {
	for _, c := range Categories {
		assert.True(t, c.IsValid())
	}
	assert.False(t, LogCategory("general").IsValid())
}

func TestLoggerAdapter_FallsBackToProcessLogger(t *testing.T) {
	process := zap.NewNop()
	adapter := NewLoggerAdapter(process, nil)

	assert.Same(t, process, adapter.Web())
	assert.Same(t, process, adapter.Queue())
	assert.Nil(t, adapter.MultiLogger())
}
