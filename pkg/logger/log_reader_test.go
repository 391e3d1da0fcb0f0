package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLog(t *testing.T, fs afero.Fs, reader *LogReader, category LogCategory, lines string) {
	require.NoError(t, afero.WriteFile(fs, reader.GetLogPath(category, time.Now()), []byte(lines), 0644))
}

func TestLogReader_GetLogPath(t *testing.T) {
	reader := NewLogReader(afero.NewMemMapFs(), "/logs")
	date := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, filepath.Join("/logs", "queue-20240309.log"), reader.GetLogPath(CategoryQueue, date))
}

func TestLogReader_ReadLogs(t *testing.T) {
	fs := afero.NewMemMapFs()
	reader := NewLogReader(fs, "/logs")
	writeLog(t, fs, reader, CategoryQueue,
		`{"level":"info","ts":"2024-03-09T12:00:00.000Z","msg":"Request submitted","category":"queue","url":"https://a/1"}`+"\n"+
			"not json\n"+
			"\n"+
			`{"level":"info","ts":"2024-03-09T12:00:01.000Z","msg":"Request completed","category":"queue","url":"https://a/1"}`+"\n")

	entries, err := reader.ReadLogs(CategoryQueue, time.Now(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "Request submitted", entries[0].Message)
	assert.Equal(t, "info", entries[0].Level)
	assert.Equal(t, "2024-03-09T12:00:00.000Z", entries[0].Timestamp)
	assert.Equal(t, "queue", entries[0].Category)
	assert.Equal(t, "https://a/1", entries[0].Fields["url"])
	assert.NotContains(t, entries[0].Fields, "category")

	assert.Equal(t, "not json", entries[1].Message)

	last, err := reader.ReadLogs(CategoryQueue, time.Now(), 1)
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, "Request completed", last[0].Message)
}

func TestLogReader_ReadLogsMissingFile(t *testing.T) {
	reader := NewLogReader(afero.NewMemMapFs(), "/logs")

	entries, err := reader.ReadLogs(CategoryError, time.Now(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLogReader_SearchLogs(t *testing.T) {
	fs := afero.NewMemMapFs()
	reader := NewLogReader(fs, "/logs")
	writeLog(t, fs, reader, CategoryDownload,
		`{"level":"info","msg":"Download started","url":"https://youtu.be/abc"}`+"\n"+
			`{"level":"error","msg":"Download failed","url":"https://vimeo.com/1"}`+"\n")

	byField, err := reader.SearchLogs(CategoryDownload, time.Now(), "YOUTU.BE", 0)
	require.NoError(t, err)
	require.Len(t, byField, 1)
	assert.Equal(t, "Download started", byField[0].Message)

	byLevel, err := reader.SearchLogs(CategoryDownload, time.Now(), "error", 0)
	require.NoError(t, err)
	require.Len(t, byLevel, 1)
	assert.Equal(t, "Download failed", byLevel[0].Message)

	none, err := reader.SearchLogs(CategoryDownload, time.Now(), "nothing", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLogReader_TailLogs(t *testing.T) {
	fs := afero.NewMemMapFs()
	reader := NewLogReader(fs, "/logs")
	reader.pollInterval = 10 * time.Millisecond
	writeLog(t, fs, reader, CategoryWeb, `{"msg":"old"}`+"\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	entries := make(chan LogEntry, 4)
	done := make(chan error, 1)
	go func() { done <- reader.TailLogs(ctx, CategoryWeb, entries) }()

	// let the tail seek to the end before appending
	time.Sleep(50 * time.Millisecond)
	f, err := fs.OpenFile(reader.GetLogPath(CategoryWeb, time.Now()), os.O_WRONLY|os.O_APPEND, 0644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"level":"info","msg":"new"}` + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	select {
	case entry := <-entries:
		assert.Equal(t, "new", entry.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("no tailed entry")
	}

	cancel()
	assert.NoError(t, <-done)
}
