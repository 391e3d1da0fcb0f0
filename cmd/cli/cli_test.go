package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/mediadl/internal/domain"
)

const watchedURL = "https://www.youtube.com/watch?v=abc"

func TestEventsURL(t *testing.T) {
	endpoint, err := eventsURL("http://localhost:8090/", []string{watchedURL})
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8090/api/v1/events?url=https%3A%2F%2Fwww.youtube.com%2Fwatch%3Fv%3Dabc", endpoint)

	endpoint, err = eventsURL("https://media.local", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "wss://media.local/api/v1/events", endpoint)
}

func TestWatcher_CompletesWatchedURL(t *testing.T) {
	w := newWatcher(context.Background(), []string{watchedURL}, io.Discard)
	defer w.Close()

	w.handle(domain.TitleEvent(watchedURL, "Some Video"))
	w.handle(domain.ProgressEvent(watchedURL, 40))
	w.handle(domain.ProgressEvent("https://other.example/x", 10))
	assert.False(t, w.finished())
	assert.Len(t, w.bars, 1)
	assert.Equal(t, int64(40), w.bars[watchedURL].percent)

	w.handle(domain.CompletedEvent(watchedURL, "Some Video.mp4"))
	require.True(t, w.finished())
	w.pc.Wait()

	require.Len(t, w.results, 1)
	assert.Equal(t, "completed", w.results[0].outcome)

	var out bytes.Buffer
	w.printSummary(&out)
	assert.Equal(t, "completed Some Video: Some Video.mp4\n", out.String())
}

func TestWatcher_IgnoresRejectedResubmission(t *testing.T) {
	w := newWatcher(context.Background(), []string{watchedURL}, io.Discard)
	defer w.Close()

	w.handle(domain.ProgressEvent(watchedURL, 20))
	w.handle(domain.RejectedEvent(watchedURL, domain.ErrDuplicateRequest.Error()))
	assert.False(t, w.finished())
	assert.Empty(t, w.results)

	w.handle(domain.CompletedEvent(watchedURL, "Clip.mp4"))
	require.True(t, w.finished())
	require.Len(t, w.results, 1)
	assert.Equal(t, "completed", w.results[0].outcome)
}

func TestWatcher_CancellationFinishesOnce(t *testing.T) {
	w := newWatcher(context.Background(), nil, io.Discard)
	defer w.Close()

	w.handle(domain.StatusEvent(watchedURL, domain.MessageCancelling))
	w.handle(domain.ErrorEvent(watchedURL, domain.MessageCancelled))

	assert.False(t, w.finished(), "following every URL never finishes")
	require.Len(t, w.results, 1)
	assert.Equal(t, "cancelled", w.results[0].outcome)
}

func TestWatcher_FailureReportsMessage(t *testing.T) {
	w := newWatcher(context.Background(), []string{watchedURL}, io.Discard)
	defer w.Close()

	w.handle(domain.ErrorEvent(watchedURL, "Video unavailable"))
	require.True(t, w.finished())
	assert.Equal(t, watchResult{url: watchedURL, outcome: "failed", detail: "Video unavailable"}, w.results[0])
}

func TestAPIRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/downloads/stats":
			w.Write([]byte(`{"total":3,"pending":1,"completed":2}`))
		default:
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte(`{"error":"download already finished"}`))
		}
	}))
	defer srv.Close()

	previous := serverURL
	serverURL = srv.URL
	defer func() { serverURL = previous }()

	var stats domain.DownloadStats
	require.NoError(t, apiRequest(http.MethodGet, "/api/v1/downloads/stats", nil, &stats))
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.Completed)

	err := apiRequest(http.MethodPost, "/api/v1/downloads/x/cancel", map[string]string{"a": "b"}, nil)
	require.Error(t, err)
	assert.Equal(t, "download already finished (HTTP 409)", err.Error())
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KiB", formatBytes(1536))
	assert.Equal(t, "2.0 GiB", formatBytes(2<<30))
}

func TestIsLocalServer(t *testing.T) {
	assert.True(t, isLocalServer("http://localhost:8090"))
	assert.True(t, isLocalServer("http://127.0.0.1:8090"))
	assert.True(t, isLocalServer("http://[::1]:8090"))
	assert.False(t, isLocalServer("http://media.lan:8090"))
	assert.False(t, isLocalServer("://bad"))
}

func TestServerState(t *testing.T) {
	ready := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !ready {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	previous := serverURL
	serverURL = srv.URL
	defer func() { serverURL = previous }()

	up, err := serverState()
	assert.True(t, up)
	assert.NoError(t, err)

	ready = false
	_, err = serverState()
	assert.ErrorIs(t, err, errServerStopping)
}
