package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/mediadl/pkg/logger"
)

func TestForDownload(t *testing.T) {
	assert.Nil(t, forDownload(""))

	keep := forDownload("https://a/1")
	assert.True(t, keep(logger.LogEntry{Fields: map[string]interface{}{"url": "https://a/1"}}))
	assert.False(t, keep(logger.LogEntry{Fields: map[string]interface{}{"url": "https://a/2"}}))
	assert.False(t, keep(logger.LogEntry{Message: "no fields"}))
}

func TestPump_FiltersAndStopsOnClose(t *testing.T) {
	source := make(chan int, 4)
	source <- 1
	source <- 2
	source <- 3
	close(source)

	done := make(chan error, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			done <- err
			return
		}
		defer conn.Close()
		done <- pump(conn, source, func(v int) bool { return v != 2 })
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	var got []int
	for {
		var v int
		if err := conn.ReadJSON(&v); err != nil {
			break
		}
		got = append(got, v)
	}

	assert.Equal(t, []int{1, 3}, got)
	assert.NoError(t, <-done)
}
