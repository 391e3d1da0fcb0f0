package infrastructure

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/mediadl/internal/domain"
)

type recordedCommand struct {
	name string
	args []string
}

func newTestNotifier(config domain.NotificationConfig, err error) (*NotificationService, *[]recordedCommand) {
	var calls []recordedCommand
	n := NewNotificationService(config, nil)
	n.run = func(name string, args ...string) error {
		calls = append(calls, recordedCommand{name: name, args: args})
		return err
	}
	return n, &calls
}

func TestNotificationService_Disabled(t *testing.T) {
	n, calls := newTestNotifier(domain.NotificationConfig{Enabled: false, Method: "notify-send"}, nil)

	n.HandleEvent(domain.CompletedEvent("https://a/1", "Song.mp3"))

	assert.Empty(t, *calls)
}

func TestNotificationService_HandleEvent(t *testing.T) {
	n, calls := newTestNotifier(domain.NotificationConfig{Enabled: true, Method: "notify-send"}, nil)

	n.HandleEvent(domain.ProgressEvent("https://a/1", 50))
	n.HandleEvent(domain.StatusEvent("https://a/1", "Fetching metadata..."))
	n.HandleEvent(domain.CompletedEvent("https://a/1", "Song.mp3"))
	n.HandleEvent(domain.ErrorEvent("https://a/2", "login required"))

	require.Len(t, *calls, 2)
	assert.Equal(t, "notify-send", (*calls)[0].name)
	assert.Equal(t, []string{"--app-name=mediadl", "Download Completed", "Song.mp3"}, (*calls)[0].args)
	assert.Equal(t, []string{"--app-name=mediadl", "Download Failed", "https://a/2: login required"}, (*calls)[1].args)
}

func TestNotificationService_SkipsRejectedAndCancelled(t *testing.T) {
	n, calls := newTestNotifier(domain.NotificationConfig{Enabled: true, Method: "notify-send"}, nil)

	n.HandleEvent(domain.RejectedEvent("https://a/1", domain.ErrDuplicateRequest.Error()))
	n.HandleEvent(domain.ErrorEvent("https://a/1", domain.MessageCancelled))

	assert.Empty(t, *calls)
}

func TestNotificationService_ListenDrainsChannel(t *testing.T) {
	n, calls := newTestNotifier(domain.NotificationConfig{Enabled: true, Method: "notify-send"}, nil)

	events := make(chan domain.Event, 3)
	events <- domain.RejectedEvent("https://a/1", domain.ErrDuplicateRequest.Error())
	events <- domain.CompletedEvent("https://a/1", "Clip.mp4")
	events <- domain.ErrorEvent("https://a/2", "blocked by copyright")
	close(events)

	// returns once the channel is closed and drained
	n.Listen(events)

	require.Len(t, *calls, 2)
	assert.Equal(t, "Clip.mp4", (*calls)[0].args[2])
	assert.Equal(t, "https://a/2: blocked by copyright", (*calls)[1].args[2])
}

func TestNotificationService_OSAScriptEscapesQuotes(t *testing.T) {
	n, calls := newTestNotifier(domain.NotificationConfig{Enabled: true, Method: "osascript"}, nil)

	require.NoError(t, n.Send(`Done`, `The "Best" Song.mp3`))

	require.Len(t, *calls, 1)
	assert.Equal(t, []string{"-e", `display notification "The \"Best\" Song.mp3" with title "Done"`}, (*calls)[0].args)
}

func TestNotificationService_ReturnsRunnerError(t *testing.T) {
	n, _ := newTestNotifier(domain.NotificationConfig{Enabled: true, Method: "notify-send"}, errors.New("no display"))

	assert.Error(t, n.Send("t", "m"))
}

func TestNotificationService_UnknownMethod(t *testing.T) {
	n, calls := newTestNotifier(domain.NotificationConfig{Enabled: true, Method: "pigeon"}, nil)

	assert.NoError(t, n.Send("t", "m"))
	assert.Empty(t, *calls)
}
