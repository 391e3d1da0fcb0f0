package infrastructure

import (
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/yourusername/mediadl/internal/domain"
)

// commandRunner runs an external notifier
type commandRunner func(name string, args ...string) error

func runCommand(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

// NotificationService sends desktop notifications for terminal download events
type NotificationService struct {
	config domain.NotificationConfig
	logger *zap.Logger
	run    commandRunner
}

// NewNotificationService creates a new notification service
func NewNotificationService(config domain.NotificationConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		config: config,
		logger: logger,
		run:    runCommand,
	}
}

// Listen notifies for every event received until events is closed. Run it on its
// own goroutine so notifier processes never block the publisher.
func (n *NotificationService) Listen(events <-chan domain.Event) {
	for event := range events {
		n.HandleEvent(event)
	}
}

// HandleEvent notifies for completed downloads and real failures. Refused
// submissions and cancellations the user asked for stay silent.
func (n *NotificationService) HandleEvent(event domain.Event) {
	switch event.Type {
	case domain.EventCompleted:
		n.Send("Download Completed", event.Filename)
	case domain.EventError:
		if event.Rejected || event.Message == domain.MessageCancelled {
			return
		}
		n.Send("Download Failed", fmt.Sprintf("%s: %s", truncateString(event.URL, 40), event.Message))
	}
}

// Send sends a notification using the configured method
func (n *NotificationService) Send(title, message string) error {
	if !n.config.Enabled {
		return nil
	}

	var err error
	switch n.config.Method {
	case "osascript":
		script := fmt.Sprintf(`display notification %s with title %s`, appleScriptString(message), appleScriptString(title))
		if n.config.Sound {
			script += ` sound name "Glass"`
		}
		err = n.run("osascript", "-e", script)
	case "notify-send":
		err = n.run("notify-send", "--app-name=mediadl", title, message)
	default:
		n.logger.Warn("Unknown notification method", zap.String("method", n.config.Method))
		return nil
	}

	if err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("method", n.config.Method),
			zap.Error(err))
		return err
	}
	n.logger.Debug("Notification sent", zap.String("title", title))
	return nil
}

func appleScriptString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
