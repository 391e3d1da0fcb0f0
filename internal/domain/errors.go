package domain

import (
	"errors"
	"strings"
)

var (
	// ErrDuplicateRequest is returned when a URL already has an entry in the queue
	ErrDuplicateRequest = errors.New("URL is already in the queue")

	// ErrManagerStopped is returned when submitting to a stopped queue manager
	ErrManagerStopped = errors.New("queue manager is stopped")

	// ErrNotFound is returned when no request exists for a URL
	ErrNotFound = errors.New("download not found")

	// ErrNotTerminal is returned when removing a request that is still running
	ErrNotTerminal = errors.New("download is not in a terminal state")

	// ErrInvalidRequest is returned for a submission without a URL or with an unknown kind
	ErrInvalidRequest = errors.New("invalid download request")
)

// ErrorCategory is the user-facing class of an extraction failure
type ErrorCategory string

const (
	CategoryUnavailable   ErrorCategory = "unavailable"
	CategoryCopyright     ErrorCategory = "copyright"
	CategoryLoginRequired ErrorCategory = "login_required"
	CategoryUnknown       ErrorCategory = "unknown"
)

// ExtractionError wraps any failure raised by the extractor
type ExtractionError struct {
	Category ErrorCategory
	Message  string
	Err      error
}

// NewExtractionError classifies err by its message and wraps it
func NewExtractionError(err error) *ExtractionError {
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return ee
	}
	category, msg := ClassifyExtractionMessage(err.Error())
	return &ExtractionError{Category: category, Message: msg, Err: err}
}

func (e *ExtractionError) Error() string {
	return e.Message
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// ClassifyExtractionMessage maps raw extractor output to a category and a user-facing message.
// Matching is by lowercase substring, so it only holds while the library keeps its wording.
func ClassifyExtractionMessage(raw string) (ErrorCategory, string) {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "unavailable video"):
		return CategoryUnavailable, "video unavailable or private"
	case strings.Contains(lower, "copyright"):
		return CategoryCopyright, "blocked by copyright"
	case strings.Contains(lower, "cookies"):
		return CategoryLoginRequired, "login required"
	default:
		return CategoryUnknown, raw
	}
}
