package domain

import "time"

// EventType is the kind of notification emitted for a download
type EventType string

const (
	EventProgress  EventType = "progress"
	EventStatus    EventType = "status"
	EventTitle     EventType = "title"
	EventCompleted EventType = "completed"
	EventError     EventType = "error"
)

// Messages carried by cancellation events
const (
	MessageCancelling = "Cancelling download..."
	MessageCancelled  = "download cancelled"
)

// Event is one notification on the event channel, scoped to a URL
type Event struct {
	Type     EventType `json:"type"`
	URL      string    `json:"url"`
	Percent  int       `json:"percent,omitempty"`
	Message  string    `json:"message,omitempty"`
	Title    string    `json:"title,omitempty"`
	Filename string    `json:"filename,omitempty"`
	// Rejected marks an error about a submission that was refused. It says
	// nothing about the request already running for the URL.
	Rejected bool      `json:"rejected,omitempty"`
	Time     time.Time `json:"time"`
}

// IsTerminal reports whether no further events are expected for the URL after this one
func (e Event) IsTerminal() bool {
	if e.Rejected {
		return false
	}
	return e.Type == EventCompleted || e.Type == EventError
}

func ProgressEvent(url string, percent int) Event {
	return Event{Type: EventProgress, URL: url, Percent: percent, Time: time.Now()}
}

func StatusEvent(url, message string) Event {
	return Event{Type: EventStatus, URL: url, Message: message, Time: time.Now()}
}

func TitleEvent(url, title string) Event {
	return Event{Type: EventTitle, URL: url, Title: title, Time: time.Now()}
}

func CompletedEvent(url, filename string) Event {
	return Event{Type: EventCompleted, URL: url, Filename: filename, Time: time.Now()}
}

func ErrorEvent(url, message string) Event {
	return Event{Type: EventError, URL: url, Message: message, Time: time.Now()}
}

// RejectedEvent reports a refused submission for url
func RejectedEvent(url, message string) Event {
	e := ErrorEvent(url, message)
	e.Rejected = true
	return e
}
