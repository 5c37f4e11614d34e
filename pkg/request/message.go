package request

import (
	"fmt"
	"net/http"
)

// Message is the JSON body of every non-data response on the monitoring server.
type Message struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

// NewMessage creates a message for status. The text is formatted when args are given.
func NewMessage(status int, message string, args ...any) *Message {
	if len(args) > 0 {
		message = fmt.Sprintf(message, args...)
	}
	return &Message{
		Status:  status,
		Message: message,
	}
}

// StatusMessage creates a message carrying the standard text of status for the request path.
func StatusMessage(status int, r *http.Request) *Message {
	msg := NewMessage(status, http.StatusText(status))
	if r != nil && r.URL != nil {
		msg.Path = r.URL.Path
	}
	return msg
}
