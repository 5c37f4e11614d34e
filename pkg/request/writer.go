package request

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Jacobbrewer1/ticketpanel/pkg/logging"
)

// ClientWriter records the status code written to the client.
type ClientWriter struct {
	http.ResponseWriter
	statusCode int
}

// NewClientWriter wraps w. The status code defaults to 200.
func NewClientWriter(w http.ResponseWriter) *ClientWriter {
	return &ClientWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (c *ClientWriter) WriteHeader(code int) {
	c.statusCode = code
	c.ResponseWriter.WriteHeader(code)
}

// StatusCode is the status code written to the client.
func (c *ClientWriter) StatusCode() int {
	return c.statusCode
}

// Encode writes v as JSON with the status code.
func Encode(l *slog.Logger, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		l.Error("Error encoding response", slog.String(logging.KeyError, err.Error()))
	}
}
