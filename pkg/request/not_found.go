package request

import (
	"log/slog"
	"net/http"
)

// NotFoundHandler returns a handler that returns a 404 response.
func NotFoundHandler(l *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		Encode(l, w, http.StatusNotFound, StatusMessage(http.StatusNotFound, r))
	}
}

// MethodNotAllowedHandler returns a handler that returns a 405 response.
func MethodNotAllowedHandler(l *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		Encode(l, w, http.StatusMethodNotAllowed, StatusMessage(http.StatusMethodNotAllowed, r))
	}
}

// InternalServerError writes a 500 response without exposing the cause.
func InternalServerError(l *slog.Logger, w http.ResponseWriter, r *http.Request) {
	Encode(l, w, http.StatusInternalServerError, StatusMessage(http.StatusInternalServerError, r))
}
