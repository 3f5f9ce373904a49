package middleware

import (
	"net/http"
)

// responseWriter wraps an http.ResponseWriter and records the HTTP status
// and size of the response body for the request logger.
type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func newResponseWriter(rw http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: rw,
		status:         http.StatusOK,
	}
}

func (w *responseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}
