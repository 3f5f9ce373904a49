package middleware

import (
	"net/http"
	"time"

	"github.com/justinas/alice"

	middlewareapi "github.com/gatewarden/gatewarden/pkg/apis/middleware"
	"github.com/gatewarden/gatewarden/pkg/logger"
)

// NewRequestLogger logs one line per completed request on the request log
// stream.
func NewRequestLogger() alice.Constructor {
	return requestLogger
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		url := *req.URL
		start := time.Now()
		mrw := newResponseWriter(rw)

		next.ServeHTTP(mrw, req)

		logger.PrintReq(getUser(req), req, url, start, mrw.status, mrw.size)
	})
}

func getUser(req *http.Request) string {
	scope := middlewareapi.GetRequestScope(req)
	if scope != nil && scope.Session != nil {
		return scope.Session.User
	}
	return ""
}
