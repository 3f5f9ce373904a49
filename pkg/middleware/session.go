package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/justinas/alice"

	middlewareapi "github.com/gatewarden/gatewarden/pkg/apis/middleware"
	sessionsapi "github.com/gatewarden/gatewarden/pkg/apis/sessions"
	"github.com/gatewarden/gatewarden/pkg/logger"
)

// NewSessionLoader attaches the client's authentication session record to
// the request scope, creating a fresh record on first access. Session state
// is the foundation of every authorization decision, so a session backend
// that cannot be reached fails the request closed instead of letting it
// continue without state.
func NewSessionLoader(store sessionsapi.SessionStore) alice.Constructor {
	return func(next http.Handler) http.Handler {
		return loadSession(store, next)
	}
}

func loadSession(store sessionsapi.SessionStore, next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		scope := middlewareapi.GetRequestScope(req)
		// If scope is nil, this will panic.
		// A scope should always be injected before this handler is called.
		if scope.Session != nil {
			// The session was already loaded, pass to the next handler
			next.ServeHTTP(rw, req)
			return
		}

		session, err := store.Load(req)
		switch {
		case err == nil:
		case errors.Is(err, sessionsapi.ErrNotFound):
			// Lazily create a reset record on first access. It is only
			// persisted once a flow actually mutates it.
			session = sessionsapi.NewState(time.Now())
		default:
			logger.Errorf("Error loading session: %v. Please check the session backend is running and reachable.", err)
			rw.WriteHeader(http.StatusInternalServerError)
			return
		}

		scope.Session = session
		next.ServeHTTP(rw, req)
	})
}
