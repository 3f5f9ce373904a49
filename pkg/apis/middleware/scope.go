package middleware

import (
	"context"
	"net/http"

	"github.com/gatewarden/gatewarden/pkg/apis/sessions"
)

type scopeKey string

// RequestScopeKey is the key under which the request scope is stored in the
// request context.
const RequestScopeKey scopeKey = "request-scope"

// RequestScope contains information regarding the request that is being
// made. The RequestScope is used to pass information between different
// middlewares within the chain.
type RequestScope struct {
	// ReverseProxy tracks whether the gateway is operating behind a reverse
	// proxy, and should therefore trust X-Forwarded-* style headers.
	ReverseProxy bool

	// RequestID is the unique identifier of this request, for logging.
	RequestID string

	// Session is the authentication session record attached to this client,
	// if one was loaded or lazily created.
	Session *sessions.State
}

// GetRequestScope returns the current request scope from the given request,
// or nil if no scope has been injected.
func GetRequestScope(req *http.Request) *RequestScope {
	scope := req.Context().Value(RequestScopeKey)
	if scope == nil {
		return nil
	}
	return scope.(*RequestScope)
}

// AddRequestScope adds a RequestScope to a request.
func AddRequestScope(req *http.Request, scope *RequestScope) *http.Request {
	ctx := context.WithValue(req.Context(), RequestScopeKey, scope)
	return req.WithContext(ctx)
}
