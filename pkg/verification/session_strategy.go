package verification

import (
	"net/http"

	middlewareapi "github.com/gatewarden/gatewarden/pkg/apis/middleware"
	"github.com/gatewarden/gatewarden/pkg/authorization"
)

// SessionStrategy resolves the identity from the authentication session
// record previously attached to the request scope. It never mutates the
// session.
type SessionStrategy struct{}

// NewSessionStrategy constructs a session backed verification strategy.
func NewSessionStrategy() *SessionStrategy {
	return &SessionStrategy{}
}

// ResolveIdentity implements Strategy. It succeeds only once the session
// holds at least a verified first factor.
func (s *SessionStrategy) ResolveIdentity(req *http.Request) (*Result, error) {
	scope := middlewareapi.GetRequestScope(req)
	if scope == nil || scope.Session == nil {
		return nil, ErrUnauthenticated
	}

	session := scope.Session
	if !session.Authenticated() {
		return nil, ErrUnauthenticated
	}

	return &Result{
		Identity: authorization.Identity{
			User:   session.User,
			Groups: session.Groups,
		},
		Email: session.Email,
		Level: session.AuthLevel,
	}, nil
}
