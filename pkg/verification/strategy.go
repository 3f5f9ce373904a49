// Package verification establishes who is making the current request.
//
// There are exactly two ways to do that: a persisted session record, or
// inline Basic credentials checked synchronously for this one request. The
// two are modelled as a closed set of Strategy implementations selected by
// a pure predicate on the request, so the selection logic is testable on
// its own.
package verification

import (
	"errors"
	"net/http"

	"github.com/gatewarden/gatewarden/pkg/apis/sessions"
	"github.com/gatewarden/gatewarden/pkg/authentication/basic"
	"github.com/gatewarden/gatewarden/pkg/authorization"
)

// ErrUnauthenticated is returned when a strategy cannot produce a verified
// identity. The client can recover by logging in.
var ErrUnauthenticated = errors.New("not authenticated")

// ErrDenied is returned when a strategy resolved a valid identity but policy
// forbids that identity from reaching the requested resource. Logging in
// again cannot recover this, so callers must not bounce the client back to
// the login portal.
var ErrDenied = errors.New("access denied by policy")

// Result is the identity a strategy resolved together with the
// authentication level that identity holds for this request.
type Result struct {
	Identity authorization.Identity
	Email    string
	Level    sessions.AuthLevel
}

// Strategy resolves the identity making the current request.
type Strategy interface {
	ResolveIdentity(req *http.Request) (*Result, error)
}

// InlineCredentialHeader returns the inline Basic credential header attached
// to the request, or "" if there is none. The upstream proxy forwards the
// client's Proxy-Authorization header; a plain Authorization header is
// accepted as well.
func InlineCredentialHeader(req *http.Request) string {
	for _, name := range []string{"Proxy-Authorization", "Authorization"} {
		if value := req.Header.Get(name); basic.IsBasicHeader(value) {
			return value
		}
	}
	return ""
}
