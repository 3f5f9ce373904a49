package main

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	middlewareapi "github.com/gatewarden/gatewarden/pkg/apis/middleware"
	"github.com/gatewarden/gatewarden/pkg/apis/sessions"
	"github.com/gatewarden/gatewarden/pkg/authentication/basic"
	"github.com/gatewarden/gatewarden/pkg/authorization"
	"github.com/gatewarden/gatewarden/pkg/logger"
	requestutil "github.com/gatewarden/gatewarden/pkg/requests/util"
	"github.com/gatewarden/gatewarden/pkg/verification"
)

// Verify answers the reverse proxy's auth_request subrequest for one proxied
// request. The proxy forwards the original target in X-Original-Url (or the
// X-Forwarded-* trio); a 200 lets the request through, anything else blocks
// it.
func (g *Gateway) Verify(rw http.ResponseWriter, req *http.Request) {
	original, err := requestutil.GetOriginalURL(req)
	if err != nil {
		logger.Errorf("Error resolving the original request URL: %v", err)
		rw.WriteHeader(http.StatusBadRequest)
		return
	}

	inline := verification.InlineCredentialHeader(req) != ""
	strategy := g.sessionStrategy
	if inline {
		strategy = g.basicStrategy
	}

	result, err := strategy.ResolveIdentity(req)
	switch {
	case err == nil:
	case errors.Is(err, basic.ErrMalformedCredentials):
		logger.PrintAuthf("", req, logger.AuthError, "Malformed inline credentials")
		rw.WriteHeader(http.StatusUnauthorized)
		return
	case errors.Is(err, verification.ErrDenied):
		g.forbidden(rw, req, original)
		return
	case errors.Is(err, verification.ErrUnauthenticated):
		if inline {
			// A client sending inline credentials is not a browser; bouncing
			// it to the login portal would be useless.
			rw.WriteHeader(http.StatusUnauthorized)
			return
		}
		g.authorizeAnonymous(rw, req, original)
		return
	default:
		logger.Errorf("Error verifying request for %s: %v", original, err)
		rw.WriteHeader(http.StatusInternalServerError)
		return
	}

	if inline {
		// The inline strategy has already authorized the request as part of
		// resolving the identity.
		g.allow(rw, result)
		return
	}

	target := authorization.Target{
		Domain: original.Hostname(),
		Path:   original.Path,
		Method: req.Method,
	}
	switch res := g.matcher.Authorize(result.Identity, target, result.Level); res.Decision {
	case authorization.Granted:
		g.allow(rw, result)
	case authorization.InsufficientLevel:
		logger.PrintAuthf(result.Identity.User, req, logger.AuthFailure,
			"Authentication level %s is insufficient for %s, required %s", result.Level, original, res.RequiredLevel)
		g.redirectToPortal(rw, req, original)
	default:
		g.forbidden(rw, req, original)
	}
}

// authorizeAnonymous decides what an unauthenticated client may do with the
// target. Bypass rules still grant access without any identity; everything
// else sends the client to the login portal, except an outright denial.
func (g *Gateway) authorizeAnonymous(rw http.ResponseWriter, req *http.Request, original *url.URL) {
	target := authorization.Target{
		Domain: original.Hostname(),
		Path:   original.Path,
		Method: req.Method,
	}

	switch g.matcher.Authorize(authorization.Identity{}, target, sessions.NotAuthenticated).Decision {
	case authorization.Granted:
		rw.WriteHeader(http.StatusOK)
	case authorization.InsufficientLevel:
		g.redirectToPortal(rw, req, original)
	default:
		g.forbidden(rw, req, original)
	}
}

// allow answers the subrequest with 200 and the identity headers the proxy
// copies onto the upstream request.
func (g *Gateway) allow(rw http.ResponseWriter, result *verification.Result) {
	rw.Header().Set("Remote-User", result.Identity.User)
	rw.Header().Set("Remote-Groups", strings.Join(result.Identity.Groups, ","))
	if result.Email != "" {
		rw.Header().Set("Remote-Email", result.Email)
	}
	rw.WriteHeader(http.StatusOK)
}

// redirectToPortal sends the client to the login portal, carrying the
// original target so the portal can send it back after a successful login.
func (g *Gateway) redirectToPortal(rw http.ResponseWriter, req *http.Request, original *url.URL) {
	portal := *g.portalURL
	portal.RawQuery = url.Values{"rd": []string{original.String()}}.Encode()
	http.Redirect(rw, req, portal.String(), http.StatusFound)
}

// forbidden blocks the request outright. Policy forbids this identity from
// the target, so redirecting to the login portal would only loop.
func (g *Gateway) forbidden(rw http.ResponseWriter, req *http.Request, original *url.URL) {
	logger.PrintAuthf(getUser(req), req, logger.AuthFailure, "Access to %s is forbidden", original)
	rw.WriteHeader(http.StatusForbidden)
}

func getUser(req *http.Request) string {
	scope := middlewareapi.GetRequestScope(req)
	if scope != nil && scope.Session != nil {
		return scope.Session.User
	}
	return ""
}
