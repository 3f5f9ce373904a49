package util

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	middlewareapi "github.com/gatewarden/gatewarden/pkg/apis/middleware"
)

const (
	XForwardedProto = "X-Forwarded-Proto"
	XForwardedHost  = "X-Forwarded-Host"
	XForwardedURI   = "X-Forwarded-Uri"
	XOriginalURL    = "X-Original-Url"
	XRequestID      = "X-Request-Id"
)

// GetRequestProto returns the request scheme or X-Forwarded-Proto if present
// and the request is proxied.
func GetRequestProto(req *http.Request) string {
	proto := req.Header.Get(XForwardedProto)
	if !IsProxied(req) || proto == "" {
		proto = req.URL.Scheme
	}
	return proto
}

// GetRequestHost returns the request host header or X-Forwarded-Host if
// present and the request is proxied.
func GetRequestHost(req *http.Request) string {
	host := req.Header.Get(XForwardedHost)
	if !IsProxied(req) || host == "" {
		host = req.Host
	}
	return host
}

// GetRequestURI returns the request URI or X-Forwarded-Uri if present and
// the request is proxied.
func GetRequestURI(req *http.Request) string {
	uri := req.Header.Get(XForwardedURI)
	if !IsProxied(req) || uri == "" {
		// Use RequestURI to preserve ?query
		uri = req.URL.RequestURI()
	}
	return uri
}

// GetOriginalURL reconstructs the URL the client originally requested from
// the upstream reverse proxy. It prefers the single X-Original-Url header
// and falls back to composing the X-Forwarded-* parts.
func GetOriginalURL(req *http.Request) (*url.URL, error) {
	if original := req.Header.Get(XOriginalURL); IsProxied(req) && original != "" {
		u, err := url.Parse(original)
		if err != nil {
			return nil, fmt.Errorf("invalid %s header %q: %w", XOriginalURL, original, err)
		}
		return u, nil
	}

	proto := GetRequestProto(req)
	if proto == "" {
		proto = "https"
	}

	u, err := url.Parse(fmt.Sprintf("%s://%s%s", proto, GetRequestHost(req), GetRequestURI(req)))
	if err != nil {
		return nil, fmt.Errorf("unable to reconstruct original URL: %w", err)
	}
	return u, nil
}

// GetRequestID gets an existing RequestID set on the request scope.
// If the scope isn't set yet, it pulls it from the `X-Request-Id` header
// or makes a new random UUID if no header is set.
func GetRequestID(req *http.Request) string {
	scope := middlewareapi.GetRequestScope(req)
	if scope != nil {
		return scope.RequestID
	}
	xReqID := req.Header.Get(XRequestID)
	if xReqID != "" {
		return xReqID
	}
	return uuid.New().String()
}

// IsProxied determines if a request came through a reverse proxy based on
// the RequestScope ReverseProxy tracker.
func IsProxied(req *http.Request) bool {
	scope := middlewareapi.GetRequestScope(req)
	if scope == nil {
		return false
	}
	return scope.ReverseProxy
}
