// Package basic parses inline Basic credential headers. Parsing is strict:
// a payload that is not well formed base64, or that does not decode to
// exactly `username:password`, is rejected before any credential check can
// happen.
package basic

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const prefix = "Basic "

// ErrMalformedCredentials is returned when an inline credential header is
// present but cannot be decoded to a username/password pair.
var ErrMalformedCredentials = errors.New("malformed basic credentials")

// IsBasicHeader reports whether the header value looks like an inline Basic
// credential. It decides strategy selection only; actual validation happens
// in DecodeCredentials.
func IsBasicHeader(header string) bool {
	return strings.HasPrefix(header, prefix)
}

// DecodeCredentials extracts the username and password from a Basic
// authorization header value.
func DecodeCredentials(header string) (username, password string, err error) {
	if !IsBasicHeader(header) {
		return "", "", fmt.Errorf("%w: not a Basic header", ErrMalformedCredentials)
	}

	decoded, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return "", "", fmt.Errorf("%w: invalid base64 payload", ErrMalformedCredentials)
	}

	parts := strings.Split(string(decoded), ":")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("%w: expecting exactly 'username:password'", ErrMalformedCredentials)
	}

	return parts[0], parts[1], nil
}
