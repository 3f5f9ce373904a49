package verification

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gatewarden/gatewarden/pkg/apis/sessions"
	"github.com/gatewarden/gatewarden/pkg/authentication"
	"github.com/gatewarden/gatewarden/pkg/authentication/basic"
	"github.com/gatewarden/gatewarden/pkg/authorization"
	"github.com/gatewarden/gatewarden/pkg/logger"
	requestutil "github.com/gatewarden/gatewarden/pkg/requests/util"
)

// BasicStrategy resolves the identity from inline Basic credentials, checked
// against the user directory synchronously for this call only. Nothing is
// persisted: no session is created or mutated, so calling it twice with the
// same header yields the same result twice.
//
// Because there is no session for downstream checks to consult, the strategy
// performs its own access control call at FirstFactor level before reporting
// success.
type BasicStrategy struct {
	directory authentication.Directory
	matcher   *authorization.Matcher
}

// NewBasicStrategy constructs an inline credential verification strategy.
func NewBasicStrategy(directory authentication.Directory, matcher *authorization.Matcher) *BasicStrategy {
	return &BasicStrategy{
		directory: directory,
		matcher:   matcher,
	}
}

// ResolveIdentity implements Strategy.
func (s *BasicStrategy) ResolveIdentity(req *http.Request) (*Result, error) {
	header := InlineCredentialHeader(req)
	if header == "" {
		return nil, ErrUnauthenticated
	}

	username, password, err := basic.DecodeCredentials(header)
	if err != nil {
		return nil, err
	}

	profile, err := s.directory.CheckUserPassword(req.Context(), username, password)
	if err != nil {
		if errors.Is(err, authentication.ErrInvalidCredentials) {
			logger.PrintAuthf(username, req, logger.AuthFailure, "Invalid inline credentials")
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("unable to check inline credentials: %w", err)
	}

	identity := authorization.Identity{
		User:   username,
		Groups: profile.Groups,
	}

	original, err := requestutil.GetOriginalURL(req)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve requested resource: %w", err)
	}

	target := authorization.Target{
		Domain: original.Hostname(),
		Path:   original.Path,
		Method: req.Method,
	}
	switch result := s.matcher.Authorize(identity, target, sessions.FirstFactor); result.Decision {
	case authorization.Granted:
	case authorization.Denied:
		return nil, ErrDenied
	default:
		// Inline credentials can never provide more than a first factor, but
		// a full login through the portal might.
		return nil, ErrUnauthenticated
	}

	logger.PrintAuthf(username, req, logger.AuthSuccess, "Authenticated via inline credentials")

	return &Result{
		Identity: identity,
		Email:    profile.Email(),
		Level:    sessions.FirstFactor,
	}, nil
}
