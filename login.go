package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	middlewareapi "github.com/gatewarden/gatewarden/pkg/apis/middleware"
	"github.com/gatewarden/gatewarden/pkg/authentication"
	"github.com/gatewarden/gatewarden/pkg/logger"
	"github.com/gatewarden/gatewarden/pkg/regulation"
)

// firstFactorRequest is the login request body sent by the portal.
type firstFactorRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	TargetURL string `json:"targetURL,omitempty"`
}

// FirstFactor handles a password login attempt. Every failure exit replies
// with the same payload regardless of its cause: a ban, an unknown user and
// a wrong password must be indistinguishable from the outside.
func (g *Gateway) FirstFactor(rw http.ResponseWriter, req *http.Request) {
	var body firstFactorRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Username == "" || body.Password == "" {
		logger.Errorf("Malformed first factor request body")
		g.replyAuthenticationFailed(rw)
		return
	}

	if err := g.regulator.Regulate(req.Context(), body.Username); err != nil {
		var banned *regulation.BannedError
		if errors.As(err, &banned) {
			logger.PrintAuthf(body.Username, req, logger.AuthFailure,
				"User is banned until %s", banned.Until.Format(time.RFC3339))
		} else {
			logger.Errorf("Error regulating authentication attempt for %q: %v", body.Username, err)
		}
		g.replyAuthenticationFailed(rw)
		return
	}

	profile, err := g.directory.CheckUserPassword(req.Context(), body.Username, body.Password)
	if err != nil {
		if errors.Is(err, authentication.ErrInvalidCredentials) {
			g.markAttempt(req, body.Username, false)
			logger.PrintAuthf(body.Username, req, logger.AuthFailure, "Invalid credentials")
		} else {
			logger.Errorf("Error checking credentials for %q: %v", body.Username, err)
		}
		g.replyAuthenticationFailed(rw)
		return
	}

	g.markAttempt(req, body.Username, true)

	session := middlewareapi.GetRequestScope(req).Session
	session.Reset(time.Now())
	session.SetFirstFactor(body.Username, profile.Email(), profile.Groups)
	if err := g.sessionStore.Save(rw, req, session); err != nil {
		logger.Errorf("Error saving session for %q: %v", body.Username, err)
		g.replyOperationFailed(rw)
		return
	}

	logger.PrintAuthf(body.Username, req, logger.AuthSuccess, "First factor verified")
	g.replyOK(rw, g.safeRedirect(body.TargetURL))
}

// Logout resets the client's session record back to its unauthenticated
// state.
func (g *Gateway) Logout(rw http.ResponseWriter, req *http.Request) {
	session := middlewareapi.GetRequestScope(req).Session
	user := session.User

	session.Reset(time.Now())
	if err := g.sessionStore.Save(rw, req, session); err != nil {
		logger.Errorf("Error resetting session: %v", err)
		g.replyOperationFailed(rw)
		return
	}

	if user != "" {
		logger.PrintAuthf(user, req, logger.AuthSuccess, "Logged out")
	}
	g.replyOK(rw, "")
}

// markAttempt records the attempt outcome in the regulation store. The write
// must survive the client hanging up mid-request, so it is detached from the
// request's cancellation. A storage failure is logged and swallowed: the
// record is defence in depth, not a dependency of the login result.
func (g *Gateway) markAttempt(req *http.Request, username string, successful bool) {
	ctx := context.WithoutCancel(req.Context())
	if err := g.regulator.Mark(ctx, username, successful); err != nil {
		logger.Errorf("Error recording authentication attempt for %q: %v", username, err)
	}
}
