package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	middlewareapi "github.com/gatewarden/gatewarden/pkg/apis/middleware"
	sessionsapi "github.com/gatewarden/gatewarden/pkg/apis/sessions"
	"github.com/gatewarden/gatewarden/pkg/logger"
	"github.com/gatewarden/gatewarden/pkg/regulation"
)

// totpRegistrationChallenge marks a pending challenge as belonging to the
// one-time-code device registration flow.
const totpRegistrationChallenge = "totp-registration"

type totpRequest struct {
	Token     string `json:"token"`
	TargetURL string `json:"targetURL,omitempty"`
}

// SecondFactorTOTP verifies a one-time code and raises the session to the
// second authentication level. Attempts count against the same regulation
// budget as password logins.
func (g *Gateway) SecondFactorTOTP(rw http.ResponseWriter, req *http.Request) {
	session := middlewareapi.GetRequestScope(req).Session
	if !session.Authenticated() {
		g.replyAuthenticationFailed(rw)
		return
	}

	var body totpRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Token == "" {
		logger.Errorf("Malformed one-time code request body")
		g.replyAuthenticationFailed(rw)
		return
	}

	if err := g.regulator.Regulate(req.Context(), session.User); err != nil {
		var banned *regulation.BannedError
		if errors.As(err, &banned) {
			logger.PrintAuthf(session.User, req, logger.AuthFailure,
				"User is banned until %s", banned.Until.Format(time.RFC3339))
		} else {
			logger.Errorf("Error regulating authentication attempt for %q: %v", session.User, err)
		}
		g.replyAuthenticationFailed(rw)
		return
	}

	secret := g.directory.TOTPSecret(session.User)
	if secret == "" {
		logger.PrintAuthf(session.User, req, logger.AuthFailure, "No one-time code secret registered")
		g.replyAuthenticationFailed(rw)
		return
	}

	valid, err := g.totp.Verify(body.Token, secret)
	if err != nil {
		logger.Errorf("Error verifying one-time code for %q: %v", session.User, err)
		g.replyAuthenticationFailed(rw)
		return
	}
	if !valid {
		g.markAttempt(req, session.User, false)
		logger.PrintAuthf(session.User, req, logger.AuthFailure, "Invalid one-time code")
		g.replyAuthenticationFailed(rw)
		return
	}

	g.markAttempt(req, session.User, true)

	session.ConsumeChallenge()
	session.SetSecondFactor()
	if err := g.sessionStore.Save(rw, req, session); err != nil {
		logger.Errorf("Error saving session for %q: %v", session.User, err)
		g.replyOperationFailed(rw)
		return
	}

	logger.PrintAuthf(session.User, req, logger.AuthSuccess, "Second factor verified")
	g.replyOK(rw, g.safeRedirect(body.TargetURL))
}

// TOTPIdentityStart begins a one-time-code device registration by issuing a
// single-use identity token and delivering it out of band. Issuing a new
// token replaces any previous outstanding challenge.
func (g *Gateway) TOTPIdentityStart(rw http.ResponseWriter, req *http.Request) {
	session := middlewareapi.GetRequestScope(req).Session
	if !session.Authenticated() {
		g.replyAuthenticationFailed(rw)
		return
	}
	if session.Email == "" {
		logger.PrintAuthf(session.User, req, logger.AuthError, "No email address to deliver the identity token to")
		g.replyOperationFailed(rw)
		return
	}
	if g.notifier == nil {
		logger.Errorf("No notifier configured, cannot deliver identity tokens")
		g.replyOperationFailed(rw)
		return
	}

	token := uuid.NewString()
	session.PendingChallenge = &sessionsapi.Challenge{
		Kind:     totpRegistrationChallenge,
		Data:     []byte(token),
		IssuedAt: time.Now(),
	}
	if err := g.sessionStore.Save(rw, req, session); err != nil {
		logger.Errorf("Error saving session for %q: %v", session.User, err)
		g.replyOperationFailed(rw)
		return
	}

	body := fmt.Sprintf("Enter this token in the portal to register your one-time code device:\n\n%s\n", token)
	if err := g.notifier.Notify(context.WithoutCancel(req.Context()), session.Email,
		"Register your one-time code device", body); err != nil {
		logger.Errorf("Error delivering identity token for %q: %v", session.User, err)
	}

	g.replyOK(rw, "")
}

// totpRegistrationReply carries the freshly generated shared secret back to
// the portal once the identity token has been verified.
type totpRegistrationReply struct {
	Status     string `json:"status"`
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauthURL"`
}

// TOTPIdentityFinish completes a device registration. The outstanding
// challenge is consumed whether or not the presented token matches; a failed
// attempt has to start over.
func (g *Gateway) TOTPIdentityFinish(rw http.ResponseWriter, req *http.Request) {
	session := middlewareapi.GetRequestScope(req).Session
	if !session.Authenticated() {
		g.replyAuthenticationFailed(rw)
		return
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Token == "" {
		logger.Errorf("Malformed identity token request body")
		g.replyAuthenticationFailed(rw)
		return
	}

	challenge := session.ConsumeChallenge()
	if err := g.sessionStore.Save(rw, req, session); err != nil {
		logger.Errorf("Error saving session for %q: %v", session.User, err)
		g.replyOperationFailed(rw)
		return
	}

	if challenge == nil || challenge.Kind != totpRegistrationChallenge || string(challenge.Data) != body.Token {
		logger.PrintAuthf(session.User, req, logger.AuthFailure, "Invalid identity token")
		g.replyAuthenticationFailed(rw)
		return
	}

	secret, otpauthURL, err := g.totp.GenerateSecret(session.User)
	if err != nil {
		logger.Errorf("Error generating one-time code secret for %q: %v", session.User, err)
		g.replyOperationFailed(rw)
		return
	}

	logger.PrintAuthf(session.User, req, logger.AuthSuccess, "Identity verified for one-time code device registration")
	g.replyJSON(rw, http.StatusOK, totpRegistrationReply{
		Status:     "OK",
		Secret:     secret,
		OTPAuthURL: otpauthURL,
	})
}
