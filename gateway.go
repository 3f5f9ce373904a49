package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
	"github.com/justinas/alice"

	"github.com/gatewarden/gatewarden/pkg/apis/options"
	sessionsapi "github.com/gatewarden/gatewarden/pkg/apis/sessions"
	"github.com/gatewarden/gatewarden/pkg/app/redirect"
	"github.com/gatewarden/gatewarden/pkg/authentication"
	"github.com/gatewarden/gatewarden/pkg/authorization"
	"github.com/gatewarden/gatewarden/pkg/logger"
	"github.com/gatewarden/gatewarden/pkg/middleware"
	"github.com/gatewarden/gatewarden/pkg/notification"
	"github.com/gatewarden/gatewarden/pkg/regulation"
	"github.com/gatewarden/gatewarden/pkg/sessions"
	"github.com/gatewarden/gatewarden/pkg/totp"
	"github.com/gatewarden/gatewarden/pkg/verification"
)

const (
	verifyPath             = "/api/verify"
	firstFactorPath        = "/api/firstfactor"
	logoutPath             = "/api/logout"
	totpPath               = "/api/totp"
	totpIdentityStartPath  = "/api/totp/identity/start"
	totpIdentityFinishPath = "/api/totp/identity/finish"
)

// authenticationFailedMessage is the one payload every failed login exit
// collapses to. Returning distinct messages for unknown users, wrong
// passwords and bans would let a caller probe which usernames exist.
const authenticationFailedMessage = "Authentication failed. Check your credentials."

// operationFailedMessage is the generic payload for failures that are not
// credential checks.
const operationFailedMessage = "Operation failed."

// userDirectory is the user backend the gateway authenticates against: the
// credential check plus the per-user one-time-code secret lookup.
type userDirectory interface {
	authentication.Directory
	TOTPSecret(username string) string
}

// Gateway is the authentication gateway. It answers the reverse proxy's
// per-request authorization checks and carries the login, logout and second
// factor flows of the companion portal.
type Gateway struct {
	matcher      *authorization.Matcher
	regulator    *regulation.Regulator
	directory    userDirectory
	sessionStore sessionsapi.SessionStore

	sessionStrategy verification.Strategy
	basicStrategy   verification.Strategy

	redirectValidator redirect.Validator
	notifier          notification.Notifier
	totp              totp.Verifier

	portalURL          *url.URL
	defaultRedirectURL string

	serveMux http.Handler
}

// NewGateway creates a new Gateway from the options given.
func NewGateway(opts *options.Options) (*Gateway, error) {
	matcher, err := authorization.NewMatcher(opts.AccessControl)
	if err != nil {
		return nil, fmt.Errorf("error compiling access control rules: %w", err)
	}

	directory, err := authentication.NewFileDirectory(opts.Authentication)
	if err != nil {
		return nil, fmt.Errorf("error initialising user directory: %w", err)
	}

	sessionStore, err := sessions.NewSessionStore(opts.Session, &opts.Cookie)
	if err != nil {
		return nil, fmt.Errorf("error initialising session store: %w", err)
	}

	attemptStore, err := newAttemptStore(opts.Session)
	if err != nil {
		return nil, fmt.Errorf("error initialising regulation store: %w", err)
	}

	portalURL, err := url.Parse(opts.App.PortalURL)
	if err != nil {
		return nil, fmt.Errorf("error parsing portal URL: %w", err)
	}

	var notifier notification.Notifier
	if opts.Notifier.FileSystemFilename != "" {
		notifier = notification.NewFileNotifier(opts.Notifier.FileSystemFilename)
	}

	g := &Gateway{
		matcher:      matcher,
		regulator:    regulation.New(opts.Regulation, attemptStore),
		directory:    directory,
		sessionStore: sessionStore,

		sessionStrategy: verification.NewSessionStrategy(),
		basicStrategy:   verification.NewBasicStrategy(directory, matcher),

		redirectValidator: redirect.NewValidator(opts.App.TrustedDomains),
		notifier:          notifier,
		totp:              totp.NewTimeBasedVerifier(opts.TOTP),

		portalURL:          portalURL,
		defaultRedirectURL: opts.App.DefaultRedirectionURL,
	}
	g.buildServeMux(opts)

	return g, nil
}

// newAttemptStore builds the regulation attempt store on the same backend as
// the session store, so a gateway restart does not grant a banned user a
// fresh set of retries when redis is available.
func newAttemptStore(opts options.Session) (regulation.Store, error) {
	if opts.Type == "redis" {
		return regulation.NewRedisStoreFromURL(opts.RedisConnectionURL)
	}
	return regulation.NewInMemoryStore(), nil
}

func (g *Gateway) buildServeMux(opts *options.Options) {
	r := mux.NewRouter()
	r.Path(opts.Server.PingPath).HandlerFunc(g.Ping)
	r.Path(opts.Server.MetricsPath).Handler(middleware.NewMetricsHandlerWithDefaultRegistry())

	r.Path(verifyPath).HandlerFunc(g.Verify)
	r.Path(firstFactorPath).Methods(http.MethodPost).HandlerFunc(g.FirstFactor)
	r.Path(logoutPath).Methods(http.MethodPost).HandlerFunc(g.Logout)
	r.Path(totpPath).Methods(http.MethodPost).HandlerFunc(g.SecondFactorTOTP)
	r.Path(totpIdentityStartPath).Methods(http.MethodPost).HandlerFunc(g.TOTPIdentityStart)
	r.Path(totpIdentityFinishPath).Methods(http.MethodPost).HandlerFunc(g.TOTPIdentityFinish)

	g.serveMux = alice.New(
		middleware.NewScope(opts.Server.ReverseProxy, opts.Logging.RequestIDHeader),
		middleware.NewRequestMetricsWithDefaultRegistry(),
		middleware.NewRequestLogger(),
		middleware.NewSessionLoader(g.sessionStore),
	).Then(r)
}

func (g *Gateway) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	g.serveMux.ServeHTTP(rw, req)
}

// Ping answers health checks from the reverse proxy and orchestration layer.
func (g *Gateway) Ping(rw http.ResponseWriter, _ *http.Request) {
	rw.WriteHeader(http.StatusOK)
	fmt.Fprintf(rw, "OK")
}

// statusReply is the envelope of every JSON response of the portal API.
type statusReply struct {
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

func (g *Gateway) replyJSON(rw http.ResponseWriter, code int, reply interface{}) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)
	if err := json.NewEncoder(rw).Encode(reply); err != nil {
		logger.Errorf("Error encoding response: %v", err)
	}
}

func (g *Gateway) replyOK(rw http.ResponseWriter, redirectTo string) {
	g.replyJSON(rw, http.StatusOK, statusReply{Status: "OK", Redirect: redirectTo})
}

func (g *Gateway) replyAuthenticationFailed(rw http.ResponseWriter) {
	g.replyJSON(rw, http.StatusUnauthorized, statusReply{Status: "KO", Message: authenticationFailedMessage})
}

func (g *Gateway) replyOperationFailed(rw http.ResponseWriter) {
	g.replyJSON(rw, http.StatusInternalServerError, statusReply{Status: "KO", Message: operationFailedMessage})
}

// safeRedirect returns the requested post-login destination if it passes the
// open-redirect checks, or the configured default destination otherwise.
func (g *Gateway) safeRedirect(target string) string {
	if g.redirectValidator.IsValidRedirect(target) {
		return target
	}
	return g.defaultRedirectURL
}
