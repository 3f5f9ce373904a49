package persistence

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gatewarden/gatewarden/pkg/apis/options"
	"github.com/gatewarden/gatewarden/pkg/apis/sessions"
	"github.com/gatewarden/gatewarden/pkg/encryption"
)

const secretLength = 16

// ticket is the opaque handle a client holds to its session record. The
// cookie carries `{id}.{secret}`; only the id and a hash of the secret ever
// reach the backing store, so a leaked store dump cannot be replayed as a
// cookie.
type ticket struct {
	id      string
	secret  []byte
	options *options.Cookie
}

// envelope is what actually gets persisted for a ticket.
type envelope struct {
	SecretHash string          `json:"secretHash"`
	State      json.RawMessage `json:"state"`
}

// newTicket creates a ticket with a fresh id and secret.
func newTicket(cookieOpts *options.Cookie) (*ticket, error) {
	secret, err := encryption.Nonce(secretLength)
	if err != nil {
		return nil, fmt.Errorf("error generating ticket secret: %w", err)
	}

	return &ticket{
		id:      uuid.NewString(),
		secret:  secret,
		options: cookieOpts,
	}, nil
}

// decodeTicketFromRequest loads and decodes the ticket cookie of a request.
// It returns http.ErrNoCookie when the request has no ticket cookie.
func decodeTicketFromRequest(req *http.Request, cookieOpts *options.Cookie) (*ticket, error) {
	c, err := req.Cookie(cookieOpts.Name)
	if err != nil {
		return nil, http.ErrNoCookie
	}

	id, encodedSecret, ok := strings.Cut(c.Value, ".")
	if !ok || id == "" {
		return nil, fmt.Errorf("invalid session ticket cookie")
	}

	secret, err := base64.RawURLEncoding.DecodeString(encodedSecret)
	if err != nil {
		return nil, fmt.Errorf("invalid session ticket secret: %w", err)
	}

	return &ticket{
		id:      id,
		secret:  secret,
		options: cookieOpts,
	}, nil
}

// encode returns the cookie value for this ticket.
func (t *ticket) encode() string {
	return t.id + "." + base64.RawURLEncoding.EncodeToString(t.secret)
}

// seal wraps marshalled session state in the persisted envelope.
func (t *ticket) seal(state *sessions.State) ([]byte, error) {
	payload, err := state.Marshal()
	if err != nil {
		return nil, fmt.Errorf("error marshalling session state: %w", err)
	}

	return json.Marshal(envelope{
		SecretHash: encryption.HashNonce(t.secret),
		State:      payload,
	})
}

// open verifies the ticket secret against the persisted envelope and decodes
// the session state it protects.
func (t *ticket) open(data []byte) (*sessions.State, error) {
	var e envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("error unmarshalling session envelope: %w", err)
	}

	if !encryption.CheckNonce(t.secret, e.SecretHash) {
		return nil, fmt.Errorf("session ticket secret mismatch")
	}

	return sessions.DecodeState(e.State)
}

// setCookie attaches the ticket cookie to the response.
func (t *ticket) setCookie(rw http.ResponseWriter, req *http.Request) {
	http.SetCookie(rw, t.makeCookie(req, t.encode(), t.options.Expire))
}

// clearCookie attaches an expired ticket cookie to the response.
func (t *ticket) clearCookie(rw http.ResponseWriter, req *http.Request) {
	http.SetCookie(rw, t.makeCookie(req, "", time.Hour*-1))
}

func (t *ticket) makeCookie(_ *http.Request, value string, expiration time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     t.options.Name,
		Value:    value,
		Path:     t.options.Path,
		Domain:   t.options.Domain,
		HttpOnly: t.options.HTTPOnly,
		Secure:   t.options.Secure,
		SameSite: parseSameSite(t.options.SameSite),
	}
	if expiration != 0 {
		c.Expires = time.Now().Add(expiration)
	}
	return c
}

// parseSameSite maps the configured samesite string to a http.SameSite.
func parseSameSite(v string) http.SameSite {
	switch v {
	case "lax":
		return http.SameSiteLaxMode
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteDefaultMode
	}
}
