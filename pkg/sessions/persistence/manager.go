package persistence

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gatewarden/gatewarden/pkg/apis/options"
	"github.com/gatewarden/gatewarden/pkg/apis/sessions"
)

// Manager wraps a Store and handles the implementation details of the
// sessions.SessionStore with its use of session tickets.
type Manager struct {
	Store   Store
	Options *options.Cookie
}

// NewManager creates a Manager that can wrap a Store and manage the
// sessions.SessionStore implementation details.
func NewManager(store Store, cookieOpts *options.Cookie) *Manager {
	return &Manager{
		Store:   store,
		Options: cookieOpts,
	}
}

// Save persists the session state, reusing the request's existing ticket
// when it has one and minting a fresh ticket otherwise.
func (m *Manager) Save(rw http.ResponseWriter, req *http.Request, s *sessions.State) error {
	tckt, err := decodeTicketFromRequest(req, m.Options)
	if err != nil {
		tckt, err = newTicket(m.Options)
		if err != nil {
			return fmt.Errorf("error creating a session ticket: %w", err)
		}
	}

	sealed, err := tckt.seal(s)
	if err != nil {
		return err
	}

	if err := m.Store.Save(req.Context(), tckt.id, sealed, m.Options.Expire); err != nil {
		return err
	}

	tckt.setCookie(rw, req)
	return nil
}

// Load reads session state from the store using the ticket from the
// request's cookie. A request without a (valid) ticket loads nothing:
// callers get sessions.ErrNotFound and create a fresh record.
func (m *Manager) Load(req *http.Request) (*sessions.State, error) {
	tckt, err := decodeTicketFromRequest(req, m.Options)
	if err != nil {
		return nil, sessions.ErrNotFound
	}

	data, err := m.Store.Load(req.Context(), tckt.id)
	if err != nil {
		return nil, err
	}

	state, err := tckt.open(data)
	if err != nil {
		// A ticket that doesn't open its own record is treated the same as
		// no ticket at all.
		return nil, errors.Join(sessions.ErrNotFound, err)
	}
	return state, nil
}

// Clear removes any saved session state for the request's ticket and expires
// the ticket cookie.
func (m *Manager) Clear(rw http.ResponseWriter, req *http.Request) error {
	tckt, err := decodeTicketFromRequest(req, m.Options)
	if err != nil {
		// Always clear the cookie, even when we can't decode a ticket from
		// the request.
		tckt = &ticket{options: m.Options}
		tckt.clearCookie(rw, req)
		return nil
	}

	tckt.clearCookie(rw, req)
	return m.Store.Clear(req.Context(), tckt.id)
}

// VerifyConnection checks the backing store is reachable.
func (m *Manager) VerifyConnection(req *http.Request) error {
	return m.Store.VerifyConnection(req.Context())
}
