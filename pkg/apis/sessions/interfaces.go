package sessions

import (
	"errors"
	"net/http"
)

// SessionStore is an interface to storing client session records in the
// gateway.
type SessionStore interface {
	Save(rw http.ResponseWriter, req *http.Request, s *State) error
	Load(req *http.Request) (*State, error)
	Clear(rw http.ResponseWriter, req *http.Request) error
}

// ErrNotFound is returned by SessionStore.Load when the request carries no
// session, or the session it refers to no longer exists. Callers treat this
// as "create a fresh session", never as a failure.
var ErrNotFound = errors.New("session: not found")

// ErrBackendUnavailable is returned when the backing session transport
// cannot be reached. This indicates a misconfigured or unreachable backend
// and is fatal for the current request.
var ErrBackendUnavailable = errors.New("session: backend unavailable")
