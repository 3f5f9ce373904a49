package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	middlewareapi "github.com/gatewarden/gatewarden/pkg/apis/middleware"
	sessionsapi "github.com/gatewarden/gatewarden/pkg/apis/sessions"
)

type stubSessionStore struct {
	state *sessionsapi.State
	err   error
}

func (s *stubSessionStore) Save(http.ResponseWriter, *http.Request, *sessionsapi.State) error {
	return nil
}

func (s *stubSessionStore) Load(*http.Request) (*sessionsapi.State, error) {
	return s.state, s.err
}

func (s *stubSessionStore) Clear(http.ResponseWriter, *http.Request) error {
	return nil
}

func serveWithSessionLoader(store sessionsapi.SessionStore) (*httptest.ResponseRecorder, *sessionsapi.State) {
	var loaded *sessionsapi.State
	handler := NewScope(true, "X-Request-Id")(NewSessionLoader(store)(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		loaded = middlewareapi.GetRequestScope(req).Session
		rw.WriteHeader(http.StatusOK)
	})))

	rw := httptest.NewRecorder()
	handler.ServeHTTP(rw, httptest.NewRequest("GET", "/api/verify", nil))
	return rw, loaded
}

func TestSessionLoaderAttachesExistingSession(t *testing.T) {
	state := sessionsapi.NewState(time.Now())
	state.SetFirstFactor("bob", "", nil)

	rw, loaded := serveWithSessionLoader(&stubSessionStore{state: state})
	assert.Equal(t, http.StatusOK, rw.Code)
	assert.Equal(t, state, loaded)
}

func TestSessionLoaderLazilyCreatesSession(t *testing.T) {
	rw, loaded := serveWithSessionLoader(&stubSessionStore{err: sessionsapi.ErrNotFound})
	assert.Equal(t, http.StatusOK, rw.Code)
	require.NotNil(t, loaded)
	assert.Equal(t, sessionsapi.NotAuthenticated, loaded.AuthLevel)
	assert.False(t, loaded.LastActivity.IsZero())
}

func TestSessionLoaderFailsClosedOnBackendError(t *testing.T) {
	err := errors.Join(sessionsapi.ErrBackendUnavailable, errors.New("connection refused"))
	rw, loaded := serveWithSessionLoader(&stubSessionStore{err: err})
	assert.Equal(t, http.StatusInternalServerError, rw.Code)
	assert.Nil(t, loaded)
}
