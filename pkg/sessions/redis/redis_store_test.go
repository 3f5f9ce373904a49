package redis

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewarden/gatewarden/pkg/apis/options"
	"github.com/gatewarden/gatewarden/pkg/apis/sessions"
)

func newTestStore(t *testing.T) (sessions.SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	store, err := NewRedisSessionStore(
		options.Session{Type: "redis", RedisConnectionURL: "redis://" + mr.Addr()},
		&options.Cookie{
			Name:   options.DefaultSessionCookieName,
			Path:   "/",
			Expire: time.Hour,
		},
	)
	require.NoError(t, err)
	return store, mr
}

func TestRedisSessionStoreSaveLoad(t *testing.T) {
	store, _ := newTestStore(t)

	state := sessions.NewState(time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC))
	state.SetFirstFactor("bob", "bob@example.com", []string{"dev"})

	rw := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/firstfactor", nil)
	require.NoError(t, store.Save(rw, req, state))

	cookies := rw.Result().Cookies()
	require.Len(t, cookies, 1)

	req = httptest.NewRequest("GET", "/api/verify", nil)
	req.AddCookie(cookies[0])

	loaded, err := store.Load(req)
	require.NoError(t, err)
	assert.Equal(t, state, loaded)
}

func TestRedisSessionStoreExpiry(t *testing.T) {
	store, mr := newTestStore(t)

	rw := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/firstfactor", nil)
	require.NoError(t, store.Save(rw, req, sessions.NewState(time.Now())))

	mr.FastForward(2 * time.Hour)

	req = httptest.NewRequest("GET", "/api/verify", nil)
	req.AddCookie(rw.Result().Cookies()[0])
	_, err := store.Load(req)
	assert.ErrorIs(t, err, sessions.ErrNotFound)
}

func TestRedisSessionStoreBackendUnavailable(t *testing.T) {
	store, mr := newTestStore(t)

	rw := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/firstfactor", nil)
	require.NoError(t, store.Save(rw, req, sessions.NewState(time.Now())))

	// A reachable ticket with an unreachable backend is a hard failure, not
	// a missing session.
	mr.Close()

	req = httptest.NewRequest("GET", "/api/verify", nil)
	req.AddCookie(rw.Result().Cookies()[0])
	_, err := store.Load(req)
	require.Error(t, err)
	assert.ErrorIs(t, err, sessions.ErrBackendUnavailable)
	assert.NotErrorIs(t, err, sessions.ErrNotFound)
}

func TestNewRedisSessionStoreInvalidURL(t *testing.T) {
	_, err := NewRedisSessionStore(options.Session{RedisConnectionURL: "not a url"}, &options.Cookie{})
	assert.Error(t, err)
}
