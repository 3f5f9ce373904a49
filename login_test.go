package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewarden/gatewarden/pkg/apis/options"
)

func postJSON(g *Gateway, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return serve(g, req)
}

func decodeReply(t *testing.T, rw *httptest.ResponseRecorder) statusReply {
	t.Helper()
	var reply statusReply
	require.NoError(t, json.NewDecoder(rw.Body).Decode(&reply))
	return reply
}

// login performs a successful first factor login and returns the session
// cookie.
func login(t *testing.T, g *Gateway, username, password string) *http.Cookie {
	t.Helper()
	rw := postJSON(g, firstFactorPath, fmt.Sprintf(`{"username":%q,"password":%q}`, username, password), nil)
	require.Equal(t, http.StatusOK, rw.Code)

	cookies := rw.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func TestFirstFactorSuccess(t *testing.T) {
	g := newTestGateway(t, testOptions(t), nil)

	rw := postJSON(g, firstFactorPath, `{"username":"bob","password":"hunter2"}`, nil)
	require.Equal(t, http.StatusOK, rw.Code)

	reply := decodeReply(t, rw)
	assert.Equal(t, "OK", reply.Status)
	assert.Equal(t, "/", reply.Redirect)
	assert.Len(t, rw.Result().Cookies(), 1)
}

func TestFirstFactorRedirectTargets(t *testing.T) {
	g := newTestGateway(t, testOptions(t), nil)

	testCases := map[string]struct {
		target   string
		expected string
	}{
		"trusted absolute target":  {"https://app.example.com/dashboard", "https://app.example.com/dashboard"},
		"relative target":          {"/settings", "/settings"},
		"untrusted target dropped": {"https://evil.com/", "/"},
		"schemeless attack":        {"//evil.com/", "/"},
		"no target":                {"", "/"},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			body := fmt.Sprintf(`{"username":"bob","password":"hunter2","targetURL":%q}`, tc.target)
			rw := postJSON(g, firstFactorPath, body, nil)
			require.Equal(t, http.StatusOK, rw.Code)
			assert.Equal(t, tc.expected, decodeReply(t, rw).Redirect)
		})
	}
}

func TestFirstFactorFailuresAreIndistinguishable(t *testing.T) {
	g := newTestGateway(t, testOptions(t), nil)

	wrongPassword := postJSON(g, firstFactorPath, `{"username":"bob","password":"wrong"}`, nil)
	unknownUser := postJSON(g, firstFactorPath, `{"username":"mallory","password":"hunter2"}`, nil)
	malformed := postJSON(g, firstFactorPath, `{"username":"bob"}`, nil)

	for _, rw := range []*httptest.ResponseRecorder{wrongPassword, unknownUser, malformed} {
		assert.Equal(t, http.StatusUnauthorized, rw.Code)
		reply := decodeReply(t, rw)
		assert.Equal(t, "KO", reply.Status)
		assert.Equal(t, authenticationFailedMessage, reply.Message)
		assert.Empty(t, rw.Result().Cookies())
	}
}

func TestFirstFactorBansAfterRepeatedFailures(t *testing.T) {
	opts := testOptions(t)
	directory := &testDirectory{users: map[string]testUser{
		"bob":   {password: "hunter2"},
		"alice": {password: "s3cret"},
	}}
	g := newTestGateway(t, opts, directory)

	for i := 0; i < opts.Regulation.MaxRetries; i++ {
		rw := postJSON(g, firstFactorPath, `{"username":"bob","password":"wrong"}`, nil)
		require.Equal(t, http.StatusUnauthorized, rw.Code)
	}

	// Even the correct password is rejected now, with the same payload as a
	// wrong one.
	rw := postJSON(g, firstFactorPath, `{"username":"bob","password":"hunter2"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rw.Code)
	assert.Equal(t, authenticationFailedMessage, decodeReply(t, rw).Message)

	// The ban is per user.
	rw = postJSON(g, firstFactorPath, `{"username":"alice","password":"s3cret"}`, nil)
	assert.Equal(t, http.StatusOK, rw.Code)
}

func TestLogout(t *testing.T) {
	opts := testOptions(t)
	opts.AccessControl.Rules = []options.Rule{{Domain: "app.example.com", Policy: "one_factor"}}
	g := newTestGateway(t, opts, nil)
	cookie := login(t, g, "bob", "hunter2")

	rw := postJSON(g, logoutPath, "{}", cookie)
	require.Equal(t, http.StatusOK, rw.Code)
	assert.Equal(t, "OK", decodeReply(t, rw).Status)

	// The session is back at square one: protected targets redirect again.
	req := newVerifyRequest("https://app.example.com/")
	req.AddCookie(cookie)
	assert.Equal(t, http.StatusFound, serve(g, req).Code)
}
