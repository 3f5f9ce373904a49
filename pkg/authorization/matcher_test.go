package authorization

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewarden/gatewarden/pkg/apis/options"
	"github.com/gatewarden/gatewarden/pkg/apis/sessions"
)

func newTestMatcher(t *testing.T, defaultPolicy string, rules ...options.Rule) *Matcher {
	t.Helper()
	matcher, err := NewMatcher(options.AccessControl{
		DefaultPolicy: defaultPolicy,
		Rules:         rules,
	})
	require.NoError(t, err)
	return matcher
}

func TestAuthorizeDefaultPolicy(t *testing.T) {
	target := Target{Domain: "app.example.com", Path: "/", Method: http.MethodGet}
	bob := Identity{User: "bob", Groups: []string{"dev"}}

	testCases := map[string]struct {
		defaultPolicy string
		expected      Decision
	}{
		"deny":       {"deny", Denied},
		"bypass":     {"bypass", Granted},
		"one_factor": {"one_factor", InsufficientLevel},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			matcher := newTestMatcher(t, tc.defaultPolicy)
			result := matcher.Authorize(bob, target, sessions.NotAuthenticated)
			assert.Equal(t, tc.expected, result.Decision)
		})
	}
}

func TestAuthorizeFirstMatchWins(t *testing.T) {
	// An early broad rule shadows a later more specific one: evaluation is
	// strictly in declaration order, not most-specific-wins.
	matcher := newTestMatcher(t, "deny",
		options.Rule{Domain: "app.example.com", Policy: "bypass"},
		options.Rule{Domain: "app.example.com", Policy: "two_factor", Resources: []string{"^/admin"}},
	)

	result := matcher.Authorize(Identity{}, Target{Domain: "app.example.com", Path: "/admin/panel"}, sessions.NotAuthenticated)
	assert.Equal(t, Granted, result.Decision)
}

func TestAuthorizeDomainWildcard(t *testing.T) {
	matcher := newTestMatcher(t, "deny",
		options.Rule{Domain: "*.example.com", Policy: "bypass"},
	)

	testCases := map[string]struct {
		domain   string
		expected Decision
	}{
		"single label matches":     {"app.example.com", Granted},
		"case insensitive":         {"APP.Example.COM", Granted},
		"apex does not match":      {"example.com", Denied},
		"two labels do not match":  {"a.b.example.com", Denied},
		"other domain not matched": {"app.example.org", Denied},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			result := matcher.Authorize(Identity{}, Target{Domain: tc.domain, Path: "/"}, sessions.NotAuthenticated)
			assert.Equal(t, tc.expected, result.Decision)
		})
	}
}

func TestAuthorizeResourcesAndMethods(t *testing.T) {
	matcher := newTestMatcher(t, "deny",
		options.Rule{Domain: "api.example.com", Policy: "deny", Resources: []string{"^/internal($|/)"}},
		options.Rule{Domain: "api.example.com", Policy: "bypass", Methods: []string{"GET", "OPTIONS"}},
		options.Rule{Domain: "api.example.com", Policy: "one_factor"},
	)
	identity := Identity{User: "bob"}

	internal := matcher.Authorize(identity, Target{Domain: "api.example.com", Path: "/internal/metrics", Method: http.MethodGet}, sessions.FirstFactor)
	assert.Equal(t, Denied, internal.Decision)

	read := matcher.Authorize(Identity{}, Target{Domain: "api.example.com", Path: "/v1/things", Method: http.MethodGet}, sessions.NotAuthenticated)
	assert.Equal(t, Granted, read.Decision)

	write := matcher.Authorize(Identity{}, Target{Domain: "api.example.com", Path: "/v1/things", Method: http.MethodPost}, sessions.NotAuthenticated)
	assert.Equal(t, InsufficientLevel, write.Decision)
	assert.Equal(t, sessions.FirstFactor, write.RequiredLevel)
}

func TestAuthorizeSubjects(t *testing.T) {
	matcher := newTestMatcher(t, "deny",
		options.Rule{Domain: "files.example.com", Policy: "one_factor", Subjects: []string{"user:alice", "group:admins"}},
	)
	target := Target{Domain: "files.example.com", Path: "/"}

	testCases := map[string]struct {
		identity Identity
		expected Decision
	}{
		"matching user":     {Identity{User: "alice"}, Granted},
		"matching group":    {Identity{User: "carol", Groups: []string{"admins"}}, Granted},
		"no matching ref":   {Identity{User: "bob", Groups: []string{"dev"}}, Denied},
		"anonymous no pass": {Identity{}, Denied},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			result := matcher.Authorize(tc.identity, target, sessions.FirstFactor)
			assert.Equal(t, tc.expected, result.Decision)
		})
	}
}

func TestAuthorizeAnonymousSubjectAny(t *testing.T) {
	matcher := newTestMatcher(t, "deny",
		options.Rule{Domain: "public.example.com", Policy: "bypass", Subjects: []string{"*"}},
	)

	result := matcher.Authorize(Identity{}, Target{Domain: "public.example.com", Path: "/"}, sessions.NotAuthenticated)
	assert.Equal(t, Granted, result.Decision)
}

func TestAuthorizeLevels(t *testing.T) {
	matcher := newTestMatcher(t, "deny",
		options.Rule{Domain: "secure.example.com", Policy: "two_factor"},
	)
	target := Target{Domain: "secure.example.com", Path: "/"}
	bob := Identity{User: "bob"}

	testCases := map[string]struct {
		level    sessions.AuthLevel
		expected Decision
	}{
		"not authenticated": {sessions.NotAuthenticated, InsufficientLevel},
		"one factor":        {sessions.FirstFactor, InsufficientLevel},
		"two factors":       {sessions.SecondFactor, Granted},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			result := matcher.Authorize(bob, target, tc.level)
			assert.Equal(t, tc.expected, result.Decision)
			if tc.expected == InsufficientLevel {
				assert.Equal(t, sessions.SecondFactor, result.RequiredLevel)
			}
		})
	}
}

func TestNewMatcherRejectsInvalidRules(t *testing.T) {
	testCases := map[string]options.Rule{
		"missing domain":        {Policy: "deny"},
		"unknown policy":        {Domain: "example.com", Policy: "three_factor"},
		"inner wildcard":        {Domain: "app.*.example.com", Policy: "deny"},
		"bare wildcard label":   {Domain: "*example.com", Policy: "deny"},
		"invalid resource":      {Domain: "example.com", Policy: "deny", Resources: []string{"("}},
		"unprefixed subject":    {Domain: "example.com", Policy: "deny", Subjects: []string{"alice"}},
		"empty policy":          {Domain: "example.com"},
		"misplaced subject any": {Domain: "example.com", Policy: "deny", Subjects: []string{"users:*x"}},
	}
	for name, rule := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := NewMatcher(options.AccessControl{DefaultPolicy: "deny", Rules: []options.Rule{rule}})
			assert.Error(t, err)
		})
	}
}

func TestNewMatcherRejectsInvalidDefaultPolicy(t *testing.T) {
	_, err := NewMatcher(options.AccessControl{DefaultPolicy: "allow"})
	assert.Error(t, err)
}
