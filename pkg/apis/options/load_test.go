package options

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(filename, []byte(content), 0600))
	return filename
}

func TestLoadDefaults(t *testing.T) {
	opts := NewOptions()
	require.NoError(t, Load("", NewFlagSet(), opts))

	assert.Equal(t, "127.0.0.1:9091", opts.Server.Address)
	assert.Equal(t, DefaultSessionCookieName, opts.Cookie.Name)
	assert.Equal(t, "memory", opts.Session.Type)
	assert.Equal(t, 3, opts.Regulation.MaxRetries)
	assert.Equal(t, 2*time.Minute, opts.Regulation.FindTime)
	assert.Equal(t, "deny", opts.AccessControl.DefaultPolicy)
}

func TestLoadConfigFile(t *testing.T) {
	configFile := writeConfigFile(t, `
address: "0.0.0.0:9091"
portal_url: "https://auth.example.com"
regulation_max_retries: 5
regulation_find_time: 1m
cookie_samesite: strict
trusted_domains:
  - example.com
`)

	opts := NewOptions()
	require.NoError(t, Load(configFile, NewFlagSet(), opts))

	assert.Equal(t, "0.0.0.0:9091", opts.Server.Address)
	assert.Equal(t, "https://auth.example.com", opts.App.PortalURL)
	assert.Equal(t, 5, opts.Regulation.MaxRetries)
	assert.Equal(t, time.Minute, opts.Regulation.FindTime)
	assert.Equal(t, "strict", opts.Cookie.SameSite)
	assert.Equal(t, []string{"example.com"}, opts.App.TrustedDomains)

	// Untouched settings keep their defaults.
	assert.Equal(t, 5*time.Minute, opts.Regulation.BanTime)
}

func TestLoadFlagsOverrideDefaults(t *testing.T) {
	flagSet := NewFlagSet()
	require.NoError(t, flagSet.Parse([]string{
		"--regulation-max-retries=10",
		"--session-store-type=redis",
	}))

	opts := NewOptions()
	require.NoError(t, Load("", flagSet, opts))

	assert.Equal(t, 10, opts.Regulation.MaxRetries)
	assert.Equal(t, "redis", opts.Session.Type)
}

func TestLoadRejectsUnknownOptions(t *testing.T) {
	configFile := writeConfigFile(t, "no_such_option: true\n")
	assert.Error(t, Load(configFile, NewFlagSet(), NewOptions()))
}

func TestLoadYAMLStrict(t *testing.T) {
	rulesFile := writeConfigFile(t, `
rules:
  - domain: "app.example.com"
    policy: one_factor
    subjects:
      - "group:dev"
`)

	into := struct {
		Rules []Rule `json:"rules"`
	}{}
	require.NoError(t, LoadYAML(rulesFile, &into))
	require.Len(t, into.Rules, 1)
	assert.Equal(t, "app.example.com", into.Rules[0].Domain)
	assert.Equal(t, []string{"group:dev"}, into.Rules[0].Subjects)

	badFile := writeConfigFile(t, "rules: []\nextra: true\n")
	assert.Error(t, LoadYAML(badFile, &into))

	assert.Error(t, LoadYAML("", &into))
}
