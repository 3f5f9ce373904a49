package basic

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCredentials(t *testing.T) {
	header := "Basic " + base64.StdEncoding.EncodeToString([]byte("bob:hunter2"))

	username, password, err := DecodeCredentials(header)
	require.NoError(t, err)
	assert.Equal(t, "bob", username)
	assert.Equal(t, "hunter2", password)
}

func TestDecodeCredentialsEmptyParts(t *testing.T) {
	// Empty username or password is structurally valid; rejecting it is the
	// directory's job.
	username, password, err := DecodeCredentials("Basic " + base64.StdEncoding.EncodeToString([]byte(":")))
	require.NoError(t, err)
	assert.Empty(t, username)
	assert.Empty(t, password)
}

func TestDecodeCredentialsMalformed(t *testing.T) {
	testCases := map[string]string{
		"empty header":        "",
		"not basic":           "Bearer abcdef",
		"missing space":       "Basic" + base64.StdEncoding.EncodeToString([]byte("bob:hunter2")),
		"invalid base64":      "Basic %%%%",
		"padding stripped":    "Basic " + base64.RawStdEncoding.EncodeToString([]byte("bob:x")),
		"no colon":            "Basic " + base64.StdEncoding.EncodeToString([]byte("bobhunter2")),
		"two colons":          "Basic " + base64.StdEncoding.EncodeToString([]byte("bob:hun:ter2")),
		"colon in password":   "Basic " + base64.StdEncoding.EncodeToString([]byte("bob:pass:word")),
		"lowercase auth type": "basic " + base64.StdEncoding.EncodeToString([]byte("bob:hunter2")),
	}
	for name, header := range testCases {
		t.Run(name, func(t *testing.T) {
			_, _, err := DecodeCredentials(header)
			assert.ErrorIs(t, err, ErrMalformedCredentials)
		})
	}
}

func TestIsBasicHeader(t *testing.T) {
	assert.True(t, IsBasicHeader("Basic abc"))
	assert.False(t, IsBasicHeader("Bearer abc"))
	assert.False(t, IsBasicHeader(""))
}
