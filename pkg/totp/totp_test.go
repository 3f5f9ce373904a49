package totp

import (
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewarden/gatewarden/pkg/apis/options"
)

func newTestVerifier(t *testing.T) *TimeBasedVerifier {
	t.Helper()
	verifier := NewTimeBasedVerifier(options.TOTP{Issuer: "gatewarden", Skew: 1})
	verifier.clock.Set(time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC))
	return verifier
}

func TestVerifyAcceptsCurrentCode(t *testing.T) {
	verifier := newTestVerifier(t)
	secret, _, err := verifier.GenerateSecret("bob")
	require.NoError(t, err)

	code, err := totp.GenerateCode(secret, verifier.clock.Now())
	require.NoError(t, err)

	valid, err := verifier.Verify(code, secret)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestVerifyAcceptsAdjacentPeriodWithinSkew(t *testing.T) {
	verifier := newTestVerifier(t)
	secret, _, err := verifier.GenerateSecret("bob")
	require.NoError(t, err)

	code, err := totp.GenerateCode(secret, verifier.clock.Now().Add(-30*time.Second))
	require.NoError(t, err)

	valid, err := verifier.Verify(code, secret)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestVerifyRejectsStaleCode(t *testing.T) {
	verifier := newTestVerifier(t)
	secret, _, err := verifier.GenerateSecret("bob")
	require.NoError(t, err)

	code, err := totp.GenerateCode(secret, verifier.clock.Now().Add(-5*time.Minute))
	require.NoError(t, err)

	valid, err := verifier.Verify(code, secret)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestVerifyRejectsWrongCode(t *testing.T) {
	verifier := newTestVerifier(t)
	secret, _, err := verifier.GenerateSecret("bob")
	require.NoError(t, err)

	valid, err := verifier.Verify("000000", secret)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestGenerateSecretProvisioningURL(t *testing.T) {
	verifier := newTestVerifier(t)
	secret, url, err := verifier.GenerateSecret("bob")
	require.NoError(t, err)

	assert.NotEmpty(t, secret)
	assert.Contains(t, url, "otpauth://totp/")
	assert.Contains(t, url, "gatewarden")
	assert.Contains(t, url, "bob")
}
