package totp

import (
	"fmt"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/gatewarden/gatewarden/pkg/apis/options"
	"github.com/gatewarden/gatewarden/pkg/clock"
)

// Verifier checks time-based one-time codes and produces new keys for
// device registration.
type Verifier interface {
	// Verify reports whether the code is valid for the given shared secret
	// at the current time.
	Verify(code, secret string) (bool, error)

	// GenerateSecret produces a new shared secret for the given account,
	// returning the secret and the otpauth:// provisioning URL.
	GenerateSecret(accountName string) (secret string, url string, err error)
}

// TimeBasedVerifier implements Verifier with RFC 6238 codes.
type TimeBasedVerifier struct {
	issuer string
	skew   uint
	clock  clock.Clock
}

// NewTimeBasedVerifier creates a TimeBasedVerifier from the TOTP options.
func NewTimeBasedVerifier(opts options.TOTP) *TimeBasedVerifier {
	return &TimeBasedVerifier{
		issuer: opts.Issuer,
		skew:   opts.Skew,
	}
}

func (v *TimeBasedVerifier) Verify(code, secret string) (bool, error) {
	valid, err := totp.ValidateCustom(code, secret, v.clock.Now(), totp.ValidateOpts{
		Period:    30,
		Skew:      v.skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return false, fmt.Errorf("error validating one-time code: %w", err)
	}
	return valid, nil
}

func (v *TimeBasedVerifier) GenerateSecret(accountName string) (string, string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      v.issuer,
		AccountName: accountName,
	})
	if err != nil {
		return "", "", fmt.Errorf("error generating one-time code key: %w", err)
	}
	return key.Secret(), key.URL(), nil
}
