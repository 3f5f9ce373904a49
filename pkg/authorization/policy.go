package authorization

import (
	"fmt"

	"github.com/gatewarden/gatewarden/pkg/apis/sessions"
)

// Policy is the access requirement attached to an access control rule.
type Policy int

const (
	// PolicyDeny denies access regardless of authentication level.
	PolicyDeny Policy = iota
	// PolicyBypass grants access regardless of authentication level or
	// identity.
	PolicyBypass
	// PolicyOneFactor grants access once the password check has succeeded.
	PolicyOneFactor
	// PolicyTwoFactor grants access once both factors have succeeded.
	PolicyTwoFactor
)

func (p Policy) String() string {
	switch p {
	case PolicyBypass:
		return "bypass"
	case PolicyOneFactor:
		return "one_factor"
	case PolicyTwoFactor:
		return "two_factor"
	default:
		return "deny"
	}
}

// NewPolicy parses a policy name as used in the access control
// configuration.
func NewPolicy(name string) (Policy, error) {
	switch name {
	case "deny":
		return PolicyDeny, nil
	case "bypass":
		return PolicyBypass, nil
	case "one_factor":
		return PolicyOneFactor, nil
	case "two_factor":
		return PolicyTwoFactor, nil
	default:
		return PolicyDeny, fmt.Errorf("unknown access control policy %q", name)
	}
}

// RequiredLevel returns the minimum authentication level the policy demands.
// Deny and Bypass do not depend on a level at all; they report the strictest
// and weakest level respectively so callers can still order policies.
func (p Policy) RequiredLevel() sessions.AuthLevel {
	switch p {
	case PolicyOneFactor:
		return sessions.FirstFactor
	case PolicyTwoFactor:
		return sessions.SecondFactor
	default:
		return sessions.NotAuthenticated
	}
}
