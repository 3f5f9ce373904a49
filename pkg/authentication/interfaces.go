package authentication

import (
	"context"
	"errors"
)

// Profile is the user information a directory returns when a password check
// succeeds.
type Profile struct {
	Emails []string
	Groups []string
}

// Email returns the user's primary email, or "" when none is known.
func (p *Profile) Email() string {
	if len(p.Emails) == 0 {
		return ""
	}
	return p.Emails[0]
}

// Directory checks user credentials against a backing user store (file
// based, LDAP, ...). Implementations must return ErrInvalidCredentials for
// an unknown user and for a wrong password alike; any other error indicates
// the backend itself failed.
type Directory interface {
	CheckUserPassword(ctx context.Context, username, password string) (*Profile, error)
}

// ErrInvalidCredentials is returned when the username/password pair is
// rejected by the directory.
var ErrInvalidCredentials = errors.New("invalid credentials")
