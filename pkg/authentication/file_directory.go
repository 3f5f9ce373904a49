package authentication

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/gatewarden/gatewarden/pkg/apis/options"
	"github.com/gatewarden/gatewarden/pkg/logger"
	"github.com/gatewarden/gatewarden/pkg/watcher"
)

// userRecord is one entry of the YAML users file. Passwords must be bcrypt
// hashes.
type userRecord struct {
	Password   string   `json:"password"`
	Email      string   `json:"email,omitempty"`
	Groups     []string `json:"groups,omitempty"`
	TOTPSecret string   `json:"totp_secret,omitempty"`
}

type usersFile struct {
	Users map[string]userRecord `json:"users"`
}

// FileDirectory is a Directory backed by a YAML users file on disk. The file
// is re-read whenever it changes so user management does not require a
// restart.
type FileDirectory struct {
	rwm   sync.RWMutex
	users map[string]userRecord
}

// NewFileDirectory constructs a file backed directory from the file at the
// path given and starts watching it for updates.
func NewFileDirectory(config options.Authentication) (*FileDirectory, error) {
	d := &FileDirectory{users: make(map[string]userRecord)}

	if err := d.loadUsersFile(config.UsersFile); err != nil {
		return nil, fmt.Errorf("could not load users file: %w", err)
	}

	if err := watcher.WatchFileForUpdates(config.UsersFile, nil, func() {
		if err := d.loadUsersFile(config.UsersFile); err != nil {
			logger.Errorf("%v: no changes were made to the current user directory", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("could not watch users file: %w", err)
	}

	return d, nil
}

func (d *FileDirectory) loadUsersFile(filename string) error {
	var file usersFile
	if err := options.LoadYAML(filename, &file); err != nil {
		return fmt.Errorf("could not read users file: %w", err)
	}

	if len(file.Users) == 0 {
		return fmt.Errorf("users file %q does not contain a single user entry", filename)
	}

	for username, record := range file.Users {
		if _, err := bcrypt.Cost([]byte(record.Password)); err != nil {
			return fmt.Errorf("user %q: password is not a bcrypt hash: %w", username, err)
		}
	}

	d.rwm.Lock()
	d.users = file.Users
	d.rwm.Unlock()

	return nil
}

// CheckUserPassword implements Directory against the loaded users file.
func (d *FileDirectory) CheckUserPassword(_ context.Context, username, password string) (*Profile, error) {
	d.rwm.RLock()
	record, exists := d.users[username]
	d.rwm.RUnlock()

	if !exists {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(record.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	profile := &Profile{
		Groups: append([]string{}, record.Groups...),
	}
	if record.Email != "" {
		profile.Emails = []string{record.Email}
	}
	return profile, nil
}

// TOTPSecret returns the stored one-time-code secret for a user, or "" when
// the user has not registered one.
func (d *FileDirectory) TOTPSecret(username string) string {
	d.rwm.RLock()
	defer d.rwm.RUnlock()
	return d.users[username].TOTPSecret
}
