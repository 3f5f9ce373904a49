package sessions

import (
	"fmt"

	"github.com/gatewarden/gatewarden/pkg/apis/options"
	sessionsapi "github.com/gatewarden/gatewarden/pkg/apis/sessions"
	"github.com/gatewarden/gatewarden/pkg/sessions/memory"
	"github.com/gatewarden/gatewarden/pkg/sessions/redis"
)

// NewSessionStore creates a SessionStore from the configuration given.
func NewSessionStore(opts options.Session, cookieOpts *options.Cookie) (sessionsapi.SessionStore, error) {
	switch opts.Type {
	case "", "memory":
		return memory.NewInMemoryStore(cookieOpts), nil
	case "redis":
		return redis.NewRedisSessionStore(opts, cookieOpts)
	default:
		return nil, fmt.Errorf("unknown session store type %q", opts.Type)
	}
}
