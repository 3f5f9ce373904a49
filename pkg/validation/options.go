package validation

import (
	"fmt"
	"os"
	"strings"

	"github.com/gatewarden/gatewarden/pkg/apis/options"
	"github.com/gatewarden/gatewarden/pkg/authorization"
)

// Validate checks that required options are set and validates those that they
// are of the correct format. It also resolves the sections that are loaded
// from their own files, such as the access control rule list.
func Validate(o *options.Options) error {
	msgs := configureLogger(o.Logging, o.Server.PingPath, []string{})

	msgs = validateCookie(o.Cookie, msgs)
	msgs = validateSession(o.Session, msgs)
	msgs = validateRegulation(o.Regulation, msgs)
	msgs = validateAccessControl(&o.AccessControl, msgs)
	msgs = validateApp(o.App, msgs)

	if o.Authentication.UsersFile == "" {
		msgs = append(msgs, "missing setting: users-file")
	} else if _, err := os.Stat(o.Authentication.UsersFile); err != nil {
		msgs = append(msgs, "could not read users file: "+o.Authentication.UsersFile)
	}

	if len(msgs) != 0 {
		return fmt.Errorf("invalid configuration:\n  %s",
			strings.Join(msgs, "\n  "))
	}
	return nil
}

func validateCookie(o options.Cookie, msgs []string) []string {
	if o.Name == "" {
		msgs = append(msgs, "missing setting: cookie-name")
	}
	switch o.SameSite {
	case "", "lax", "strict", "none":
	default:
		msgs = append(msgs, fmt.Sprintf("cookie_samesite (%q) must be one of ['', 'lax', 'strict', 'none']", o.SameSite))
	}
	if o.Expire <= 0 {
		msgs = append(msgs, fmt.Sprintf("cookie_expire (%s) must be a positive duration", o.Expire))
	}
	return msgs
}

func validateSession(o options.Session, msgs []string) []string {
	switch o.Type {
	case "memory":
	case "redis":
		if o.RedisConnectionURL == "" {
			msgs = append(msgs, "missing setting: redis-connection-url is required when session-store-type is 'redis'")
		}
	default:
		msgs = append(msgs, fmt.Sprintf("session_store_type (%q) must be one of ['memory', 'redis']", o.Type))
	}
	return msgs
}

func validateRegulation(o options.Regulation, msgs []string) []string {
	if o.MaxRetries < 0 {
		msgs = append(msgs, "regulation_max_retries must not be negative")
	}
	if o.MaxRetries > 0 {
		if o.FindTime <= 0 {
			msgs = append(msgs, "regulation_find_time must be a positive duration when regulation is enabled")
		}
		if o.BanTime <= 0 {
			msgs = append(msgs, "regulation_ban_time must be a positive duration when regulation is enabled")
		}
	}
	return msgs
}

// validateAccessControl loads the rule list from its file and compiles the
// rule set once so malformed rules are rejected at startup rather than on the
// first request.
func validateAccessControl(o *options.AccessControl, msgs []string) []string {
	if o.RulesFile != "" {
		rules := struct {
			Rules []options.Rule `json:"rules"`
		}{}
		if err := options.LoadYAML(o.RulesFile, &rules); err != nil {
			return append(msgs, fmt.Sprintf("could not load access control rules: %v", err))
		}
		o.Rules = rules.Rules
	}

	if _, err := authorization.NewMatcher(*o); err != nil {
		msgs = append(msgs, fmt.Sprintf("invalid access control configuration: %v", err))
	}
	return msgs
}

func validateApp(o options.App, msgs []string) []string {
	if o.PortalURL == "" {
		msgs = append(msgs, "missing setting: portal-url")
	}
	return msgs
}
