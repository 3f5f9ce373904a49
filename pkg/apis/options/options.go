package options

import (
	"time"

	"github.com/spf13/pflag"
)

// DefaultSessionCookieName is the cookie carrying the opaque session ticket.
const DefaultSessionCookieName = "_gatewarden_session"

// Options holds Configuration Options
type Options struct {
	Server         Server         `cfg:",squash"`
	App            App            `cfg:",squash"`
	Cookie         Cookie         `cfg:",squash"`
	Session        Session        `cfg:",squash"`
	Regulation     Regulation     `cfg:",squash"`
	AccessControl  AccessControl  `cfg:",squash"`
	Authentication Authentication `cfg:",squash"`
	Logging        Logging        `cfg:",squash"`
	Notifier       Notifier       `cfg:",squash"`
	TOTP           TOTP           `cfg:",squash"`
}

// Server contains the options for the HTTP(S) server.
type Server struct {
	Address      string `cfg:"address" flag:"address"`
	PingPath     string `cfg:"ping_path" flag:"ping-path"`
	MetricsPath  string `cfg:"metrics_path" flag:"metrics-path"`
	ReverseProxy bool   `cfg:"reverse_proxy" flag:"reverse-proxy"`
}

// App contains the options describing the login portal and the redirect
// policy applied after a successful login.
type App struct {
	PortalURL             string   `cfg:"portal_url" flag:"portal-url"`
	DefaultRedirectionURL string   `cfg:"default_redirection_url" flag:"default-redirection-url"`
	TrustedDomains        []string `cfg:"trusted_domains" flag:"trusted-domain"`
}

// Cookie contains the options for the session ticket cookie.
type Cookie struct {
	Name     string        `cfg:"cookie_name" flag:"cookie-name"`
	Domain   string        `cfg:"cookie_domain" flag:"cookie-domain"`
	Path     string        `cfg:"cookie_path" flag:"cookie-path"`
	Expire   time.Duration `cfg:"cookie_expire" flag:"cookie-expire"`
	Secure   bool          `cfg:"cookie_secure" flag:"cookie-secure"`
	HTTPOnly bool          `cfg:"cookie_httponly" flag:"cookie-httponly"`
	SameSite string        `cfg:"cookie_samesite" flag:"cookie-samesite"`
}

// Session contains the options for the session record store.
type Session struct {
	Type               string `cfg:"session_store_type" flag:"session-store-type"`
	RedisConnectionURL string `cfg:"redis_connection_url" flag:"redis-connection-url"`
}

// Regulation contains the options for the login regulator.
// MaxRetries failed attempts within FindTime ban the user for BanTime.
// A MaxRetries of zero disables regulation.
type Regulation struct {
	MaxRetries int           `cfg:"regulation_max_retries" flag:"regulation-max-retries"`
	FindTime   time.Duration `cfg:"regulation_find_time" flag:"regulation-find-time"`
	BanTime    time.Duration `cfg:"regulation_ban_time" flag:"regulation-ban-time"`
}

// AccessControl contains the options for the access control rule set.
// Rules are list valued and therefore loaded from their own YAML file.
type AccessControl struct {
	DefaultPolicy string `cfg:"access_control_default_policy" flag:"access-control-default-policy"`
	RulesFile     string `cfg:"access_control_rules_file" flag:"access-control-rules-file"`

	Rules []Rule `cfg:",internal"`
}

// Rule is one entry of the ordered access control rule list.
type Rule struct {
	Domain    string   `json:"domain"`
	Policy    string   `json:"policy"`
	Resources []string `json:"resources,omitempty"`
	Subjects  []string `json:"subjects,omitempty"`
	Methods   []string `json:"methods,omitempty"`
}

// Authentication contains the options for the user directory backend.
type Authentication struct {
	UsersFile string `cfg:"users_file" flag:"users-file"`
}

// Notifier contains the options for outbound notification delivery.
type Notifier struct {
	FileSystemFilename string `cfg:"notifier_filesystem_filename" flag:"notifier-filesystem-filename"`
}

// TOTP contains the options for one-time-code second factor verification.
type TOTP struct {
	Issuer string `cfg:"totp_issuer" flag:"totp-issuer"`
	Skew   uint   `cfg:"totp_skew" flag:"totp-skew"`
}

// NewOptions constructs a new Options with defaulted values.
func NewOptions() *Options {
	return &Options{
		Server: Server{
			Address:      "127.0.0.1:9091",
			PingPath:     "/ping",
			MetricsPath:  "/metrics",
			ReverseProxy: true,
		},
		App: App{
			DefaultRedirectionURL: "/",
		},
		Cookie: Cookie{
			Name:     DefaultSessionCookieName,
			Path:     "/",
			Expire:   time.Hour,
			Secure:   true,
			HTTPOnly: true,
			SameSite: "lax",
		},
		Session: Session{
			Type: "memory",
		},
		Regulation: Regulation{
			MaxRetries: 3,
			FindTime:   2 * time.Minute,
			BanTime:    5 * time.Minute,
		},
		AccessControl: AccessControl{
			DefaultPolicy: "deny",
		},
		Logging: loggingDefaults(),
		TOTP: TOTP{
			Issuer: "gatewarden",
			Skew:   1,
		},
	}
}

// NewFlagSet creates a new FlagSet with all of the flags required by Options.
func NewFlagSet() *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("gatewarden", pflag.ExitOnError)

	flagSet.String("address", "127.0.0.1:9091", "listen address for the gateway")
	flagSet.String("ping-path", "/ping", "the ping endpoint path")
	flagSet.String("metrics-path", "/metrics", "the metrics endpoint path")
	flagSet.Bool("reverse-proxy", true, "trust X-Forwarded-* and X-Original-Url headers set by the upstream reverse proxy")

	flagSet.String("portal-url", "", "URL of the login portal unauthenticated clients are redirected to")
	flagSet.String("default-redirection-url", "/", "destination used after login when no safe redirect target was requested")
	flagSet.StringSlice("trusted-domain", []string{}, "domain(s) post-login redirects may target (may be given multiple times)")

	flagSet.String("cookie-name", DefaultSessionCookieName, "the name of the session ticket cookie")
	flagSet.String("cookie-domain", "", "an optional cookie domain to force cookies to")
	flagSet.String("cookie-path", "/", "an optional cookie path to force cookies to")
	flagSet.Duration("cookie-expire", time.Hour, "expire timeframe for the session ticket cookie")
	flagSet.Bool("cookie-secure", true, "set secure (HTTPS only) cookie flag")
	flagSet.Bool("cookie-httponly", true, "set HttpOnly cookie flag")
	flagSet.String("cookie-samesite", "lax", "set SameSite cookie attribute (\"lax\", \"strict\", \"none\", or \"\")")

	flagSet.String("session-store-type", "memory", "the session storage backend to use (\"memory\" or \"redis\")")
	flagSet.String("redis-connection-url", "", "URL of redis server for the regulation and session stores (eg: redis://HOST[:PORT])")

	flagSet.Int("regulation-max-retries", 3, "failed login attempts before a user is banned (0 disables regulation)")
	flagSet.Duration("regulation-find-time", 2*time.Minute, "window within which failed attempts are counted")
	flagSet.Duration("regulation-ban-time", 5*time.Minute, "how long a user stays banned after too many failures")

	flagSet.String("access-control-default-policy", "deny", "policy applied when no access control rule matches")
	flagSet.String("access-control-rules-file", "", "path to the YAML file holding the ordered access control rules")

	flagSet.String("users-file", "", "path to the YAML file holding the user directory")

	flagSet.String("notifier-filesystem-filename", "", "write notifications to this file instead of delivering them")

	flagSet.String("totp-issuer", "gatewarden", "issuer label for generated one-time-code keys")
	flagSet.Uint("totp-skew", 1, "accepted one-time-code periods either side of the current one")

	flagSet.Bool("auth-logging", true, "log authentication attempts")
	flagSet.String("auth-logging-format", "", "template for authentication log lines")
	flagSet.Bool("standard-logging", true, "log standard runtime information")
	flagSet.String("standard-logging-format", "", "template for standard log lines")
	flagSet.Bool("request-logging", true, "log requests")
	flagSet.String("request-logging-format", "", "template for request log lines")
	flagSet.StringSlice("exclude-logging-path", []string{}, "exclude logging requests to paths (eg: \"/path1,/path2,/path3\")")
	flagSet.Bool("silence-ping-logging", false, "disable logging of requests to ping endpoint")
	flagSet.String("request-id-header", "X-Request-Id", "request header to use as the request ID")
	flagSet.String("logging-filename", "", "file to log requests to, empty for stdout")
	flagSet.Int("logging-max-size", 100, "maximum size in megabytes of the log file before rotation")
	flagSet.Int("logging-max-age", 7, "maximum number of days to retain old log files")
	flagSet.Int("logging-max-backups", 0, "maximum number of old log files to retain; 0 to disable")
	flagSet.Bool("logging-compress", false, "should rotated log files be compressed using gzip")
	flagSet.Bool("logging-local-time", true, "if the time in log files and backup filenames are in the server's local time")

	return flagSet
}
