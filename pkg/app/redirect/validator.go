package redirect

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/gatewarden/gatewarden/pkg/logger"
)

var (
	// Used to check final redirects are not susceptible to open redirects.
	// Matches //, /\ and both of these with whitespace in between
	// (eg / / or / \).
	invalidRedirectRegex = regexp.MustCompile(`[/\\](?:[\s\v]*|\.{1,2})[/\\]`)
)

// Validator is an interface to allow validation of application redirect
// URLs. As these values are determined from the request, they must go
// through thorough checks to ensure the safety of the end user.
type Validator interface {
	IsValidRedirect(redirect string) bool
}

// NewValidator constructs a new redirect validator for the given trusted
// domains. A domain entry with a leading dot trusts all of its subdomains;
// a bare domain trusts itself and its subdomains.
func NewValidator(trustedDomains []string) Validator {
	return &validator{
		trustedDomains: trustedDomains,
	}
}

// validator implements the Validator interface to allow validation of
// redirect URLs.
type validator struct {
	trustedDomains []string
}

// IsValidRedirect checks whether the redirect URL is safe and allowed.
func (v *validator) IsValidRedirect(redirect string) bool {
	switch {
	case redirect == "":
		// The user didn't specify a redirect; callers fall back to the
		// default destination.
		return false
	case strings.HasPrefix(redirect, "/") && !strings.HasPrefix(redirect, "//") && !invalidRedirectRegex.MatchString(redirect):
		return true
	case strings.HasPrefix(redirect, "http://") || strings.HasPrefix(redirect, "https://"):
		redirectURL, err := url.Parse(redirect)
		if err != nil {
			logger.Printf("Rejecting invalid redirect %q: scheme unsupported or missing", redirect)
			return false
		}

		if v.isTrustedHost(redirectURL.Hostname()) {
			return true
		}

		logger.Printf("Rejecting invalid redirect %q: domain not trusted", redirect)
		return false
	default:
		logger.Printf("Rejecting invalid redirect %q: not an absolute or relative URL", redirect)
		return false
	}
}

func (v *validator) isTrustedHost(host string) bool {
	if host == "" {
		return false
	}
	host = strings.ToLower(host)

	for _, domain := range v.trustedDomains {
		domain = strings.ToLower(domain)
		switch {
		case strings.HasPrefix(domain, "."):
			if strings.HasSuffix(host, domain) {
				return true
			}
		case host == domain || strings.HasSuffix(host, "."+domain):
			return true
		}
	}
	return false
}
