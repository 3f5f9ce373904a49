package authorization

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gatewarden/gatewarden/pkg/apis/options"
)

const (
	subjectUserPrefix  = "user:"
	subjectGroupPrefix = "group:"
	// subjectAny explicitly opens a rule to anonymous identities.
	subjectAny = "*"
)

// Identity is who is making the current request. It is produced by a
// verification strategy and lives only for the duration of one request. An
// empty User means the caller is anonymous.
type Identity struct {
	User   string
	Groups []string
}

// Anonymous reports whether the identity carries no verified user.
func (i Identity) Anonymous() bool {
	return i.User == ""
}

// Target is the resource a request is trying to reach.
type Target struct {
	Domain string
	Path   string
	Method string
}

// Rule is one compiled entry of the ordered access control rule list.
// A nil/empty Resources, Subjects or Methods set means "match anything".
type Rule struct {
	domain    string
	resources []*regexp.Regexp
	subjects  []string
	methods   []string
	policy    Policy
}

// NewRule compiles a configured access control rule.
func NewRule(rule options.Rule) (*Rule, error) {
	if rule.Domain == "" {
		return nil, fmt.Errorf("access control rule has no domain")
	}

	policy, err := NewPolicy(rule.Policy)
	if err != nil {
		return nil, err
	}

	if i := strings.Index(rule.Domain, "*"); i > 0 || (i == 0 && !strings.HasPrefix(rule.Domain, "*.")) {
		return nil, fmt.Errorf("domain pattern %q: a wildcard is only allowed as the left-most label", rule.Domain)
	}

	resources := make([]*regexp.Regexp, 0, len(rule.Resources))
	for _, res := range rule.Resources {
		re, err := regexp.Compile(res)
		if err != nil {
			return nil, fmt.Errorf("invalid resource pattern %q: %w", res, err)
		}
		resources = append(resources, re)
	}

	for _, subject := range rule.Subjects {
		if subject == subjectAny ||
			strings.HasPrefix(subject, subjectUserPrefix) ||
			strings.HasPrefix(subject, subjectGroupPrefix) {
			continue
		}
		return nil, fmt.Errorf("invalid subject %q: must be %q or start with %q or %q",
			subject, subjectAny, subjectUserPrefix, subjectGroupPrefix)
	}

	return &Rule{
		domain:    rule.Domain,
		resources: resources,
		subjects:  append([]string{}, rule.Subjects...),
		methods:   append([]string{}, rule.Methods...),
		policy:    policy,
	}, nil
}

// Policy returns the access requirement this rule attaches to matching
// requests.
func (r *Rule) Policy() Policy {
	return r.policy
}

// Matches reports whether this rule governs the given identity and target.
func (r *Rule) Matches(identity Identity, target Target) bool {
	return r.matchesDomain(target.Domain) &&
		r.matchesMethod(target.Method) &&
		r.matchesResources(target.Path) &&
		r.matchesSubjects(identity)
}

// matchesDomain matches the request domain exactly, or against a single
// left-most wildcard label: *.example.com matches app.example.com but
// neither example.com nor a.b.example.com.
func (r *Rule) matchesDomain(domain string) bool {
	if !strings.HasPrefix(r.domain, "*.") {
		return strings.EqualFold(r.domain, domain)
	}

	suffix := r.domain[1:] // ".example.com"
	if !strings.HasSuffix(strings.ToLower(domain), strings.ToLower(suffix)) {
		return false
	}

	label := domain[:len(domain)-len(suffix)]
	return label != "" && !strings.Contains(label, ".")
}

func (r *Rule) matchesMethod(method string) bool {
	if len(r.methods) == 0 {
		return true
	}
	for _, m := range r.methods {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}

func (r *Rule) matchesResources(path string) bool {
	if len(r.resources) == 0 {
		return true
	}
	for _, re := range r.resources {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// matchesSubjects matches the identity's user or any of its groups. An
// anonymous identity only matches rules with no subject restriction or with
// the explicit "any" marker.
func (r *Rule) matchesSubjects(identity Identity) bool {
	if len(r.subjects) == 0 {
		return true
	}

	for _, subject := range r.subjects {
		switch {
		case subject == subjectAny:
			return true
		case identity.Anonymous():
			continue
		case strings.HasPrefix(subject, subjectUserPrefix):
			if identity.User == subject[len(subjectUserPrefix):] {
				return true
			}
		case strings.HasPrefix(subject, subjectGroupPrefix):
			group := subject[len(subjectGroupPrefix):]
			for _, g := range identity.Groups {
				if g == group {
					return true
				}
			}
		}
	}
	return false
}
