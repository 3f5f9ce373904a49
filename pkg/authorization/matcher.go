package authorization

import (
	"fmt"

	"github.com/gatewarden/gatewarden/pkg/apis/options"
	"github.com/gatewarden/gatewarden/pkg/apis/sessions"
)

// Decision is the outcome of evaluating the rule set for one request.
type Decision int

const (
	// Denied means policy forbids the request regardless of authentication
	// level. The client cannot recover by logging in.
	Denied Decision = iota
	// Granted means the request may pass.
	Granted
	// InsufficientLevel means the governing rule demands a stronger
	// authentication level than the session currently holds.
	InsufficientLevel
)

func (d Decision) String() string {
	switch d {
	case Granted:
		return "granted"
	case InsufficientLevel:
		return "insufficient_level"
	default:
		return "denied"
	}
}

// Result carries the decision together with the level the governing rule
// requires. RequiredLevel is only meaningful when the decision is
// InsufficientLevel.
type Result struct {
	Decision      Decision
	RequiredLevel sessions.AuthLevel
}

// Matcher evaluates the immutable, ordered access control rule set. It holds
// no mutable state after construction and is safe for concurrent use by any
// number of requests without locking.
type Matcher struct {
	rules         []*Rule
	defaultPolicy Policy
}

// NewMatcher compiles the configured rule set. Rule order is preserved:
// evaluation is strictly first-match-wins, not most-specific-wins.
func NewMatcher(config options.AccessControl) (*Matcher, error) {
	defaultPolicy, err := NewPolicy(config.DefaultPolicy)
	if err != nil {
		return nil, fmt.Errorf("invalid default policy: %w", err)
	}

	rules := make([]*Rule, 0, len(config.Rules))
	for i, rc := range config.Rules {
		rule, err := NewRule(rc)
		if err != nil {
			return nil, fmt.Errorf("invalid access control rule %d: %w", i+1, err)
		}
		rules = append(rules, rule)
	}

	return &Matcher{
		rules:         rules,
		defaultPolicy: defaultPolicy,
	}, nil
}

// Authorize walks the rule list in declaration order and applies the policy
// of the first rule matching the identity and target. When no rule matches,
// the configured default policy governs.
func (m *Matcher) Authorize(identity Identity, target Target, level sessions.AuthLevel) Result {
	policy := m.defaultPolicy
	for _, rule := range m.rules {
		if rule.Matches(identity, target) {
			policy = rule.Policy()
			break
		}
	}

	return apply(policy, level)
}

func apply(policy Policy, level sessions.AuthLevel) Result {
	switch policy {
	case PolicyBypass:
		return Result{Decision: Granted}
	case PolicyDeny:
		return Result{Decision: Denied}
	default:
		required := policy.RequiredLevel()
		if level >= required {
			return Result{Decision: Granted}
		}
		return Result{Decision: InsufficientLevel, RequiredLevel: required}
	}
}
