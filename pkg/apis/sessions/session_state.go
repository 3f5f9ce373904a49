package sessions

import (
	"encoding/json"
	"fmt"
	"time"
)

// AuthLevel is the ordinal strength of the proof of identity attached to a
// session. Levels only ever increase within one login cycle; a logout or
// session reset returns the session to NotAuthenticated.
type AuthLevel int

const (
	// NotAuthenticated indicates no proof of identity has been provided.
	NotAuthenticated AuthLevel = iota
	// FirstFactor indicates the password check has succeeded.
	FirstFactor
	// SecondFactor indicates both the password check and a one-time-code or
	// hardware-key check have succeeded.
	SecondFactor
)

func (l AuthLevel) String() string {
	switch l {
	case FirstFactor:
		return "one_factor"
	case SecondFactor:
		return "two_factor"
	default:
		return "not_authenticated"
	}
}

// Challenge carries the opaque state of an in-progress second factor
// handshake (a registration or sign request). At most one challenge is
// outstanding per session; consuming it clears it whether or not the
// verification that follows succeeds.
type Challenge struct {
	Kind     string    `json:"kind"`
	Data     []byte    `json:"data,omitempty"`
	IssuedAt time.Time `json:"issuedAt"`
}

// State is the per-client authentication session record. It is created
// lazily at its zero level on first access and mutated only by the login,
// second factor and reset flows. The external session layer owns its
// lifetime; the gateway only ever resets its fields.
type State struct {
	AuthLevel        AuthLevel  `json:"authLevel"`
	User             string     `json:"user,omitempty"`
	Email            string     `json:"email,omitempty"`
	Groups           []string   `json:"groups,omitempty"`
	LastActivity     time.Time  `json:"lastActivity"`
	PendingChallenge *Challenge `json:"pendingChallenge,omitempty"`
}

// NewState returns a reset session record with its activity time stamped at
// now.
func NewState(now time.Time) *State {
	s := &State{}
	s.Reset(now)
	return s
}

// Reset reinitialises every field to its default and stamps the activity
// time. The record itself is preserved so the session layer keeps tracking
// the same client.
func (s *State) Reset(now time.Time) {
	*s = State{
		AuthLevel:    NotAuthenticated,
		Groups:       []string{},
		LastActivity: now,
	}
}

// Authenticated reports whether the session has at least a verified first
// factor.
func (s *State) Authenticated() bool {
	return s.AuthLevel >= FirstFactor
}

// SetFirstFactor records a successful password check. The user is set here
// and nowhere else, so User is non-empty exactly when AuthLevel is at least
// FirstFactor.
func (s *State) SetFirstFactor(user, email string, groups []string) {
	s.AuthLevel = FirstFactor
	s.User = user
	s.Email = email
	s.Groups = append([]string{}, groups...)
}

// SetSecondFactor records a successful second factor check. It is only
// meaningful on a session that already holds a first factor.
func (s *State) SetSecondFactor() {
	s.AuthLevel = SecondFactor
}

// ConsumeChallenge returns the pending second factor challenge and clears
// it. It returns nil if no challenge is outstanding.
func (s *State) ConsumeChallenge() *Challenge {
	c := s.PendingChallenge
	s.PendingChallenge = nil
	return c
}

// String constructs a summary of the session state.
func (s *State) String() string {
	o := fmt.Sprintf("Session{level:%s", s.AuthLevel)
	if s.User != "" {
		o += fmt.Sprintf(" user:%s", s.User)
	}
	if len(s.Groups) > 0 {
		o += fmt.Sprintf(" groups:%d", len(s.Groups))
	}
	if s.PendingChallenge != nil {
		o += " challenge:true"
	}
	return o + "}"
}

// Marshal encodes the session state for a persistent store.
func (s *State) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// DecodeState decodes session state previously encoded with Marshal.
func DecodeState(data []byte) (*State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("error unmarshalling session state: %w", err)
	}
	return &s, nil
}
