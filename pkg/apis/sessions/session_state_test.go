package sessions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStateStartsUnauthenticated(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	state := NewState(now)

	assert.Equal(t, NotAuthenticated, state.AuthLevel)
	assert.False(t, state.Authenticated())
	assert.Empty(t, state.User)
	assert.Equal(t, now, state.LastActivity)
}

func TestResetReinitialisesEveryField(t *testing.T) {
	state := NewState(time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC))
	state.SetFirstFactor("bob", "bob@example.com", []string{"dev"})
	state.SetSecondFactor()
	state.PendingChallenge = &Challenge{Kind: "totp-registration"}

	resetTime := time.Date(2026, 8, 29, 13, 0, 0, 0, time.UTC)
	state.Reset(resetTime)

	assert.Equal(t, &State{
		AuthLevel:    NotAuthenticated,
		Groups:       []string{},
		LastActivity: resetTime,
	}, state)
}

func TestSetFirstFactor(t *testing.T) {
	state := NewState(time.Now())
	groups := []string{"dev"}
	state.SetFirstFactor("bob", "bob@example.com", groups)

	assert.True(t, state.Authenticated())
	assert.Equal(t, FirstFactor, state.AuthLevel)
	assert.Equal(t, "bob", state.User)

	// The session owns its own copy of the groups.
	groups[0] = "mutated"
	assert.Equal(t, []string{"dev"}, state.Groups)
}

func TestConsumeChallengeIsSingleUse(t *testing.T) {
	state := NewState(time.Now())
	state.PendingChallenge = &Challenge{Kind: "totp-registration", Data: []byte("token")}

	challenge := state.ConsumeChallenge()
	require.NotNil(t, challenge)
	assert.Equal(t, "totp-registration", challenge.Kind)

	assert.Nil(t, state.ConsumeChallenge())
	assert.Nil(t, state.PendingChallenge)
}

func TestStateMarshalRoundTrip(t *testing.T) {
	state := NewState(time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC))
	state.SetFirstFactor("bob", "bob@example.com", []string{"dev", "admins"})
	state.PendingChallenge = &Challenge{Kind: "totp-registration", Data: []byte("token"), IssuedAt: state.LastActivity}

	data, err := state.Marshal()
	require.NoError(t, err)

	decoded, err := DecodeState(data)
	require.NoError(t, err)
	assert.Equal(t, state, decoded)
}

func TestDecodeStateRejectsGarbage(t *testing.T) {
	_, err := DecodeState([]byte("not json"))
	assert.Error(t, err)
}

func TestAuthLevelString(t *testing.T) {
	assert.Equal(t, "not_authenticated", NotAuthenticated.String())
	assert.Equal(t, "one_factor", FirstFactor.String())
	assert.Equal(t, "two_factor", SecondFactor.String())
}
