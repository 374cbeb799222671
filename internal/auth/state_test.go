package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTransitionAllowed_ValidPaths(t *testing.T) {
	cases := []struct {
		from State
		to   State
	}{
		{StateNoSession, StateAuthenticating},
		{StateAuthenticating, StateAuthenticated},
		{StateAuthenticating, StateChallengePending},
		{StateAuthenticating, StateFailed},
		{StateAuthenticated, StateAuthenticating}, // next scheduled run re-validates
	}
	for _, c := range cases {
		assert.True(t, IsTransitionAllowed(c.from, c.to), "%s → %s should be allowed", c.from, c.to)
	}
}

func TestIsTransitionAllowed_TerminalStates(t *testing.T) {
	terminals := []State{StateChallengePending, StateFailed}
	all := []State{StateNoSession, StateAuthenticating, StateAuthenticated, StateChallengePending, StateFailed}

	for _, from := range terminals {
		for _, to := range all {
			assert.False(t, IsTransitionAllowed(from, to), "%s is terminal, %s → %s must be rejected", from, from, to)
		}
	}

	//AUTHENTICATED only re-enters the authenticating state
	for _, to := range all {
		if to == StateAuthenticating {
			continue
		}
		assert.False(t, IsTransitionAllowed(StateAuthenticated, to))
	}
}

func TestIsTransitionAllowed_NoSkippingAuthenticating(t *testing.T) {
	assert.False(t, IsTransitionAllowed(StateNoSession, StateAuthenticated))
	assert.False(t, IsTransitionAllowed(StateNoSession, StateChallengePending))
	assert.False(t, IsTransitionAllowed(StateNoSession, StateFailed))
}

func TestSentinelErrorsAreDistinct(t *testing.T) {
	//run abort reporting relies on telling these two apart
	assert.False(t, errors.Is(ErrChallengePending, ErrLoginFailed))
	assert.False(t, errors.Is(ErrLoginFailed, ErrChallengePending))
}
