// Package auth establishes an authenticated browser session, preferring a
// stored session over credential submission.
//
// State graph:
//
//	NO_SESSION ──► AUTHENTICATING ──► AUTHENTICATED ──┐
//	                     │     ▲                      │
//	                     │     └──────────────────────┘  (next run re-validates)
//	                     ├──► CHALLENGE_PENDING  (terminal for the run)
//	                     └──► FAILED             (terminal for the run)
package auth

import "errors"

type State string

const (
	StateNoSession        State = "NO_SESSION"
	StateAuthenticating   State = "AUTHENTICATING"
	StateAuthenticated    State = "AUTHENTICATED"
	StateChallengePending State = "CHALLENGE_PENDING"
	StateFailed           State = "FAILED"
)

// ErrChallengePending means the service demanded interactive identity
// verification. Retrying in-process will not help: a human must supply a
// freshly captured session before the next run.
var ErrChallengePending = errors.New("security challenge pending, manual intervention required")

// ErrLoginFailed covers invalid credentials and any other hard
// authentication failure. Terminal for the run.
var ErrLoginFailed = errors.New("login failed, check credentials")

var validTransitions = map[State][]State{
	StateNoSession:      {StateAuthenticating},
	StateAuthenticating: {StateAuthenticated, StateChallengePending, StateFailed},
	// a scheduled process authenticates again at the start of each run
	StateAuthenticated: {StateAuthenticating},
	// CHALLENGE_PENDING and FAILED are terminal within a run
}

// IsTransitionAllowed returns true when moving from → to is permitted.
func IsTransitionAllowed(from, to State) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
