package session

import (
	"maps"

	"schoolhub/internal/app/user"
)

// Phase is the lifecycle position of the session.
type Phase string

const (
	// PhaseAnonymous means no token is held.
	PhaseAnonymous Phase = "anonymous"

	// PhaseAuthenticating means a login or register request is in flight.
	PhaseAuthenticating Phase = "authenticating"

	// PhaseAuthenticated means a token is held.
	PhaseAuthenticated Phase = "authenticated"

	// PhaseRehydrating means stored session data is being checked.
	PhaseRehydrating Phase = "rehydrating"

	// PhaseExpired is the transient phase after the backend rejected the token.
	PhaseExpired Phase = "expired"
)

// State is a snapshot of the session.
type State struct {
	Phase   Phase
	User    user.Profile
	Token   string
	Role    string
	Loading bool
	Error   string
}

// IsAuthenticated reports whether a token is held.
func (s State) IsAuthenticated() bool {
	return s.Token != ""
}

// DisplayName is the first non-empty of the user's name, full_name, username and email.
func (s State) DisplayName() string {
	return s.User.DisplayName()
}

func (s State) clone() State {
	s.User = maps.Clone(s.User)
	return s
}

// settledPhase is the resting phase for the held credentials.
func (s State) settledPhase() Phase {
	if s.Token != "" {
		return PhaseAuthenticated
	}
	return PhaseAnonymous
}
