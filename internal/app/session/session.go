/*
Package session owns the authenticated-session lifecycle of the client.

A Controller composes the auth service and the token store into the login,
register, logout and rehydrate actions and exposes the derived state
(is-authenticated, role, display name) to the rest of the application. There
is one Controller per process; it is passed by reference to whoever needs it.

The Controller restores token, role and cached profile from the token store
when it is built, without any network call, so it can answer route decisions
before CheckAuth has run. Concurrent Login/Register calls are rejected while
one is in flight; concurrent Logout and CheckAuth calls are coalesced.
*/
package session

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"schoolhub/internal/app/authsvc"
	"schoolhub/internal/app/envelope"
	"schoolhub/internal/app/tokenstore"
	"schoolhub/internal/app/user"
	"schoolhub/internal/pkg/errs"
	"schoolhub/internal/pkg/logx"
	"schoolhub/internal/pkg/result"
)

const (
	loginFailed        = "Login failed"
	registrationFailed = "Registration failed"
)

// Auth is the subset of the auth service the Controller drives.
type Auth interface {
	Login(ctx context.Context, creds authsvc.Credentials) (envelope.Envelope, error)
	Register(ctx context.Context, reg authsvc.Registration) (envelope.Envelope, error)
	Logout(ctx context.Context) authsvc.LogoutResult
	CurrentUser(ctx context.Context) (user.Profile, error)
	FetchUser(ctx context.Context) result.BestEffort[user.Profile]
}

// Controller is the single owner of session state.
type Controller struct {
	auth   Auth
	tokens *tokenstore.Store

	mu       sync.RWMutex
	state    State
	inflight string
	subs     map[int]func(State)
	nextSub  int

	group singleflight.Group
}

// New builds a Controller and restores any stored session without network access.
func New(ctx context.Context, auth Auth, tokens *tokenstore.Store) *Controller {
	c := &Controller{
		auth:   auth,
		tokens: tokens,
		subs:   make(map[int]func(State)),
	}
	c.state = c.restore(ctx)
	return c
}

func (c *Controller) restore(ctx context.Context) State {
	token, ok := c.tokens.Token(ctx)
	if !ok || !tokenstore.IsValid(token) {
		return State{Phase: PhaseAnonymous}
	}

	s := State{Phase: PhaseAuthenticated, Token: token}
	if profile, ok := c.tokens.Profile(ctx); ok {
		s.User = profile
		s.Role = profile.Role()
	}
	if s.Role == "" {
		s.Role, _ = c.tokens.Role(ctx)
	}
	return s
}

// Login authenticates with credentials and returns the raw auth envelope.
// On failure the session error is set to the server message or "Login failed".
func (c *Controller) Login(ctx context.Context, creds authsvc.Credentials) (envelope.Envelope, error) {
	if err := c.begin("login"); err != nil {
		return nil, err
	}
	defer c.end()

	return c.authenticate(ctx, loginFailed, func() (envelope.Envelope, error) {
		return c.auth.Login(ctx, creds)
	})
}

// Register creates an account and signs in with it.
// On failure the session error is set to the server message or "Registration failed".
func (c *Controller) Register(ctx context.Context, reg authsvc.Registration) (envelope.Envelope, error) {
	if err := c.begin("registration"); err != nil {
		return nil, err
	}
	defer c.end()

	return c.authenticate(ctx, registrationFailed, func() (envelope.Envelope, error) {
		return c.auth.Register(ctx, reg)
	})
}

func (c *Controller) authenticate(ctx context.Context, fallback string, call func() (envelope.Envelope, error)) (envelope.Envelope, error) {
	c.update(func(s *State) {
		s.Phase = PhaseAuthenticating
		s.Loading = true
		s.Error = ""
	})

	env, err := call()
	if err != nil {
		msg := fallback
		if customErr := errs.As(err); customErr != nil && customErr.ServerMessage != "" {
			msg = customErr.ServerMessage
		}
		c.update(func(s *State) {
			s.Loading = false
			s.Error = msg
			s.Phase = s.settledPhase()
		})
		return nil, err
	}

	c.tokens.SetAuthData(ctx, env)

	token, ok := env.Token()
	if !ok {
		token, _ = c.tokens.Token(ctx)
	}

	profile, hasUser := env.User()
	if !hasUser {
		fetched := c.auth.FetchUser(ctx)
		if p, ok := fetched.Get(); ok && len(p) > 0 {
			profile = p
			c.tokens.SetProfile(ctx, p)
		} else if !fetched.OK() {
			logx.Warn("session: profile fetch after sign-in failed", "error", fetched.Err.Error())
			if errs.Is(fetched.Err, errs.ErrUnauthorized) {
				// The token was rejected and the session already evicted.
				c.update(func(s *State) { s.Loading = false })
				return nil, fetched.Err
			}
		}
	}

	c.update(func(s *State) {
		s.Token = token
		s.User = profile
		s.Role = profile.Role()
		s.Loading = false
		s.Error = ""
		s.Phase = s.settledPhase()
	})

	return env, nil
}

// Logout signs out remotely and always clears local session data. Concurrent
// calls share one remote request.
func (c *Controller) Logout(ctx context.Context) {
	_, _, _ = c.group.Do("logout", func() (any, error) {
		res := c.auth.Logout(ctx)
		if !res.Success {
			logx.Info("session: remote logout failed, clearing local session anyway")
		}

		c.tokens.ClearAll(ctx)
		c.replace(State{Phase: PhaseAnonymous})
		return nil, nil
	})
}

// CheckAuth rehydrates the session from storage. An invalid token, or a
// missing profile that cannot be fetched, ends in a logout. It never fails.
func (c *Controller) CheckAuth(ctx context.Context) {
	_, _, _ = c.group.Do("check", func() (any, error) {
		c.checkAuth(ctx)
		return nil, nil
	})
}

func (c *Controller) checkAuth(ctx context.Context) {
	c.update(func(s *State) { s.Phase = PhaseRehydrating })

	token, ok := c.tokens.Token(ctx)
	if !ok || !tokenstore.IsValid(token) {
		c.Logout(ctx)
		return
	}

	c.update(func(s *State) { s.Token = token })

	if profile, ok := c.tokens.Profile(ctx); ok {
		role := profile.Role()
		if role == "" {
			role, _ = c.tokens.Role(ctx)
		}
		c.update(func(s *State) {
			s.User = profile
			s.Role = role
			s.Phase = PhaseAuthenticated
		})
		return
	}

	profile, err := c.auth.CurrentUser(ctx)
	if err != nil || len(profile) == 0 {
		if err != nil {
			logx.Warn("session: could not load current user, signing out", "error", err.Error())
		}
		c.Logout(ctx)
		return
	}

	c.tokens.SetProfile(ctx, profile)
	c.update(func(s *State) {
		s.User = profile
		s.Role = profile.Role()
		s.Phase = PhaseAuthenticated
	})
}

// Evict drops the session after the backend rejected the token. No request is made.
func (c *Controller) Evict(ctx context.Context) {
	c.tokens.ClearAll(ctx)
	c.replace(State{Phase: PhaseExpired})
	c.replace(State{Phase: PhaseAnonymous})
}

// Purge clears stored and in-memory session data without a remote logout.
func (c *Controller) Purge(ctx context.Context) {
	c.tokens.ClearAll(ctx)
	c.replace(State{Phase: PhaseAnonymous})
}

// ClearError resets the error message only.
func (c *Controller) ClearError() {
	c.update(func(s *State) { s.Error = "" })
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.clone()
}

// IsAuthenticated reports whether a token is held.
func (c *Controller) IsAuthenticated() bool {
	return c.Snapshot().IsAuthenticated()
}

// Token returns the held token, or "".
func (c *Controller) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Token
}

// Role returns the held role, or "".
func (c *Controller) Role() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Role
}

// DisplayName returns the user's display name, or "".
func (c *Controller) DisplayName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.DisplayName()
}

// Subscribe registers fn to receive a snapshot after every state change.
// The returned function removes the subscription.
func (c *Controller) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *Controller) begin(action string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inflight != "" {
		return errs.NewError(errs.ErrSessionBusy, c.inflight)
	}
	c.inflight = action
	return nil
}

func (c *Controller) end() {
	c.mu.Lock()
	c.inflight = ""
	c.mu.Unlock()
}

func (c *Controller) update(fn func(*State)) {
	c.mu.Lock()
	fn(&c.state)
	snapshot, subs := c.state.clone(), c.subscribers()
	c.mu.Unlock()

	for _, sub := range subs {
		sub(snapshot)
	}
}

func (c *Controller) replace(s State) {
	c.update(func(current *State) { *current = s })
}

// subscribers copies the subscription list. Callers hold mu.
func (c *Controller) subscribers() []func(State) {
	subs := make([]func(State), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	return subs
}
