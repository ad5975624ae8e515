/*
Package tokenstore persists the session token, role, and user profile in a durable key-value area.

Every operation fails soft: storage errors are logged and turned into a safe
default (absent, false, or no-op) so callers never have to handle them. The
store checks only the presence and shape of a token, never its signature or
expiry; that is the backend's job.
*/
package tokenstore

import (
	"context"
	"encoding/json"

	"schoolhub/internal/app/envelope"
	"schoolhub/internal/app/user"
	"schoolhub/internal/pkg/kv"
	"schoolhub/internal/pkg/logx"
)

// Storage keys.
const (
	KeyToken = "token"
	KeyRole  = "role"
	KeyUser  = "user"
)

// absentMarkers are stringified absent values that some storage round-trips produce.
var absentMarkers = map[string]struct{}{
	"null":      {},
	"undefined": {},
}

// IsValid reports whether token is a usable session token: non-empty and not
// one of the literal markers "null" or "undefined".
func IsValid(token string) bool {
	if token == "" {
		return false
	}
	_, marker := absentMarkers[token]
	return !marker
}

// Store reads and writes session data through a kv.Store.
type Store struct {
	kv kv.Store
}

// New returns a Store backed by area.
func New(area kv.Store) *Store {
	return &Store{kv: area}
}

// Token returns the stored token. The literal markers "null" and "undefined"
// are reported as absent.
func (s *Store) Token(ctx context.Context) (string, bool) {
	v, ok := s.get(ctx, KeyToken)
	if !ok {
		return "", false
	}
	if _, marker := absentMarkers[v]; marker {
		return "", false
	}
	return v, true
}

// SetToken stores token if it is a non-empty string and removes the key otherwise.
func (s *Store) SetToken(ctx context.Context, token string) {
	if token == "" {
		s.remove(ctx, KeyToken)
		return
	}
	s.set(ctx, KeyToken, token)
}

// Role returns the stored role.
func (s *Store) Role(ctx context.Context) (string, bool) {
	v, ok := s.get(ctx, KeyRole)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Profile returns the stored user profile. Malformed JSON is reported as absent.
func (s *Store) Profile(ctx context.Context) (user.Profile, bool) {
	raw, ok := s.get(ctx, KeyUser)
	if !ok {
		return nil, false
	}

	var profile user.Profile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		logx.Warn("tokenstore: stored user profile is not valid JSON, ignoring it", "error", err.Error())
		return nil, false
	}
	if len(profile) == 0 {
		return nil, false
	}
	return profile, true
}

// SetAuthData persists the token, the user profile, and the user's role found
// in an auth response envelope. An empty envelope is a no-op; parts missing
// from the envelope leave the stored values untouched.
func (s *Store) SetAuthData(ctx context.Context, env envelope.Envelope) {
	if env.IsEmpty() {
		return
	}

	if token, ok := env.Token(); ok {
		s.set(ctx, KeyToken, token)
	}

	if profile, ok := env.User(); ok {
		s.SetProfile(ctx, profile)
	}
}

// SetProfile persists profile and, when it carries one, its role.
func (s *Store) SetProfile(ctx context.Context, profile user.Profile) {
	if len(profile) == 0 {
		return
	}

	data, err := json.Marshal(profile)
	if err != nil {
		logx.Error(err, "tokenstore: failed to encode user profile")
		return
	}
	s.set(ctx, KeyUser, string(data))

	if role := profile.Role(); role != "" {
		s.set(ctx, KeyRole, role)
	}
}

// IsAuthenticated reports whether a valid token is stored.
func (s *Store) IsAuthenticated(ctx context.Context) bool {
	token, ok := s.Token(ctx)
	return ok && IsValid(token)
}

// ClearAll removes the token, role, and user entries.
func (s *Store) ClearAll(ctx context.Context) {
	if err := s.kv.Delete(ctx, KeyToken, KeyRole, KeyUser); err != nil {
		logx.Error(err, "tokenstore: failed to clear session data")
	}
}

func (s *Store) get(ctx context.Context, key string) (string, bool) {
	v, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		logx.Error(err, "tokenstore: read failed", "key", key)
		return "", false
	}
	return v, ok
}

func (s *Store) set(ctx context.Context, key, value string) {
	if err := s.kv.Set(ctx, key, value); err != nil {
		logx.Error(err, "tokenstore: write failed", "key", key)
	}
}

func (s *Store) remove(ctx context.Context, key string) {
	if err := s.kv.Delete(ctx, key); err != nil {
		logx.Error(err, "tokenstore: delete failed", "key", key)
	}
}
