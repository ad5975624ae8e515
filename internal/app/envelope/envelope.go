/*
Package envelope normalizes the heterogeneous JSON bodies returned by the auth endpoints.

Backends disagree on where they place the token and the user record. Each
lookup is an ordered list of extraction rules evaluated first-match-wins, so
adding a new shape is a one-line change and every shape is testable on its own.
*/
package envelope

import (
	"bytes"
	"encoding/json"
	"fmt"

	"schoolhub/internal/app/user"
)

// Envelope is a decoded auth response body.
type Envelope map[string]any

// Rule is a path of object keys leading from the envelope root to a value.
// The empty rule addresses the root itself.
type Rule []string

// TokenRules locate the session token in a login or register response.
var TokenRules = []Rule{
	{"access_token"},
	{"token"},
	{"data", "access_token"},
	{"data", "token"},
}

// UserRules locate the user record in a login or register response.
var UserRules = []Rule{
	{"user"},
	{"data", "user"},
}

// CurrentUserRules locate the user record in a "who am I" response.
var CurrentUserRules = []Rule{
	{"user"},
	{"data", "user"},
	{"data"},
	{},
}

// Decode parses body as an envelope. An empty body or a JSON null yields a nil
// envelope; any other non-object body is an error.
func Decode(body []byte) (Envelope, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("envelope: body is not a JSON object: %w", err)
	}
	return env, nil
}

// Lookup follows rule from the envelope root. ok is false if any step is missing
// or passes through a non-object value.
func (e Envelope) Lookup(rule Rule) (any, bool) {
	if e == nil {
		return nil, false
	}

	var current any = map[string]any(e)
	for _, key := range rule {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Token returns the first non-empty string found by TokenRules.
func (e Envelope) Token() (string, bool) {
	for _, rule := range TokenRules {
		v, ok := e.Lookup(rule)
		if !ok {
			continue
		}
		if s, ok := v.(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// User returns the first object found by UserRules.
func (e Envelope) User() (user.Profile, bool) {
	return firstObject(e, UserRules)
}

// CurrentUser returns the first non-empty object found by CurrentUserRules.
func (e Envelope) CurrentUser() (user.Profile, bool) {
	return firstObject(e, CurrentUserRules)
}

// IsEmpty reports whether the envelope carries no fields.
func (e Envelope) IsEmpty() bool {
	return len(e) == 0
}

func firstObject(e Envelope, rules []Rule) (user.Profile, bool) {
	for _, rule := range rules {
		v, ok := e.Lookup(rule)
		if !ok {
			continue
		}
		if obj, ok := v.(map[string]any); ok && len(obj) > 0 {
			return user.Profile(obj), true
		}
	}
	return nil, false
}
