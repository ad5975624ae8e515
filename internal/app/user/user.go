/*
Package user contains the data structures describing the signed-in user.

The backend returns user records of varying shape, so a Profile is kept as the
decoded JSON object and read through accessors rather than mapped onto a fixed
struct. This keeps the stored copy deep-equal to what the server sent.
*/
package user

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Role is the authorization level used for route decisions. Stored values are
// not checked against this set; any string is compared by equality.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Label returns the role for display, e.g. "Teacher". The empty role is "No role".
func (r Role) Label() string {
	if r == "" {
		return "No role"
	}
	return cases.Title(language.English).String(strings.ToLower(string(r)))
}

// displayNameFields lists the profile fields consulted for a display name, in priority order.
var displayNameFields = []string{"name", "full_name", "username", "email"}

// Profile is a user record as returned by the backend.
type Profile map[string]any

// Role returns the profile's role, or "" when absent or not a string.
func (p Profile) Role() string {
	return p.str("role")
}

// DisplayName returns the first non-empty of name, full_name, username and email.
func (p Profile) DisplayName() string {
	for _, field := range displayNameFields {
		if v := p.str(field); v != "" {
			return v
		}
	}
	return ""
}

// Email returns the profile's email address, or "".
func (p Profile) Email() string {
	return p.str("email")
}

func (p Profile) str(field string) string {
	v, ok := p[field].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}
