/*
Package authsvc calls the backend's authentication endpoints.

Operations are stateless: each one issues a request through the shared API
client and returns normalized data or an error. Persistence is delegated to the
token store; the passthrough helpers exist so callers have one surface for
everything auth related.
*/
package authsvc

import (
	"context"
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"

	"schoolhub/internal/app/envelope"
	"schoolhub/internal/app/tokenstore"
	"schoolhub/internal/app/user"
	"schoolhub/internal/pkg/errs"
	"schoolhub/internal/pkg/logx"
	"schoolhub/internal/pkg/result"
)

// API is the subset of the request pipeline the auth service uses.
type API interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
}

// Credentials are the login form fields.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the sign-up form. Extra carries any additional fields the
// backend accepts (name, role, password_confirmation, ...).
type Registration struct {
	Email    string
	Password string
	Extra    map[string]any
}

// payload merges the registration into a single JSON object.
func (r Registration) payload() map[string]any {
	body := make(map[string]any, len(r.Extra)+2)
	for k, v := range r.Extra {
		body[k] = v
	}
	body["email"] = r.Email
	body["password"] = r.Password
	return body
}

// LogoutResult is the outcome of a remote logout. A failed logout is reported
// here instead of as an error so local cleanup can always proceed.
type LogoutResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Service performs auth requests.
type Service struct {
	api    API
	tokens *tokenstore.Store
}

// New returns a Service using api for requests and tokens for persistence.
func New(api API, tokens *tokenstore.Store) *Service {
	return &Service{api: api, tokens: tokens}
}

// Login validates credentials locally and posts them to /login, returning the raw envelope.
func (s *Service) Login(ctx context.Context, creds Credentials) (envelope.Envelope, error) {
	if err := requireEmailPassword(creds.Email, creds.Password); err != nil {
		return nil, err
	}

	var env envelope.Envelope
	if err := s.api.Post(ctx, "/login", creds, &env); err != nil {
		logx.Warn("Login error", "error", err.Error())
		return nil, err
	}
	return env, nil
}

// Register validates the registration locally and posts it to /register.
func (s *Service) Register(ctx context.Context, reg Registration) (envelope.Envelope, error) {
	if err := requireEmailPassword(reg.Email, reg.Password); err != nil {
		return nil, err
	}

	var env envelope.Envelope
	if err := s.api.Post(ctx, "/register", reg.payload(), &env); err != nil {
		logx.Warn("Registration error", "error", err.Error())
		return nil, err
	}
	return env, nil
}

// Logout posts to /logout. It never returns an error.
func (s *Service) Logout(ctx context.Context) LogoutResult {
	if err := s.api.Post(ctx, "/logout", nil, nil); err != nil {
		logx.Warn("Logout error", "error", err.Error())
		return LogoutResult{Success: false, Message: "Logout failed"}
	}
	return LogoutResult{Success: true}
}

// CurrentUser fetches /user and normalizes the profile. An empty response is
// reported as (nil, nil).
func (s *Service) CurrentUser(ctx context.Context) (user.Profile, error) {
	var env envelope.Envelope
	if err := s.api.Get(ctx, "/user", nil, &env); err != nil {
		logx.Warn("Get user error", "error", err.Error())
		return nil, err
	}

	profile, ok := env.CurrentUser()
	if !ok {
		return nil, nil
	}
	return profile, nil
}

// FetchUser is CurrentUser for paths where failure is advisory.
func (s *Service) FetchUser(ctx context.Context) result.BestEffort[user.Profile] {
	profile, err := s.CurrentUser(ctx)
	return result.Of(profile, err)
}

// SetAuthData persists an auth envelope.
func (s *Service) SetAuthData(ctx context.Context, env envelope.Envelope) {
	s.tokens.SetAuthData(ctx, env)
}

// ClearAuthData removes all stored session data.
func (s *Service) ClearAuthData(ctx context.Context) {
	s.tokens.ClearAll(ctx)
}

// IsAuthenticated reports whether a valid token is stored.
func (s *Service) IsAuthenticated(ctx context.Context) bool {
	return s.tokens.IsAuthenticated(ctx)
}

// Role returns the stored role.
func (s *Service) Role(ctx context.Context) (string, bool) {
	return s.tokens.Role(ctx)
}

// Profile returns the stored user profile.
func (s *Service) Profile(ctx context.Context) (user.Profile, bool) {
	return s.tokens.Profile(ctx)
}

// requireEmailPassword is the only local check; everything else is validated by the backend.
func requireEmailPassword(email, password string) error {
	err := validation.Errors{
		"email":    validation.Validate(strings.TrimSpace(email), validation.Required),
		"password": validation.Validate(password, validation.Required),
	}.Filter()
	if err == nil {
		return nil
	}

	var fields map[string][]string
	if verrs, ok := err.(validation.Errors); ok {
		fields = make(map[string][]string, len(verrs))
		for name, fieldErr := range verrs {
			fields[name] = []string{fieldErr.Error()}
		}
	}
	return errs.Wrap(errs.ErrInvalidInput, err, "Email and password are required").WithFields(fields)
}
