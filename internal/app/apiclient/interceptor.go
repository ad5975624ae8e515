package apiclient

import (
	"context"
	"encoding/json"
	"net/http"

	"schoolhub/internal/pkg/errs"
	"schoolhub/internal/pkg/logx"
)

// errorBody is the subset of an error response the client understands.
type errorBody struct {
	Message string                     `json:"message"`
	Error   any                        `json:"error"`
	Errors  map[string]json.RawMessage `json:"errors"`
}

// handleError classifies a non-2xx response and performs its side effects.
func (c *Client) handleError(ctx context.Context, status int, data []byte) error {
	body := parseErrorBody(data)
	msg := body.message()

	switch status {
	case http.StatusUnauthorized:
		logx.Warn("Unauthorized response, clearing session and redirecting to login")
		c.evict(ctx)
		return errs.NewError(errs.ErrUnauthorized).WithServerMessage(msg)

	case http.StatusForbidden:
		logx.Warn("Access denied", "message", msg)
		return errs.NewError(errs.ErrForbidden).WithServerMessage(msg)

	case http.StatusUnprocessableEntity:
		fields := body.fields()
		logx.Warn("Validation errors", "fields", fields)
		return errs.NewError(errs.ErrValidationFailed).WithServerMessage(msg).WithFields(fields)

	case http.StatusInternalServerError:
		logx.Error(nil, "Server error", "message", msg)
		return errs.NewError(errs.ErrServerError).WithServerMessage(msg)

	default:
		logx.Warn("API error", "status", status, "message", msg)
		return errs.NewError(errs.ErrAPI).WithStatus(status).WithServerMessage(msg)
	}
}

// evict clears stored session data, notifies the session owner, and forces
// navigation to the login view unless it is already current.
func (c *Client) evict(ctx context.Context) {
	c.tokens.ClearAll(ctx)

	c.mu.RLock()
	onUnauthorized := c.onUnauthorized
	navigator := c.navigator
	c.mu.RUnlock()

	if onUnauthorized != nil {
		onUnauthorized(ctx)
	}

	if navigator != nil && navigator.CurrentPath() != LoginPath {
		navigator.Redirect(LoginPath)
	}
}

func parseErrorBody(data []byte) errorBody {
	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil {
		return errorBody{}
	}
	return body
}

func (b errorBody) message() string {
	if b.Message != "" {
		return b.Message
	}
	if s, ok := b.Error.(string); ok {
		return s
	}
	return ""
}

// fields normalizes "errors" entries that are either a list of messages or a single message.
func (b errorBody) fields() map[string][]string {
	if len(b.Errors) == 0 {
		return nil
	}

	fields := make(map[string][]string, len(b.Errors))
	for name, raw := range b.Errors {
		var list []string
		if err := json.Unmarshal(raw, &list); err == nil {
			fields[name] = list
			continue
		}
		var single string
		if err := json.Unmarshal(raw, &single); err == nil {
			fields[name] = []string{single}
		}
	}
	return fields
}
