/*
Package resource holds what the CRUD services for classrooms, students and
grades share: the HTTP surface they call and the path and query builders.

The services are pass-through. Response bodies come back as raw JSON and
errors from the HTTP client are returned unchanged.
*/
package resource

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"schoolhub/internal/pkg/errs"
)

// API is the HTTP client surface used by the resource services.
type API interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
}

// Path joins base with escaped ids, e.g. Path("/grades", "classroom", "7").
// Empty ids and the dot segments "." and ".." are rejected before any request
// is made; the client would collapse a dot segment into a different endpoint.
func Path(base string, ids ...string) (string, error) {
	var b strings.Builder
	b.WriteString(base)
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			return "", errs.NewError(errs.ErrInvalidInput, "An id is required.")
		}
		if id == "." || id == ".." {
			return "", errs.NewError(errs.ErrInvalidInput, fmt.Sprintf("%q is not a valid id.", id))
		}
		b.WriteByte('/')
		b.WriteString(url.PathEscape(id))
	}
	return b.String(), nil
}

// ListParams are the query parameters list endpoints accept. Extra is merged
// last and overrides the typed fields.
type ListParams struct {
	Page    int
	PerPage int
	Search  string
	Extra   url.Values
}

// Values encodes p. Zero fields are omitted.
func (p ListParams) Values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(p.PerPage))
	}
	if s := strings.TrimSpace(p.Search); s != "" {
		v.Set("search", s)
	}
	for key, values := range p.Extra {
		v[key] = append([]string(nil), values...)
	}
	return v
}
