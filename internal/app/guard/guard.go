/*
Package guard decides, for every navigation, whether the target page may be
shown or where the user should be sent instead.

Routes are matched with a chi routing tree so patterns such as
"/classrooms/{id}" resolve the same way they would on a server. The guard reads
the token and role from a Source, which is normally the session Controller.
*/
package guard

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"schoolhub/internal/app/tokenstore"
	"schoolhub/internal/pkg/errs"
	"schoolhub/internal/pkg/logx"
)

// maxRedirects bounds how many guard redirects one navigation may follow.
const maxRedirects = 5

// Source supplies the session facts the guard decides on.
type Source interface {
	Token() string
	Role() string
	// Purge drops stored and in-memory session data without a remote call.
	Purge(ctx context.Context)
}

// Decision is the guard's verdict for one target. Redirect is empty when the
// target is allowed.
type Decision struct {
	Pattern  string
	Redirect string
}

// Allowed reports whether the target may be shown.
func (d Decision) Allowed() bool {
	return d.Redirect == ""
}

// Router resolves navigation targets and tracks the current location.
type Router struct {
	src    Source
	mux    *chi.Mux
	routes map[string]Route

	mu       sync.RWMutex
	location string
	params   map[string]string
}

// New builds a Router over routes. With no routes, DefaultRoutes is used.
func New(src Source, routes ...Route) *Router {
	if len(routes) == 0 {
		routes = DefaultRoutes
	}

	r := &Router{
		src:    src,
		mux:    chi.NewRouter(),
		routes: make(map[string]Route, len(routes)),
	}

	noop := func(http.ResponseWriter, *http.Request) {}
	for _, route := range routes {
		r.mux.Get(route.Pattern, noop)
		r.routes[route.Pattern] = route
	}
	return r
}

// Resolve runs the guard once for target without changing the current location.
func (r *Router) Resolve(ctx context.Context, target string) (Decision, error) {
	route, _, full, err := r.match(target)
	if err != nil {
		return Decision{}, err
	}

	d := Decision{Pattern: route.Pattern}
	if route.RedirectTo != "" {
		d.Redirect = route.RedirectTo
		return d, nil
	}
	d.Redirect = r.check(ctx, route, full)
	return d, nil
}

func (r *Router) check(ctx context.Context, route Route, full string) string {
	token := r.src.Token()
	hasToken := tokenstore.IsValid(token)
	role := r.src.Role()

	if route.Meta.RequiresAuth && !hasToken {
		r.src.Purge(ctx)
		q := url.Values{}
		q.Set("redirect", full)
		q.Set("message", SessionExpiredMessage)
		return LoginPath + "?" + q.Encode()
	}

	if (route.Pattern == LoginPath || route.Pattern == RegisterPath) && hasToken {
		return DashboardPath
	}

	if len(route.Meta.Roles) > 0 {
		if role == "" {
			return LoginPath
		}
		if !slices.Contains(route.Meta.Roles, role) {
			return DashboardPath
		}
	}
	return ""
}

// Navigate opens target, following guard redirects, and returns the location
// that was finally shown.
func (r *Router) Navigate(ctx context.Context, target string) (string, error) {
	current := target
	for attempt := 0; attempt < maxRedirects+1; attempt++ {
		route, params, full, err := r.match(current)
		if err != nil {
			return "", err
		}

		var next string
		if route.RedirectTo != "" {
			next = route.RedirectTo
		} else {
			next = r.check(ctx, route, full)
		}

		if next == "" {
			r.mu.Lock()
			r.location = full
			r.params = params
			r.mu.Unlock()

			logx.Debug("Navigated", "target", target, "location", full)
			return full, nil
		}

		logx.Debug("Navigation redirected", "from", full, "to", next)
		current = next
	}

	logx.Warn("Navigation did not settle", "target", target)
	return "", errs.NewError(errs.ErrRedirectLoop, target)
}

// Redirect navigates to path, logging failures. It lets the HTTP client force
// the login page after a 401.
func (r *Router) Redirect(path string) {
	if _, err := r.Navigate(context.Background(), path); err != nil {
		logx.Error(err, "Redirect failed", "path", path)
	}
}

// CurrentPath returns the path of the current location without its query.
func (r *Router) CurrentPath() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	path, _, _ := strings.Cut(r.location, "?")
	return path
}

// Location returns the current location including its query.
func (r *Router) Location() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.location
}

// Param returns a path parameter of the current location, e.g. "id" for
// "/classrooms/{id}".
func (r *Router) Param(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.params[name]
}

// match finds the route for target and returns it with its path parameters
// and the normalized full path.
func (r *Router) match(target string) (Route, map[string]string, string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return Route{}, nil, "", errs.Wrap(errs.ErrRouteNotFound, err, target)
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}

	rctx := chi.NewRouteContext()
	if !r.mux.Match(rctx, http.MethodGet, path) {
		return Route{}, nil, "", errs.NewError(errs.ErrRouteNotFound, path)
	}

	route := r.routes[rctx.RoutePattern()]

	var params map[string]string
	for i, key := range rctx.URLParams.Keys {
		if params == nil {
			params = make(map[string]string)
		}
		params[key] = rctx.URLParams.Values[i]
	}

	full := path
	if u.RawQuery != "" {
		full += "?" + u.RawQuery
	}
	return route, params, full, nil
}
