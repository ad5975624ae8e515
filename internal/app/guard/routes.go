package guard

import "schoolhub/internal/app/user"

// Page paths the guard redirects to.
const (
	LoginPath     = "/login"
	RegisterPath  = "/register"
	DashboardPath = "/dashboard"
)

// SessionExpiredMessage accompanies the redirect to the login page when a
// protected page is opened without a valid token.
const SessionExpiredMessage = "Your session has expired. Please login again."

// Meta is the access policy attached to a route.
type Meta struct {
	RequiresAuth bool
	// Roles, when not empty, restricts the route to these roles.
	Roles []string
}

// Route is one entry of the navigation table. A route with RedirectTo set is
// an alias and carries no policy of its own.
type Route struct {
	Pattern    string
	RedirectTo string
	Meta       Meta
}

var staffOnly = []string{string(user.RoleAdmin), string(user.RoleTeacher)}

// DefaultRoutes is the application's page table.
var DefaultRoutes = []Route{
	{Pattern: "/", RedirectTo: LoginPath},
	{Pattern: LoginPath},
	{Pattern: RegisterPath},
	{Pattern: DashboardPath, Meta: Meta{RequiresAuth: true}},
	{Pattern: "/classrooms", Meta: Meta{RequiresAuth: true, Roles: staffOnly}},
	{Pattern: "/classrooms/{id}", Meta: Meta{RequiresAuth: true, Roles: staffOnly}},
	{Pattern: "/students", Meta: Meta{RequiresAuth: true, Roles: staffOnly}},
	{Pattern: "/profile", Meta: Meta{RequiresAuth: true, Roles: []string{string(user.RoleStudent)}}},
}
