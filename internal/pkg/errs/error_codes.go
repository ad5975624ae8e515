/*
Package errs provides custom error types and application-level error code constants.

These error codes classify every failure the client can surface: local input
checks, HTTP status classes returned by the backend, transport failures, and
session lifecycle conflicts.
*/
package errs

// 1xxx: Local Request Errors (nothing reached the network)
const (
	// ErrInvalidInput indicates that required local fields were missing before any network call.
	ErrInvalidInput = 1001

	// ErrClient indicates that the request could not be built or sent (bad URL, unencodable body).
	ErrClient = 1002

	// ErrRouteNotFound indicates that no view is registered for a navigation target.
	ErrRouteNotFound = 1003

	// ErrRedirectLoop indicates that navigation kept redirecting without settling.
	ErrRedirectLoop = 1004
)

// 2xxx: Session Lifecycle Errors
const (
	// ErrSessionBusy indicates that the same session action is already in flight.
	ErrSessionBusy = 2001
)

// 3xxx: Authorization and Validation Errors returned by the backend
const (
	// ErrUnauthorized indicates an HTTP 401; the session has been evicted.
	ErrUnauthorized = 3001

	// ErrForbidden indicates an HTTP 403; the user lacks permission for the resource.
	ErrForbidden = 3002

	// ErrValidationFailed indicates an HTTP 422 carrying field-level messages.
	ErrValidationFailed = 3003
)

// 5xxx: Server and Transport Errors
const (
	// ErrUnknown represents an unclassified error.
	ErrUnknown = 5000

	// ErrServerError indicates an HTTP 500.
	ErrServerError = 5001

	// ErrNetwork indicates the request was sent but no response arrived (including timeouts).
	ErrNetwork = 5002

	// ErrAPI indicates any other non-2xx status.
	ErrAPI = 5003
)
