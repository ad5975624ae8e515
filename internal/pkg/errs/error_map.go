/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError template used when
constructing errors, holding the default user-facing message and HTTP status.
*/
package errs

import "net/http"

// errorMap stores the template CustomError for every application error code.
// Status is zero for failures that never produced an HTTP response.
var errorMap = map[int]CustomError{
	// 1xxx: Local Request Errors
	ErrInvalidInput:  {Code: ErrInvalidInput, Message: "%s"},
	ErrClient:        {Code: ErrClient, Message: "Request could not be sent."},
	ErrRouteNotFound: {Code: ErrRouteNotFound, Message: "No page is registered at %s."},
	ErrRedirectLoop:  {Code: ErrRedirectLoop, Message: "Too many redirects while opening %s."},

	// 2xxx: Session Lifecycle Errors
	ErrSessionBusy: {Code: ErrSessionBusy, Message: "A %s request is already in progress."},

	// 3xxx: Authorization and Validation Errors
	ErrUnauthorized:     {Code: ErrUnauthorized, Message: "Your session has expired. Please login again.", Status: http.StatusUnauthorized},
	ErrForbidden:        {Code: ErrForbidden, Message: "Access denied.", Status: http.StatusForbidden},
	ErrValidationFailed: {Code: ErrValidationFailed, Message: "The given data was invalid.", Status: http.StatusUnprocessableEntity},

	// 5xxx: Server and Transport Errors
	ErrUnknown:     {Code: ErrUnknown, Message: "Something went wrong. Please try again."},
	ErrServerError: {Code: ErrServerError, Message: "Server error. Please try again later.", Status: http.StatusInternalServerError},
	ErrNetwork:     {Code: ErrNetwork, Message: "Network error. Please check your connection."},
	ErrAPI:         {Code: ErrAPI, Message: "Request failed."},
}
