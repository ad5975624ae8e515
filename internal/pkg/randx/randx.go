/*
Package randx provides generators for unique identifiers.

It is used to tag every outgoing API request with a correlation id so that
client logs can be matched with backend logs.
*/
package randx

import "github.com/google/uuid"

// RequestID generates a standard UUID v4 string identifying one API request.
func RequestID() string {
	return uuid.New().String()
}
