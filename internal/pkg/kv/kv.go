/*
Package kv provides the durable key-value area that backs the session token store.

A Store holds small string values under string keys. Three implementations exist:
a JSON file on local disk (the default for the command line client), a Redis
database, and an in-memory map for tests and ephemeral runs. Writes are
last-writer-wins; no locking discipline spans more than one call.
*/
package kv

import "context"

// Store is a durable string key-value area.
type Store interface {
	// Get returns the value stored under key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes the given keys. Absent keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}
