/*
Package result provides a wrapper for advisory outcomes.

A BestEffort value records the outcome of a step whose failure must not fail
the surrounding operation, such as fetching the user profile right after a
successful login. Callers inspect it explicitly instead of discarding errors.
*/
package result

// BestEffort holds either a value or the error that prevented producing it.
type BestEffort[T any] struct {
	Value T
	Err   error
}

// Of builds a BestEffort from a conventional (value, error) pair.
func Of[T any](value T, err error) BestEffort[T] {
	if err != nil {
		var zero T
		return BestEffort[T]{Value: zero, Err: err}
	}
	return BestEffort[T]{Value: value}
}

// OK reports whether a value was produced.
func (b BestEffort[T]) OK() bool {
	return b.Err == nil
}

// Get returns the value and whether it is usable.
func (b BestEffort[T]) Get() (T, bool) {
	return b.Value, b.Err == nil
}
