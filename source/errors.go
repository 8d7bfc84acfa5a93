package source

import "errors"

var (
	// ErrKeyNotFound is returned when the requested key does not exist in the backing store.
	ErrKeyNotFound = errors.New("key not found")

	// ErrUnavailable is returned when the backing store cannot be reached.
	ErrUnavailable = errors.New("source unavailable")
)
