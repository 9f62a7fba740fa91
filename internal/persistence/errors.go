package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested key does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a write violates a uniqueness constraint.
	ErrDuplicate = errors.New("persistence: duplicate")
	// ErrLocked is returned when the backing store is busy or locked.
	ErrLocked = errors.New("persistence: locked")
	// ErrUnavailable is returned when the backing store cannot be reached.
	ErrUnavailable = errors.New("persistence: unavailable")
	// ErrQuotaExceeded is returned when a value is larger than the store accepts.
	ErrQuotaExceeded = errors.New("persistence: quota exceeded")
)
