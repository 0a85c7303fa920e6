package domain

import "errors"

var (
	// ErrCapacityExceeded is returned when the pending queue is at its cap.
	ErrCapacityExceeded = errors.New("pending submission queue is full")

	// ErrDuplicateID is returned when submission id generation keeps colliding.
	ErrDuplicateID = errors.New("submission id already exists")

	// ErrNotFound is returned when the requested row is absent or already decided.
	ErrNotFound = errors.New("resource not found")

	// ErrForbidden is returned when a non-super admin attempts admin management.
	ErrForbidden = errors.New("operation requires super admin role")

	// ErrAlreadyExists is returned on duplicate admin usernames.
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrInvalidCredentials is returned when a login fails verification.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
