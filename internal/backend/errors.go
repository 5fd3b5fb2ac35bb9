package backend

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrAlreadyExists    = errors.New("already exists")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrUnavailable      = errors.New("backend unavailable")
	// ErrNotReady is returned when no identity session has been established.
	ErrNotReady = errors.New("actor not ready")
)
