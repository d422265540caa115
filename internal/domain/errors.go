package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness conflict.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidFormat indicates malformed input the caller must re-prompt for.
	ErrInvalidFormat = errors.New("invalid format")
	// ErrNotAuthenticated indicates the action requires a signed-in user.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrBackendUnavailable indicates a network or server failure talking to a collaborator.
	ErrBackendUnavailable = errors.New("backend unavailable")
)
