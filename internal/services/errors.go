package services

import "errors"

// Sentinel errors returned by the services. Handlers translate these into
// HTTP status codes and machine-readable kinds; anything not in this list
// surfaces as a generic internal error.
var (
	ErrValidation         = errors.New("invalid input")
	ErrDuplicateEmail     = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotFound           = errors.New("not found")
	ErrNotAuthorized      = errors.New("not authorized")
	ErrSelfReference      = errors.New("operation targets own account")
	ErrAlreadyFriends     = errors.New("already friends")
	ErrDuplicateRequest   = errors.New("friend request already exists")
	ErrBlocked            = errors.New("blocked")
	ErrInvalidState       = errors.New("invalid state for operation")
)
