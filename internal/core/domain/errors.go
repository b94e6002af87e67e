package domain

import "errors"

// Client store errors.
var (
	ErrDuplicateEmail = errors.New("email already registered to another client")
	ErrClientNotFound = errors.New("client not found")
	ErrInvalidFormat  = errors.New("invalid data format")
	ErrPersistence    = errors.New("persistence failure")
)

// Auth and admin errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrForbidden          = errors.New("access forbidden")
	ErrSelfDemotion       = errors.New("cannot remove your own admin privileges")
	ErrSelfDeactivation   = errors.New("cannot deactivate your own account")
	ErrSelfDeletion       = errors.New("cannot delete your own account")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
)
