package services

import "errors"

var (
	// ErrPostNotFound means no post has the requested id.
	ErrPostNotFound = errors.New("post not found")
	// ErrStoreFailure wraps any persistence error. The cause is logged, never returned to callers.
	ErrStoreFailure = errors.New("store failure")
	// ErrEmailTaken is returned when registering an email that already has an account.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUserNotFound means the authenticated user no longer exists.
	ErrUserNotFound = errors.New("user not found")
)
