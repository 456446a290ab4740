package service

import "errors"

var (
	ErrAccountAlreadyExists = errors.New("account already exists")
	ErrAccountNotFound      = errors.New("account not found")
	ErrEmailAlreadyVerified = errors.New("email already verified")

	// ErrInvalidCode covers unknown, mismatched and already-consumed codes.
	// They are deliberately indistinguishable to the caller.
	ErrInvalidCode = errors.New("invalid verification code")
	ErrCodeExpired = errors.New("verification code expired")

	ErrSignupDataMissing = errors.New("no signup data for unknown account")

	ErrNoteNotFound = errors.New("note not found")
)
