package auth

import "imagevault/internal/pkg/apperror"

var (
	ErrMissingFields      = apperror.Validation("All fields are required")
	ErrMissingCredentials = apperror.Validation("Email & password are required")
	ErrInvalidEmail       = apperror.Validation("Invalid email format")
	ErrFieldTooLong       = apperror.Validation("Username, email or password is too long")
	ErrEmailAlreadyExists = apperror.Conflict("Email already registered")
	ErrInvalidCredentials = apperror.Auth("Invalid email or password")
	ErrUserNotFound       = apperror.NotFound("User not found")
)
