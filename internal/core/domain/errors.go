package domain

import "errors"

// Error messages below are shown to the caller verbatim.

// Auth errors
var (
	ErrInvalidCredentials = errors.New("Invalid username or password")
	ErrSessionInvalid     = errors.New("Session invalid or expired")
	ErrWrongPassword      = errors.New("Current password is incorrect")
)

// User errors
var (
	ErrUserNotFound      = errors.New("User not found")
	ErrUserAlreadyExists = errors.New("Username already exists")
	ErrCannotDisableSelf = errors.New("You cannot disable your own account")
)

// Loan errors
var (
	ErrLoanNotFound         = errors.New("Loan not found")
	ErrInvalidLoanStatus    = errors.New("Invalid loan status")
	ErrMaturityDateRequired = errors.New("Maturity date is required when changing status to Encoded")
)

// ValidationError carries a message safe to show to the caller
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError
func NewValidationError(message string) error {
	return &ValidationError{Message: message}
}

// IsValidation reports whether err is (or wraps) a ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
