package profile

import "errors"

var (
	ErrProfileNotFound  = errors.New("profile not found")
	ErrUserIDRequired   = errors.New("user id is required")
	ErrNegativeTotal    = errors.New("totals must not be negative")
	ErrInvalidMemberSet = errors.New("member count must be positive")
)
