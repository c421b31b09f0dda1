package session

import "errors"

var (
	ErrNoGroupSelected    = errors.New("no group selected")
	ErrGroupNotFound      = errors.New("group not found")
	ErrExpenseNotFound    = errors.New("expense not found")
	ErrGroupLimitReached  = errors.New("group limit reached")
	ErrInvalidMemberCount = errors.New("member count must be between 2 and 10")
	ErrInvalidGroupData   = errors.New("invalid group data")
	ErrGroupNameRequired  = errors.New("group name is required")
	ErrSaveFailed         = errors.New("could not save changes")
	ErrLoadFailed         = errors.New("could not load data")
	ErrClosed             = errors.New("session closed")
)
