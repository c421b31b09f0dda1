package groups

import "errors"

var (
	ErrGroupNotFound          = errors.New("group not found")
	ErrAccessSecretNotFound   = errors.New("access secret not found")
	ErrMembershipNotFound     = errors.New("membership not found")
	ErrGroupLimitReached      = errors.New("group limit reached")
	ErrInvalidMemberCount     = errors.New("member count must be between 2 and 10")
	ErrNameRequired           = errors.New("name is required")
	ErrSecretGenerationFailed = errors.New("access secret generation failed")
)
