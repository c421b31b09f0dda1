package profile

import "context"

type Repository interface {
	GetProfile(ctx context.Context, userID string) (*Profile, error)
	// CreateIfMissing inserts the row unless one exists; existing rows only get
	// their e-mail refreshed.
	CreateIfMissing(ctx context.Context, profile *Profile) error
	SaveProfile(ctx context.Context, profile *Profile) error
}
