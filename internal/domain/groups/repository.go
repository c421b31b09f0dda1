package groups

import (
	"context"
	"time"
)

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	ListActiveGroups(ctx context.Context, userID string) ([]Group, error)
	CountActiveGroups(ctx context.Context, userID string) (int64, error)
	GetGroup(ctx context.Context, groupID string) (*Group, error)
	GetGroupByAccessSecret(ctx context.Context, secret string) (*Group, error)
	IsAccessSecretTaken(ctx context.Context, secret string) (bool, error)
	CreateGroup(ctx context.Context, group *Group) error
	GetActiveMembership(ctx context.Context, groupID, userID string) (*Membership, error)
	AddMembership(ctx context.Context, membership *Membership) error
	DeactivateMembership(ctx context.Context, groupID, userID string, leftAt time.Time) (bool, error)
}
