package groups

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo      Repository
	maxGroups int
	now       func() time.Time
}

func NewService(repo Repository, maxGroups int) *Service {
	if maxGroups <= 0 {
		maxGroups = DefaultMaxGroups
	}
	return &Service{repo: repo, maxGroups: maxGroups, now: time.Now}
}

func (s *Service) MaxGroups() int {
	return s.maxGroups
}

func (s *Service) ListGroups(ctx context.Context, userID string) ([]Group, error) {
	return s.repo.ListActiveGroups(ctx, userID)
}

func (s *Service) GetGroup(ctx context.Context, groupID string) (*Group, error) {
	return s.repo.GetGroup(ctx, groupID)
}

// FindBySecret looks a group up by its access secret without joining it.
func (s *Service) FindBySecret(ctx context.Context, secret string) (*Group, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrAccessSecretNotFound
	}
	return s.repo.GetGroupByAccessSecret(ctx, secret)
}

// CreateGroup stores a new group with a fresh access secret and joins the
// creator to it.
func (s *Service) CreateGroup(ctx context.Context, input CreateGroupInput) (*Group, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if input.MemberCount < MinMembers || input.MemberCount > MaxMembers {
		return nil, ErrInvalidMemberCount
	}

	var result Group
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		count, err := tx.CountActiveGroups(ctx, input.UserID)
		if err != nil {
			return err
		}
		if count >= int64(s.maxGroups) {
			return ErrGroupLimitReached
		}

		secret, err := generateUniqueSecret(ctx, tx, name)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		group := Group{
			ID:           uuid.NewString(),
			Name:         name,
			MemberCount:  input.MemberCount,
			AccessSecret: secret,
			CreatorID:    input.UserID,
			CreatorName:  strings.TrimSpace(input.CreatorName),
			CreatedAt:    now,
		}
		if err := tx.CreateGroup(ctx, &group); err != nil {
			return err
		}

		membership := Membership{
			ID:       uuid.NewString(),
			GroupID:  group.ID,
			UserID:   input.UserID,
			Active:   true,
			JoinedAt: now,
		}
		if err := tx.AddMembership(ctx, &membership); err != nil {
			return err
		}

		result = group
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// JoinGroup is idempotent: joining a group the user is already active in
// returns it without counting against the limit.
func (s *Service) JoinGroup(ctx context.Context, userID, secret string) (*JoinResult, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrAccessSecretNotFound
	}

	var result JoinResult
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		group, err := tx.GetGroupByAccessSecret(ctx, secret)
		if err != nil {
			return err
		}

		_, err = tx.GetActiveMembership(ctx, group.ID, userID)
		if err == nil {
			result = JoinResult{Group: group, AlreadyMember: true}
			return nil
		}
		if !errors.Is(err, ErrMembershipNotFound) {
			return err
		}

		count, err := tx.CountActiveGroups(ctx, userID)
		if err != nil {
			return err
		}
		if count >= int64(s.maxGroups) {
			return ErrGroupLimitReached
		}

		membership := Membership{
			ID:       uuid.NewString(),
			GroupID:  group.ID,
			UserID:   userID,
			Active:   true,
			JoinedAt: s.now().UTC(),
		}
		if err := tx.AddMembership(ctx, &membership); err != nil {
			return err
		}

		result = JoinResult{Group: group}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (s *Service) LeaveGroup(ctx context.Context, userID, groupID string) error {
	left, err := s.repo.DeactivateMembership(ctx, groupID, userID, s.now().UTC())
	if err != nil {
		return err
	}
	if !left {
		return ErrMembershipNotFound
	}
	return nil
}

func (s *Service) IsActiveMember(ctx context.Context, userID, groupID string) (bool, error) {
	_, err := s.repo.GetActiveMembership(ctx, groupID, userID)
	if errors.Is(err, ErrMembershipNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
