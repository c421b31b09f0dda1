package profile

import (
	"context"
	"strings"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// EnsureProfile is called on every authenticated request.
func (s *Service) EnsureProfile(ctx context.Context, userID, email, name string) error {
	if userID == "" {
		return ErrUserIDRequired
	}

	displayName := strings.TrimSpace(name)
	if displayName == "" {
		displayName = DefaultDisplayName(email)
	}

	profile := New(userID, strings.TrimSpace(email), displayName)
	return s.repo.CreateIfMissing(ctx, &profile)
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	return s.repo.GetProfile(ctx, userID)
}

func (s *Service) SaveProfile(ctx context.Context, profile *Profile) error {
	if profile.UserID == "" {
		return ErrUserIDRequired
	}
	if profile.MemberCount <= 0 {
		return ErrInvalidMemberSet
	}
	if profile.TotalGroupExpenses.IsNegative() || profile.TotalPaid.IsNegative() || profile.UserExpenses.IsNegative() {
		return ErrNegativeTotal
	}

	profile.DisplayName = strings.TrimSpace(profile.DisplayName)
	profile.Nickname = strings.TrimSpace(profile.Nickname)
	profile.GroupName = strings.TrimSpace(profile.GroupName)

	return s.repo.SaveProfile(ctx, profile)
}

// DefaultDisplayName is the local part of an e-mail address.
func DefaultDisplayName(email string) string {
	email = strings.TrimSpace(email)
	if at := strings.IndexByte(email, '@'); at >= 0 {
		return email[:at]
	}
	return email
}
