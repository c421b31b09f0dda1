package groups

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type fakeGroupsRepo struct {
	groups      map[string]*Group
	memberships []*Membership
	secrets     map[string]string
	takenCalls  int
	alwaysTaken bool
}

func newFakeGroupsRepo() *fakeGroupsRepo {
	return &fakeGroupsRepo{
		groups:  make(map[string]*Group),
		secrets: make(map[string]string),
	}
}

func (r *fakeGroupsRepo) Transaction(ctx context.Context, fn func(Repository) error) error {
	return fn(r)
}

func (r *fakeGroupsRepo) ListActiveGroups(ctx context.Context, userID string) ([]Group, error) {
	result := make([]Group, 0)
	for _, m := range r.memberships {
		if m.UserID == userID && m.Active {
			result = append(result, *r.groups[m.GroupID])
		}
	}
	return result, nil
}

func (r *fakeGroupsRepo) CountActiveGroups(ctx context.Context, userID string) (int64, error) {
	groups, _ := r.ListActiveGroups(ctx, userID)
	return int64(len(groups)), nil
}

func (r *fakeGroupsRepo) GetGroup(ctx context.Context, groupID string) (*Group, error) {
	group, ok := r.groups[groupID]
	if !ok {
		return nil, ErrGroupNotFound
	}
	return group, nil
}

func (r *fakeGroupsRepo) GetGroupByAccessSecret(ctx context.Context, secret string) (*Group, error) {
	id, ok := r.secrets[secret]
	if !ok {
		return nil, ErrAccessSecretNotFound
	}
	return r.groups[id], nil
}

func (r *fakeGroupsRepo) IsAccessSecretTaken(ctx context.Context, secret string) (bool, error) {
	r.takenCalls++
	if r.alwaysTaken {
		return true, nil
	}
	_, ok := r.secrets[secret]
	return ok, nil
}

func (r *fakeGroupsRepo) CreateGroup(ctx context.Context, group *Group) error {
	stored := *group
	r.groups[group.ID] = &stored
	r.secrets[group.AccessSecret] = group.ID
	return nil
}

func (r *fakeGroupsRepo) GetActiveMembership(ctx context.Context, groupID, userID string) (*Membership, error) {
	for _, m := range r.memberships {
		if m.GroupID == groupID && m.UserID == userID && m.Active {
			return m, nil
		}
	}
	return nil, ErrMembershipNotFound
}

func (r *fakeGroupsRepo) AddMembership(ctx context.Context, membership *Membership) error {
	stored := *membership
	r.memberships = append(r.memberships, &stored)
	return nil
}

func (r *fakeGroupsRepo) DeactivateMembership(ctx context.Context, groupID, userID string, leftAt time.Time) (bool, error) {
	m, err := r.GetActiveMembership(ctx, groupID, userID)
	if err != nil {
		return false, nil
	}
	m.Active = false
	m.LeftAt = &leftAt
	return true, nil
}

func createGroup(t *testing.T, svc *Service, userID, name string) *Group {
	t.Helper()
	group, err := svc.CreateGroup(context.Background(), CreateGroupInput{
		UserID:      userID,
		CreatorName: "Maria",
		Name:        name,
		MemberCount: 4,
	})
	if err != nil {
		t.Fatalf("create group %q: %v", name, err)
	}
	return group
}

func TestCreateGroupJoinsCreator(t *testing.T) {
	repo := newFakeGroupsRepo()
	svc := NewService(repo, 0)

	group := createGroup(t, svc, "user-1", "  Trip to Crete ")
	if group.Name != "Trip to Crete" {
		t.Fatalf("expected trimmed name, got %q", group.Name)
	}
	if group.ID == "" || group.CreatorID != "user-1" {
		t.Fatalf("unexpected group %+v", group)
	}

	ok, err := svc.IsActiveMember(context.Background(), "user-1", group.ID)
	if err != nil || !ok {
		t.Fatalf("expected creator to be an active member, got %v, %v", ok, err)
	}
}

func TestCreateGroupValidation(t *testing.T) {
	svc := NewService(newFakeGroupsRepo(), 0)
	ctx := context.Background()

	if _, err := svc.CreateGroup(ctx, CreateGroupInput{UserID: "u", Name: " ", MemberCount: 3}); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("expected ErrNameRequired, got %v", err)
	}
	for _, count := range []int{0, 1, 11} {
		if _, err := svc.CreateGroup(ctx, CreateGroupInput{UserID: "u", Name: "x", MemberCount: count}); !errors.Is(err, ErrInvalidMemberCount) {
			t.Fatalf("expected ErrInvalidMemberCount for %d, got %v", count, err)
		}
	}
}

func TestCreateGroupLimit(t *testing.T) {
	repo := newFakeGroupsRepo()
	svc := NewService(repo, 5)

	for i := 0; i < 5; i++ {
		createGroup(t, svc, "user-1", "group")
	}
	_, err := svc.CreateGroup(context.Background(), CreateGroupInput{UserID: "user-1", Name: "sixth", MemberCount: 2})
	if !errors.Is(err, ErrGroupLimitReached) {
		t.Fatalf("expected ErrGroupLimitReached, got %v", err)
	}
	if len(repo.groups) != 5 {
		t.Fatalf("expected 5 stored groups, got %d", len(repo.groups))
	}
}

func TestCreateGroupSecretExhausted(t *testing.T) {
	repo := newFakeGroupsRepo()
	repo.alwaysTaken = true
	svc := NewService(repo, 0)

	_, err := svc.CreateGroup(context.Background(), CreateGroupInput{UserID: "u", Name: "x", MemberCount: 2})
	if !errors.Is(err, ErrSecretGenerationFailed) {
		t.Fatalf("expected ErrSecretGenerationFailed, got %v", err)
	}
	if repo.takenCalls != secretAttempts {
		t.Fatalf("expected %d attempts, got %d", secretAttempts, repo.takenCalls)
	}
}

func TestJoinGroupIdempotent(t *testing.T) {
	repo := newFakeGroupsRepo()
	svc := NewService(repo, 0)
	group := createGroup(t, svc, "owner", "Flat")

	first, err := svc.JoinGroup(context.Background(), "user-2", " "+group.AccessSecret+" ")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if first.AlreadyMember || first.Group.ID != group.ID {
		t.Fatalf("unexpected first join %+v", first)
	}

	second, err := svc.JoinGroup(context.Background(), "user-2", group.AccessSecret)
	if err != nil {
		t.Fatalf("second join: %v", err)
	}
	if !second.AlreadyMember {
		t.Fatalf("expected second join to report existing membership")
	}
	if len(repo.memberships) != 2 {
		t.Fatalf("expected 2 memberships, got %d", len(repo.memberships))
	}
}

func TestJoinGroupUnknownSecret(t *testing.T) {
	svc := NewService(newFakeGroupsRepo(), 0)
	if _, err := svc.JoinGroup(context.Background(), "u", "#nope"); !errors.Is(err, ErrAccessSecretNotFound) {
		t.Fatalf("expected ErrAccessSecretNotFound, got %v", err)
	}
}

func TestFindBySecretDoesNotJoin(t *testing.T) {
	repo := newFakeGroupsRepo()
	svc := NewService(repo, 0)
	target := createGroup(t, svc, "owner", "Target")
	ctx := context.Background()

	found, err := svc.FindBySecret(ctx, " "+target.AccessSecret+" ")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.ID != target.ID {
		t.Fatalf("expected %s, got %s", target.ID, found.ID)
	}
	if member, _ := svc.IsActiveMember(ctx, "user-2", target.ID); member {
		t.Fatalf("expected lookup to leave memberships untouched")
	}
	if _, err := svc.FindBySecret(ctx, "#nope"); !errors.Is(err, ErrAccessSecretNotFound) {
		t.Fatalf("expected ErrAccessSecretNotFound, got %v", err)
	}
}

func TestJoinGroupLimit(t *testing.T) {
	repo := newFakeGroupsRepo()
	svc := NewService(repo, 2)
	target := createGroup(t, svc, "owner", "Target")
	createGroup(t, svc, "user-2", "a")
	createGroup(t, svc, "user-2", "b")

	if _, err := svc.JoinGroup(context.Background(), "user-2", target.AccessSecret); !errors.Is(err, ErrGroupLimitReached) {
		t.Fatalf("expected ErrGroupLimitReached, got %v", err)
	}
}

func TestLeaveGroupFreesSlot(t *testing.T) {
	repo := newFakeGroupsRepo()
	svc := NewService(repo, 1)
	group := createGroup(t, svc, "user-1", "Solo")

	if err := svc.LeaveGroup(context.Background(), "user-1", group.ID); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if err := svc.LeaveGroup(context.Background(), "user-1", group.ID); !errors.Is(err, ErrMembershipNotFound) {
		t.Fatalf("expected ErrMembershipNotFound on second leave, got %v", err)
	}

	groups, _ := svc.ListGroups(context.Background(), "user-1")
	if len(groups) != 0 {
		t.Fatalf("expected no visible groups after leaving, got %d", len(groups))
	}
	createGroup(t, svc, "user-1", "Again")
}

func TestGenerateSecretShape(t *testing.T) {
	for i := 0; i < 50; i++ {
		secret, err := generateSecret("Beach House 2026")
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(secret) != AccessSecretLimit || secret[0] != '#' {
			t.Fatalf("unexpected secret %q", secret)
		}
		body := secret[1:]
		if !strings.ContainsAny(body, secretDigits) || !strings.ContainsAny(body, secretSymbols) {
			t.Fatalf("expected digits and symbols in %q", secret)
		}
		if !strings.ContainsAny(body, "BEACHOUS") {
			t.Fatalf("expected letters from the name in %q", secret)
		}
		if strings.ContainsAny(body, "DFGIJKLMNPQRTVWXYZ") {
			t.Fatalf("unexpected letter outside the name in %q", secret)
		}
	}
}

func TestNameLettersFallback(t *testing.T) {
	if got := nameLetters("Ταξίδι 2026"); got != fallbackLetters {
		t.Fatalf("expected fallback letters, got %q", got)
	}
	if got := nameLetters("aAbB"); got != "AB" {
		t.Fatalf("expected deduplicated letters, got %q", got)
	}
}
