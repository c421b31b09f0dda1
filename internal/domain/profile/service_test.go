package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

type fakeProfileRepo struct {
	profiles map[string]*Profile
	saves    int
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[string]*Profile)}
}

func (r *fakeProfileRepo) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	p, ok := r.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *fakeProfileRepo) CreateIfMissing(ctx context.Context, profile *Profile) error {
	if existing, ok := r.profiles[profile.UserID]; ok {
		existing.Email = profile.Email
		return nil
	}
	stored := *profile
	r.profiles[profile.UserID] = &stored
	return nil
}

func (r *fakeProfileRepo) SaveProfile(ctx context.Context, profile *Profile) error {
	r.saves++
	stored := *profile
	r.profiles[profile.UserID] = &stored
	return nil
}

func TestEnsureProfileDefaults(t *testing.T) {
	repo := newFakeProfileRepo()
	svc := NewService(repo)

	if err := svc.EnsureProfile(context.Background(), "user-1", "maria.k@example.com", ""); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	p, err := svc.GetProfile(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if p.DisplayName != "maria.k" {
		t.Fatalf("expected e-mail local part, got %q", p.DisplayName)
	}
	if p.MemberCount != DefaultMemberCount {
		t.Fatalf("expected default member count, got %d", p.MemberCount)
	}
}

func TestEnsureProfileKeepsExistingNames(t *testing.T) {
	repo := newFakeProfileRepo()
	repo.profiles["user-1"] = &Profile{UserID: "user-1", DisplayName: "Maria", Nickname: "Mar", MemberCount: 4}
	svc := NewService(repo)

	if err := svc.EnsureProfile(context.Background(), "user-1", "new@example.com", "Someone"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	p := repo.profiles["user-1"]
	if p.DisplayName != "Maria" || p.Nickname != "Mar" || p.Email != "new@example.com" {
		t.Fatalf("unexpected profile %+v", p)
	}
}

func TestEnsureProfileRequiresUser(t *testing.T) {
	svc := NewService(newFakeProfileRepo())
	if err := svc.EnsureProfile(context.Background(), "", "a@b.c", ""); !errors.Is(err, ErrUserIDRequired) {
		t.Fatalf("expected ErrUserIDRequired, got %v", err)
	}
}

func TestSaveProfileValidation(t *testing.T) {
	repo := newFakeProfileRepo()
	svc := NewService(repo)

	p := New("user-1", "", "Maria")
	p.UserExpenses = decimal.NewFromInt(-1)
	if err := svc.SaveProfile(context.Background(), &p); !errors.Is(err, ErrNegativeTotal) {
		t.Fatalf("expected ErrNegativeTotal, got %v", err)
	}

	p.UserExpenses = decimal.Zero
	p.Nickname = "  Mar "
	if err := svc.SaveProfile(context.Background(), &p); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if repo.profiles["user-1"].Nickname != "Mar" {
		t.Fatalf("expected trimmed nickname, got %q", repo.profiles["user-1"].Nickname)
	}
}
