package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"sharespend/internal/domain/expenses"
	"sharespend/internal/domain/groups"
	"sharespend/internal/domain/profile"
)

var errStoreDown = errors.New("store down")

type fakeStore struct {
	mu sync.Mutex

	profiles    map[string]profile.Profile
	groups      map[string]groups.Group
	memberships map[string]map[string]bool
	expenses    []expenses.Expense
	nextID      int64

	fail  map[string]error
	calls map[string]int
	saved []profile.Profile

	// beforeCreateExpense runs inside CreateExpense before it answers.
	beforeCreateExpense func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles:    make(map[string]profile.Profile),
		groups:      make(map[string]groups.Group),
		memberships: make(map[string]map[string]bool),
		nextID:      100,
		fail:        make(map[string]error),
		calls:       make(map[string]int),
	}
}

func (s *fakeStore) enter(call string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[call]++
	return s.fail[call]
}

func (s *fakeStore) failOn(call string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[call] = err
}

func (s *fakeStore) callCount(call string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[call]
}

func (s *fakeStore) savedProfiles() []profile.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]profile.Profile(nil), s.saved...)
}

func (s *fakeStore) seedGroup(group groups.Group, members ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[group.ID] = group
	for _, userID := range members {
		if s.memberships[userID] == nil {
			s.memberships[userID] = make(map[string]bool)
		}
		s.memberships[userID][group.ID] = true
	}
}

func (s *fakeStore) seedExpense(expense expenses.Expense) expenses.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	expense.ID = s.nextID
	s.expenses = append(s.expenses, expense)
	return expense
}

func (s *fakeStore) LoadProfile(ctx context.Context, userID string) (*profile.Profile, error) {
	if err := s.enter("LoadProfile"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, profile.ErrProfileNotFound
	}
	return &p, nil
}

func (s *fakeStore) SaveProfile(ctx context.Context, p *profile.Profile) error {
	if err := s.enter("SaveProfile"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.UserID] = *p
	s.saved = append(s.saved, *p)
	return nil
}

func (s *fakeStore) ListGroups(ctx context.Context, userID string) ([]groups.Group, error) {
	if err := s.enter("ListGroups"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]groups.Group, 0)
	for groupID, active := range s.memberships[userID] {
		if active {
			result = append(result, s.groups[groupID])
		}
	}
	return result, nil
}

func (s *fakeStore) CreateGroup(ctx context.Context, input groups.CreateGroupInput) (*groups.Group, error) {
	if err := s.enter("CreateGroup"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	id := "grp-" + input.Name
	group := groups.Group{
		ID:           id,
		Name:         input.Name,
		MemberCount:  input.MemberCount,
		AccessSecret: "#" + input.Name,
		CreatorID:    input.UserID,
		CreatorName:  input.CreatorName,
		CreatedAt:    time.Now(),
	}
	s.mu.Unlock()
	s.seedGroup(group, input.UserID)
	return &group, nil
}

func (s *fakeStore) FindGroup(ctx context.Context, secret string) (*groups.Group, error) {
	if err := s.enter("FindGroup"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, group := range s.groups {
		if group.AccessSecret == secret {
			g := group
			return &g, nil
		}
	}
	return nil, groups.ErrAccessSecretNotFound
}

func (s *fakeStore) JoinGroup(ctx context.Context, userID, secret string) (*groups.JoinResult, error) {
	if err := s.enter("JoinGroup"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	var found *groups.Group
	for _, group := range s.groups {
		if group.AccessSecret == secret {
			g := group
			found = &g
		}
	}
	if found == nil {
		s.mu.Unlock()
		return nil, groups.ErrAccessSecretNotFound
	}
	already := s.memberships[userID][found.ID]
	s.mu.Unlock()

	if !already {
		s.seedGroup(*found, userID)
	}
	return &groups.JoinResult{Group: found, AlreadyMember: already}, nil
}

func (s *fakeStore) LeaveGroup(ctx context.Context, userID, groupID string) error {
	if err := s.enter("LeaveGroup"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.memberships[userID][groupID] {
		return groups.ErrMembershipNotFound
	}
	s.memberships[userID][groupID] = false
	return nil
}

func (s *fakeStore) ListExpenses(ctx context.Context, groupID string) ([]expenses.Expense, error) {
	if err := s.enter("ListExpenses"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]expenses.Expense, 0)
	for i := len(s.expenses) - 1; i >= 0; i-- {
		if s.expenses[i].InGroup(groupID) {
			result = append(result, s.expenses[i])
		}
	}
	return result, nil
}

func (s *fakeStore) CreateExpense(ctx context.Context, input expenses.CreateExpenseInput) (*expenses.Expense, error) {
	if s.beforeCreateExpense != nil {
		s.beforeCreateExpense()
	}
	if err := s.enter("CreateExpense"); err != nil {
		return nil, err
	}
	groupID := input.GroupID
	stored := s.seedExpense(expenses.Expense{
		UserID:      input.UserID,
		GroupID:     &groupID,
		Amount:      input.Amount,
		Description: input.Description,
		Category:    input.Category,
		PayerName:   input.PayerName,
		Date:        input.Date,
	})
	return &stored, nil
}

func (s *fakeStore) DeleteExpense(ctx context.Context, groupID string, expenseID int64) error {
	if err := s.enter("DeleteExpense"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.expenses {
		if s.expenses[i].ID == expenseID && s.expenses[i].InGroup(groupID) {
			s.expenses = append(s.expenses[:i], s.expenses[i+1:]...)
			return nil
		}
	}
	return expenses.ErrExpenseNotFound
}

func (s *fakeStore) ClearExpenses(ctx context.Context, groupID string) error {
	if err := s.enter("ClearExpenses"); err != nil {
		return err
	}
	s.removeWhere(func(e expenses.Expense) bool { return e.InGroup(groupID) })
	return nil
}

func (s *fakeStore) RemoveUserExpenses(ctx context.Context, userID, groupID string) error {
	if err := s.enter("RemoveUserExpenses"); err != nil {
		return err
	}
	s.removeWhere(func(e expenses.Expense) bool { return e.UserID == userID && e.InGroup(groupID) })
	return nil
}

func (s *fakeStore) AdoptUngrouped(ctx context.Context, userID, groupID string) error {
	if err := s.enter("AdoptUngrouped"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.expenses {
		if s.expenses[i].UserID == userID && s.expenses[i].GroupID == nil {
			id := groupID
			s.expenses[i].GroupID = &id
		}
	}
	return nil
}

func (s *fakeStore) removeWhere(match func(expenses.Expense) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.expenses[:0]
	for _, e := range s.expenses {
		if !match(e) {
			kept = append(kept, e)
		}
	}
	s.expenses = kept
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Fatalf("expected %s = %s, got %s", name, want, got)
	}
}

func testOptions() Options {
	return Options{AutoSaveDelay: time.Hour}
}

// newLoaded returns a loaded coordinator for user-1 whose profile is named
// Maria and who has group grp-1 (4 members) selected.
func newLoaded(t *testing.T, store *fakeStore) *Coordinator {
	t.Helper()
	groupID := "grp-1"
	store.profiles["user-1"] = profile.Profile{
		UserID:        "user-1",
		DisplayName:   "Maria",
		ActiveGroupID: &groupID,
		MemberCount:   4,
		TotalPaid:     decimal.Zero,
	}
	store.seedGroup(groups.Group{ID: groupID, Name: "Trip", MemberCount: 4, AccessSecret: "#TRIP1!"}, "user-1")

	c := New("user-1", Identity{Email: "maria@example.com"}, store, testOptions())
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	t.Cleanup(func() {
		c.autosave.Stop()
	})
	return c
}
