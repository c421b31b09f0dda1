package session

import (
	"context"
	"errors"
	"time"

	"sharespend/internal/domain/expenses"
	"sharespend/internal/domain/groups"
	"sharespend/internal/domain/profile"
)

// Store is the remote state the coordinator reconciles against. Every call is
// scoped to a single user.
type Store interface {
	LoadProfile(ctx context.Context, userID string) (*profile.Profile, error)
	SaveProfile(ctx context.Context, p *profile.Profile) error

	ListGroups(ctx context.Context, userID string) ([]groups.Group, error)
	CreateGroup(ctx context.Context, input groups.CreateGroupInput) (*groups.Group, error)
	FindGroup(ctx context.Context, secret string) (*groups.Group, error)
	JoinGroup(ctx context.Context, userID, secret string) (*groups.JoinResult, error)
	LeaveGroup(ctx context.Context, userID, groupID string) error

	ListExpenses(ctx context.Context, groupID string) ([]expenses.Expense, error)
	CreateExpense(ctx context.Context, input expenses.CreateExpenseInput) (*expenses.Expense, error)
	DeleteExpense(ctx context.Context, groupID string, expenseID int64) error
	ClearExpenses(ctx context.Context, groupID string) error
	RemoveUserExpenses(ctx context.Context, userID, groupID string) error
	AdoptUngrouped(ctx context.Context, userID, groupID string) error
}

type RemoteStore struct {
	profiles *profile.Service
	groups   *groups.Service
	expenses *expenses.Service
	metrics  *Metrics
}

func NewRemoteStore(profiles *profile.Service, groupsService *groups.Service, expensesService *expenses.Service, metrics *Metrics) *RemoteStore {
	return &RemoteStore{
		profiles: profiles,
		groups:   groupsService,
		expenses: expensesService,
		metrics:  metrics,
	}
}

func (s *RemoteStore) LoadProfile(ctx context.Context, userID string) (p *profile.Profile, err error) {
	defer s.observe("load_profile", time.Now(), &err)
	p, err = s.profiles.GetProfile(ctx, userID)
	return p, err
}

func (s *RemoteStore) SaveProfile(ctx context.Context, p *profile.Profile) (err error) {
	defer s.observe("save_profile", time.Now(), &err)
	return s.profiles.SaveProfile(ctx, p)
}

func (s *RemoteStore) ListGroups(ctx context.Context, userID string) (items []groups.Group, err error) {
	defer s.observe("list_groups", time.Now(), &err)
	return s.groups.ListGroups(ctx, userID)
}

func (s *RemoteStore) CreateGroup(ctx context.Context, input groups.CreateGroupInput) (group *groups.Group, err error) {
	defer s.observe("create_group", time.Now(), &err)
	return s.groups.CreateGroup(ctx, input)
}

func (s *RemoteStore) FindGroup(ctx context.Context, secret string) (group *groups.Group, err error) {
	defer s.observe("find_group", time.Now(), &err)
	return s.groups.FindBySecret(ctx, secret)
}

func (s *RemoteStore) JoinGroup(ctx context.Context, userID, secret string) (result *groups.JoinResult, err error) {
	defer s.observe("join_group", time.Now(), &err)
	return s.groups.JoinGroup(ctx, userID, secret)
}

func (s *RemoteStore) LeaveGroup(ctx context.Context, userID, groupID string) (err error) {
	defer s.observe("leave_group", time.Now(), &err)
	return s.groups.LeaveGroup(ctx, userID, groupID)
}

func (s *RemoteStore) ListExpenses(ctx context.Context, groupID string) (items []expenses.Expense, err error) {
	defer s.observe("list_expenses", time.Now(), &err)
	return s.expenses.ListGroupExpenses(ctx, groupID)
}

func (s *RemoteStore) CreateExpense(ctx context.Context, input expenses.CreateExpenseInput) (expense *expenses.Expense, err error) {
	defer s.observe("create_expense", time.Now(), &err)
	return s.expenses.CreateExpense(ctx, input)
}

func (s *RemoteStore) DeleteExpense(ctx context.Context, groupID string, expenseID int64) (err error) {
	defer s.observe("delete_expense", time.Now(), &err)
	return s.expenses.DeleteExpense(ctx, groupID, expenseID)
}

func (s *RemoteStore) ClearExpenses(ctx context.Context, groupID string) (err error) {
	defer s.observe("clear_expenses", time.Now(), &err)
	_, err = s.expenses.ClearGroup(ctx, groupID)
	return err
}

func (s *RemoteStore) RemoveUserExpenses(ctx context.Context, userID, groupID string) (err error) {
	defer s.observe("remove_user_expenses", time.Now(), &err)
	_, err = s.expenses.RemoveUserExpenses(ctx, userID, groupID)
	return err
}

func (s *RemoteStore) AdoptUngrouped(ctx context.Context, userID, groupID string) (err error) {
	defer s.observe("adopt_ungrouped", time.Now(), &err)
	_, err = s.expenses.AdoptUngrouped(ctx, userID, groupID)
	return err
}

// observe counts expected not-found answers as successful calls.
func (s *RemoteStore) observe(call string, started time.Time, errp *error) {
	err := *errp
	if errors.Is(err, profile.ErrProfileNotFound) ||
		errors.Is(err, expenses.ErrExpenseNotFound) ||
		errors.Is(err, groups.ErrMembershipNotFound) ||
		errors.Is(err, groups.ErrAccessSecretNotFound) {
		err = nil
	}
	s.metrics.observeStore(call, started, err)
}
