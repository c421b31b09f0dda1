package expenses

import "context"

type Repository interface {
	ListByGroup(ctx context.Context, groupID string) ([]Expense, error)
	CreateExpense(ctx context.Context, expense *Expense) error
	DeleteExpense(ctx context.Context, groupID string, expenseID int64) (bool, error)
	DeleteByGroup(ctx context.Context, groupID string) (int64, error)
	DeleteByUserInGroup(ctx context.Context, userID, groupID string) (int64, error)
	AssignUngrouped(ctx context.Context, userID, groupID string) (int64, error)
}
