package expenses

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListGroupExpenses(ctx context.Context, groupID string) ([]Expense, error) {
	if strings.TrimSpace(groupID) == "" {
		return nil, ErrGroupRequired
	}
	items, err := s.repo.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		return []Expense{}, nil
	}
	return items, nil
}

func (s *Service) CreateExpense(ctx context.Context, input CreateExpenseInput) (*Expense, error) {
	if strings.TrimSpace(input.GroupID) == "" {
		return nil, ErrGroupRequired
	}
	if input.UserID == "" {
		return nil, ErrUserIDRequired
	}
	if !input.Amount.IsPositive() || input.Amount.GreaterThan(MaxAmount) || !input.Amount.Equal(input.Amount.Truncate(amountScale)) {
		return nil, ErrInvalidAmount
	}
	if utf8.RuneCountInString(input.Description) > MaxDescriptionLength {
		return nil, ErrDescriptionTooLong
	}
	if utf8.RuneCountInString(input.Category) > MaxCategoryLength {
		return nil, ErrCategoryTooLong
	}

	date := input.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	groupID := input.GroupID
	expense := Expense{
		UserID:      input.UserID,
		GroupID:     &groupID,
		Amount:      input.Amount,
		Description: input.Description,
		Category:    input.Category,
		PayerName:   input.PayerName,
		Date:        date,
	}
	if err := s.repo.CreateExpense(ctx, &expense); err != nil {
		return nil, err
	}
	return &expense, nil
}

func (s *Service) DeleteExpense(ctx context.Context, groupID string, expenseID int64) error {
	deleted, err := s.repo.DeleteExpense(ctx, groupID, expenseID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrExpenseNotFound
	}
	return nil
}

func (s *Service) ClearGroup(ctx context.Context, groupID string) (int64, error) {
	if strings.TrimSpace(groupID) == "" {
		return 0, ErrGroupRequired
	}
	return s.repo.DeleteByGroup(ctx, groupID)
}

func (s *Service) RemoveUserExpenses(ctx context.Context, userID, groupID string) (int64, error) {
	if strings.TrimSpace(groupID) == "" {
		return 0, ErrGroupRequired
	}
	return s.repo.DeleteByUserInGroup(ctx, userID, groupID)
}

// AdoptUngrouped moves the user's expenses without a group into groupID.
func (s *Service) AdoptUngrouped(ctx context.Context, userID, groupID string) (int64, error) {
	if strings.TrimSpace(groupID) == "" {
		return 0, ErrGroupRequired
	}
	return s.repo.AssignUngrouped(ctx, userID, groupID)
}

// Totals sums all amounts and the amounts attributed to payerName.
func Totals(items []Expense, payerName string) (total, own decimal.Decimal) {
	total = decimal.Zero
	own = decimal.Zero
	for _, item := range items {
		total = total.Add(item.Amount)
		if payerName != "" && item.PayerName == payerName {
			own = own.Add(item.Amount)
		}
	}
	return total, own
}
