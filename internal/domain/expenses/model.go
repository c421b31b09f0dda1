package expenses

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	MaxDescriptionLength = 30
	MaxCategoryLength    = 20
)

// Expense is a single logged spend. GroupID is nil for expenses logged before
// the payer joined any group.
type Expense struct {
	ID          int64
	UserID      string
	GroupID     *string
	Amount      decimal.Decimal
	Description string
	Category    string
	PayerName   string
	Date        time.Time
}

// Draft is user input that passed validation and is ready to be logged.
type Draft struct {
	Amount      decimal.Decimal
	Description string
	Category    string
}

type CreateExpenseInput struct {
	UserID      string
	GroupID     string
	PayerName   string
	Amount      decimal.Decimal
	Description string
	Category    string
	Date        time.Time
}

func (e Expense) InGroup(groupID string) bool {
	return e.GroupID != nil && *e.GroupID == groupID
}
