package profile

import (
	"time"

	"github.com/shopspring/decimal"
)

const DefaultMemberCount = 10

// Profile is the per-user row holding the user's names, the active group and
// that group's running totals.
type Profile struct {
	UserID             string
	Email              string
	DisplayName        string
	Nickname           string
	ActiveGroupID      *string
	GroupName          string
	MemberCount        int
	TotalGroupExpenses decimal.Decimal
	TotalPaid          decimal.Decimal
	UserExpenses       decimal.Decimal
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func New(userID, email, displayName string) Profile {
	return Profile{
		UserID:             userID,
		Email:              email,
		DisplayName:        displayName,
		MemberCount:        DefaultMemberCount,
		TotalGroupExpenses: decimal.Zero,
		TotalPaid:          decimal.Zero,
		UserExpenses:       decimal.Zero,
	}
}
