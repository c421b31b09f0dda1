// Package balance derives per-group and per-user balances from expense totals.
//
// Every function is pure and total: degenerate inputs produce zero rather than
// a panic or a division by zero.
package balance

import "github.com/shopspring/decimal"

// MinMembers is the smallest member count for which a share is computed.
const MinMembers = 2

type Status string

const (
	StatusOwes     Status = "owes"
	StatusOwed     Status = "owed"
	StatusBalanced Status = "balanced"
)

// Balance is the even share of the group total per member.
func Balance(totalGroupExpenses decimal.Decimal, memberCount int) decimal.Decimal {
	if memberCount < MinMembers {
		return decimal.Zero
	}
	return totalGroupExpenses.Div(decimal.NewFromInt(int64(memberCount)))
}

// UserBalance is positive when the user is owed money and negative when the user owes.
func UserBalance(userExpenses, balance decimal.Decimal) decimal.Decimal {
	return userExpenses.Sub(balance)
}

type Summary struct {
	MemberCount        int
	TotalGroupExpenses decimal.Decimal
	TotalPaid          decimal.Decimal
	UserExpenses       decimal.Decimal
	Balance            decimal.Decimal
	UserBalance        decimal.Decimal
	Status             Status
	// Outstanding is the absolute value of UserBalance.
	Outstanding decimal.Decimal
}

func Summarize(totalGroupExpenses, userExpenses, totalPaid decimal.Decimal, memberCount int) Summary {
	share := Balance(totalGroupExpenses, memberCount)
	userBalance := UserBalance(userExpenses, share)

	status := StatusBalanced
	switch userBalance.Sign() {
	case -1:
		status = StatusOwes
	case 1:
		status = StatusOwed
	}

	return Summary{
		MemberCount:        memberCount,
		TotalGroupExpenses: totalGroupExpenses,
		TotalPaid:          totalPaid,
		UserExpenses:       userExpenses,
		Balance:            share,
		UserBalance:        userBalance,
		Status:             status,
		Outstanding:        userBalance.Abs(),
	}
}
