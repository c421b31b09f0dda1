package session

import (
	"github.com/shopspring/decimal"

	"sharespend/internal/domain/balance"
	"sharespend/internal/domain/expenses"
	"sharespend/internal/domain/groups"
	"sharespend/internal/domain/profile"
)

// GroupData is the user's view of the selected group: names, member count and
// running totals.
type GroupData struct {
	UserName           string
	Nickname           string
	GroupName          string
	MemberCount        int
	TotalGroupExpenses decimal.Decimal
	TotalPaid          decimal.Decimal
	UserExpenses       decimal.Decimal
}

func defaultGroupData() GroupData {
	return GroupData{
		MemberCount:        profile.DefaultMemberCount,
		TotalGroupExpenses: decimal.Zero,
		TotalPaid:          decimal.Zero,
		UserExpenses:       decimal.Zero,
	}
}

// PayerName is the name expenses are attributed to: the nickname when set,
// otherwise the user name.
func (d GroupData) PayerName() string {
	if d.Nickname != "" {
		return d.Nickname
	}
	return d.UserName
}

func (d GroupData) empty() bool {
	return d.UserName == "" && d.Nickname == "" && d.GroupName == ""
}

// GroupDataPatch is a partial update. Nil fields are left untouched.
type GroupDataPatch struct {
	UserName           *string
	Nickname           *string
	GroupName          *string
	MemberCount        *int
	TotalGroupExpenses *decimal.Decimal
	TotalPaid          *decimal.Decimal
	UserExpenses       *decimal.Decimal
}

func (p GroupDataPatch) validate() error {
	if p.MemberCount != nil && (*p.MemberCount < 1 || *p.MemberCount > groups.MaxMembers) {
		return ErrInvalidGroupData
	}
	for _, value := range []*decimal.Decimal{p.TotalGroupExpenses, p.TotalPaid, p.UserExpenses} {
		if value != nil && value.IsNegative() {
			return ErrInvalidGroupData
		}
	}
	return nil
}

func (p GroupDataPatch) applyTo(d *GroupData) {
	if p.UserName != nil {
		d.UserName = *p.UserName
	}
	if p.Nickname != nil {
		d.Nickname = *p.Nickname
	}
	if p.GroupName != nil {
		d.GroupName = *p.GroupName
	}
	if p.MemberCount != nil {
		d.MemberCount = *p.MemberCount
	}
	if p.TotalGroupExpenses != nil {
		d.TotalGroupExpenses = *p.TotalGroupExpenses
	}
	if p.TotalPaid != nil {
		d.TotalPaid = *p.TotalPaid
	}
	if p.UserExpenses != nil {
		d.UserExpenses = *p.UserExpenses
	}
}

// delta is a change to the three totals. Rollbacks apply the inverse of the
// delta that was actually applied, never a value re-derived from current state.
type delta struct {
	total decimal.Decimal
	user  decimal.Decimal
	paid  decimal.Decimal
}

func (d delta) inverse() delta {
	return delta{total: d.total.Neg(), user: d.user.Neg(), paid: d.paid.Neg()}
}

func (d delta) applyTo(data *GroupData) {
	data.TotalGroupExpenses = data.TotalGroupExpenses.Add(d.total)
	data.UserExpenses = data.UserExpenses.Add(d.user)
	data.TotalPaid = data.TotalPaid.Add(d.paid)
}

type state struct {
	data     GroupData
	groups   []groups.Group
	selected *groups.Group
	expenses []expenses.Expense
}

func (s *state) findExpense(id int64) int {
	for i := range s.expenses {
		if s.expenses[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *state) findGroup(groupID string) int {
	for i := range s.groups {
		if s.groups[i].ID == groupID {
			return i
		}
	}
	return -1
}

func (s *state) removeExpenseAt(index int) expenses.Expense {
	removed := s.expenses[index]
	s.expenses = append(s.expenses[:index:index], s.expenses[index+1:]...)
	return removed
}

func (s *state) insertExpenseAt(index int, expense expenses.Expense) {
	if index < 0 {
		index = 0
	}
	if index > len(s.expenses) {
		index = len(s.expenses)
	}
	items := make([]expenses.Expense, 0, len(s.expenses)+1)
	items = append(items, s.expenses[:index]...)
	items = append(items, expense)
	items = append(items, s.expenses[index:]...)
	s.expenses = items
}

// selectGroup swaps the active group and recomputes totals from its expenses.
// TotalPaid is kept.
func (s *state) selectGroup(group groups.Group, items []expenses.Expense) {
	selected := group
	s.selected = &selected
	s.expenses = items
	total, own := expenses.Totals(items, s.data.PayerName())
	s.data.GroupName = group.Name
	s.data.MemberCount = group.MemberCount
	s.data.TotalGroupExpenses = total
	s.data.UserExpenses = own
}

func (s *state) clearSelection() {
	s.selected = nil
	s.expenses = nil
	names := s.data
	s.data = defaultGroupData()
	s.data.UserName = names.UserName
	s.data.Nickname = names.Nickname
}

// Snapshot is a copy of the coordinator's state with derived balances.
type Snapshot struct {
	UserID        string
	Loaded        bool
	GroupData     GroupData
	Groups        []groups.Group
	SelectedGroup *groups.Group
	Expenses      []expenses.Expense
	MaxGroups     int
	Summary       balance.Summary
}

func (s Snapshot) Balance() decimal.Decimal {
	return s.Summary.Balance
}

func (s Snapshot) UserBalance() decimal.Decimal {
	return s.Summary.UserBalance
}

func (s *state) snapshot() Snapshot {
	snap := Snapshot{
		GroupData: s.data,
		Groups:    append([]groups.Group(nil), s.groups...),
		Expenses:  make([]expenses.Expense, len(s.expenses)),
		Summary: balance.Summarize(
			s.data.TotalGroupExpenses,
			s.data.UserExpenses,
			s.data.TotalPaid,
			s.data.MemberCount,
		),
	}
	copy(snap.Expenses, s.expenses)
	if s.selected != nil {
		selected := *s.selected
		snap.SelectedGroup = &selected
	}
	return snap
}
