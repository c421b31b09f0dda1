package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"sharespend/internal/domain/expenses"
	"sharespend/internal/domain/groups"
	"sharespend/internal/session"
)

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type groupDataResponse struct {
	UserName           string `json:"user_name"`
	Nickname           string `json:"nickname"`
	GroupName          string `json:"group_name"`
	MemberCount        int    `json:"member_count"`
	TotalGroupExpenses string `json:"total_group_expenses"`
	TotalPaid          string `json:"total_paid"`
	UserExpenses       string `json:"user_expenses"`
}

type groupResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	MemberCount  int       `json:"member_count"`
	AccessSecret string    `json:"access_secret"`
	CreatorName  string    `json:"creator_name"`
	CreatedAt    time.Time `json:"created_at"`
}

type expenseResponse struct {
	ID          int64  `json:"id"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Category    string `json:"category"`
	PayerName   string `json:"payer_name"`
	Date        string `json:"date"`
}

type balanceResponse struct {
	Balance     string `json:"balance"`
	UserBalance string `json:"user_balance"`
	Outstanding string `json:"outstanding"`
	Status      string `json:"status"`
}

type sessionResponse struct {
	GroupData     groupDataResponse `json:"group_data"`
	Groups        []groupResponse   `json:"groups"`
	SelectedGroup *groupResponse    `json:"selected_group"`
	Expenses      []expenseResponse `json:"expenses"`
	Balance       balanceResponse   `json:"balance"`
	MaxGroups     int               `json:"max_groups"`
}

type groupsResponse struct {
	Items     []groupResponse `json:"items"`
	MaxGroups int             `json:"max_groups"`
}

func money(value decimal.Decimal) string {
	return value.StringFixed(2)
}

func toGroupResponse(group groups.Group) groupResponse {
	return groupResponse{
		ID:           group.ID,
		Name:         group.Name,
		MemberCount:  group.MemberCount,
		AccessSecret: group.AccessSecret,
		CreatorName:  group.CreatorName,
		CreatedAt:    group.CreatedAt,
	}
}

func toGroupsResponse(items []groups.Group) []groupResponse {
	result := make([]groupResponse, 0, len(items))
	for _, group := range items {
		result = append(result, toGroupResponse(group))
	}
	return result
}

func toExpenseResponse(expense expenses.Expense) expenseResponse {
	return expenseResponse{
		ID:          expense.ID,
		Amount:      money(expense.Amount),
		Description: expense.Description,
		Category:    expense.Category,
		PayerName:   expense.PayerName,
		Date:        expense.Date.UTC().Format(time.RFC3339),
	}
}

func toSessionResponse(snap session.Snapshot) sessionResponse {
	data := snap.GroupData
	response := sessionResponse{
		GroupData: groupDataResponse{
			UserName:           data.UserName,
			Nickname:           data.Nickname,
			GroupName:          data.GroupName,
			MemberCount:        data.MemberCount,
			TotalGroupExpenses: money(data.TotalGroupExpenses),
			TotalPaid:          money(data.TotalPaid),
			UserExpenses:       money(data.UserExpenses),
		},
		Groups:   toGroupsResponse(snap.Groups),
		Expenses: make([]expenseResponse, 0, len(snap.Expenses)),
		Balance: balanceResponse{
			Balance:     money(snap.Balance()),
			UserBalance: money(snap.UserBalance()),
			Outstanding: money(snap.Summary.Outstanding),
			Status:      string(snap.Summary.Status),
		},
		MaxGroups: snap.MaxGroups,
	}
	if snap.SelectedGroup != nil {
		selected := toGroupResponse(*snap.SelectedGroup)
		response.SelectedGroup = &selected
	}
	for _, expense := range snap.Expenses {
		response.Expenses = append(response.Expenses, toExpenseResponse(expense))
	}
	return response
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
