package handler

import "net/http"

type addExpenseRequest struct {
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type addExpenseResponse struct {
	Expense expenseResponse `json:"expense"`
	Session sessionResponse `json:"session"`
}

func (h *Handlers) AddExpense(w http.ResponseWriter, r *http.Request) {
	var req addExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	c, ok := h.coordinator(w, r, "expenses.add")
	if !ok {
		return
	}

	created, err := c.AddExpense(r.Context(), req.Amount, req.Description, req.Category)
	if err != nil {
		h.writeSessionError(w, "expenses.add", err, "user_id", c.UserID())
		return
	}

	writeJSON(w, http.StatusCreated, addExpenseResponse{
		Expense: toExpenseResponse(*created),
		Session: toSessionResponse(c.Snapshot()),
	})
}

func (h *Handlers) ClearExpenses(w http.ResponseWriter, r *http.Request) {
	c, ok := h.coordinator(w, r, "expenses.clear")
	if !ok {
		return
	}
	if err := c.ClearExpenses(r.Context()); err != nil {
		h.writeSessionError(w, "expenses.clear", err, "user_id", c.UserID())
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(c.Snapshot()))
}

func (h *Handlers) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseExpenseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid expense id")
		return
	}

	c, ok := h.coordinator(w, r, "expenses.delete")
	if !ok {
		return
	}

	if err := c.DeleteExpense(r.Context(), id); err != nil {
		h.writeSessionError(w, "expenses.delete", err, "user_id", c.UserID(), "expense_id", id)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(c.Snapshot()))
}

func (h *Handlers) CheckExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseExpenseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid expense id")
		return
	}

	c, ok := h.coordinator(w, r, "expenses.check")
	if !ok {
		return
	}

	if err := c.CheckExpense(r.Context(), id); err != nil {
		h.writeSessionError(w, "expenses.check", err, "user_id", c.UserID(), "expense_id", id)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(c.Snapshot()))
}
