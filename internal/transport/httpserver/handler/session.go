package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"sharespend/internal/session"
)

type updateProfileRequest struct {
	UserName           *string          `json:"user_name"`
	Nickname           *string          `json:"nickname"`
	GroupName          *string          `json:"group_name"`
	MemberCount        *int             `json:"member_count"`
	TotalGroupExpenses *decimal.Decimal `json:"total_group_expenses"`
	TotalPaid          *decimal.Decimal `json:"total_paid"`
	UserExpenses       *decimal.Decimal `json:"user_expenses"`
}

func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	c, ok := h.coordinator(w, r, "session.get")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(c.Snapshot()))
}

func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	c, ok := h.coordinator(w, r, "session.update_profile")
	if !ok {
		return
	}

	err := c.UpdateGroupData(session.GroupDataPatch{
		UserName:           req.UserName,
		Nickname:           req.Nickname,
		GroupName:          req.GroupName,
		MemberCount:        req.MemberCount,
		TotalGroupExpenses: req.TotalGroupExpenses,
		TotalPaid:          req.TotalPaid,
		UserExpenses:       req.UserExpenses,
	})
	if err != nil {
		h.writeSessionError(w, "session.update_profile", err, "user_id", c.UserID())
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(c.Snapshot()))
}

func (h *Handlers) ResetAll(w http.ResponseWriter, r *http.Request) {
	c, ok := h.coordinator(w, r, "session.reset")
	if !ok {
		return
	}
	if err := c.ResetAll(r.Context()); err != nil {
		h.writeSessionError(w, "session.reset", err, "user_id", c.UserID())
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(c.Snapshot()))
}

func (h *Handlers) SettleBalance(w http.ResponseWriter, r *http.Request) {
	c, ok := h.coordinator(w, r, "session.settle")
	if !ok {
		return
	}
	if err := c.SettleBalance(r.Context()); err != nil {
		h.writeSessionError(w, "session.settle", err, "user_id", c.UserID())
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(c.Snapshot()))
}
