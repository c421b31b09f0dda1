package handler

import (
	"errors"
	"net/http"

	"sharespend/internal/domain/expenses"
	"sharespend/internal/session"
)

type errorMapping struct {
	target error
	status int
	code   string
}

var sessionErrors = []errorMapping{
	{expenses.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
	{expenses.ErrDescriptionTooLong, http.StatusBadRequest, "description_too_long"},
	{expenses.ErrCategoryTooLong, http.StatusBadRequest, "category_too_long"},
	{session.ErrInvalidMemberCount, http.StatusBadRequest, "invalid_member_count"},
	{session.ErrGroupNameRequired, http.StatusBadRequest, "group_name_required"},
	{session.ErrInvalidGroupData, http.StatusBadRequest, "invalid_group_data"},
	{session.ErrGroupLimitReached, http.StatusConflict, "group_limit_reached"},
	{session.ErrNoGroupSelected, http.StatusConflict, "no_group_selected"},
	{session.ErrGroupNotFound, http.StatusNotFound, "group_not_found"},
	{session.ErrExpenseNotFound, http.StatusNotFound, "expense_not_found"},
	{session.ErrSaveFailed, http.StatusServiceUnavailable, "save_failed"},
	{session.ErrLoadFailed, http.StatusServiceUnavailable, "load_failed"},
	{session.ErrClosed, http.StatusServiceUnavailable, "session_closed"},
}

// writeSessionError turns a coordinator error into the user-facing message.
// Persistence failures were already logged by the coordinator with their cause.
func (h *Handlers) writeSessionError(w http.ResponseWriter, op string, err error, args ...any) {
	for _, mapping := range sessionErrors {
		if !errors.Is(err, mapping.target) {
			continue
		}
		if mapping.status == http.StatusServiceUnavailable {
			h.log.Warn(op+": "+mapping.code, append(args, "err", err)...)
		} else {
			h.log.BusinessError(op+": "+mapping.code, err, args...)
		}
		writeError(w, mapping.status, mapping.code, mapping.target.Error())
		return
	}

	h.log.InternalError(op+": unexpected error", err, args...)
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
