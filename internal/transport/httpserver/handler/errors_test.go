package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"sharespend/internal/domain/expenses"
	"sharespend/internal/session"
)

func TestWriteSessionErrorMapping(t *testing.T) {
	h := New(nil, nil)

	cases := []struct {
		err    error
		status int
		code   string
	}{
		{expenses.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
		{fmt.Errorf("validate: %w", expenses.ErrCategoryTooLong), http.StatusBadRequest, "category_too_long"},
		{session.ErrInvalidMemberCount, http.StatusBadRequest, "invalid_member_count"},
		{session.ErrGroupLimitReached, http.StatusConflict, "group_limit_reached"},
		{session.ErrNoGroupSelected, http.StatusConflict, "no_group_selected"},
		{session.ErrGroupNotFound, http.StatusNotFound, "group_not_found"},
		{session.ErrExpenseNotFound, http.StatusNotFound, "expense_not_found"},
		{session.ErrSaveFailed, http.StatusServiceUnavailable, "save_failed"},
		{session.ErrLoadFailed, http.StatusServiceUnavailable, "load_failed"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		h.writeSessionError(rec, "test.op", tc.err)

		if rec.Code != tc.status {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.status, rec.Code)
		}
		var body errorEnvelope
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Error.Code != tc.code {
			t.Fatalf("%v: expected code %s, got %s", tc.err, tc.code, body.Error.Code)
		}
	}
}

func TestCoordinatorRequiresUser(t *testing.T) {
	h := New(nil, nil)
	rec := httptest.NewRecorder()
	h.GetSession(rec, httptest.NewRequest(http.MethodGet, "/api/session", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
