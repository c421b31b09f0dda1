package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

func parseExpenseID(r *http.Request) (int64, error) {
	value := strings.TrimSpace(chi.URLParam(r, "id"))
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid expense id %q", value)
	}
	return id, nil
}

func groupIDParam(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "id"))
}
