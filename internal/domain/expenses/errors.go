package expenses

import "errors"

var (
	ErrExpenseNotFound    = errors.New("expense not found")
	ErrInvalidAmount      = errors.New("amount must be a positive number with at most 2 decimals")
	ErrDescriptionTooLong = errors.New("description is too long")
	ErrCategoryTooLong    = errors.New("category is too long")
	ErrGroupRequired      = errors.New("group is required")
	ErrUserIDRequired     = errors.New("user id is required")
)
