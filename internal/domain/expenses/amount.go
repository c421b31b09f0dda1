package expenses

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const amountScale = 2

// MaxAmount is the largest amount the numeric(12,2) amount column holds.
var MaxAmount = decimal.RequireFromString("9999999999.99")

var amountPattern = regexp.MustCompile(`^(?:[0-9]+(?:\.[0-9]*)?|\.[0-9]+)$`)

// ParseAmount accepts a plain decimal literal using either a comma or a dot as
// separator and truncates it to two fractional digits. The truncated value must
// be strictly positive and at most MaxAmount.
func ParseAmount(raw string) (decimal.Decimal, error) {
	value := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if !amountPattern.MatchString(value) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}

	if strings.HasPrefix(value, ".") {
		value = "0" + value
	}
	value = strings.TrimSuffix(value, ".")

	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}

	amount = amount.Truncate(amountScale)
	if !amount.IsPositive() || amount.GreaterThan(MaxAmount) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	return amount, nil
}

// NormalizeAmount renders a parsed amount the way it is stored.
func NormalizeAmount(raw string) (string, error) {
	amount, err := ParseAmount(raw)
	if err != nil {
		return "", err
	}
	return FormatAmount(amount), nil
}

func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(amountScale)
}

// Validate checks every field before any state is touched.
func Validate(amount, description, category string) (Draft, error) {
	parsed, err := ParseAmount(amount)
	if err != nil {
		return Draft{}, err
	}

	description = strings.TrimSpace(description)
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return Draft{}, fmt.Errorf("%w: at most %d characters", ErrDescriptionTooLong, MaxDescriptionLength)
	}

	category = strings.TrimSpace(category)
	if utf8.RuneCountInString(category) > MaxCategoryLength {
		return Draft{}, fmt.Errorf("%w: at most %d characters", ErrCategoryTooLong, MaxCategoryLength)
	}

	return Draft{Amount: parsed, Description: description, Category: category}, nil
}
