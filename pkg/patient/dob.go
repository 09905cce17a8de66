package patient

import (
	"strings"
	"time"
)

type DOBResult int

const (
	DOBValid DOBResult = iota
	DOBInvalidPattern
	DOBInFuture
)

func (r DOBResult) String() string {
	switch r {
	case DOBValid:
		return "VALID"
	case DOBInvalidPattern:
		return "INVALID_PATTERN"
	case DOBInFuture:
		return "DATE_IS_IN_FUTURE"
	default:
		return "UNKNOWN"
	}
}

// PayloadDateLayout is the date-of-birth layout used on the wire.
const PayloadDateLayout = "2006-01-02"

// DateOfBirthValidator checks a date string against one layout, strictly.
type DateOfBirthValidator struct {
	layout string
}

func NewDateOfBirthValidator(layout string) *DateOfBirthValidator {
	return &DateOfBirthValidator{layout: layout}
}

func (v *DateOfBirthValidator) Validate(value string, now time.Time) (time.Time, DOBResult) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || len(trimmed) != len(v.layout) {
		return time.Time{}, DOBInvalidPattern
	}

	parsed, err := time.Parse(v.layout, trimmed)
	if err != nil {
		return time.Time{}, DOBInvalidPattern
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if parsed.After(today) {
		return time.Time{}, DOBInFuture
	}
	return parsed, DOBValid
}
