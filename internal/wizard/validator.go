package wizard

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validator keys reported on a field when its chain fails
const (
	KeyRequired  = "required"
	KeyEmail     = "email"
	KeyMinLength = "minlength"
)

// emailPattern accepts the usual local@domain.tld shape
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// FieldValidator checks a single field value.
// Key identifies the failure so renderers can choose a message.
type FieldValidator interface {
	Key() string
	Validate(value string) bool
}

// Required fails on values that are empty after trimming whitespace.
type Required struct{}

func (Required) Key() string { return KeyRequired }

func (Required) Validate(value string) bool {
	return strings.TrimSpace(value) != ""
}

// Email fails on values that do not look like local@domain.
// An empty value passes; pair it with Required to reject blanks.
type Email struct{}

func (Email) Key() string { return KeyEmail }

func (Email) Validate(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return true
	}
	return emailPattern.MatchString(value)
}

// MinLength fails on values shorter than N runes after trimming.
// An empty value passes; pair it with Required to reject blanks.
type MinLength struct {
	N int
}

func (MinLength) Key() string { return KeyMinLength }

func (v MinLength) Validate(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return true
	}
	return utf8.RuneCountInString(value) >= v.N
}

// runChain evaluates validators in order and returns the key of the first
// failure, or "" when all pass.
func runChain(validators []FieldValidator, value string) string {
	for _, v := range validators {
		if !v.Validate(value) {
			return v.Key()
		}
	}
	return ""
}

// ErrorMessage returns a human-readable message for a failed validator key.
func ErrorMessage(field Field) string {
	switch field.Error {
	case "":
		return ""
	case KeyRequired:
		return fmt.Sprintf("%s is required", field.Label)
	case KeyEmail:
		return "Enter a valid email address"
	case KeyMinLength:
		for _, v := range field.validators {
			if ml, ok := v.(MinLength); ok {
				return fmt.Sprintf("%s must be at least %d characters", field.Label, ml.N)
			}
		}
		return fmt.Sprintf("%s is too short", field.Label)
	default:
		return fmt.Sprintf("%s is invalid", field.Label)
	}
}
