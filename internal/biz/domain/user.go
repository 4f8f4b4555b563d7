package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxUserNameLength is the longest accepted display name, in runes
const MaxUserNameLength = 25

// User represents an account that can post and own presets
type User struct {
	ID        string
	Name      string // Display name
	CreatedAt time.Time
}

// NormalizeUserName trims and validates a display name
func NormalizeUserName(name string) (string, error) {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n == 0 {
		return "", &ValidationError{Field: "name", Message: "required"}
	}
	if n > MaxUserNameLength {
		return "", &ValidationError{Field: "name", Message: "must be at most 25 characters"}
	}
	return name, nil
}
