package domain

import (
	"strings"
	"time"
)

// User is a credential record. PasswordHash is produced and checked only by
// the credential store.
type User struct {
	ID                 string
	UserName           string
	NormalizedUserName string
	Email              string
	NormalizedEmail    string
	PasswordHash       string
	Roles              []string
	CreatedAt          time.Time
}

// HasRole reports whether role has been assigned to u.
func (u User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// NormalizeEmail lower-cases and trims an email for uniqueness checks.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeUserName upper-cases and trims a username so lookups are
// case-insensitive.
func NormalizeUserName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
