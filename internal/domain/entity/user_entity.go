package entity

import (
	"strings"
	"time"
)

// User is the identity record every other aggregate hangs off.
// Passwords are stored as bcrypt hashes in PasswordHash.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	IsStaff      bool
	IsSuperuser  bool
	IsActive     bool
	DateJoined   time.Time
	LastLogin    *time.Time
}

// FullName joins first and last name, trimmed.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
