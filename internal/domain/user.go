package domain

import "time"

// User represents a registered account. The password hash protects the
// login credential only; vault secrets are encrypted separately.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"` // never serialized in API responses
	LastLoginAt  time.Time `json:"lastLoginAt,omitzero"`
	Timestamps
}

// Summary returns the public projection of the user, safe to return
// from registration and profile endpoints.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
}

// UserSummary is the public identity of a user: no password hash, no timestamps.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
