package models

import "time"

// Field limits of the users table.
const (
	MaxNameLength         = 150
	MaxEmailLength        = 100
	MaxPasswordHashLength = 200

	// MaxPasswordLength is the longest raw password bcrypt accepts, in bytes.
	MaxPasswordLength = 72
)

// User is a stored user record. PasswordHash always holds a bcrypt hash,
// never a raw password.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the part of a User that may leave the service.
type PublicUser struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Public drops the password hash and timestamps.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}
