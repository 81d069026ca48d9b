package model

import (
	"fmt"
	"time"
)

// Role is the user variant discriminant.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleClient Role = "CLIENT"
)

// User represents an account as stored in the users collection.  BirthDate
// is kept as a YYYY-MM-DD string and drives the age-based fares.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Name         – display name.
//	Email        – unique email address.
//	PasswordHash – bcrypt hashed password.
//	BirthDate    – YYYY-MM-DD.
//	Role         – ADMIN or CLIENT.
//	CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	BirthDate    string    `json:"birth_date"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Birth parses BirthDate.
func (u User) Birth() (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, u.BirthDate, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: birth date %q", ErrInvalidInput, u.BirthDate)
	}
	return t, nil
}
