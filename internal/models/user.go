package models

import (
	"time"

	"github.com/google/uuid"
)

// UserType distinguishes employees from back-office administrators.
type UserType string

const (
	UserTypeEmployee UserType = "Employee"
	UserTypeAdmin    UserType = "Admin"
)

// Valid reports whether t is a known user type.
func (t UserType) Valid() bool {
	return t == UserTypeEmployee || t == UserTypeAdmin
}

// User represents a registered user account.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Email is the user's email address (unique). Bills are owned by email.
	Email string

	DisplayName string

	Type UserType

	// PasswordHash is the bcrypt hash of the password.
	PasswordHash string

	CreatedAt int64
	UpdatedAt int64
}

// NewUser creates a user with a fresh ID and timestamps.
func NewUser(email, displayName string, userType UserType, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:           uuid.New().String(),
		Email:        email,
		DisplayName:  displayName,
		Type:         userType,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
