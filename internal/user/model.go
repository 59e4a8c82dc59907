package user

import (
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailAlreadyUsed   = errors.New("email already used")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInactiveUser       = errors.New("user is inactive")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrInvalidRole        = errors.New("invalid role")
)

// Role determines a user's access level.
type Role string

const (
	RoleClient Role = "client"
	RoleAdmin  Role = "admin"
)

// User represents an account in the system.
type User struct {
	ID           string // UUID
	Email        string
	PasswordHash string
	DisplayName  *string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}

// Filter defines filter options for listing users.
type Filter struct {
	Email       string
	DisplayName string
	Role        string
	IsActive    *bool // Pointer to distinguish between false and not set

	Page     int
	PageSize int
	Sort     string // e.g., "created_at DESC"
}
