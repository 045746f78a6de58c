package model

import "time"

type UserRole string

const (
	RoleRoot  UserRole = "Root"
	RoleAdmin UserRole = "Admin"
	RoleUser  UserRole = "User"
)

type User struct {
	Id             int64      `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	Role           UserRole   `json:"role"`
	Status         string     `json:"status"`
	NamespaceLimit int64      `json:"namespace_limit"`
	NamespaceCount int64      `json:"namespace_count"`
	LastLogin      *time.Time `json:"last_login,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type UserForm struct {
	Username       string   `json:"username,omitempty" validate:"required,username"`
	Password       string   `json:"password,omitempty" validate:"omitempty,password"`
	Email          string   `json:"email,omitempty" validate:"required,email"`
	Role           UserRole `json:"role,omitempty" validate:"omitempty,oneof=Admin User"`
	NamespaceLimit *int64   `json:"namespace_limit,omitempty" validate:"omitempty,quota"`
}

// UserUpdateForm only carries the fields being changed.
type UserUpdateForm struct {
	Email          *string  `json:"email,omitempty" validate:"omitempty,email"`
	Password       *string  `json:"password,omitempty" validate:"omitempty,password"`
	Role           UserRole `json:"role,omitempty" validate:"omitempty,oneof=Admin User"`
	NamespaceLimit *int64   `json:"namespace_limit,omitempty" validate:"omitempty,quota"`
}

// TokenPair is returned by the login endpoint for both password logins and refreshes.
type TokenPair struct {
	Id           int64  `json:"id,omitempty"`
	Username     string `json:"username,omitempty"`
	Email        string `json:"email,omitempty"`
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}
