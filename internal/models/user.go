package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin    UserRole = "ADMIN"
	RoleReporter UserRole = "REPORTER"
)

// User represents a reporter or reviewer stored in the users table.
type User struct {
	ID            string     `db:"id" json:"id"`
	Name          string     `db:"name" json:"name"`
	Email         string     `db:"email" json:"email"`
	PasswordHash  string     `db:"password_hash" json:"-"`
	Location      *string    `db:"location" json:"location,omitempty"`
	EcoPoints     int        `db:"eco_points" json:"eco_points"`
	Level         Level      `db:"level" json:"level"`
	ReportsCount  int        `db:"reports_count" json:"reports_count"`
	Role          UserRole   `db:"role" json:"role"`
	Active        bool       `db:"active" json:"active"`
	EmailVerified bool       `db:"email_verified" json:"email_verified"`
	LastLogin     *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Level     *Level
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
