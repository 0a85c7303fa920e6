package domain

import "time"

// AdminRole represents the privilege level of a reviewer identity.
type AdminRole string

const (
	// RoleSuper may review submissions and create other admins.
	RoleSuper AdminRole = "super"
	// RoleSecondary may review submissions but not manage admins.
	RoleSecondary AdminRole = "secondary"
)

// Admin is a reviewer identity. Usernames are globally unique and there
// is no deletion or demotion path.
type Admin struct {
	Username     string    `db:"username"      json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         AdminRole `db:"role"          json:"role"`
	CreatedAt    time.Time `db:"created_at"    json:"created_at"`
}
