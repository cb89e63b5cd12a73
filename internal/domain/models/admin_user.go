package models

import (
	"strings"
	"time"
)

// Privileged roles allowed into the payments admin area
const (
	RoleCEO      = "ceo"
	RoleChairman = "chairman"
	RoleCFO      = "cfo"
)

// AdminUser is a top-management account allowed to act on payments
type AdminUser struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         string // Stored as entered; compared case-insensitively
	CreatedAt    time.Time
}

// NormalizeRole trims and lowercases a role name
func NormalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

// IsPrivilegedRole reports whether role is one of ceo, chairman or cfo
func IsPrivilegedRole(role string) bool {
	switch NormalizeRole(role) {
	case RoleCEO, RoleChairman, RoleCFO:
		return true
	}
	return false
}

// IsPrivileged reports whether the user holds a privileged role
func (u *AdminUser) IsPrivileged() bool {
	return IsPrivilegedRole(u.Role)
}
