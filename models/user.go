package models

import (
	"strings"
	"time"
)

// Role is the closed set of actors that can hold an account
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleSecretary Role = "secretary"
	RoleSalesman  Role = "salesman"
	RoleDriver    Role = "driver"
)

// Roles lists every stored role
var Roles = []Role{RoleAdmin, RoleSecretary, RoleSalesman, RoleDriver}

// ParseRole converts a raw role string, returning false for unknown roles
func ParseRole(value string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	switch role {
	case RoleAdmin, RoleSecretary, RoleSalesman, RoleDriver:
		return role, true
	default:
		return "", false
	}
}

// IsBackOffice reports whether the role sees every order
func (r Role) IsBackOffice() bool {
	switch r {
	case RoleAdmin, RoleSecretary:
		return true
	case RoleSalesman, RoleDriver:
		return false
	default:
		return false
	}
}

// UserStatus gates authentication
type UserStatus string

const (
	UserActive   UserStatus = "Active"
	UserInactive UserStatus = "Inactive"
)

// User represents an account holder (admin, secretary, salesman or driver)
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Phone        string     `gorm:"uniqueIndex;not null" json:"phone"` // login handle
	FirstName    string     `gorm:"not null" json:"firstName"`
	LastName     string     `gorm:"not null" json:"lastName"`
	Role         Role       `gorm:"type:varchar(20);not null" json:"role"`
	PasswordHash string     `json:"-"`
	Status       UserStatus `gorm:"type:varchar(20);not null;default:'Inactive'" json:"status"`
	IsVerified   bool       `gorm:"not null;default:false" json:"isVerified"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// FullName returns "First Last"
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsActive reports whether the user may log in
func (u User) IsActive() bool {
	return u.Status == UserActive
}
