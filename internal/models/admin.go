package models

import (
	"fmt"
	"strings"
)

// Role of an AdminUser.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleSuperUser Role = "superuser"
)

// AdminUser is an account that manages organizations. Only a bcrypt hash of
// the password is ever stored.
type AdminUser struct {
	Meta
	FullName     string `json:"full_name"`
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
	PhoneNumber  string `json:"phone_number"`
	AadharNumber string `json:"aadhar_number"`
	Role         Role   `json:"role"`
}

func (u *AdminUser) Kind() Kind              { return KindAdminUser }
func (u *AdminUser) OrganizationRef() string { return "" }
func (u *AdminUser) Creator() string         { return "" }

func (u *AdminUser) Validate() error {
	if strings.TrimSpace(u.Username) == "" {
		return fmt.Errorf("%w: username is required", ErrValidation)
	}
	if u.PasswordHash == "" {
		return fmt.Errorf("%w: password hash is required", ErrValidation)
	}
	switch u.Role {
	case RoleAdmin, RoleSuperUser:
	default:
		return fmt.Errorf("%w: unknown role %q", ErrValidation, u.Role)
	}
	return nil
}
