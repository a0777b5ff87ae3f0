package models

import (
	"fmt"
	"strings"
)

// Role is the account role issued by the backend.
type Role string

const (
	RoleCustomer        Role = "CUSTOMER"
	RoleRestaurantOwner Role = "RESTAURANT_OWNER"
	RoleRider           Role = "RIDER"
	RoleAdmin           Role = "ADMIN"
)

// ParseRole maps a role string to a known Role.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleCustomer, RoleRestaurantOwner, RoleRider, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// User is the authenticated account profile.
type User struct {
	ID           int64  `json:"id" gorm:"primaryKey"`
	Email        string `json:"email" gorm:"uniqueIndex;not null"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	FullName     string `json:"full_name,omitempty" gorm:"-"`
	PhoneNumber  string `json:"phone_number,omitempty"`
	Role         Role   `json:"role" gorm:"type:varchar(20);not null"`
	PasswordHash string `json:"-" gorm:"not null"`
}

// Name returns the display name of u.
func (u User) Name() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Email
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// AuthTokens is the access/refresh pair returned by login and register.
type AuthTokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	Password2   string `json:"password2" validate:"required,eqfield=Password"`
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	PhoneNumber string `json:"phone_number,omitempty" validate:"omitempty,max=15"`
	Role        Role   `json:"role" validate:"required,oneof=CUSTOMER RESTAURANT_OWNER RIDER"`
}

// LoginInput is the login payload.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ProfilePatch carries the editable profile fields. Nil fields are left untouched.
type ProfilePatch struct {
	FirstName   *string `json:"first_name,omitempty" validate:"omitempty,min=1"`
	LastName    *string `json:"last_name,omitempty" validate:"omitempty,min=1"`
	PhoneNumber *string `json:"phone_number,omitempty" validate:"omitempty,max=15"`
}

// PasswordChange is the change-password payload.
type PasswordChange struct {
	OldPassword  string `json:"old_password" validate:"required"`
	NewPassword  string `json:"new_password" validate:"required,min=8"`
	NewPassword2 string `json:"new_password2" validate:"required,eqfield=NewPassword"`
}
