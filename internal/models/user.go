package models

import "time"

type UserRole string

const (
	RoleGPO    UserRole = "GPO"
	RoleVendor UserRole = "VENDOR"
)

// Valid reports whether r is one of the portal roles.
func (r UserRole) Valid() bool {
	return r == RoleGPO || r == RoleVendor
}

// User is the profile returned by the backend for the logged-in account.
type User struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       UserRole  `json:"role"`
	IsVerified bool      `json:"isVerified"`
	Phone      string    `json:"phone,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user,omitempty"`
}

// RegisterRequest is the vendor registration form.
type RegisterRequest struct {
	CompanyName string `json:"companyName" form:"companyName" binding:"notblank"`
	Email       string `json:"email" form:"email" binding:"required,email"`
	Phone       string `json:"phone" form:"phone" binding:"notblank"`
	Address     string `json:"address" form:"address" binding:"notblank"`
	Experience  string `json:"experience" form:"experience"`
	Services    string `json:"services" form:"services"`
	Projects    string `json:"projects" form:"projects"`
	Terms       bool   `json:"terms" form:"terms" binding:"required"`
}

type VerificationRequest struct {
	BusinessRegistrationNumber string `json:"businessRegistrationNumber" form:"businessRegistrationNumber" binding:"notblank"`
}
