package model

import "time"

// User roles.
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// Membership statuses.
const (
	StatusActive    = "active"
	StatusPending   = "pending"
	StatusSuspended = "suspended"
)

// User represents a registered member in the system.
type User struct {
	ID               uint       `json:"id" gorm:"primaryKey"`
	FirstName        string     `json:"first_name" gorm:"size:100;not null"`
	LastName         string     `json:"last_name" gorm:"size:100"`
	Email            string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash     string     `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	Role             string     `json:"role" gorm:"size:50;default:'member'"`
	Status           string     `json:"status" gorm:"size:50;default:'active'"`
	Country          string     `json:"country,omitempty" gorm:"size:100"`
	DateOfBirth      *time.Time `json:"date_of_birth,omitempty"`
	Gender           string     `json:"gender,omitempty" gorm:"size:20"`
	MembershipNumber string     `json:"membership_number,omitempty" gorm:"size:64;index"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// HasMembershipInputs reports whether the profile carries everything the
// membership-number generator needs.
func (u *User) HasMembershipInputs() bool {
	return u.Country != "" && u.DateOfBirth != nil && u.Gender != ""
}
