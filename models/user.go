package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleCustomer  UserRole = "customer"
	RoleWorker    UserRole = "worker"
	RoleAdmin     UserRole = "admin"
	RoleVerifier1 UserRole = "verifier1"
	RoleVerifier2 UserRole = "verifier2"
	RoleVerifier3 UserRole = "verifier3"
)

type User struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	FullName          string    `json:"full_name" gorm:"size:255;not null"`
	Email             string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	PhoneNumber       string    `json:"phone_number" gorm:"size:30"`
	PasswordHash      string    `json:"-" gorm:"size:255;not null"` // Hidden from JSON
	Role              UserRole  `json:"role" gorm:"type:varchar(20);not null;default:'customer';check:role IN ('customer','worker','admin','verifier1','verifier2','verifier3')"`
	Address           string    `json:"address" gorm:"size:500"`
	Lat               *float64  `json:"lat" gorm:"type:decimal(10,8)"`
	Lng               *float64  `json:"lng" gorm:"type:decimal(11,8)"`
	ProfilePictureURL *string   `json:"profile_picture_url" gorm:"size:500"`
	IsActive          bool      `json:"is_active" gorm:"default:true"`
	CreatedAt         time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Bookings []Booking `json:"bookings,omitempty" gorm:"foreignKey:UserID"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// BeforeCreate is a GORM hook that runs before creating a user
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Role == "" {
		u.Role = RoleCustomer
	}
	return nil
}

// IsValidRole checks if the user role is valid
func (u *User) IsValidRole() bool {
	switch u.Role {
	case RoleCustomer, RoleWorker, RoleAdmin, RoleVerifier1, RoleVerifier2, RoleVerifier3:
		return true
	default:
		return false
	}
}

// IsWorker checks if the user is a worker
func (u *User) IsWorker() bool {
	return u.Role == RoleWorker
}

// IsAdmin checks if the user is an admin
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsCustomer checks if the user is a customer
func (u *User) IsCustomer() bool {
	return u.Role == RoleCustomer
}

// IsVerifier checks if the user holds any of the three verifier roles
func (u *User) IsVerifier() bool {
	switch u.Role {
	case RoleVerifier1, RoleVerifier2, RoleVerifier3:
		return true
	default:
		return false
	}
}

// VerifierStage returns the review stage a verifier role owns (0 for non-verifiers)
func (u *User) VerifierStage() int {
	switch u.Role {
	case RoleVerifier1:
		return 1
	case RoleVerifier2:
		return 2
	case RoleVerifier3:
		return 3
	default:
		return 0
	}
}

// IsProfileComplete reports whether the profile fields needed for booking are set
func (u *User) IsProfileComplete() bool {
	return u.FullName != "" && u.PhoneNumber != "" && u.Address != "" && u.Lat != nil && u.Lng != nil
}
