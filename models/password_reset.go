package models

import (
	"time"
)

// PasswordReset holds a pending reset code for a user account
type PasswordReset struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"index;not null"`
	Code      string    `json:"-" gorm:"size:10;not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"index;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for the PasswordReset model
func (PasswordReset) TableName() string {
	return "password_resets"
}

// IsExpired checks if the reset code can no longer be used
func (pr *PasswordReset) IsExpired() bool {
	return time.Now().After(pr.ExpiresAt)
}
