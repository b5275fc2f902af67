package models

import (
	"time"
)

// UserReview is a customer's rating of a worker for one paid booking
type UserReview struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"index;not null"`
	WorkerID  uint      `json:"worker_id" gorm:"index;not null"`
	BookingID uint      `json:"booking_id" gorm:"uniqueIndex;not null"`
	Rating    int       `json:"rating" gorm:"not null;check:rating >= 1 AND rating <= 5"`
	Comment   string    `json:"comment" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`

	User    User    `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Worker  Worker  `json:"worker,omitempty" gorm:"foreignKey:WorkerID"`
	Booking Booking `json:"booking,omitempty" gorm:"foreignKey:BookingID"`
}

// TableName specifies the table name for the UserReview model
func (UserReview) TableName() string {
	return "user_reviews"
}
