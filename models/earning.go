package models

import (
	"time"
)

// WorkerEarning records the payout owed to a worker for one completed booking.
// One row per booking, appended exactly once at completion.
type WorkerEarning struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	WorkerID  uint      `json:"worker_id" gorm:"index;not null"`
	BookingID uint      `json:"booking_id" gorm:"uniqueIndex;not null"`
	Amount    float64   `json:"amount" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`

	Worker  Worker  `json:"worker,omitempty" gorm:"foreignKey:WorkerID"`
	Booking Booking `json:"booking,omitempty" gorm:"foreignKey:BookingID"`
}

// TableName specifies the table name for the WorkerEarning model
func (WorkerEarning) TableName() string {
	return "worker_earnings"
}

// EarningsSummary aggregates a worker's earnings for the homepage dashboard
type EarningsSummary struct {
	Total     float64 `json:"total"`
	ThisMonth float64 `json:"this_month"`
	JobsDone  int64   `json:"jobs_done"`
}
