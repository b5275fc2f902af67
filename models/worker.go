package models

import (
	"time"

	"gorm.io/gorm"
)

// Worker represents an approved worker profile with availability and review stats
type Worker struct {
	ID               uint           `json:"id" gorm:"primaryKey"`
	UserID           uint           `json:"user_id" gorm:"uniqueIndex;not null"`
	ApplicationID    *uint          `json:"application_id" gorm:"uniqueIndex"`
	Address          string         `json:"address" gorm:"type:text"`
	Lat              *float64       `json:"lat" gorm:"type:decimal(10,8)"`
	Lng              *float64       `json:"lng" gorm:"type:decimal(11,8)"`
	IsAvailable      bool           `json:"is_available" gorm:"default:true"`
	AllowsCOD        bool           `json:"allows_cod" gorm:"default:false"`
	CurrentBookingID *uint          `json:"current_booking_id"` // At most one non-terminal booking
	ExperienceYears  int            `json:"experience_years" gorm:"default:0"`
	ProfilePhoto     *string        `json:"profile_photo" gorm:"size:500"`
	AverageRating    float64        `json:"average_rating" gorm:"type:decimal(3,2);default:0"`
	TotalReviews     int            `json:"total_reviews" gorm:"default:0"`
	ApprovedAt       *time.Time     `json:"approved_at"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	// Relationships
	User     User            `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Services []WorkerService `json:"services,omitempty" gorm:"foreignKey:WorkerID"`
}

// TableName specifies the table name for the Worker model
func (Worker) TableName() string {
	return "workers"
}

// HasActiveBooking reports whether the worker currently carries a non-terminal booking
func (w *Worker) HasActiveBooking() bool {
	return w.CurrentBookingID != nil
}

// WorkerSettingsRequest represents the request structure for updating worker settings
type WorkerSettingsRequest struct {
	IsAvailable     *bool    `json:"is_available"`
	AllowsCOD       *bool    `json:"allows_cod"`
	ExperienceYears *int     `json:"experience_years"`
	Address         *string  `json:"address"`
	ProfilePhoto    *string  `json:"profile_photo"`
	Email           *string  `json:"email"`
	PhoneNumber     *string  `json:"phone_number"`
	Lat             *float64 `json:"lat"`
	Lng             *float64 `json:"lng"`
}

// WorkerHomepageResponse bundles everything the worker dashboard needs in one call
type WorkerHomepageResponse struct {
	ActiveJob       *Booking  `json:"active_job"`
	PendingRequests []Booking `json:"pending_requests"`
	Earnings        []Booking `json:"earnings"`
	Settings        Worker    `json:"settings"`
	Available       bool      `json:"available"`
	PaymentStatus   string    `json:"payment_status"`
	AverageRating   float64   `json:"average_rating"`
}
