package models

import (
	"strings"
	"time"
)

type BookingStatus string

const (
	BookingStatusRequested BookingStatus = "requested"
	BookingStatusAccepted  BookingStatus = "accepted"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// IsTerminal reports whether the status admits no further transitions
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

type PaymentMethod string

const (
	PaymentMethodCOD    PaymentMethod = "cod"
	PaymentMethodOnline PaymentMethod = "online"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// CancelWindow is how long after creation a customer may cancel a requested booking.
// Enforced here, server-side; client countdowns are advisory only.
const CancelWindow = 5 * time.Minute

// TimeSlots is the fixed set of contact slots a customer can pick from (1 or 2)
var TimeSlots = []string{
	"Morning (8 AM – 12 PM)",
	"Afternoon (12 PM – 4 PM)",
	"Choose him for a longer duration",
}

// IsValidTimeSlot checks a slot against the fixed set
func IsValidTimeSlot(slot string) bool {
	for _, s := range TimeSlots {
		if s == slot {
			return true
		}
	}
	return false
}

type Booking struct {
	ID             uint          `json:"id" gorm:"primaryKey"`
	UserID         uint          `json:"user_id" gorm:"not null;index"`
	WorkerID       uint          `json:"worker_id" gorm:"not null;index"`
	ServiceID      uint          `json:"service_id" gorm:"not null"`
	Status         BookingStatus `json:"status" gorm:"type:varchar(20);default:'requested';check:status IN ('requested','accepted','completed','cancelled')"`
	TimeSlots      string        `json:"time_slots" gorm:"size:255;not null"` // "|"-joined subset of TimeSlots
	Description    string        `json:"description" gorm:"type:text"`
	EquipmentNote  string        `json:"equipment_note" gorm:"size:1000"`
	PaymentMethod  PaymentMethod `json:"payment_method" gorm:"type:varchar(10);default:'online';check:payment_method IN ('cod','online')"`
	PaymentStatus  PaymentStatus `json:"payment_status" gorm:"type:varchar(10);default:'pending';check:payment_status IN ('pending','paid')"`
	Total          float64       `json:"total" gorm:"type:decimal(10,2);default:0"`
	TariffRevision int           `json:"tariff_revision" gorm:"default:1"`
	ReceiptSent    bool          `json:"receipt_sent" gorm:"default:false"`
	Rating         *int          `json:"rating" gorm:"check:rating IS NULL OR (rating >= 1 AND rating <= 5)"`
	CompletedAt    *time.Time    `json:"completed_at"`
	CreatedAt      time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time     `json:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	User    User           `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Worker  *Worker        `json:"worker,omitempty" gorm:"foreignKey:WorkerID"`
	Service Service        `json:"service,omitempty" gorm:"foreignKey:ServiceID"`
	Tariffs []Tariff       `json:"tariffs,omitempty" gorm:"foreignKey:BookingID"`
	Photos  []BookingPhoto `json:"photos,omitempty" gorm:"foreignKey:BookingID"`
}

// TableName specifies the table name for the Booking model
func (Booking) TableName() string {
	return "bookings"
}

// SlotList splits the stored slot string back into its choices
func (b *Booking) SlotList() []string {
	if b.TimeSlots == "" {
		return nil
	}
	return strings.Split(b.TimeSlots, "|")
}

// CancellableUntil returns the instant the cancel window closes
func (b *Booking) CancellableUntil() time.Time {
	return b.CreatedAt.Add(CancelWindow)
}

// BookingCreateRequest is the decrypted payload of a booking creation call
type BookingCreateRequest struct {
	WorkerID      uint     `json:"worker_id" binding:"required"`
	TimeSlots     []string `json:"contact_dates" binding:"required,min=1,max=2"`
	Description   string   `json:"description" binding:"required"`
	EquipmentNote string   `json:"equipment_requirement"`
}

// BookingRatingRequest is the body of a rating submission
type BookingRatingRequest struct {
	Rating int `json:"rating" binding:"required,min=1,max=5"`
}
