package models

import (
	"time"
)

type RazorpayStatus string

const (
	RazorpayCreated RazorpayStatus = "created"
	RazorpayPaid    RazorpayStatus = "paid"
	RazorpayFailed  RazorpayStatus = "failed"
)

// RazorpayPayment tracks one online payment attempt per booking
type RazorpayPayment struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	BookingID uint           `json:"booking_id" gorm:"uniqueIndex;not null"`
	OrderID   string         `json:"order_id" gorm:"size:100;index;not null"`
	PaymentID string         `json:"payment_id" gorm:"size:100"`
	Signature string         `json:"-" gorm:"size:256"`
	Amount    float64        `json:"amount" gorm:"not null"`
	Currency  string         `json:"currency" gorm:"size:10;default:'INR'"`
	Status    RazorpayStatus `json:"status" gorm:"type:varchar(15);default:'created'"`
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`

	Booking Booking `json:"booking,omitempty" gorm:"foreignKey:BookingID"`
}

// TableName specifies the table name for the RazorpayPayment model
func (RazorpayPayment) TableName() string {
	return "razorpay_payments"
}

// PaymentVerifyRequest carries the gateway callback fields for signature verification
type PaymentVerifyRequest struct {
	OrderID   string `json:"razorpay_order_id" binding:"required"`
	PaymentID string `json:"razorpay_payment_id" binding:"required"`
	Signature string `json:"razorpay_signature" binding:"required"`
}
