package models

import (
	"time"
)

// Tariff is one billable line item of a booking's final charge
type Tariff struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	BookingID   uint    `json:"booking_id" gorm:"not null;index"`
	Label       string  `json:"label" gorm:"size:100;not null"`
	Amount      float64 `json:"amount" gorm:"type:decimal(10,2);not null;default:0;check:amount >= 0"`
	Explanation string  `json:"explanation" gorm:"size:255"`
}

// TableName specifies the table name for the Tariff model
func (Tariff) TableName() string {
	return "tariffs"
}

// Receipt is a frozen snapshot of the tariff ledger submitted for payment capture.
// Editing the ledger after a send invalidates the current receipt; the next send
// freezes a new revision.
type Receipt struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	BookingID uint      `json:"booking_id" gorm:"not null;index"`
	Revision  int       `json:"revision" gorm:"not null"`
	Total     float64   `json:"total" gorm:"type:decimal(10,2);not null"`
	IssuedAt  time.Time `json:"issued_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for the Receipt model
func (Receipt) TableName() string {
	return "receipts"
}

// TariffLineInput is one line of a tariff update request
type TariffLineInput struct {
	ID          uint    `json:"id"`
	Label       string  `json:"label"`
	Amount      float64 `json:"amount"`
	Explanation string  `json:"explanation"`
}

// TariffTotal computes the ledger total: base service price plus line amounts.
// Pure function, safe to recompute on every read.
func TariffTotal(basePrice float64, lines []Tariff) float64 {
	total := basePrice
	for _, line := range lines {
		total += line.Amount
	}
	return total
}
