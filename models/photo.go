package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// BookingPhoto is one photo attached to a booking
type BookingPhoto struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	BookingID  uint      `json:"booking_id" gorm:"not null;index"`
	URL        string    `json:"url" gorm:"size:500;not null"`
	UploadedAt time.Time `json:"uploaded_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for the BookingPhoto model
func (BookingPhoto) TableName() string {
	return "booking_photos"
}

// MaxBookingPhotos limits how many photos a booking may carry
const MaxBookingPhotos = 5

// NormalizePhotoRef resolves the two wire forms a photo reference arrives in:
// a plain URL string, or an object carrying a nested "url" (or legacy "image")
// field. All call sites normalize here instead of re-deriving the shape.
func NormalizePhotoRef(raw json.RawMessage) (string, error) {
	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		if plain == "" {
			return "", fmt.Errorf("empty photo reference")
		}
		return plain, nil
	}

	var rich struct {
		URL   string `json:"url"`
		Image string `json:"image"`
	}
	if err := json.Unmarshal(raw, &rich); err != nil {
		return "", fmt.Errorf("unrecognized photo reference: %w", err)
	}
	if rich.URL != "" {
		return rich.URL, nil
	}
	if rich.Image != "" {
		return rich.Image, nil
	}
	return "", fmt.Errorf("photo reference has no url")
}
