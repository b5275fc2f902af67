package models

import (
	"time"
)

// Service represents a type of service offered on the platform (e.g. Plumbing)
type Service struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	ServiceType string    `json:"service_type" gorm:"size:80;uniqueIndex;not null"`
	Description string    `json:"description" gorm:"type:text"`
	BasePrice   float64   `json:"base_price" gorm:"type:decimal(10,2);not null;default:0"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the Service model
func (Service) TableName() string {
	return "services"
}

// WorkerService links a worker to a service they offer with their own charge
type WorkerService struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	WorkerID  uint    `json:"worker_id" gorm:"not null;uniqueIndex:idx_worker_service"`
	ServiceID uint    `json:"service_id" gorm:"not null;uniqueIndex:idx_worker_service"`
	Charge    float64 `json:"charge" gorm:"type:decimal(10,2);not null;default:0"`

	// Relationships
	Service Service `json:"service,omitempty" gorm:"foreignKey:ServiceID"`
}

// TableName specifies the table name for the WorkerService model
func (WorkerService) TableName() string {
	return "worker_services"
}
