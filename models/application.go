package models

import (
	"time"

	"gorm.io/gorm"
)

type ApplicationStatus string

const (
	ApplicationSubmitted      ApplicationStatus = "submitted"
	ApplicationStage1Review   ApplicationStatus = "stage1_review"
	ApplicationStage1Rejected ApplicationStatus = "stage1_rejected"
	ApplicationStage2Review   ApplicationStatus = "stage2_review"
	ApplicationStage2Rejected ApplicationStatus = "stage2_rejected"
	ApplicationStage3Review   ApplicationStatus = "stage3_review"
	ApplicationStage3Rejected ApplicationStatus = "stage3_rejected"
	ApplicationApproved       ApplicationStatus = "approved"
)

// IsRejected reports whether the status is a terminal rejection
func (s ApplicationStatus) IsRejected() bool {
	switch s {
	case ApplicationStage1Rejected, ApplicationStage2Rejected, ApplicationStage3Rejected:
		return true
	default:
		return false
	}
}

// WorkerApplication is a prospective worker's application moving through the
// three-stage verification workflow
type WorkerApplication struct {
	ID         uint     `json:"id" gorm:"primaryKey"`
	Name       string   `json:"name" gorm:"size:255;not null"`
	Email      string   `json:"email" gorm:"size:255;uniqueIndex;not null"`
	Phone      string   `json:"phone" gorm:"size:30;not null"`
	Address    string   `json:"address" gorm:"size:500"`
	Lat        *float64 `json:"lat" gorm:"type:decimal(10,8)"`
	Lng        *float64 `json:"lng" gorm:"type:decimal(11,8)"`
	Skills     string   `json:"skills" gorm:"type:text"`
	Experience string   `json:"experience" gorm:"type:text"`

	// Service categories the applicant wants to offer ("|"-joined service types)
	ServiceCategories string `json:"service_categories" gorm:"size:500"`

	// Uploaded document URLs
	PhotoIDURL        *string `json:"photo_id_url" gorm:"size:500"`
	AadhaarCardURL    *string `json:"aadhaar_card_url" gorm:"size:500"`
	UnionCardURL      *string `json:"union_card_url" gorm:"size:500"`
	CertificationsURL *string `json:"certifications_url" gorm:"size:500"`
	SignatureURL      *string `json:"signature_url" gorm:"size:500"`

	ApplicationStatus ApplicationStatus `json:"application_status" gorm:"type:varchar(30);default:'submitted';index"`
	CurrentStage      int               `json:"current_stage" gorm:"default:1;index"`

	Stage1Completed   bool       `json:"stage1_completed" gorm:"default:false"`
	Stage1CompletedAt *time.Time `json:"stage1_completed_at"`
	Stage2Completed   bool       `json:"stage2_completed" gorm:"default:false"`
	Stage2CompletedAt *time.Time `json:"stage2_completed_at"`
	Stage3Completed   bool       `json:"stage3_completed" gorm:"default:false"`
	Stage3CompletedAt *time.Time `json:"stage3_completed_at"`

	IsFullyVerified  bool       `json:"is_fully_verified" gorm:"default:false"`
	AssignedWorkerID *uint      `json:"assigned_worker_id"`
	ApprovedAt       *time.Time `json:"approved_at"`

	AppliedAt time.Time      `json:"applied_at" gorm:"autoCreateTime;index"`
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// TableName specifies the table name for the WorkerApplication model
func (WorkerApplication) TableName() string {
	return "worker_applications"
}

// DocumentURLs collects the uploaded document references by kind
func (a *WorkerApplication) DocumentURLs() map[string]*string {
	return map[string]*string{
		"photo_id":       a.PhotoIDURL,
		"aadhaar_card":   a.AadhaarCardURL,
		"union_card":     a.UnionCardURL,
		"certifications": a.CertificationsURL,
		"signature_copy": a.SignatureURL,
	}
}

// WorkerApplicationCreate represents the non-file fields of an application submission
type WorkerApplicationCreate struct {
	Name              string `form:"name" binding:"required"`
	Email             string `form:"email" binding:"required,email"`
	Phone             string `form:"phone" binding:"required"`
	Address           string `form:"address"`
	Skills            string `form:"skills" binding:"required"`
	Experience        string `form:"experience"`
	ServiceCategories string `form:"service_categories"`
}
