package models

import (
	"time"
)

type ReviewDecision string

const (
	DecisionPending              ReviewDecision = "pending"
	DecisionApproved             ReviewDecision = "approved"
	DecisionRejected             ReviewDecision = "rejected"
	DecisionResubmissionRequired ReviewDecision = "resubmission_required"
	DecisionCorrectionRequired   ReviewDecision = "correction_required"
)

// ReviewEditWindow is how long a submitted review stays editable by its reviewer
const ReviewEditWindow = 48 * time.Hour

// Stage1Review: document completeness and basic validity check
type Stage1Review struct {
	ID            uint  `json:"id" gorm:"primaryKey"`
	ApplicationID uint  `json:"application_id" gorm:"uniqueIndex;not null"`
	VerifierID    *uint `json:"verifier_id"`

	// Document checklist
	AllDocumentsUploaded bool `json:"all_documents_uploaded" gorm:"default:false"`
	DocumentsLegible     bool `json:"documents_legible" gorm:"default:false"`
	CorrectFormat        bool `json:"correct_format" gorm:"default:false"`
	NoMissingFields      bool `json:"no_missing_fields" gorm:"default:false"`
	FilesNotCorrupted    bool `json:"files_not_corrupted" gorm:"default:false"`
	ExpiryDatesValid     bool `json:"expiry_dates_valid" gorm:"default:false"`

	Status      ReviewDecision `json:"status" gorm:"type:varchar(25);default:'pending'"`
	Comments    string         `json:"comments" gorm:"type:text"`
	IssuesFound string         `json:"issues_found" gorm:"type:text"`

	AssignedAt  time.Time  `json:"assigned_at" gorm:"autoCreateTime"`
	ReviewedAt  *time.Time `json:"reviewed_at"`
	IsSubmitted bool       `json:"is_submitted" gorm:"default:false"`
	SubmittedAt *time.Time `json:"submitted_at"`

	// Relationships
	Application WorkerApplication `json:"application,omitempty" gorm:"foreignKey:ApplicationID"`
	Verifier    *User             `json:"verifier,omitempty" gorm:"foreignKey:VerifierID"`
}

// TableName specifies the table name for the Stage1Review model
func (Stage1Review) TableName() string {
	return "stage1_reviews"
}

// EditableAt reports whether the review can still be amended at the given instant
func (r *Stage1Review) EditableAt(now time.Time) bool {
	if !r.IsSubmitted || r.SubmittedAt == nil {
		return true
	}
	return now.Sub(*r.SubmittedAt) <= ReviewEditWindow
}

// Stage2Review: identity match, union verification and OTP contact check
type Stage2Review struct {
	ID            uint  `json:"id" gorm:"primaryKey"`
	ApplicationID uint  `json:"application_id" gorm:"uniqueIndex;not null"`
	VerifierID    *uint `json:"verifier_id"`

	// Identity verification
	PhotoMatchesID  bool   `json:"photo_matches_id" gorm:"default:false"`
	AadhaarVerified bool   `json:"aadhaar_verified" gorm:"default:false"`
	AadhaarNumber   string `json:"aadhaar_number" gorm:"size:12"`
	AddressVerified bool   `json:"address_verified" gorm:"default:false"`
	VerifiedAddress string `json:"verified_address" gorm:"size:512"`

	// Union verification
	UnionMembershipVerified bool       `json:"union_membership_verified" gorm:"default:false"`
	UnionName               string     `json:"union_name" gorm:"size:255"`
	UnionID                 string     `json:"union_id" gorm:"size:100"`
	UnionExpiryDate         *time.Time `json:"union_expiry_date"`

	// Contact verification
	PhoneVerified bool       `json:"phone_verified" gorm:"default:false"`
	OTPCode       *string    `json:"-" gorm:"size:6"` // Never serialized
	OTPSent       bool       `json:"otp_sent" gorm:"default:false"`
	OTPExpiresAt  *time.Time `json:"otp_expires_at"`
	OTPVerified   bool       `json:"otp_verified" gorm:"default:false"`
	EmailVerified bool       `json:"email_verified" gorm:"default:false"`

	Status             ReviewDecision `json:"status" gorm:"type:varchar(25);default:'pending'"`
	Comments           string         `json:"comments" gorm:"type:text"`
	DiscrepanciesFound string         `json:"discrepancies_found" gorm:"type:text"`

	AssignedAt  time.Time  `json:"assigned_at" gorm:"autoCreateTime"`
	ReviewedAt  *time.Time `json:"reviewed_at"`
	IsSubmitted bool       `json:"is_submitted" gorm:"default:false"`
	SubmittedAt *time.Time `json:"submitted_at"`

	// Relationships
	Application WorkerApplication `json:"application,omitempty" gorm:"foreignKey:ApplicationID"`
	Verifier    *User             `json:"verifier,omitempty" gorm:"foreignKey:VerifierID"`
}

// TableName specifies the table name for the Stage2Review model
func (Stage2Review) TableName() string {
	return "stage2_reviews"
}

// EditableAt reports whether the review can still be amended at the given instant
func (r *Stage2Review) EditableAt(now time.Time) bool {
	if !r.IsSubmitted || r.SubmittedAt == nil {
		return true
	}
	return now.Sub(*r.SubmittedAt) <= ReviewEditWindow
}

// Stage3Review: final decision over the accumulated stage 1-2 record; approval
// triggers worker account creation
type Stage3Review struct {
	ID            uint  `json:"id" gorm:"primaryKey"`
	ApplicationID uint  `json:"application_id" gorm:"uniqueIndex;not null"`
	VerifierID    *uint `json:"verifier_id"`

	// Final checklist
	PreviousStagesVerified  bool `json:"previous_stages_verified" gorm:"default:false"`
	PolicyComplianceChecked bool `json:"policy_compliance_checked" gorm:"default:false"`
	SpotCheckPerformed      bool `json:"spot_check_performed" gorm:"default:false"`
	BackgroundCheckPassed   bool `json:"background_check_passed" gorm:"default:false"`
	LocationVerified        bool `json:"location_verified" gorm:"default:false"`
	SkillVerified           bool `json:"skill_verified" gorm:"default:false"`

	WorkerIDAssigned string `json:"worker_id_assigned" gorm:"size:100"`
	NotificationSent bool   `json:"notification_sent" gorm:"default:false"`

	Status   ReviewDecision `json:"status" gorm:"type:varchar(25);default:'pending'"`
	Comments string         `json:"comments" gorm:"type:text"`

	AssignedAt  time.Time  `json:"assigned_at" gorm:"autoCreateTime"`
	ReviewedAt  *time.Time `json:"reviewed_at"`
	IsSubmitted bool       `json:"is_submitted" gorm:"default:false"`
	SubmittedAt *time.Time `json:"submitted_at"`

	// Relationships
	Application WorkerApplication `json:"application,omitempty" gorm:"foreignKey:ApplicationID"`
	Verifier    *User             `json:"verifier,omitempty" gorm:"foreignKey:VerifierID"`
}

// TableName specifies the table name for the Stage3Review model
func (Stage3Review) TableName() string {
	return "stage3_reviews"
}

// EditableAt reports whether the review can still be amended at the given instant
func (r *Stage3Review) EditableAt(now time.Time) bool {
	if !r.IsSubmitted || r.SubmittedAt == nil {
		return true
	}
	return now.Sub(*r.SubmittedAt) <= ReviewEditWindow
}

// VerificationLog is the append-only history of workflow actions per application
type VerificationLog struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	ApplicationID uint      `json:"application_id" gorm:"not null;index"`
	Stage         int       `json:"stage" gorm:"not null"`
	VerifierID    *uint     `json:"verifier_id"`
	Action        string    `json:"action" gorm:"size:50;not null"`
	Notes         string    `json:"notes" gorm:"type:text"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime;index"`
}

// TableName specifies the table name for the VerificationLog model
func (VerificationLog) TableName() string {
	return "verification_logs"
}

// StageReviewUpdate carries the mutable fields of any stage review; pointer
// fields distinguish "leave unchanged" from explicit values
type StageReviewUpdate struct {
	// Stage 1 checklist
	AllDocumentsUploaded *bool `json:"all_documents_uploaded"`
	DocumentsLegible     *bool `json:"documents_legible"`
	CorrectFormat        *bool `json:"correct_format"`
	NoMissingFields      *bool `json:"no_missing_fields"`
	FilesNotCorrupted    *bool `json:"files_not_corrupted"`
	ExpiryDatesValid     *bool `json:"expiry_dates_valid"`

	// Stage 2 checklist
	PhotoMatchesID          *bool   `json:"photo_matches_id"`
	AadhaarVerified         *bool   `json:"aadhaar_verified"`
	AadhaarNumber           *string `json:"aadhaar_number"`
	AddressVerified         *bool   `json:"address_verified"`
	VerifiedAddress         *string `json:"verified_address"`
	UnionMembershipVerified *bool   `json:"union_membership_verified"`
	UnionName               *string `json:"union_name"`
	UnionID                 *string `json:"union_id"`
	PhoneVerified           *bool   `json:"phone_verified"`
	EmailVerified           *bool   `json:"email_verified"`

	// Stage 3 checklist
	PreviousStagesVerified  *bool `json:"previous_stages_verified"`
	PolicyComplianceChecked *bool `json:"policy_compliance_checked"`
	SpotCheckPerformed      *bool `json:"spot_check_performed"`
	BackgroundCheckPassed   *bool `json:"background_check_passed"`
	LocationVerified        *bool `json:"location_verified"`
	SkillVerified           *bool `json:"skill_verified"`

	// Common
	Status             *ReviewDecision `json:"status"`
	Comments           *string         `json:"comments"`
	IssuesFound        *string         `json:"issues_found"`
	DiscrepanciesFound *string         `json:"discrepancies_found"`
}

// StageStatistics is the per-stage dashboard summary for a verifier
type StageStatistics struct {
	TotalReviewed     int64   `json:"total_reviewed"`
	Approved          int64   `json:"approved"`
	Rejected          int64   `json:"rejected"`
	Pending           int64   `json:"pending"`
	RecentlySubmitted int64   `json:"recently_submitted"`
	ApprovalRate      float64 `json:"approval_rate"`
}
