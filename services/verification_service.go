package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"service-platform-server/models"
	"service-platform-server/utils"
)

// Verification workflow errors
var (
	ErrApplicationNotFound   = errors.New("application not found")
	ErrWrongStage            = errors.New("application is not in this review stage")
	ErrReviewNotFound        = errors.New("review not found")
	ErrReviewLocked          = errors.New("review can no longer be edited")
	ErrOTPNotSent            = errors.New("no OTP has been sent for this application")
	ErrOTPMismatch           = errors.New("OTP does not match")
	ErrApplicationTerminated = errors.New("application has already been decided")
)

// VerificationService drives applications through the three review stages.
// Stage ordering is enforced here: a stage's review only exists once every
// earlier stage completed, and only a stage approval advances the status.
type VerificationService struct {
	db     *gorm.DB
	otp    *OTPService
	mailer *MailerService
}

// NewVerificationService creates a verification service
func NewVerificationService(db *gorm.DB, otp *OTPService, mailer *MailerService) *VerificationService {
	return &VerificationService{db: db, otp: otp, mailer: mailer}
}

// GetApplication loads one application
func (vs *VerificationService) GetApplication(id uint) (*models.WorkerApplication, error) {
	var app models.WorkerApplication
	if err := vs.db.First(&app, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	return &app, nil
}

// Submit registers a new application at stage 1
func (vs *VerificationService) Submit(app *models.WorkerApplication) error {
	app.ApplicationStatus = models.ApplicationSubmitted
	app.CurrentStage = 1
	if err := vs.db.Create(app).Error; err != nil {
		return err
	}
	vs.logAction(app.ID, 1, nil, "application_submitted", "")
	log.Printf("✅ Worker application %d submitted by %s", app.ID, app.Email)
	return nil
}

// recentWindow mirrors the review edit window for listing purposes
const recentWindow = models.ReviewEditWindow

// ListForStage returns the applications a verifier of the given stage should
// see: pending work plus recently decided items still inside the edit window
func (vs *VerificationService) ListForStage(stage int) ([]models.WorkerApplication, error) {
	var apps []models.WorkerApplication
	cutoff := time.Now().Add(-recentWindow)

	q := vs.db.Order("applied_at DESC")
	switch stage {
	case 1:
		q = q.Where("application_status IN ? OR (application_status IN ? AND updated_at >= ?)",
			[]models.ApplicationStatus{models.ApplicationSubmitted, models.ApplicationStage1Review},
			[]models.ApplicationStatus{models.ApplicationStage1Rejected, models.ApplicationStage2Review},
			cutoff)
	case 2:
		q = q.Where("application_status = ? OR (application_status IN ? AND updated_at >= ?)",
			models.ApplicationStage2Review,
			[]models.ApplicationStatus{models.ApplicationStage2Rejected, models.ApplicationStage3Review},
			cutoff)
	case 3:
		q = q.Where("application_status = ? OR (application_status IN ? AND updated_at >= ?)",
			models.ApplicationStage3Review,
			[]models.ApplicationStatus{models.ApplicationStage3Rejected, models.ApplicationApproved},
			cutoff)
	default:
		return nil, fmt.Errorf("invalid stage: %d", stage)
	}

	if err := q.Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

// EnsureStage1Review returns the stage 1 review for the application, creating
// it on first access and moving a freshly submitted application into review
func (vs *VerificationService) EnsureStage1Review(appID, verifierID uint) (*models.Stage1Review, error) {
	app, err := vs.GetApplication(appID)
	if err != nil {
		return nil, err
	}

	if app.ApplicationStatus != models.ApplicationSubmitted && app.ApplicationStatus != models.ApplicationStage1Review {
		return nil, ErrWrongStage
	}

	var review models.Stage1Review
	err = vs.db.Where("application_id = ?", appID).First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		review = models.Stage1Review{ApplicationID: appID, VerifierID: &verifierID, Status: models.DecisionPending}
		if err := vs.db.Create(&review).Error; err != nil {
			return nil, err
		}
		if app.ApplicationStatus == models.ApplicationSubmitted {
			app.ApplicationStatus = models.ApplicationStage1Review
			if err := vs.db.Save(app).Error; err != nil {
				return nil, err
			}
		}
		vs.logAction(appID, 1, &verifierID, "review_started", "")
		return &review, nil
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// UpdateStage1Review applies checklist and decision changes to a stage 1
// review. Decisions transition the application; approval hands it to stage 2.
func (vs *VerificationService) UpdateStage1Review(appID, verifierID uint, update *models.StageReviewUpdate) (*models.Stage1Review, error) {
	var review models.Stage1Review

	err := vs.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("application_id = ?", appID).First(&review).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReviewNotFound
			}
			return err
		}

		now := time.Now()
		if !review.EditableAt(now) {
			return ErrReviewLocked
		}

		var app models.WorkerApplication
		if err := tx.First(&app, appID).Error; err != nil {
			return err
		}
		if err := stageGuard(app.ApplicationStatus, models.ApplicationStage1Review); err != nil {
			if !review.IsSubmitted || !stageDecided(1, app.ApplicationStatus) {
				return err
			}
		}

		setBool(&review.AllDocumentsUploaded, update.AllDocumentsUploaded)
		setBool(&review.DocumentsLegible, update.DocumentsLegible)
		setBool(&review.CorrectFormat, update.CorrectFormat)
		setBool(&review.NoMissingFields, update.NoMissingFields)
		setBool(&review.FilesNotCorrupted, update.FilesNotCorrupted)
		setBool(&review.ExpiryDatesValid, update.ExpiryDatesValid)
		setString(&review.Comments, update.Comments)
		setString(&review.IssuesFound, update.IssuesFound)
		review.VerifierID = &verifierID

		if update.Status != nil && *update.Status != review.Status {
			review.Status = *update.Status
			review.ReviewedAt = &now
			if !review.IsSubmitted && *update.Status != models.DecisionPending {
				review.IsSubmitted = true
				review.SubmittedAt = &now
			}

			switch *update.Status {
			case models.DecisionApproved:
				app.Stage1Completed = true
				app.Stage1CompletedAt = &now
				app.ApplicationStatus = models.ApplicationStage2Review
				app.CurrentStage = 2
				vs.logActionTx(tx, appID, 1, &verifierID, "stage_approved", review.Comments)
			case models.DecisionRejected:
				app.Stage1Completed = false
				app.Stage1CompletedAt = nil
				app.ApplicationStatus = models.ApplicationStage1Rejected
				app.CurrentStage = 1
				vs.logActionTx(tx, appID, 1, &verifierID, "stage_rejected", review.IssuesFound)
			case models.DecisionResubmissionRequired:
				app.Stage1Completed = false
				app.Stage1CompletedAt = nil
				app.ApplicationStatus = models.ApplicationStage1Review
				app.CurrentStage = 1
				vs.logActionTx(tx, appID, 1, &verifierID, "resubmission_requested", review.IssuesFound)
			}

			if err := tx.Save(&app).Error; err != nil {
				return err
			}
		}

		return tx.Save(&review).Error
	})
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// EnsureStage2Review returns the stage 2 review, creating it once stage 1
// has completed
func (vs *VerificationService) EnsureStage2Review(appID, verifierID uint) (*models.Stage2Review, error) {
	app, err := vs.GetApplication(appID)
	if err != nil {
		return nil, err
	}

	if !app.Stage1Completed || app.ApplicationStatus != models.ApplicationStage2Review {
		return nil, ErrWrongStage
	}

	var review models.Stage2Review
	err = vs.db.Where("application_id = ?", appID).First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		review = models.Stage2Review{ApplicationID: appID, VerifierID: &verifierID, Status: models.DecisionPending}
		if err := vs.db.Create(&review).Error; err != nil {
			return nil, err
		}
		vs.logAction(appID, 2, &verifierID, "review_started", "")
		return &review, nil
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// SendOTP generates a fresh code for the applicant's contact check and emails
// it to them
func (vs *VerificationService) SendOTP(appID, verifierID uint) error {
	app, err := vs.GetApplication(appID)
	if err != nil {
		return err
	}

	var review models.Stage2Review
	if err := vs.db.Where("application_id = ?", appID).First(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReviewNotFound
		}
		return err
	}

	code, expiresAt, err := vs.otp.Generate()
	if err != nil {
		return err
	}

	review.OTPCode = &code
	review.OTPSent = true
	review.OTPExpiresAt = &expiresAt
	review.OTPVerified = false
	if err := vs.db.Save(&review).Error; err != nil {
		return err
	}

	if err := vs.mailer.SendOTP(app.Email, code); err != nil {
		log.Printf("⚠️ Failed to email OTP for application %d: %v", appID, err)
	}

	vs.logAction(appID, 2, &verifierID, "otp_sent", "")
	return nil
}

// VerifyOTP checks the submitted code. A match marks the contact verified and
// burns the code.
func (vs *VerificationService) VerifyOTP(appID uint, code string) error {
	var review models.Stage2Review
	if err := vs.db.Where("application_id = ?", appID).First(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReviewNotFound
		}
		return err
	}

	if !review.OTPSent || review.OTPCode == nil {
		return ErrOTPNotSent
	}
	if !vs.otp.Verify(review.OTPCode, review.OTPExpiresAt, code) {
		return ErrOTPMismatch
	}

	review.OTPVerified = true
	review.PhoneVerified = true
	review.OTPCode = nil
	review.OTPExpiresAt = nil
	if err := vs.db.Save(&review).Error; err != nil {
		return err
	}

	vs.logAction(appID, 2, review.VerifierID, "otp_verified", "")
	return nil
}

// UpdateStage2Review applies checklist and decision changes to a stage 2
// review. Approval requires the OTP contact check and hands off to stage 3.
func (vs *VerificationService) UpdateStage2Review(appID, verifierID uint, update *models.StageReviewUpdate) (*models.Stage2Review, error) {
	var review models.Stage2Review

	err := vs.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("application_id = ?", appID).First(&review).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReviewNotFound
			}
			return err
		}

		now := time.Now()
		if !review.EditableAt(now) {
			return ErrReviewLocked
		}

		var app models.WorkerApplication
		if err := tx.First(&app, appID).Error; err != nil {
			return err
		}
		if err := stageGuard(app.ApplicationStatus, models.ApplicationStage2Review); err != nil {
			if !review.IsSubmitted || !stageDecided(2, app.ApplicationStatus) {
				return err
			}
		}

		setBool(&review.PhotoMatchesID, update.PhotoMatchesID)
		setBool(&review.AadhaarVerified, update.AadhaarVerified)
		setString(&review.AadhaarNumber, update.AadhaarNumber)
		setBool(&review.AddressVerified, update.AddressVerified)
		setString(&review.VerifiedAddress, update.VerifiedAddress)
		setBool(&review.UnionMembershipVerified, update.UnionMembershipVerified)
		setString(&review.UnionName, update.UnionName)
		setString(&review.UnionID, update.UnionID)
		setBool(&review.PhoneVerified, update.PhoneVerified)
		setBool(&review.EmailVerified, update.EmailVerified)
		setString(&review.Comments, update.Comments)
		setString(&review.DiscrepanciesFound, update.DiscrepanciesFound)
		review.VerifierID = &verifierID

		if update.Status != nil && *update.Status != review.Status {
			if *update.Status == models.DecisionApproved && !review.OTPVerified {
				return fmt.Errorf("contact OTP must be verified before approval")
			}

			review.Status = *update.Status
			review.ReviewedAt = &now
			if !review.IsSubmitted && *update.Status != models.DecisionPending {
				review.IsSubmitted = true
				review.SubmittedAt = &now
			}

			switch *update.Status {
			case models.DecisionApproved:
				app.Stage2Completed = true
				app.Stage2CompletedAt = &now
				app.ApplicationStatus = models.ApplicationStage3Review
				app.CurrentStage = 3
				vs.logActionTx(tx, appID, 2, &verifierID, "stage_approved", review.Comments)
			case models.DecisionRejected:
				app.Stage2Completed = false
				app.Stage2CompletedAt = nil
				app.ApplicationStatus = models.ApplicationStage2Rejected
				app.CurrentStage = 2
				vs.logActionTx(tx, appID, 2, &verifierID, "stage_rejected", review.DiscrepanciesFound)
			case models.DecisionCorrectionRequired:
				app.Stage2Completed = false
				app.Stage2CompletedAt = nil
				app.ApplicationStatus = models.ApplicationStage2Review
				app.CurrentStage = 2
				vs.logActionTx(tx, appID, 2, &verifierID, "correction_requested", review.DiscrepanciesFound)
			}

			if err := tx.Save(&app).Error; err != nil {
				return err
			}
		}

		return tx.Save(&review).Error
	})
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// EnsureStage3Review returns the stage 3 review, creating it once stage 2
// has completed
func (vs *VerificationService) EnsureStage3Review(appID, verifierID uint) (*models.Stage3Review, error) {
	app, err := vs.GetApplication(appID)
	if err != nil {
		return nil, err
	}

	if !app.Stage1Completed || !app.Stage2Completed || app.ApplicationStatus != models.ApplicationStage3Review {
		return nil, ErrWrongStage
	}

	var review models.Stage3Review
	err = vs.db.Where("application_id = ?", appID).First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		review = models.Stage3Review{ApplicationID: appID, VerifierID: &verifierID, Status: models.DecisionPending}
		if err := vs.db.Create(&review).Error; err != nil {
			return nil, err
		}
		vs.logAction(appID, 3, &verifierID, "review_started", "")
		return &review, nil
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// UpdateStage3Review applies the final decision. Approval provisions the
// worker account inside the same transaction.
func (vs *VerificationService) UpdateStage3Review(appID, verifierID uint, update *models.StageReviewUpdate) (*models.Stage3Review, error) {
	var review models.Stage3Review
	var credentials *workerCredentials

	err := vs.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("application_id = ?", appID).First(&review).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReviewNotFound
			}
			return err
		}

		now := time.Now()
		if !review.EditableAt(now) {
			return ErrReviewLocked
		}

		var app models.WorkerApplication
		if err := tx.First(&app, appID).Error; err != nil {
			return err
		}
		if err := stageGuard(app.ApplicationStatus, models.ApplicationStage3Review); err != nil {
			if !review.IsSubmitted || !stageDecided(3, app.ApplicationStatus) {
				return err
			}
		}

		setBool(&review.PreviousStagesVerified, update.PreviousStagesVerified)
		setBool(&review.PolicyComplianceChecked, update.PolicyComplianceChecked)
		setBool(&review.SpotCheckPerformed, update.SpotCheckPerformed)
		setBool(&review.BackgroundCheckPassed, update.BackgroundCheckPassed)
		setBool(&review.LocationVerified, update.LocationVerified)
		setBool(&review.SkillVerified, update.SkillVerified)
		setString(&review.Comments, update.Comments)
		review.VerifierID = &verifierID

		if update.Status != nil && *update.Status != review.Status {
			// The worker account already exists once approved, so the
			// decision itself can no longer be withdrawn
			if app.ApplicationStatus == models.ApplicationApproved {
				return ErrApplicationTerminated
			}

			review.Status = *update.Status
			review.ReviewedAt = &now
			if !review.IsSubmitted && *update.Status != models.DecisionPending {
				review.IsSubmitted = true
				review.SubmittedAt = &now
			}

			switch *update.Status {
			case models.DecisionApproved:
				creds, err := vs.approveApplication(tx, &app, &review, now)
				if err != nil {
					return err
				}
				credentials = creds
				vs.logActionTx(tx, appID, 3, &verifierID, "application_approved", review.Comments)
			case models.DecisionRejected:
				app.ApplicationStatus = models.ApplicationStage3Rejected
				vs.logActionTx(tx, appID, 3, &verifierID, "stage_rejected", review.Comments)
			}

			if err := tx.Save(&app).Error; err != nil {
				return err
			}
		}

		return tx.Save(&review).Error
	})
	if err != nil {
		return nil, err
	}

	// Credentials email is best effort; the account exists either way
	if credentials != nil {
		if err := vs.mailer.SendWorkerCredentials(credentials.email, credentials.name, credentials.email, credentials.password); err != nil {
			log.Printf("⚠️ Failed to email credentials for application %d: %v", appID, err)
		} else {
			vs.db.Model(&review).Update("notification_sent", true)
		}
	}

	return &review, nil
}

type workerCredentials struct {
	name     string
	email    string
	password string
}

// approveApplication provisions the user and worker profile for an approved
// application
func (vs *VerificationService) approveApplication(tx *gorm.DB, app *models.WorkerApplication, review *models.Stage3Review, now time.Time) (*workerCredentials, error) {
	password, err := utils.GeneratePassword(10)
	if err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		FullName:     app.Name,
		Email:        app.Email,
		PhoneNumber:  app.Phone,
		PasswordHash: hash,
		Role:         models.RoleWorker,
		Address:      app.Address,
		Lat:          app.Lat,
		Lng:          app.Lng,
	}
	if err := tx.Create(&user).Error; err != nil {
		return nil, err
	}

	worker := models.Worker{
		UserID:        user.ID,
		ApplicationID: &app.ID,
		Address:       app.Address,
		Lat:           app.Lat,
		Lng:           app.Lng,
		IsAvailable:   true,
		ApprovedAt:    &now,
	}
	if err := tx.Create(&worker).Error; err != nil {
		return nil, err
	}

	// Link the worker to the services they applied for
	for _, category := range strings.Split(app.ServiceCategories, "|") {
		if category == "" {
			continue
		}
		var service models.Service
		if err := tx.Where("service_type = ?", category).First(&service).Error; err != nil {
			continue // unknown category, skip
		}
		ws := models.WorkerService{WorkerID: worker.ID, ServiceID: service.ID, Charge: service.BasePrice}
		if err := tx.Create(&ws).Error; err != nil {
			return nil, err
		}
	}

	app.Stage3Completed = true
	app.Stage3CompletedAt = &now
	app.ApplicationStatus = models.ApplicationApproved
	app.IsFullyVerified = true
	app.AssignedWorkerID = &worker.ID
	app.ApprovedAt = &now

	review.WorkerIDAssigned = fmt.Sprintf("W-%d", worker.ID)

	log.Printf("✅ Application %d approved, worker %d provisioned for user %d", app.ID, worker.ID, user.ID)
	return &workerCredentials{name: app.Name, email: app.Email, password: password}, nil
}

// Statistics summarizes a stage's review throughput for the verifier dashboard
func (vs *VerificationService) Statistics(stage int) (*models.StageStatistics, error) {
	stats := &models.StageStatistics{}
	cutoff := time.Now().Add(-recentWindow)

	var table string
	switch stage {
	case 1:
		table = "stage1_reviews"
	case 2:
		table = "stage2_reviews"
	case 3:
		table = "stage3_reviews"
	default:
		return nil, fmt.Errorf("invalid stage: %d", stage)
	}

	count := func(dst *int64, query string, args ...interface{}) error {
		return vs.db.Table(table).Where(query, args...).Count(dst).Error
	}

	if err := count(&stats.TotalReviewed, "is_submitted = ?", true); err != nil {
		return nil, err
	}
	if err := count(&stats.Approved, "status = ?", models.DecisionApproved); err != nil {
		return nil, err
	}
	if err := count(&stats.Rejected, "status = ?", models.DecisionRejected); err != nil {
		return nil, err
	}
	if err := count(&stats.Pending, "status = ?", models.DecisionPending); err != nil {
		return nil, err
	}
	if err := count(&stats.RecentlySubmitted, "submitted_at >= ?", cutoff); err != nil {
		return nil, err
	}

	if stats.TotalReviewed > 0 {
		stats.ApprovalRate = float64(stats.Approved) / float64(stats.TotalReviewed) * 100
	}
	return stats, nil
}

// Logs returns the application's workflow history, newest first
func (vs *VerificationService) Logs(appID uint) ([]models.VerificationLog, error) {
	var logs []models.VerificationLog
	if err := vs.db.Where("application_id = ?", appID).Order("created_at DESC").Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (vs *VerificationService) logAction(appID uint, stage int, verifierID *uint, action, notes string) {
	vs.logActionTx(vs.db, appID, stage, verifierID, action, notes)
}

func (vs *VerificationService) logActionTx(tx *gorm.DB, appID uint, stage int, verifierID *uint, action, notes string) {
	entry := models.VerificationLog{
		ApplicationID: appID,
		Stage:         stage,
		VerifierID:    verifierID,
		Action:        action,
		Notes:         notes,
	}
	if err := tx.Create(&entry).Error; err != nil {
		log.Printf("⚠️ Failed to write verification log for application %d: %v", appID, err)
	}
}

// stageGuard distinguishes "already decided" from "simply not at this stage"
func stageGuard(status, want models.ApplicationStatus) error {
	if status == want {
		return nil
	}
	if status.IsRejected() || status == models.ApplicationApproved {
		return ErrApplicationTerminated
	}
	return ErrWrongStage
}

// stageDecided reports whether the status is one this stage's own decision
// produced. A submitted review may still be amended inside its edit window,
// and the amended decision re-derives the application status.
func stageDecided(stage int, status models.ApplicationStatus) bool {
	switch stage {
	case 1:
		return status == models.ApplicationStage1Rejected || status == models.ApplicationStage2Review
	case 2:
		return status == models.ApplicationStage2Rejected || status == models.ApplicationStage3Review
	case 3:
		return status == models.ApplicationStage3Rejected || status == models.ApplicationApproved
	}
	return false
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
