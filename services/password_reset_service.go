package services

import (
	"errors"
	"log"

	"gorm.io/gorm"

	"service-platform-server/models"
	"service-platform-server/utils"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrResetCodeInvalid = errors.New("reset code is invalid or expired")
)

// PasswordResetService drives the emailed-code password reset flow
type PasswordResetService struct {
	db     *gorm.DB
	otp    *OTPService
	mailer *MailerService
}

// NewPasswordResetService creates a new password reset service
func NewPasswordResetService(db *gorm.DB, otp *OTPService, mailer *MailerService) *PasswordResetService {
	return &PasswordResetService{db: db, otp: otp, mailer: mailer}
}

// Request issues a reset code for the account behind the email. Callers
// should answer the same way whether or not the account exists.
func (ps *PasswordResetService) Request(email string) error {
	var user models.User
	if err := ps.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	code, expiresAt, err := ps.otp.Generate()
	if err != nil {
		return err
	}

	err = ps.db.Transaction(func(tx *gorm.DB) error {
		// One live code per user
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.PasswordReset{}).Error; err != nil {
			return err
		}
		reset := models.PasswordReset{
			UserID:    user.ID,
			Code:      code,
			ExpiresAt: expiresAt,
		}
		return tx.Create(&reset).Error
	})
	if err != nil {
		return err
	}

	if err := ps.mailer.SendPasswordReset(user.Email, code); err != nil {
		log.Printf("⚠️ Failed to email reset code to %s: %v", user.Email, err)
	}

	log.Printf("✅ Password reset code issued for user %d", user.ID)
	return nil
}

// Confirm checks the code and replaces the password, revoking every
// active session for the account
func (ps *PasswordResetService) Confirm(email, code, newPassword string) error {
	var user models.User
	if err := ps.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrResetCodeInvalid
		}
		return err
	}

	var reset models.PasswordReset
	if err := ps.db.Where("user_id = ? AND code = ?", user.ID, code).First(&reset).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrResetCodeInvalid
		}
		return err
	}
	if reset.IsExpired() {
		return ErrResetCodeInvalid
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}

	err = ps.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).
			Update("password_hash", hash).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.PasswordReset{}).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", user.ID).Delete(&models.RefreshToken{}).Error
	})
	if err != nil {
		return err
	}

	log.Printf("✅ Password reset completed for user %d", user.ID)
	return nil
}
