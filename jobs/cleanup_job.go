package jobs

import (
	"log"
	"time"

	"service-platform-server/database"
	"service-platform-server/models"
)

// CleanupJob purges expired refresh tokens, password reset codes and
// stale OTP codes
type CleanupJob struct {
	stopChan chan bool
}

// NewCleanupJob creates a new cleanup job
func NewCleanupJob() *CleanupJob {
	return &CleanupJob{
		stopChan: make(chan bool),
	}
}

// Start begins the cleanup job
func (j *CleanupJob) Start() {
	go j.run()
	log.Println("🚀 Cleanup job started")
}

// Stop stops the cleanup job
func (j *CleanupJob) Stop() {
	j.stopChan <- true
	log.Println("🛑 Cleanup job stopped")
}

// run executes the cleanup job
func (j *CleanupJob) run() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.purgeExpiredTokens()
			j.purgeExpiredOTPs()
			j.purgeExpiredResets()
		case <-j.stopChan:
			return
		}
	}
}

// purgeExpiredTokens deletes refresh tokens past their expiry
func (j *CleanupJob) purgeExpiredTokens() {
	result := database.DB.Where("expires_at < ?", time.Now()).Delete(&models.RefreshToken{})
	if result.Error != nil {
		log.Printf("❌ Error purging expired refresh tokens: %v", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		log.Printf("⏰ Purged %d expired refresh tokens", result.RowsAffected)
	}
}

// purgeExpiredResets deletes password reset codes past their expiry
func (j *CleanupJob) purgeExpiredResets() {
	result := database.DB.Where("expires_at < ?", time.Now()).Delete(&models.PasswordReset{})
	if result.Error != nil {
		log.Printf("❌ Error purging expired password resets: %v", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		log.Printf("⏰ Purged %d expired password resets", result.RowsAffected)
	}
}

// purgeExpiredOTPs clears stale codes still sitting on stage 2 reviews
func (j *CleanupJob) purgeExpiredOTPs() {
	result := database.DB.Model(&models.Stage2Review{}).
		Where("otp_code IS NOT NULL AND otp_expires_at < ?", time.Now()).
		Updates(map[string]interface{}{"otp_code": nil, "otp_expires_at": nil})
	if result.Error != nil {
		log.Printf("❌ Error purging expired OTP codes: %v", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		log.Printf("⏰ Cleared %d expired OTP codes", result.RowsAffected)
	}
}
