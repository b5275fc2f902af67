package services

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"service-platform-server/config"
	"service-platform-server/models"
	"service-platform-server/utils"
)

func newPasswordResetService(t *testing.T) (*PasswordResetService, *gorm.DB) {
	t.Helper()
	config.Load()
	db := newTestDB(t)
	return NewPasswordResetService(db, NewOTPService(), NewMailerService()), db
}

func storedReset(t *testing.T, db *gorm.DB, userID uint) models.PasswordReset {
	t.Helper()
	var reset models.PasswordReset
	require.NoError(t, db.Where("user_id = ?", userID).First(&reset).Error)
	return reset
}

func TestPasswordResetRequestUnknownEmail(t *testing.T) {
	ps, _ := newPasswordResetService(t)
	err := ps.Request("nobody@test.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestPasswordResetRequestIssuesSingleCode(t *testing.T) {
	ps, db := newPasswordResetService(t)
	customer := createCustomer(t, db, "c1@test.com")

	require.NoError(t, ps.Request("c1@test.com"))
	first := storedReset(t, db, customer.ID)
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), first.Code)
	assert.WithinDuration(t, time.Now().Add(OTPExpiry), first.ExpiresAt, 5*time.Second)

	// A second request replaces the first code instead of stacking
	require.NoError(t, ps.Request("c1@test.com"))
	var count int64
	require.NoError(t, db.Model(&models.PasswordReset{}).Where("user_id = ?", customer.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestPasswordResetConfirmRejectsBadCode(t *testing.T) {
	ps, db := newPasswordResetService(t)
	customer := createCustomer(t, db, "c1@test.com")
	require.NoError(t, ps.Request("c1@test.com"))
	reset := storedReset(t, db, customer.ID)

	wrong := "000000"
	if reset.Code == wrong {
		wrong = "000001"
	}
	err := ps.Confirm("c1@test.com", wrong, "NewSecret99")
	assert.ErrorIs(t, err, ErrResetCodeInvalid)

	err = ps.Confirm("nobody@test.com", reset.Code, "NewSecret99")
	assert.ErrorIs(t, err, ErrResetCodeInvalid)
}

func TestPasswordResetConfirmRejectsExpiredCode(t *testing.T) {
	ps, db := newPasswordResetService(t)
	customer := createCustomer(t, db, "c1@test.com")
	require.NoError(t, ps.Request("c1@test.com"))
	reset := storedReset(t, db, customer.ID)

	stale := time.Now().Add(-time.Minute)
	require.NoError(t, db.Model(&models.PasswordReset{}).Where("id = ?", reset.ID).
		Update("expires_at", stale).Error)

	err := ps.Confirm("c1@test.com", reset.Code, "NewSecret99")
	assert.ErrorIs(t, err, ErrResetCodeInvalid)
}

func TestPasswordResetConfirmReplacesPasswordAndRevokesSessions(t *testing.T) {
	ps, db := newPasswordResetService(t)
	customer := createCustomer(t, db, "c1@test.com")
	require.NoError(t, db.Create(&models.RefreshToken{
		Token:     "session-token",
		UserID:    customer.ID,
		ExpiresAt: time.Now().Add(time.Hour),
	}).Error)

	require.NoError(t, ps.Request("c1@test.com"))
	reset := storedReset(t, db, customer.ID)

	require.NoError(t, ps.Confirm("c1@test.com", reset.Code, "NewSecret99"))

	var user models.User
	require.NoError(t, db.First(&user, customer.ID).Error)
	assert.True(t, utils.CheckPasswordHash("NewSecret99", user.PasswordHash))

	var resets, tokens int64
	require.NoError(t, db.Model(&models.PasswordReset{}).Where("user_id = ?", customer.ID).Count(&resets).Error)
	require.NoError(t, db.Model(&models.RefreshToken{}).Where("user_id = ?", customer.ID).Count(&tokens).Error)
	assert.Equal(t, int64(0), resets)
	assert.Equal(t, int64(0), tokens)

	// The spent code cannot be replayed
	err := ps.Confirm("c1@test.com", reset.Code, "AnotherSecret7")
	assert.ErrorIs(t, err, ErrResetCodeInvalid)
}
