package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// OTPExpiry is how long a generated code stays valid
const OTPExpiry = 5 * time.Minute

// OTPService generates and checks one-time verification codes
type OTPService struct{}

// NewOTPService creates a new OTP service
func NewOTPService() *OTPService {
	return &OTPService{}
}

// Generate returns a random 6-digit code and its expiry time
func (os *OTPService) Generate() (string, time.Time, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", time.Time{}, err
	}
	code := fmt.Sprintf("%06d", n.Int64())
	return code, time.Now().Add(OTPExpiry), nil
}

// Verify checks a submitted code against the stored one
func (os *OTPService) Verify(stored *string, expiresAt *time.Time, submitted string) bool {
	if stored == nil || *stored == "" || submitted == "" {
		return false
	}
	if expiresAt != nil && time.Now().After(*expiresAt) {
		return false
	}
	return *stored == submitted
}
