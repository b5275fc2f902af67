package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOTPGenerate(t *testing.T) {
	otp := NewOTPService()

	code, expiresAt, err := otp.Generate()
	require.NoError(t, err)
	assert.Len(t, code, 6)
	assert.Regexp(t, `^\d{6}$`, code)
	assert.WithinDuration(t, time.Now().Add(OTPExpiry), expiresAt, time.Second)
}

func TestOTPVerify(t *testing.T) {
	otp := NewOTPService()
	code := "123456"
	future := time.Now().Add(time.Minute)
	past := time.Now().Add(-time.Minute)

	assert.True(t, otp.Verify(&code, &future, "123456"))
	assert.False(t, otp.Verify(&code, &future, "654321"))
	assert.False(t, otp.Verify(&code, &past, "123456"))
	assert.False(t, otp.Verify(nil, &future, "123456"))
	assert.False(t, otp.Verify(&code, &future, ""))

	empty := ""
	assert.False(t, otp.Verify(&empty, &future, ""))
}
