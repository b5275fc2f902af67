package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"service-platform-server/config"
	"service-platform-server/database"
	"service-platform-server/models"
	"service-platform-server/types"
)

// JWTService handles JWT token operations
type JWTService struct{}

// NewJWTService creates a new JWT service
func NewJWTService() *JWTService {
	return &JWTService{}
}

// TokenPair represents a pair of access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// GenerateTokenPair generates both access and refresh tokens
func (js *JWTService) GenerateTokenPair(userID uint, role string, deviceID, userAgent, ipAddress string) (*TokenPair, error) {
	accessToken, expiresIn, err := js.generateAccessToken(userID, role)
	if err != nil {
		return nil, err
	}

	refreshToken, err := js.generateRefreshToken(userID, deviceID, userAgent, ipAddress)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
		TokenType:    "Bearer",
	}, nil
}

// generateAccessToken generates a short-lived access token
func (js *JWTService) generateAccessToken(userID uint, role string) (string, int64, error) {
	claims := &types.Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(config.AppConfig.JWT.ExpiryHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "service-platform-server",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(config.AppConfig.JWT.Secret))
	if err != nil {
		return "", 0, err
	}

	expiresIn := int64(config.AppConfig.JWT.ExpiryHours * 3600)
	return tokenString, expiresIn, nil
}

// generateRefreshToken generates a long-lived refresh token
func (js *JWTService) generateRefreshToken(userID uint, deviceID, userAgent, ipAddress string) (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	tokenString := hex.EncodeToString(tokenBytes)

	expiryDays := config.AppConfig.JWT.RefreshExpiryDays
	refreshToken := &models.RefreshToken{
		Token:     tokenString,
		UserID:    userID,
		ExpiresAt: time.Now().Add(time.Duration(expiryDays) * 24 * time.Hour),
		DeviceID:  deviceID,
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}

	if err := database.DB.Create(refreshToken).Error; err != nil {
		return "", err
	}

	log.Printf("✅ Refresh token generated for user %d", userID)
	return tokenString, nil
}

// ValidateRefreshToken validates a refresh token
func (js *JWTService) ValidateRefreshToken(tokenString string) (*models.RefreshToken, error) {
	var refreshToken models.RefreshToken

	if err := database.DB.Where("token = ?", tokenString).First(&refreshToken).Error; err != nil {
		return nil, errors.New("refresh token not found")
	}

	if refreshToken.IsExpired() {
		return nil, errors.New("refresh token is expired")
	}

	return &refreshToken, nil
}

// RefreshAccessToken generates a new access token using a refresh token
func (js *JWTService) RefreshAccessToken(refreshTokenString string) (*TokenPair, error) {
	refreshToken, err := js.ValidateRefreshToken(refreshTokenString)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := database.DB.First(&user, refreshToken.UserID).Error; err != nil {
		return nil, errors.New("user not found")
	}

	accessToken, expiresIn, err := js.generateAccessToken(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshTokenString, // Keep the same refresh token
		ExpiresIn:    expiresIn,
		TokenType:    "Bearer",
	}, nil
}

// RevokeRefreshToken deletes a refresh token
func (js *JWTService) RevokeRefreshToken(tokenString string) error {
	result := database.DB.Where("token = ?", tokenString).Delete(&models.RefreshToken{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("refresh token not found")
	}

	log.Printf("✅ Refresh token revoked")
	return nil
}

// RevokeAllUserTokens deletes all refresh tokens for a user
func (js *JWTService) RevokeAllUserTokens(userID uint) error {
	if err := database.DB.Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error; err != nil {
		return err
	}

	log.Printf("✅ All refresh tokens revoked for user %d", userID)
	return nil
}

// CleanupExpiredTokens removes expired refresh tokens
func (js *JWTService) CleanupExpiredTokens() error {
	if err := database.DB.Where("expires_at < ?", time.Now()).Delete(&models.RefreshToken{}).Error; err != nil {
		return err
	}

	log.Printf("✅ Expired refresh tokens cleaned up")
	return nil
}
