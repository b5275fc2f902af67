package config

import (
	"os"
	"strconv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Razorpay   RazorpayConfig
	SMTP       SMTPConfig
	Cloudinary CloudinaryConfig
	Crypto     CryptoConfig
}

type ServerConfig struct {
	Port     string
	GinMode  string
	SeedData bool
}

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	Secret            string
	ExpiryHours       int
	RefreshExpiryDays int
}

type RazorpayConfig struct {
	KeyID     string
	KeySecret string
	BaseURL   string
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

type CloudinaryConfig struct {
	URL string
}

type CryptoConfig struct {
	PrivateKeyPath string
}

var AppConfig *Config

func Load() {
	AppConfig = &Config{
		Server: ServerConfig{
			Port:     getEnv("PORT", "8080"),
			GinMode:  getEnv("GIN_MODE", "debug"),
			SeedData: getEnvAsBool("SEED_DATA", false),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DB_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "password"),
			Name:     getEnv("DB_NAME", "service_platform_db"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", "your-super-secret-jwt-key-change-this-in-production"),
			ExpiryHours:       getEnvAsInt("JWT_EXPIRY_HOURS", 24),
			RefreshExpiryDays: getEnvAsInt("JWT_REFRESH_EXPIRY_DAYS", 30),
		},
		Razorpay: RazorpayConfig{
			KeyID:     getEnv("RAZORPAY_KEY_ID", ""),
			KeySecret: getEnv("RAZORPAY_KEY_SECRET", ""),
			BaseURL:   getEnv("RAZORPAY_BASE_URL", "https://api.razorpay.com/v1"),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnv("SMTP_PORT", "587"),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "no-reply@serviceplatform.local"),
		},
		Cloudinary: CloudinaryConfig{
			URL: getEnv("CLOUDINARY_URL", ""),
		},
		Crypto: CryptoConfig{
			PrivateKeyPath: getEnv("BOOKING_PRIVATE_KEY_PATH", "keys/booking_private.pem"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
