package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"service-platform-server/config"
	"service-platform-server/models"
)

var DB *gorm.DB

// Initialize sets up the database connection and runs migrations
func Initialize() error {
	connString := config.AppConfig.Database.URL
	if connString == "" {
		db := config.AppConfig.Database
		connString = fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			db.Host, db.Port, db.User, db.Password, db.Name, db.SSLMode,
		)
	}

	// Configure GORM logger
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Info,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	// Open database connection
	var err error
	DB, err = gorm.Open(postgres.Open(connString), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying SQL database
	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL database: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ Successfully connected to database")

	// Run migrations
	if err := runMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("✅ Database migrations completed successfully")

	return nil
}

// runMigrations creates or updates database tables
func runMigrations() error {
	return DB.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.PasswordReset{},
		&models.Service{},
		&models.Worker{},
		&models.WorkerService{},
		&models.Booking{},
		&models.Tariff{},
		&models.Receipt{},
		&models.BookingPhoto{},
		&models.RazorpayPayment{},
		&models.WorkerEarning{},
		&models.UserReview{},
		&models.WorkerApplication{},
		&models.Stage1Review{},
		&models.Stage2Review{},
		&models.Stage3Review{},
		&models.VerificationLog{},
	)
}
