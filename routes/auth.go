package routes

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"service-platform-server/database"
	"service-platform-server/middleware"
	"service-platform-server/models"
	"service-platform-server/services"
	"service-platform-server/utils"
)

type signupRequest struct {
	FullName    string `json:"full_name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	DeviceID string `json:"device_id"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type passwordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type passwordResetConfirm struct {
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// RegisterAuthRoutes adds authentication endpoints
func RegisterAuthRoutes(rg *gin.RouterGroup) {
	jwtService := services.NewJWTService()
	resetService := services.NewPasswordResetService(database.DB, services.NewOTPService(), services.NewMailerService())

	rg.POST("/signup", func(c *gin.Context) {
		var req signupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request data"})
			return
		}

		if ok, problems := middleware.ValidatePasswordStrength(req.Password); !ok {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": strings.Join(problems, "; ")})
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))

		var existing models.User
		if err := database.DB.Where("email = ?", email).First(&existing).Error; err == nil {
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Email is already registered"})
			return
		}

		hash, err := utils.HashPassword(req.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to create account"})
			return
		}

		user := models.User{
			FullName:     req.FullName,
			Email:        email,
			PhoneNumber:  req.PhoneNumber,
			PasswordHash: hash,
			Role:         models.RoleCustomer,
		}
		if err := database.DB.Create(&user).Error; err != nil {
			log.Printf("❌ Failed to create user: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to create account"})
			return
		}

		pair, err := jwtService.GenerateTokenPair(user.ID, string(user.Role), "", c.Request.UserAgent(), c.ClientIP())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to issue tokens"})
			return
		}

		log.Printf("✅ User %d signed up", user.ID)
		c.JSON(http.StatusCreated, gin.H{"success": true, "user": user, "tokens": pair})
	})

	rg.POST("/login", func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request data"})
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))

		var user models.User
		if err := database.DB.Where("email = ?", email).First(&user).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid email or password"})
			return
		}

		if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid email or password"})
			return
		}

		if !user.IsActive {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Account is deactivated"})
			return
		}

		pair, err := jwtService.GenerateTokenPair(user.ID, string(user.Role), req.DeviceID, c.Request.UserAgent(), c.ClientIP())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to issue tokens"})
			return
		}

		log.Printf("✅ User %d logged in", user.ID)
		c.JSON(http.StatusOK, gin.H{"success": true, "user": user, "tokens": pair})
	})

	rg.POST("/refresh", func(c *gin.Context) {
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request data"})
			return
		}

		pair, err := jwtService.RefreshAccessToken(req.RefreshToken)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid or expired refresh token"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "tokens": pair})
	})

	rg.POST("/logout", func(c *gin.Context) {
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request data"})
			return
		}

		if err := jwtService.RevokeRefreshToken(req.RefreshToken); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Refresh token not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out"})
	})

	rg.POST("/password-reset/request", func(c *gin.Context) {
		var req passwordResetRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request data"})
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))
		if err := resetService.Request(email); err != nil && !errors.Is(err, services.ErrUserNotFound) {
			log.Printf("❌ Password reset request failed for %s: %v", email, err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to process request"})
			return
		}

		// Same answer either way so accounts cannot be enumerated
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "If the email is registered, a reset code has been sent"})
	})

	rg.POST("/password-reset/confirm", func(c *gin.Context) {
		var req passwordResetConfirm
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request data"})
			return
		}

		if ok, problems := middleware.ValidatePasswordStrength(req.NewPassword); !ok {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": strings.Join(problems, "; ")})
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))
		if err := resetService.Confirm(email, req.Code, req.NewPassword); err != nil {
			if errors.Is(err, services.ErrResetCodeInvalid) {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Reset code is invalid or expired"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to reset password"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password has been reset"})
	})
}

// RegisterProfileRoutes adds the authenticated profile endpoints
func RegisterProfileRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", func(c *gin.Context) {
		user := c.MustGet("user").(models.User)
		c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
	})

	rg.PUT("/me", func(c *gin.Context) {
		user := c.MustGet("user").(models.User)

		var req struct {
			FullName    *string  `json:"full_name"`
			PhoneNumber *string  `json:"phone_number"`
			Address     *string  `json:"address"`
			Lat         *float64 `json:"lat"`
			Lng         *float64 `json:"lng"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request data"})
			return
		}

		if req.FullName != nil {
			user.FullName = *req.FullName
		}
		if req.PhoneNumber != nil {
			user.PhoneNumber = *req.PhoneNumber
		}
		if req.Address != nil {
			user.Address = *req.Address
		}
		if req.Lat != nil {
			user.Lat = req.Lat
		}
		if req.Lng != nil {
			user.Lng = req.Lng
		}

		// Geocode when an address came in without coordinates
		if req.Address != nil && req.Lat == nil && req.Lng == nil {
			if geo, err := utils.GeocodeAddress(*req.Address); err == nil {
				user.Lat = &geo.Latitude
				user.Lng = &geo.Longitude
			} else {
				log.Printf("⚠️ Geocoding failed for user %d: %v", user.ID, err)
			}
		}

		if err := database.DB.Save(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to update profile"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "user": user, "profile_complete": user.IsProfileComplete()})
	})
}
