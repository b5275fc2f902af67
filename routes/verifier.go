package routes

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"service-platform-server/database"
	"service-platform-server/middleware"
	"service-platform-server/models"
	"service-platform-server/services"
)

// RegisterVerifierRoutes adds the three per-stage verifier endpoint groups.
// Each stage is gated to its own verifier role.
func RegisterVerifierRoutes(rg *gin.RouterGroup) {
	verificationService := services.NewVerificationService(database.DB, services.NewOTPService(), services.NewMailerService())

	stage1 := rg.Group("/verifier/stage1", middleware.RequireRoles(models.RoleVerifier1, models.RoleAdmin))
	stage2 := rg.Group("/verifier/stage2", middleware.RequireRoles(models.RoleVerifier2, models.RoleAdmin))
	stage3 := rg.Group("/verifier/stage3", middleware.RequireRoles(models.RoleVerifier3, models.RoleAdmin))

	// Shared read endpoints per stage
	for stage, group := range map[int]*gin.RouterGroup{1: stage1, 2: stage2, 3: stage3} {
		stage := stage
		group.GET("/applications", func(c *gin.Context) {
			apps, err := verificationService.ListForStage(stage)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to load applications"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true, "applications": apps})
		})

		group.GET("/applications/:id", func(c *gin.Context) {
			appID := parseID(c)
			if appID == 0 {
				return
			}
			app, err := verificationService.GetApplication(appID)
			if err != nil {
				respondVerificationError(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true, "application": app})
		})

		group.GET("/applications/:id/documents", func(c *gin.Context) {
			appID := parseID(c)
			if appID == 0 {
				return
			}
			app, err := verificationService.GetApplication(appID)
			if err != nil {
				respondVerificationError(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true, "documents": app.DocumentURLs()})
		})

		group.GET("/applications/:id/logs", func(c *gin.Context) {
			appID := parseID(c)
			if appID == 0 {
				return
			}
			logs, err := verificationService.Logs(appID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to load logs"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true, "logs": logs})
		})

		group.GET("/statistics", func(c *gin.Context) {
			stats, err := verificationService.Statistics(stage)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to load statistics"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true, "statistics": stats})
		})
	}

	// Stage 1: document review
	stage1.GET("/applications/:id/review", func(c *gin.Context) {
		appID := parseID(c)
		if appID == 0 {
			return
		}
		review, err := verificationService.EnsureStage1Review(appID, c.GetUint("user_id"))
		if err != nil {
			respondVerificationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "review": review})
	})

	stage1.PUT("/applications/:id/review", func(c *gin.Context) {
		appID := parseID(c)
		if appID == 0 {
			return
		}
		var update models.StageReviewUpdate
		if err := c.ShouldBindJSON(&update); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid review payload"})
			return
		}
		review, err := verificationService.UpdateStage1Review(appID, c.GetUint("user_id"), &update)
		if err != nil {
			respondVerificationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "review": review})
	})

	// Stage 2: identity, union and contact verification
	stage2.GET("/applications/:id/review", func(c *gin.Context) {
		appID := parseID(c)
		if appID == 0 {
			return
		}
		review, err := verificationService.EnsureStage2Review(appID, c.GetUint("user_id"))
		if err != nil {
			respondVerificationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "review": review})
	})

	stage2.PUT("/applications/:id/review", func(c *gin.Context) {
		appID := parseID(c)
		if appID == 0 {
			return
		}
		var update models.StageReviewUpdate
		if err := c.ShouldBindJSON(&update); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid review payload"})
			return
		}
		review, err := verificationService.UpdateStage2Review(appID, c.GetUint("user_id"), &update)
		if err != nil {
			respondVerificationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "review": review})
	})

	stage2.POST("/applications/:id/send-otp", func(c *gin.Context) {
		appID := parseID(c)
		if appID == 0 {
			return
		}
		if err := verificationService.SendOTP(appID, c.GetUint("user_id")); err != nil {
			respondVerificationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "OTP sent"})
	})

	stage2.POST("/applications/:id/verify-otp", func(c *gin.Context) {
		appID := parseID(c)
		if appID == 0 {
			return
		}
		var req struct {
			Code string `json:"code" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "code is required"})
			return
		}
		if err := verificationService.VerifyOTP(appID, req.Code); err != nil {
			if errors.Is(err, services.ErrOTPMismatch) {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "verified": false, "message": "OTP does not match"})
				return
			}
			respondVerificationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "verified": true})
	})

	// Stage 3: final decision and account provisioning
	stage3.GET("/applications/:id/review", func(c *gin.Context) {
		appID := parseID(c)
		if appID == 0 {
			return
		}
		review, err := verificationService.EnsureStage3Review(appID, c.GetUint("user_id"))
		if err != nil {
			respondVerificationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "review": review})
	})

	stage3.PUT("/applications/:id/review", func(c *gin.Context) {
		appID := parseID(c)
		if appID == 0 {
			return
		}
		var update models.StageReviewUpdate
		if err := c.ShouldBindJSON(&update); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid review payload"})
			return
		}
		review, err := verificationService.UpdateStage3Review(appID, c.GetUint("user_id"), &update)
		if err != nil {
			respondVerificationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "review": review})
	})
}

// respondVerificationError maps workflow errors onto HTTP statuses
func respondVerificationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrApplicationNotFound), errors.Is(err, services.ErrReviewNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": err.Error()})
	case errors.Is(err, services.ErrWrongStage),
		errors.Is(err, services.ErrReviewLocked),
		errors.Is(err, services.ErrApplicationTerminated):
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": err.Error()})
	case errors.Is(err, services.ErrOTPNotSent):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
	default:
		log.Printf("❌ Verification operation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal error"})
	}
}
