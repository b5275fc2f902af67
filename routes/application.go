package routes

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"service-platform-server/database"
	"service-platform-server/models"
	"service-platform-server/services"
	"service-platform-server/utils"
)

// documentFields maps multipart field names to application columns
var documentFields = []string{"photo_id", "aadhaar_card", "union_card", "certifications", "signature_copy"}

// RegisterApplicationRoutes adds the public worker application endpoints
func RegisterApplicationRoutes(rg *gin.RouterGroup) {
	verificationService := services.NewVerificationService(database.DB, services.NewOTPService(), services.NewMailerService())

	rg.POST("/applications", func(c *gin.Context) {
		var form models.WorkerApplicationCreate
		if err := c.ShouldBind(&form); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid application data"})
			return
		}

		email := strings.ToLower(strings.TrimSpace(form.Email))

		var existing models.WorkerApplication
		if err := database.DB.Where("email = ?", email).First(&existing).Error; err == nil {
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": "An application with this email already exists"})
			return
		}

		app := models.WorkerApplication{
			Name:              form.Name,
			Email:             email,
			Phone:             form.Phone,
			Address:           form.Address,
			Skills:            form.Skills,
			Experience:        form.Experience,
			ServiceCategories: form.ServiceCategories,
		}

		if form.Address != "" {
			if geo, err := utils.GeocodeAddress(form.Address); err == nil {
				app.Lat = &geo.Latitude
				app.Lng = &geo.Longitude
			} else {
				log.Printf("⚠️ Geocoding failed for application from %s: %v", email, err)
			}
		}

		// Upload whatever documents came with the form
		if c.Request.MultipartForm != nil && len(c.Request.MultipartForm.File) > 0 {
			uploadService, err := services.NewUploadService()
			if err != nil {
				log.Printf("❌ Upload service unavailable: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Document upload unavailable"})
				return
			}

			for _, field := range documentFields {
				header, err := c.FormFile(field)
				if err != nil {
					continue
				}
				if !services.ValidateDocumentFile(header) {
					c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid document file: " + header.Filename})
					return
				}
				url, err := uploadService.Upload(context.Background(), header, "applications/"+field)
				if err != nil {
					log.Printf("❌ Document upload failed: %v", err)
					c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Document upload failed"})
					return
				}
				switch field {
				case "photo_id":
					app.PhotoIDURL = &url
				case "aadhaar_card":
					app.AadhaarCardURL = &url
				case "union_card":
					app.UnionCardURL = &url
				case "certifications":
					app.CertificationsURL = &url
				case "signature_copy":
					app.SignatureURL = &url
				}
			}
		}

		if err := verificationService.Submit(&app); err != nil {
			log.Printf("❌ Failed to submit application: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to submit application"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"success": true, "application": app})
	})

	// Applicants can poll their status by email
	rg.GET("/applications/status", func(c *gin.Context) {
		email := strings.ToLower(strings.TrimSpace(c.Query("email")))
		if email == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "email query parameter required"})
			return
		}

		var app models.WorkerApplication
		if err := database.DB.Where("email = ?", email).First(&app).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Application not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":       true,
			"status":        app.ApplicationStatus,
			"current_stage": app.CurrentStage,
			"applied_at":    app.AppliedAt,
		})
	})
}
