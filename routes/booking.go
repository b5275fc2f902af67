package routes

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"service-platform-server/config"
	"service-platform-server/database"
	"service-platform-server/models"
	"service-platform-server/services"
	"service-platform-server/utils"
	ws "service-platform-server/websocket"
)

// decodeBookingRequest accepts either the encrypted envelope or a plain JSON
// body when no private key is configured
func decodeBookingRequest(body []byte, priv *rsa.PrivateKey) (*models.BookingCreateRequest, error) {
	var env utils.EncryptedEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Key != "" && env.Data != "" {
		if priv == nil {
			return nil, fmt.Errorf("encrypted payload received but no private key is configured")
		}
		var req models.BookingCreateRequest
		if err := utils.DecryptEnvelope(priv, &env, &req); err != nil {
			return nil, err
		}
		return &req, nil
	}

	var req models.BookingCreateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// RegisterBookingRoutes adds the customer booking endpoints
func RegisterBookingRoutes(rg *gin.RouterGroup, hub *ws.Hub) {
	bookingService := services.NewBookingService(database.DB)

	priv, err := utils.LoadPrivateKey(config.AppConfig.Crypto.PrivateKeyPath)
	if err != nil {
		log.Printf("⚠️ Booking private key unavailable, encrypted payloads disabled: %v", err)
	}

	rg.POST("/bookings", func(c *gin.Context) {
		userID := c.GetUint("user_id")

		user := c.MustGet("user").(models.User)
		if !user.IsProfileComplete() {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Complete your profile before booking"})
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
			return
		}

		req, err := decodeBookingRequest(body, priv)
		if err != nil {
			log.Printf("❌ Failed to decode booking request: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid booking payload"})
			return
		}

		booking, err := bookingService.Create(userID, req, nil)
		if err != nil {
			respondBookingError(c, err)
			return
		}

		// Push the request to the worker if they are connected
		var worker models.Worker
		if err := database.DB.First(&worker, booking.WorkerID).Error; err == nil {
			hub.NotifyBookingRequested(worker.UserID, booking)
		}

		c.JSON(http.StatusCreated, gin.H{"success": true, "booking": booking})
	})

	rg.POST("/bookings/:id/photos", func(c *gin.Context) {
		userID := c.GetUint("user_id")
		bookingID := parseID(c)
		if bookingID == 0 {
			return
		}

		var booking models.Booking
		if err := database.DB.Preload("Photos").First(&booking, bookingID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Booking not found"})
			return
		}
		if booking.UserID != userID {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Not your booking"})
			return
		}
		if booking.Status.IsTerminal() {
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Booking is closed"})
			return
		}

		var urls []string
		contentType := c.GetHeader("Content-Type")
		if strings.Contains(contentType, "application/json") {
			// JSON body carrying already-hosted photo references
			var refs []json.RawMessage
			if err := c.ShouldBindJSON(&refs); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid photo payload"})
				return
			}
			for _, ref := range refs {
				url, err := models.NormalizePhotoRef(ref)
				if err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid photo reference"})
					return
				}
				urls = append(urls, url)
			}
		} else {
			if err := c.Request.ParseMultipartForm(10 << 20); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid form data"})
				return
			}

			uploadService, err := services.NewUploadService()
			if err != nil {
				log.Printf("❌ Upload service unavailable: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Photo upload unavailable"})
				return
			}

			files := c.Request.MultipartForm.File["photos"]
			folder := "bookings/" + strconv.Itoa(int(booking.ID))
			for _, header := range files {
				if !services.ValidateImageFile(header) {
					c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid image file: " + header.Filename})
					return
				}
				url, err := uploadService.Upload(context.Background(), header, folder)
				if err != nil {
					log.Printf("❌ Photo upload failed: %v", err)
					c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Photo upload failed"})
					return
				}
				urls = append(urls, url)
			}
		}

		if len(booking.Photos)+len(urls) > models.MaxBookingPhotos {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": fmt.Sprintf("A booking can carry at most %d photos", models.MaxBookingPhotos)})
			return
		}

		for _, url := range urls {
			photo := models.BookingPhoto{BookingID: booking.ID, URL: url}
			if err := database.DB.Create(&photo).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to save photo"})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "photos": urls})
	})

	rg.GET("/bookings", func(c *gin.Context) {
		userID := c.GetUint("user_id")

		var bookings []models.Booking
		if err := database.DB.Preload("Service").Preload("Worker.User").Preload("Tariffs").
			Where("user_id = ?", userID).Order("created_at DESC").Find(&bookings).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to load bookings"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "bookings": bookings})
	})

	rg.GET("/bookings/:id", func(c *gin.Context) {
		userID := c.GetUint("user_id")
		bookingID := parseID(c)
		if bookingID == 0 {
			return
		}

		var booking models.Booking
		if err := database.DB.Preload("Service").Preload("Worker.User").Preload("Tariffs").Preload("Photos").
			First(&booking, bookingID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Booking not found"})
			return
		}
		if booking.UserID != userID {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Not your booking"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":           true,
			"booking":           booking,
			"time_slots":        booking.SlotList(),
			"cancellable_until": booking.CancellableUntil(),
		})
	})

	rg.POST("/bookings/:id/cancel", func(c *gin.Context) {
		userID := c.GetUint("user_id")
		bookingID := parseID(c)
		if bookingID == 0 {
			return
		}

		booking, err := bookingService.Cancel(userID, bookingID)
		if err != nil {
			respondBookingError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "booking": booking})
	})

	rg.POST("/bookings/:id/cod", func(c *gin.Context) {
		userID := c.GetUint("user_id")
		bookingID := parseID(c)
		if bookingID == 0 {
			return
		}

		booking, err := bookingService.ChooseCOD(userID, bookingID)
		if err != nil {
			respondBookingError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "booking": booking})
	})

	rg.POST("/bookings/:id/rate", func(c *gin.Context) {
		userID := c.GetUint("user_id")
		bookingID := parseID(c)
		if bookingID == 0 {
			return
		}

		var req struct {
			Rating  int    `json:"rating" binding:"required,min=1,max=5"`
			Comment string `json:"comment"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Rating must be between 1 and 5"})
			return
		}

		booking, err := bookingService.Rate(userID, bookingID, req.Rating, req.Comment)
		if err != nil {
			respondBookingError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "booking": booking})
	})
}

// parseID parses the :id path parameter, responding 400 on failure
func parseID(c *gin.Context) uint {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid id"})
		return 0
	}
	return uint(id)
}

// respondBookingError maps lifecycle errors onto HTTP statuses
func respondBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrBookingNotFound), errors.Is(err, services.ErrWorkerNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": err.Error()})
	case errors.Is(err, services.ErrNotBookingOwner), errors.Is(err, services.ErrNotBookingWorker):
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": err.Error()})
	case errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrWorkerBusy),
		errors.Is(err, services.ErrWorkerUnavailable),
		errors.Is(err, services.ErrCancelWindowExpired),
		errors.Is(err, services.ErrReceiptAfterPayment),
		errors.Is(err, services.ErrReceiptNotSent),
		errors.Is(err, services.ErrPaymentPending),
		errors.Is(err, services.ErrAlreadyPaid),
		errors.Is(err, services.ErrNotCOD),
		errors.Is(err, services.ErrCODNotAllowed),
		errors.Is(err, services.ErrAlreadyRated),
		errors.Is(err, services.ErrActiveJobInProgress):
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": err.Error()})
	case errors.Is(err, services.ErrInvalidTimeSlots), errors.Is(err, services.ErrTooManyPhotos):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
	default:
		log.Printf("❌ Booking operation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal error"})
	}
}
