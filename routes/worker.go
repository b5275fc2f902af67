package routes

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"service-platform-server/database"
	"service-platform-server/models"
	"service-platform-server/services"
	"service-platform-server/utils"
	ws "service-platform-server/websocket"
)

// RegisterWorkerRoutes adds the worker-facing endpoints
func RegisterWorkerRoutes(rg *gin.RouterGroup, hub *ws.Hub) {
	bookingService := services.NewBookingService(database.DB)

	// Homepage bundles the worker dashboard into one call
	rg.GET("/worker/homepage", func(c *gin.Context) {
		userID := c.GetUint("user_id")

		var worker models.Worker
		if err := database.DB.Preload("User").Preload("Services.Service").
			Where("user_id = ?", userID).First(&worker).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Worker profile not found"})
			return
		}

		resp := models.WorkerHomepageResponse{
			Settings:      worker,
			Available:     worker.IsAvailable,
			AverageRating: worker.AverageRating,
		}

		if worker.CurrentBookingID != nil {
			var active models.Booking
			if err := database.DB.Preload("User").Preload("Service").Preload("Tariffs").Preload("Photos").
				First(&active, *worker.CurrentBookingID).Error; err == nil {
				resp.ActiveJob = &active
				resp.PaymentStatus = string(active.PaymentStatus)
			}
		}

		if err := database.DB.Preload("User").Preload("Service").
			Where("worker_id = ? AND status = ?", worker.ID, models.BookingStatusRequested).
			Order("created_at DESC").Find(&resp.PendingRequests).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to load requests"})
			return
		}

		if err := database.DB.Preload("Service").
			Where("worker_id = ? AND status = ?", worker.ID, models.BookingStatusCompleted).
			Order("completed_at DESC").Limit(20).Find(&resp.Earnings).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to load earnings"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "homepage": resp})
	})

	rg.POST("/worker/jobs/:id/accept", func(c *gin.Context) {
		userID := c.GetUint("user_id")
		bookingID := parseID(c)
		if bookingID == 0 {
			return
		}

		booking, err := bookingService.Accept(userID, bookingID)
		if err != nil {
			respondBookingError(c, err)
			return
		}

		hub.NotifyBookingUpdated(booking.UserID, booking)
		c.JSON(http.StatusOK, gin.H{"success": true, "booking": booking})
	})

	rg.PUT("/worker/jobs/:id/tariff", func(c *gin.Context) {
		userID := c.GetUint("user_id")
		bookingID := parseID(c)
		if bookingID == 0 {
			return
		}

		var req struct {
			Lines []models.TariffLineInput `json:"tariff" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid tariff payload"})
			return
		}

		booking, err := bookingService.UpdateTariff(userID, bookingID, req.Lines)
		if err != nil {
			respondBookingError(c, err)
			return
		}

		hub.NotifyBookingUpdated(booking.UserID, booking)
		c.JSON(http.StatusOK, gin.H{"success": true, "booking": booking, "total": booking.Total})
	})

	rg.POST("/worker/jobs/:id/receipt", func(c *gin.Context) {
		userID := c.GetUint("user_id")
		bookingID := parseID(c)
		if bookingID == 0 {
			return
		}

		booking, err := bookingService.SendReceipt(userID, bookingID)
		if err != nil {
			respondBookingError(c, err)
			return
		}

		hub.NotifyBookingUpdated(booking.UserID, booking)
		c.JSON(http.StatusOK, gin.H{"success": true, "booking": booking})
	})

	rg.POST("/worker/jobs/:id/confirm-cod", func(c *gin.Context) {
		userID := c.GetUint("user_id")
		bookingID := parseID(c)
		if bookingID == 0 {
			return
		}

		booking, err := bookingService.ConfirmCOD(userID, bookingID)
		if err != nil {
			respondBookingError(c, err)
			return
		}

		hub.NotifyBookingUpdated(booking.UserID, booking)
		c.JSON(http.StatusOK, gin.H{"success": true, "booking": booking})
	})

	rg.POST("/worker/jobs/:id/complete", func(c *gin.Context) {
		userID := c.GetUint("user_id")
		bookingID := parseID(c)
		if bookingID == 0 {
			return
		}

		booking, err := bookingService.Complete(userID, bookingID)
		if err != nil {
			respondBookingError(c, err)
			return
		}

		hub.NotifyBookingUpdated(booking.UserID, booking)
		c.JSON(http.StatusOK, gin.H{"success": true, "booking": booking})
	})

	rg.GET("/worker/earnings", func(c *gin.Context) {
		userID := c.GetUint("user_id")

		summary, err := bookingService.Earnings(userID)
		if err != nil {
			respondBookingError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "earnings": summary})
	})

	rg.PUT("/worker/availability", func(c *gin.Context) {
		userID := c.GetUint("user_id")

		var req struct {
			IsAvailable *bool `json:"is_available" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "is_available is required"})
			return
		}

		worker, err := bookingService.SetAvailability(userID, *req.IsAvailable)
		if err != nil {
			respondBookingError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "is_available": worker.IsAvailable})
	})

	rg.PUT("/worker/settings", func(c *gin.Context) {
		userID := c.GetUint("user_id")

		var req models.WorkerSettingsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid settings payload"})
			return
		}

		var worker models.Worker
		if err := database.DB.Where("user_id = ?", userID).First(&worker).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Worker profile not found"})
			return
		}

		if req.IsAvailable != nil {
			if worker.HasActiveBooking() {
				c.JSON(http.StatusConflict, gin.H{"success": false, "message": services.ErrActiveJobInProgress.Error()})
				return
			}
			worker.IsAvailable = *req.IsAvailable
		}
		if req.AllowsCOD != nil {
			worker.AllowsCOD = *req.AllowsCOD
		}
		if req.ExperienceYears != nil {
			worker.ExperienceYears = *req.ExperienceYears
		}
		if req.ProfilePhoto != nil {
			worker.ProfilePhoto = req.ProfilePhoto
		}
		if req.Address != nil {
			worker.Address = *req.Address
			if req.Lat == nil && req.Lng == nil {
				if geo, err := utils.GeocodeAddress(*req.Address); err == nil {
					worker.Lat = &geo.Latitude
					worker.Lng = &geo.Longitude
				} else {
					log.Printf("⚠️ Geocoding failed for worker %d: %v", worker.ID, err)
				}
			}
		}
		if req.Lat != nil {
			worker.Lat = req.Lat
		}
		if req.Lng != nil {
			worker.Lng = req.Lng
		}

		if err := database.DB.Save(&worker).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to update settings"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "worker": worker})
	})
}

// RegisterPublicWorkerRoutes adds the customer-visible worker discovery endpoints
func RegisterPublicWorkerRoutes(rg *gin.RouterGroup) {
	rg.GET("/workers", func(c *gin.Context) {
		serviceType := c.Query("service_type")

		q := database.DB.Preload("User").Preload("Services.Service")
		if serviceType != "" {
			q = q.Joins("JOIN worker_services ON worker_services.worker_id = workers.id").
				Joins("JOIN services ON services.id = worker_services.service_id").
				Where("services.service_type = ?", serviceType)
		}

		var workers []models.Worker
		if err := q.Order("average_rating DESC").Find(&workers).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to load workers"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "workers": workers})
	})

	rg.GET("/services", func(c *gin.Context) {
		var catalog []models.Service
		if err := database.DB.Order("service_type ASC").Find(&catalog).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to load services"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "services": catalog})
	})
}
