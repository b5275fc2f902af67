package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"service-platform-server/database"
	"service-platform-server/models"
)

// RegisterAdminRoutes adds the admin dashboard endpoints
func RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/admin/dashboard", func(c *gin.Context) {
		weekAgo := time.Now().AddDate(0, 0, -7)

		var totalUsers, totalWorkers, totalBookings, completedBookings int64
		var newUsers, newBookings int64
		var pendingApplications int64

		database.DB.Model(&models.User{}).Count(&totalUsers)
		database.DB.Model(&models.Worker{}).Count(&totalWorkers)
		database.DB.Model(&models.Booking{}).Count(&totalBookings)
		database.DB.Model(&models.Booking{}).Where("status = ?", models.BookingStatusCompleted).Count(&completedBookings)
		database.DB.Model(&models.User{}).Where("created_at >= ?", weekAgo).Count(&newUsers)
		database.DB.Model(&models.Booking{}).Where("created_at >= ?", weekAgo).Count(&newBookings)
		database.DB.Model(&models.WorkerApplication{}).
			Where("application_status NOT IN ?", []models.ApplicationStatus{
				models.ApplicationApproved,
				models.ApplicationStage1Rejected,
				models.ApplicationStage2Rejected,
				models.ApplicationStage3Rejected,
			}).Count(&pendingApplications)

		var revenue float64
		database.DB.Model(&models.WorkerEarning{}).Select("COALESCE(SUM(amount), 0)").Scan(&revenue)

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"stats": gin.H{
				"total_users":          totalUsers,
				"total_workers":        totalWorkers,
				"total_bookings":       totalBookings,
				"completed_bookings":   completedBookings,
				"new_users_7d":         newUsers,
				"new_bookings_7d":      newBookings,
				"pending_applications": pendingApplications,
				"total_revenue":        revenue,
			},
		})
	})

	rg.GET("/admin/users", func(c *gin.Context) {
		var users []models.User
		if err := database.DB.Order("created_at DESC").Find(&users).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to load users"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "users": users})
	})

	rg.GET("/admin/workers", func(c *gin.Context) {
		var workers []models.Worker
		if err := database.DB.Preload("User").Preload("Services.Service").
			Order("created_at DESC").Find(&workers).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to load workers"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "workers": workers})
	})

	rg.GET("/admin/bookings", func(c *gin.Context) {
		status := c.Query("status")

		q := database.DB.Preload("User").Preload("Worker.User").Preload("Service").Order("created_at DESC")
		if status != "" {
			q = q.Where("status = ?", status)
		}

		var bookings []models.Booking
		if err := q.Find(&bookings).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to load bookings"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "bookings": bookings})
	})

	rg.PUT("/admin/users/:id/active", func(c *gin.Context) {
		userID := parseID(c)
		if userID == 0 {
			return
		}

		var req struct {
			IsActive *bool `json:"is_active" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "is_active is required"})
			return
		}

		var user models.User
		if err := database.DB.First(&user, userID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
			return
		}

		user.IsActive = *req.IsActive
		if err := database.DB.Save(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to update user"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
	})
}
