package routes

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"service-platform-server/config"
	"service-platform-server/database"
	"service-platform-server/models"
	"service-platform-server/services"
	ws "service-platform-server/websocket"
)

// RegisterPaymentRoutes adds the online payment endpoints
func RegisterPaymentRoutes(rg *gin.RouterGroup, hub *ws.Hub) {
	bookingService := services.NewBookingService(database.DB)
	paymentService := services.NewPaymentService(
		config.AppConfig.Razorpay.KeyID,
		config.AppConfig.Razorpay.KeySecret,
		config.AppConfig.Razorpay.BaseURL,
	)

	rg.POST("/bookings/:id/payment/order", func(c *gin.Context) {
		userID := c.GetUint("user_id")
		bookingID := parseID(c)
		if bookingID == 0 {
			return
		}

		var booking models.Booking
		if err := database.DB.First(&booking, bookingID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Booking not found"})
			return
		}
		if booking.UserID != userID {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Not your booking"})
			return
		}
		if booking.Status != models.BookingStatusAccepted || !booking.ReceiptSent {
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Receipt must be sent before payment"})
			return
		}
		if booking.PaymentStatus == models.PaymentStatusPaid {
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Booking is already paid"})
			return
		}

		// Reuse the gateway order if one already exists for this booking
		var payment models.RazorpayPayment
		if err := database.DB.Where("booking_id = ?", booking.ID).First(&payment).Error; err == nil {
			if payment.Status == models.RazorpayCreated && payment.Amount == booking.Total {
				c.JSON(http.StatusOK, gin.H{"success": true, "order_id": payment.OrderID, "amount": payment.Amount, "currency": payment.Currency})
				return
			}
			database.DB.Delete(&payment)
		}

		notes := map[string]string{
			"booking_id": strconv.Itoa(int(booking.ID)),
			"user_id":    strconv.Itoa(int(userID)),
		}
		order, err := paymentService.CreateOrder(booking.Total, "INR", notes)
		if err != nil {
			log.Printf("❌ Failed to create payment order for booking %d: %v", booking.ID, err)
			c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": "Failed to create payment order"})
			return
		}

		payment = models.RazorpayPayment{
			BookingID: booking.ID,
			OrderID:   order.ID,
			Amount:    booking.Total,
			Currency:  order.Currency,
			Status:    models.RazorpayCreated,
		}
		if err := database.DB.Create(&payment).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to record payment"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"order_id": order.ID,
			"amount":   booking.Total,
			"currency": order.Currency,
			"key_id":   config.AppConfig.Razorpay.KeyID,
		})
	})

	rg.POST("/bookings/:id/payment/verify", func(c *gin.Context) {
		userID := c.GetUint("user_id")
		bookingID := parseID(c)
		if bookingID == 0 {
			return
		}

		var req models.PaymentVerifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid verification payload"})
			return
		}

		var payment models.RazorpayPayment
		if err := database.DB.Where("booking_id = ? AND order_id = ?", bookingID, req.OrderID).First(&payment).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Payment order not found"})
			return
		}

		var booking models.Booking
		if err := database.DB.First(&booking, bookingID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Booking not found"})
			return
		}
		if booking.UserID != userID {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Not your booking"})
			return
		}

		if err := paymentService.VerifyPayment(req.OrderID, req.PaymentID, req.Signature); err != nil {
			payment.Status = models.RazorpayFailed
			database.DB.Save(&payment)
			log.Printf("🚫 Payment signature mismatch for booking %d", booking.ID)
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Payment verification failed"})
			return
		}

		payment.PaymentID = req.PaymentID
		payment.Signature = req.Signature
		payment.Status = models.RazorpayPaid
		if err := database.DB.Save(&payment).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to record payment"})
			return
		}

		updated, err := bookingService.MarkPaid(booking.ID)
		if err != nil {
			respondBookingError(c, err)
			return
		}

		var worker models.Worker
		if err := database.DB.First(&worker, updated.WorkerID).Error; err == nil {
			hub.NotifyBookingUpdated(worker.UserID, updated)
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "booking": updated})
	})
}
