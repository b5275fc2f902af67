package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"service-platform-server/config"
	"service-platform-server/database"
	"service-platform-server/jobs"
	"service-platform-server/middleware"
	"service-platform-server/models"
	"service-platform-server/routes"
	ws "service-platform-server/websocket"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load configuration
	config.Load()

	// Initialize database
	if err := database.Initialize(); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	if config.AppConfig.Server.SeedData {
		if err := seedServices(); err != nil {
			log.Printf("⚠️ Service catalog seeding failed: %v", err)
		}
	}

	// Set Gin mode
	if config.AppConfig.Server.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Disable automatic redirects for trailing slashes
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false

	// Security headers (must be first)
	router.Use(middleware.SecurityHeadersMiddleware())

	// Input validation
	router.Use(middleware.InputValidationMiddleware())

	// Rate limiting
	router.Use(middleware.RateLimitMiddleware())

	// CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}))

	// Audit logging
	router.Use(middleware.AuditLogMiddleware())

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Service Platform Server is running",
			"time":    time.Now().UTC(),
		})
	})

	// WebSocket hub for booking notifications
	hub := ws.NewHub()
	go hub.Run()

	router.GET("/api/v1/ws", middleware.WebSocketAuthMiddleware(), func(c *gin.Context) {
		user := c.MustGet("user").(models.User)
		userType := "customer"
		if user.IsWorker() {
			userType = "worker"
		}
		ws.ServeWebSocket(hub, c.Writer, c.Request, user.ID, userType)
	})

	// API routes
	api := router.Group("/api/v1")
	{
		// Auth routes (no authentication required) - with strict rate limiting
		authRoutes := api.Group("/auth")
		authRoutes.Use(middleware.AuthRateLimitMiddleware())
		routes.RegisterAuthRoutes(authRoutes)

		// Public discovery and application endpoints
		routes.RegisterPublicWorkerRoutes(api)
		routes.RegisterApplicationRoutes(api)

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			routes.RegisterProfileRoutes(protected)

			// Customer booking and payment endpoints
			routes.RegisterBookingRoutes(protected, hub)
			routes.RegisterPaymentRoutes(protected, hub)

			// Worker endpoints
			workerRoutes := protected.Group("")
			workerRoutes.Use(middleware.RequireRoles(models.RoleWorker))
			routes.RegisterWorkerRoutes(workerRoutes, hub)

			// Verifier endpoints (per-stage role gating inside)
			routes.RegisterVerifierRoutes(protected)

			// Admin endpoints
			adminRoutes := protected.Group("")
			adminRoutes.Use(middleware.RequireRoles(models.RoleAdmin))
			routes.RegisterAdminRoutes(adminRoutes)
		}
	}

	// Start background jobs
	cleanupJob := jobs.NewCleanupJob()
	cleanupJob.Start()
	defer cleanupJob.Stop()

	port := config.AppConfig.Server.Port
	log.Printf("🚀 Server starting on port %s", port)
	if err := router.Run("0.0.0.0:" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
