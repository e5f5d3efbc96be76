// File: /main.go
package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"tripweaver-api/config"
	"tripweaver-api/database"
	"tripweaver-api/middleware"
	"tripweaver-api/routes"
	"tripweaver-api/services"
	"tripweaver-api/utils"
)

func main() {
	// Load .env if present; real environments set variables directly
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	logger := utils.NewLogger()
	defer logger.Sync()

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Run migrations
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Seed database with test data (optional - for development)
	if err := database.SeedData(db); err != nil {
		logger.Warnw("failed to seed database", "error", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	routingService := services.NewRoutingService(cfg.MapboxToken, logger)
	geocodingService := services.NewGeocodingService(cfg.MapboxToken, logger)
	itineraryService := services.NewItineraryService(db, routingService, logger)
	lockService := services.NewLockService(redisClient)
	emailService := services.NewEmailService(cfg, logger)

	// Set Gin mode based on environment
	if cfg.Port == "8080" { // Development
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router
	router := gin.Default()

	// Setup CORS middleware
	router.Use(routes.SetupCORS())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RateLimit(120, 30))

	// Setup routes
	routes.SetupRoutes(router, db, cfg, itineraryService, geocodingService, lockService, emailService, logger)

	// Start server
	logger.Infow("starting TripWeaver API server", "port", cfg.Port)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
