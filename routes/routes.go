// File: /routes/routes.go
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tripweaver-api/config"
	"tripweaver-api/controllers"
	"tripweaver-api/middleware"
	"tripweaver-api/repositories"
	"tripweaver-api/services"
)

// SetupCORS allows browser clients to hit the API from other origins.
func SetupCORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func SetupRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config, itinerary *services.ItineraryService,
	geocoder *services.GeocodingService, locks *services.LockService, emailService *services.EmailService,
	log *zap.SugaredLogger) {
	// Controllers
	stepRepo := repositories.NewStepRepository(db)
	authController := controllers.NewAuthController(db, cfg.JWTSecret, emailService, log)
	tripController := controllers.NewTripController(db, itinerary, geocoder, locks, emailService, cfg.AppURL, log)
	stepController := controllers.NewStepController(db, stepRepo, itinerary, geocoder, log)
	activityController := controllers.NewActivityController(db)
	accommodationController := controllers.NewAccommodationController(db)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	// API version 1
	v1 := r.Group("/api/v1")

	// Auth routes (public)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
	}

	// Shared trips are readable without a token
	v1.GET("/public/trips/:id", tripController.GetPublicTrip)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	{
		protected.GET("/users/profile", authController.GetProfile)

		// Trip routes
		trips := protected.Group("/trips")
		{
			trips.GET("/", tripController.GetTrips)
			trips.POST("/", tripController.CreateTrip)
			trips.GET("/:id", tripController.GetTrip)
			trips.PUT("/:id", tripController.UpdateTrip)
			trips.DELETE("/:id", tripController.DeleteTrip)
			trips.POST("/:id/duplicate", tripController.DuplicateTrip)
			trips.POST("/:id/invite", tripController.InviteToTrip)
			trips.GET("/:id/schedule", tripController.GetSchedule)
			trips.POST("/:id/reschedule", tripController.RescheduleTrip)

			trips.POST("/:id/steps", stepController.CreateStep)
			trips.POST("/:id/steps/reorder", stepController.ReorderSteps)
		}

		// Step routes
		steps := protected.Group("/steps")
		{
			steps.PUT("/:id", stepController.UpdateStep)
			steps.PUT("/:id/schedule", stepController.UpdateStepSchedule)
			steps.DELETE("/:id", stepController.DeleteStep)
			steps.POST("/:id/move-up", stepController.MoveStepUp)
			steps.POST("/:id/move-down", stepController.MoveStepDown)

			steps.POST("/:id/activities", activityController.CreateActivity)
			steps.POST("/:id/accommodations", accommodationController.CreateAccommodation)
		}

		// Activity routes
		activities := protected.Group("/activities")
		{
			activities.PUT("/:id", activityController.UpdateActivity)
			activities.DELETE("/:id", activityController.DeleteActivity)
		}

		// Accommodation routes
		accommodations := protected.Group("/accommodations")
		{
			accommodations.PUT("/:id", accommodationController.UpdateAccommodation)
			accommodations.DELETE("/:id", accommodationController.DeleteAccommodation)
		}
	}
}
