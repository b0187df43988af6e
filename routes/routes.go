package routes

import (
	"track-review-api/controllers"
	"track-review-api/middleware"
	"track-review-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			public.POST("/login", controllers.Login)
			public.POST("/refresh", controllers.RefreshToken)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Track Review API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			protected.GET("/profile", controllers.GetProfile)
			protected.GET("/genres", controllers.GetGenres)

			// Tracks (artists)
			tracks := protected.Group("/tracks")
			{
				tracks.POST("", middleware.RequireRole(models.RoleArtist), controllers.CreateTrack)
				tracks.GET("/:id", controllers.GetTrack)
				tracks.POST("/:id/activate", middleware.RequireRole(models.RoleArtist), controllers.ActivateTrack)
				tracks.POST("/:id/claim", middleware.RequireRole(models.RoleArtist), controllers.ClaimTrack)
			}

			protected.GET("/slots", middleware.RequireRole(models.RoleArtist), controllers.GetSlotAvailability)

			// Reviews
			reviews := protected.Group("/reviews")
			{
				reviews.POST("/:id/flag", middleware.RequireRole(models.RoleArtist), controllers.FlagReview)
				reviews.POST("/:id/unplayable", controllers.MarkUnplayable)
				reviews.POST("/:id/rating", middleware.RequireRole(models.RoleArtist), controllers.RateReview)
				reviews.POST("/:id/gem", middleware.RequireRole(models.RoleArtist), controllers.AwardGem)
				reviews.DELETE("/:id/gem", middleware.RequireRole(models.RoleArtist), controllers.RevokeGem)
			}

			// Notifications
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", controllers.GetNotifications)
				notifications.PUT("/:id/read", controllers.MarkNotificationRead)
			}

			// Admin operations
			admin := protected.Group("/admin")
			admin.Use(middleware.RequireRole(models.RoleAdmin))
			{
				admin.POST("/tracks/:id/assign", controllers.AssignTrack)
				admin.POST("/tracks/:id/reassign", controllers.ReassignTrack)
				admin.GET("/tracks/:id/eligibility/:reviewer_id", controllers.CheckEligibility)
				admin.POST("/reviewers/:id/reputation", controllers.RecomputeReputation)
				admin.POST("/queue/sweep", controllers.SweepExpiredQueue)
			}
		}
	}

	// 404 handler
	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"error": "Route not found"})
	})
}
