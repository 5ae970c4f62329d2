package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/eventhub/internal/container"
	"github.com/joshua-takyi/eventhub/internal/handlers"
	"github.com/joshua-takyi/eventhub/internal/middleware"
	"github.com/joshua-takyi/eventhub/internal/models"
	"github.com/joshua-takyi/eventhub/internal/monitoring"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(container *container.Container, validator middleware.TokenValidator) *gin.Engine {
	cfg := container.Config
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	secure := cfg.IsProduction()

	r := gin.New()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "Retry-After", "X-RateLimit-Remaining"},
		AllowCredentials: true,
	}))

	r.Use(middleware.RequestID())
	r.Use(monitoring.Instrument())
	r.Use(middleware.StructuredLogger(container.Logger))
	r.Use(middleware.ErrorHandler(container.Logger))
	r.Use(gin.Recovery())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := middleware.AuthConfig{
		Validator:    validator,
		Users:        container.UserService,
		SecureCookie: secure,
		Logger:       container.Logger,
	}
	limiter := middleware.RateLimit(container.Redis, middleware.RateLimitConfig{
		Enabled:  cfg.RateLimitEnabled,
		Requests: cfg.RateLimitRequests,
		Window:   cfg.RateLimitWindow,
	}, container.Logger)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "OK",
				"service": "eventhub-api",
			})
		})

		// public routes
		v1.POST("/signup", handlers.SignUp(container.UserService))
		v1.POST("/login", handlers.SignIn(container.UserService, secure))
		v1.POST("/refresh", handlers.Refresh(container.UserService, secure))
		v1.POST("/logout", handlers.Logout(container.UserService, secure))

		v1.GET("/events", handlers.ListActiveEvents(container.EventService))
		v1.GET("/events/stream", handlers.StreamActiveEvents(container.EventService))
		v1.GET("/events/:id", handlers.GetEvent(container.EventService))
	}

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(auth), limiter)
	{
		protected.GET("/profile", handlers.GetProfile(container.UserService))
		protected.PATCH("/profile", handlers.UpdateProfile(container.UserService))
		protected.POST("/media", handlers.UploadMedia(container.MediaService))

		protected.POST("/events/:id/bookings", handlers.CreateBooking(container.BookingService))
		protected.GET("/bookings", handlers.ListMyBookings(container.BookingService))
		protected.GET("/bookings/stream", handlers.StreamMyBookings(container.BookingService))
		protected.GET("/bookings/:id", handlers.GetBooking(container.BookingService))
	}

	savedRoutes := protected.Group("/saved")
	{
		savedRoutes.GET("", handlers.ListSavedEvents(container.SavedEventService))
		savedRoutes.GET("/:eventId", handlers.IsEventSaved(container.SavedEventService))
		savedRoutes.PUT("/:eventId", handlers.SaveEvent(container.SavedEventService))
		savedRoutes.DELETE("/:eventId", handlers.RemoveSavedEvent(container.SavedEventService))
	}

	hotelRoutes := protected.Group("/hotel")
	hotelRoutes.Use(middleware.RequireRole(models.RoleHotel))
	{
		hotelRoutes.POST("/events", handlers.CreateEvent(container.EventService))
		hotelRoutes.GET("/events", handlers.ListHotelEvents(container.EventService))
		hotelRoutes.GET("/events/stream", handlers.StreamHotelEvents(container.EventService))
		hotelRoutes.PATCH("/events/:id", handlers.UpdateEvent(container.EventService))
		hotelRoutes.DELETE("/events/:id", handlers.DeleteEvent(container.EventService))

		hotelRoutes.GET("/bookings", handlers.ListHotelBookings(container.BookingService))
		hotelRoutes.GET("/bookings/stream", handlers.StreamHotelBookings(container.BookingService))
		hotelRoutes.POST("/bookings/:id/confirm", handlers.TransitionBooking(container.BookingService, models.BookingConfirmed))
		hotelRoutes.POST("/bookings/:id/reject", handlers.TransitionBooking(container.BookingService, models.BookingRejected))

		hotelRoutes.GET("/stats", handlers.HotelStats(container.StatsService))
	}

	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(middleware.RequireRole(models.RoleAdmin))
	{
		adminRoutes.POST("/hotels", handlers.ProvisionHotel(container.UserService))
		adminRoutes.GET("/hotels", handlers.ListHotels(container.UserService))
		adminRoutes.GET("/hotels/:id/events", handlers.ListHotelEvents(container.EventService))
		adminRoutes.GET("/hotels/:id/stats", handlers.HotelStats(container.StatsService))
	}

	return r
}
