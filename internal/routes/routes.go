package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"medigem-server/internal/config"
	"medigem-server/internal/handlers"
	"medigem-server/internal/ledger"
	"medigem-server/internal/middleware"
	"medigem-server/internal/models"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, led *ledger.Ledger, sms handlers.SMSSender) {
	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db, cfg)
	patientAuthHandler := handlers.NewPatientAuthHandler(db, cfg, sms, led)
	appointmentHandler := handlers.NewAppointmentHandler(led)
	doctorHandler := handlers.NewDoctorHandler(db)

	// Public routes (no authentication required)
	public := router.Group("/api")
	{
		public.POST("/doctor/login", authHandler.DoctorLogin)
		public.POST("/patient/send-otp", patientAuthHandler.SendOTP)
		public.POST("/patient/verify-otp", patientAuthHandler.VerifyOTP)

		// Doctor directory for the booking flow
		public.GET("/doctors", doctorHandler.ListDoctors)
	}

	// Authenticated routes
	private := router.Group("/api")
	private.Use(middleware.AuthMiddleware(cfg))
	{
		doctorRoutes := private.Group("/doctor")
		doctorRoutes.Use(middleware.RequireKind(models.KindDoctor))
		{
			doctorRoutes.GET("/me", authHandler.DoctorMe)
			doctorRoutes.POST("/logout", authHandler.DoctorLogout)
		}

		patientRoutes := private.Group("/patient")
		patientRoutes.Use(middleware.RequireKind(models.KindPatient))
		{
			patientRoutes.GET("/me", patientAuthHandler.PatientMe)
			patientRoutes.GET("/appointments", patientAuthHandler.PatientAppointments)
		}

		// Appointment routes
		appointmentRoutes := private.Group("/appointments")
		{
			// Both kinds list their own appointments; ordering differs per kind
			appointmentRoutes.GET("", appointmentHandler.List)

			// Patients book for themselves
			appointmentRoutes.POST("", middleware.RequireKind(models.KindPatient), appointmentHandler.Create)

			// Doctors decide on their own pending requests
			appointmentRoutes.POST("/:id/approve", middleware.RequireKind(models.KindDoctor), appointmentHandler.Approve)
			appointmentRoutes.POST("/:id/reject", middleware.RequireKind(models.KindDoctor), appointmentHandler.Reject)

			// Patients cancel their own appointments
			appointmentRoutes.POST("/:id/cancel", middleware.RequireKind(models.KindPatient), appointmentHandler.Cancel)
		}
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}
