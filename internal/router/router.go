// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/javajoker/jingjai-backend/internal/config"
	"github.com/javajoker/jingjai-backend/internal/handlers"
	"github.com/javajoker/jingjai-backend/internal/middleware"
	"github.com/javajoker/jingjai-backend/internal/models"
	"github.com/javajoker/jingjai-backend/internal/services"
	"github.com/javajoker/jingjai-backend/internal/utils"
)

const version = "1.0.0"

// Dependencies are the external collaborators the API is built on.
type Dependencies struct {
	DB       *gorm.DB
	Config   *config.Config
	Gateway  services.PaymentGateway
	Identity services.IdentityProvider
	Storage  services.ObjectStorage
}

// Server is the assembled HTTP API together with the pieces that need a
// lifecycle.
type Server struct {
	Engine         *gin.Engine
	PaymentService *services.PaymentService
	RateLimiters   *middleware.RateLimiters
}

func Initialize(deps Dependencies) *Server {
	cfg := deps.Config
	db := deps.DB

	// Initialize services
	notificationService := services.NewNotificationService(cfg.Email, cfg.Frontend.BaseURL)
	catalogService := services.NewCatalogService(db, cfg.Catalog)
	paymentService := services.NewPaymentService(db, deps.Gateway, notificationService, cfg.Payment)
	profileService := services.NewProfileService(db, deps.Storage, notificationService, cfg.Payment.DefaultCurrency)
	authService := services.NewAuthService(db, cfg.JWT, deps.Identity, notificationService)
	adminService := services.NewAdminService(db)

	// Initialize handlers
	catalogHandler := handlers.NewCatalogHandler(catalogService, cfg.Catalog)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	profileHandler := handlers.NewProfileHandler(profileService)
	authenticationHandler := handlers.NewAuthenticationHandler(profileService)
	authHandler := handlers.NewAuthHandler(authService)
	adminHandler := handlers.NewAdminHandler(adminService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	limiters := middleware.NewRateLimiters(cfg.RateLimit)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.I18nMiddleware(cfg.I18n.DefaultLocale))
	r.Use(limiters.General.Middleware())
	r.Use(middleware.AuditLogMiddleware(adminService))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		status := "healthy"
		code := http.StatusOK
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":  status,
			"version": version,
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(limiters.Auth.Middleware())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/google", authHandler.GoogleLogin)
			auth.POST("/google/revoke", authHandler.GoogleRevoke)
			auth.POST("/logout", middleware.AuthRequired(), authHandler.Logout)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetCurrentUser)
		}

		// Catalog routes (public)
		brands := v1.Group("/brands")
		{
			brands.GET("", catalogHandler.ListBrands)
			brands.GET("/featured", catalogHandler.ListFeaturedBrands)
			brands.GET("/:id", catalogHandler.GetBrand)
			brands.GET("/:id/products", catalogHandler.ListBrandProducts)
			brands.GET("/:id/categories", catalogHandler.ListBrandCategories)
		}

		products := v1.Group("/products")
		{
			products.GET("/search", catalogHandler.SearchProducts)
			products.GET("/:id", catalogHandler.GetProduct)
		}

		// Payment routes
		payments := v1.Group("/payments")
		{
			payments.GET("/google-pay/config", paymentHandler.GetGooglePayConfig)

			protected := payments.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("/google-pay/payment", paymentHandler.CreateGooglePayPayment)
				protected.GET("/payment/:transaction_id", paymentHandler.GetPayment)
				protected.POST("/refund/:transaction_id", paymentHandler.RefundPayment)
				protected.GET("/history", paymentHandler.GetPaymentHistory)
			}
		}

		// Profile routes
		profile := v1.Group("/profile")
		profile.Use(middleware.AuthRequired())
		{
			profile.GET("/me", profileHandler.GetProfile)
			profile.PUT("/me", profileHandler.UpdateProfile)
			profile.DELETE("/me", profileHandler.DeleteAccount)
			profile.POST("/upload-photo", limiters.Upload.Middleware(), profileHandler.UploadPhoto)
			profile.GET("/stats", profileHandler.GetStats)
			profile.GET("/authentications", profileHandler.ListAuthentications)
			profile.POST("/authentications", profileHandler.CreateAuthentication)
			profile.GET("/settings", profileHandler.GetSettings)
			profile.PUT("/settings", profileHandler.UpdateSettings)
		}

		// Authenticator routes
		authentications := v1.Group("/authentications")
		authentications.Use(
			middleware.AuthRequired(),
			middleware.RoleRequired(models.UserTypeAuthenticator, models.UserTypeAdmin),
		)
		{
			authentications.POST("/:id/complete", authenticationHandler.Complete)
			authentications.POST("/:id/cancel", authenticationHandler.Cancel)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/dashboard/stats", adminHandler.GetDashboardStats)
			admin.GET("/payments", adminHandler.ListPayments)
			admin.GET("/audit-logs", adminHandler.ListAuditLogs)
		}
	}

	// Static file serving (for development)
	if cfg.Environment == "development" {
		r.Static("/uploads", "./uploads")
	}

	return &Server{
		Engine:         r,
		PaymentService: paymentService,
		RateLimiters:   limiters,
	}
}
