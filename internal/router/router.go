// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/openshelf/shop-backend/internal/config"
	"github.com/openshelf/shop-backend/internal/handlers"
	"github.com/openshelf/shop-backend/internal/middleware"
	"github.com/openshelf/shop-backend/internal/services"
	"github.com/openshelf/shop-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	inventoryService := services.NewInventoryService(db)
	pricingEngine := services.NewPricingEngine(cfg.Pricing)
	orderService := services.NewOrderService(db, inventoryService, pricingEngine)
	productService := services.NewProductService(db)
	authService := services.NewAuthService(db, cfg)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService)
	orderHandler := handlers.NewOrderHandler(orderService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(middleware.GeneralRateLimit())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		// Product routes
		products := v1.Group("/products")
		{
			products.GET("", middleware.OptionalAuth(), productHandler.GetProducts)
			products.GET("/featured", productHandler.GetFeaturedProducts)
			products.GET("/new-arrivals", productHandler.GetNewArrivals)
			products.GET("/sale", productHandler.GetSaleProducts)
			products.GET("/:id", productHandler.GetProduct)

			products.POST("/:id/rating", middleware.AuthRequired(), productHandler.RateProduct)

			// Admin catalog management
			admin := products.Group("")
			admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
			{
				admin.POST("", productHandler.CreateProduct)
				admin.PUT("/:id", productHandler.UpdateProduct)
				admin.DELETE("/:id", productHandler.DeleteProduct)
				admin.POST("/:id/tags", productHandler.AddTags)
				admin.DELETE("/:id/tags", productHandler.RemoveTags)
			}
		}

		// Order routes
		orders := v1.Group("/orders")
		orders.Use(middleware.AuthRequired())
		{
			orders.POST("", middleware.OrderRateLimit(), orderHandler.CreateOrder)
			orders.GET("/my", orderHandler.GetMyOrders)
			orders.GET("/:id", orderHandler.GetOrder)

			// Admin order management
			admin := orders.Group("")
			admin.Use(middleware.AdminRequired())
			{
				admin.GET("", orderHandler.GetOrders)
				admin.PUT("/:id/status", orderHandler.UpdateOrderStatus)
				admin.PUT("/:id/payment", orderHandler.UpdateOrderPayment)
			}
		}
	}

	return r
}
