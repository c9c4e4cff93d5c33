package main

import (
	"log"
	"net/http"

	"github.com/Returnacy/chepizzadasalva-sub000/config"
	"github.com/Returnacy/chepizzadasalva-sub000/database"
	"github.com/Returnacy/chepizzadasalva-sub000/handlers"
	"github.com/Returnacy/chepizzadasalva-sub000/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

func main() {
	// Load configuration
	if err := config.Load(); err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Connect to database
	db, err := database.Connect(config.AppConfig.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	// Initialize tables
	if err := db.InitializeTables(); err != nil {
		log.Fatal("Failed to initialize tables:", err)
	}

	repo := database.NewRepository(db)

	// Counter reconciliation against the user-service is best-effort and
	// optional: without a configured URL every push is dropped
	var syncer services.CounterSyncer = services.DisabledSyncer{}
	if config.AppConfig.UserServiceURL != "" && config.AppConfig.OAuthTokenURL != "" {
		tokens := services.NewTokenProvider(
			config.AppConfig.OAuthTokenURL,
			config.AppConfig.OAuthClientID,
			config.AppConfig.OAuthClientSecret,
		)
		syncer = services.NewUserServiceClient(config.AppConfig.UserServiceURL, tokens)
	} else {
		log.Println("USER_SERVICE_URL not set, counter sync disabled")
	}

	engine := services.NewStampEngine(repo, repo, repo, repo, syncer)
	couponSvc := services.NewCouponService(repo)

	// Set Gin mode
	if config.AppConfig.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.Default()

	// Add CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "chepizzadasalva business service is running",
		})
	})

	// Initialize handlers
	handlers.InitializeHandlers(db, repo, engine, couponSvc, repo)

	// API routes
	api := router.Group("/api/v1")
	{
		// Staff authentication routes
		staff := api.Group("/staff")
		{
			staff.POST("/signup", handlers.StaffSignup)
			staff.POST("/login", handlers.StaffLogin)
		}

		// Business provisioning and lookup
		businesses := api.Group("/businesses")
		{
			businesses.POST("/", handlers.AuthMiddleware(), handlers.StaffMiddleware(), handlers.ProvisionBusiness)
			businesses.GET("/:businessId", handlers.GetBusiness)

			// Progression query (public to the frontend)
			businesses.GET("/:businessId/progression", handlers.GetProgression)

			// Prize management
			businesses.GET("/:businessId/prizes", handlers.GetPrizes)
			businesses.POST("/:businessId/prizes", handlers.AuthMiddleware(), handlers.StaffMiddleware(), handlers.CreatePrize)

			// Stamp application and legacy single-stamp redemption
			businesses.POST("/:businessId/users/:userId/stamps", handlers.AuthMiddleware(), handlers.StaffMiddleware(), handlers.ApplyStamps)
			businesses.POST("/:businessId/users/:userId/stamps/redeem", handlers.AuthMiddleware(), handlers.StaffMiddleware(), handlers.RedeemSingleStamp)

			// Coupon listing and lookup
			businesses.GET("/:businessId/users/:userId/coupons", handlers.AuthMiddleware(), handlers.GetUserCoupons)
			businesses.GET("/:businessId/users/:userId/coupons/active", handlers.AuthMiddleware(), handlers.GetActiveCoupons)
			businesses.GET("/:businessId/coupons/lookup", handlers.AuthMiddleware(), handlers.StaffMiddleware(), handlers.LookupCoupon)
		}

		// Prize management by prize id
		prizes := api.Group("/prizes")
		prizes.Use(handlers.AuthMiddleware(), handlers.StaffMiddleware())
		{
			prizes.PUT("/:id", handlers.UpdatePrize)
			prizes.DELETE("/:id", handlers.DeletePrize)
		}

		// Coupon redemption
		coupons := api.Group("/coupons")
		coupons.Use(handlers.AuthMiddleware(), handlers.StaffMiddleware())
		{
			coupons.POST("/:id/redeem", handlers.RedeemCoupon)
		}

		// CRM routes (staff only)
		crm := api.Group("/admin/crm")
		crm.Use(handlers.AuthMiddleware(), handlers.StaffMiddleware())
		{
			crm.GET("/customers", handlers.GetLoyaltyCustomers)
			crm.GET("/stats", handlers.GetCRMStats)
		}
	}

	// Start server
	log.Printf("Starting business service on 0.0.0.0:%s", config.AppConfig.ServerPort)
	log.Fatal(http.ListenAndServe("0.0.0.0:"+config.AppConfig.ServerPort, c.Handler(router)))
}
