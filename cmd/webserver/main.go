package main

import (
	"log"
	"os"
	"time"

	"vaporscope-backend/configs"
	"vaporscope-backend/internal/cache"
	"vaporscope-backend/internal/database"
	"vaporscope-backend/internal/handlers"
	"vaporscope-backend/internal/middleware"
	"vaporscope-backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// @title VaporScope Backend API
// @version 1.0
// @description Review summarization backend with daily quotas and a persistent summary cache

// @host localhost:8080
// @BasePath /api

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using default configuration")
	}

	// Load configuration
	if err := configs.LoadConfig(); err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize database
	db := database.GetDBManager().DB

	// Initialize cache
	cacheMgr := cache.GetCacheManager()

	// Initialize services
	usageService := services.NewUsageService(db)
	summaryService := services.NewSummaryService(db, cacheMgr, configs.AppConfig.CacheTTL)
	summarizer := services.NewSummarizerService(
		configs.AppConfig.GeminiBaseURL,
		configs.AppConfig.GeminiAPIKey,
		configs.AppConfig.GeminiModel,
		configs.AppConfig.UpstreamTimeout,
	)

	// Initialize handlers
	summaryHandler := handlers.NewSummaryHandler(usageService, summaryService, summarizer)

	// Setup Gin router
	if os.Getenv("GIN_MODE") != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	router.HandleMethodNotAllowed = true

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.OriginMiddleware())
	router.Use(middleware.ValidationMiddleware())

	// API routes
	router.POST("/api/summarize", summaryHandler.Summarize)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Unix(),
			"services": map[string]string{
				"database": "connected",
				"redis": func() string {
					if cacheMgr.IsAvailable() {
						return "connected"
					} else {
						return "local_cache_only"
					}
				}(),
			},
		})
	})

	// Start server
	port := ":" + configs.AppConfig.ServerPort
	log.Printf("Server starting on port %s", port)

	if err := router.Run(port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
