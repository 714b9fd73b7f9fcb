package main

import (
	"log"
	"os"

	"vaporscope-backend/configs"
	"vaporscope-backend/internal/identity"
	"vaporscope-backend/internal/relay"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using default configuration")
	}

	if err := configs.LoadConfig(); err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	provider := identity.NewProvider(identity.NewFileStore(configs.AppConfig.IdentityFile))
	bridge := relay.New(configs.AppConfig.BackendURL, provider, configs.AppConfig.UpstreamTimeout)

	if os.Getenv("GIN_MODE") != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	router.GET("/ws", bridge.HandleConnections)

	port := ":" + configs.AppConfig.RelayPort
	log.Printf("Relay starting on port %s", port)

	if err := router.Run(port); err != nil {
		log.Fatal("Failed to start relay:", err)
	}
}
