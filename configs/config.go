package configs

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort      string
	DatabaseURL     string
	RedisURL        string
	GeminiAPIKey    string
	GeminiModel     string
	GeminiBaseURL   string
	DailyLimit      int
	MaxReviews      int
	AllowedOrigin   string
	CacheTTL        time.Duration
	UpstreamTimeout time.Duration
	BackendURL      string
	RelayPort       string
	IdentityFile    string
}

var AppConfig *Config

func LoadConfig() error {

	godotenv.Load()

	AppConfig = &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		DatabaseURL:     getEnv("DATABASE_URL", "root:password@tcp(localhost:3306)/vaporscope?charset=utf8mb4&parseTime=True&loc=Local"),
		RedisURL:        getEnv("REDIS_URL", "localhost:6379"),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiBaseURL:   getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		DailyLimit:      parseInt(getEnv("DAILY_LIMIT", "10")),
		MaxReviews:      parseInt(getEnv("MAX_REVIEWS", "10")),
		AllowedOrigin:   getEnv("ALLOWED_ORIGIN", "chrome-extension://jjijnfboadbbebbbljkohheepooleinb"),
		CacheTTL:        parseDuration(getEnv("CACHE_TTL", "1h")),
		UpstreamTimeout: parseDuration(getEnv("UPSTREAM_TIMEOUT", "60s")),
		BackendURL:      getEnv("BACKEND_URL", "http://localhost:8080/api/summarize"),
		RelayPort:       getEnv("RELAY_PORT", "8090"),
		IdentityFile:    getEnv("IDENTITY_FILE", "identity.json"),
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return i
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Hour
	}
	return d
}

func init() {
	if err := LoadConfig(); err != nil {
		log.Fatal("Failed to load config:", err)
	}
}
