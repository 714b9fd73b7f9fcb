package middleware

import (
	"net/http"
	"strings"

	"vaporscope-backend/configs"

	"github.com/gin-gonic/gin"
)

// OriginMiddleware gates every request on the caller's declared Origin and
// answers CORS preflights. Only the extension origin and local development
// origins get through; requests with no Origin header (curl, server-side
// callers) are allowed, matching browser-less access.
func OriginMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed := configs.AppConfig.AllowedOrigin

		c.Writer.Header().Set("Access-Control-Allow-Origin", allowed)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		origin := c.GetHeader("Origin")
		if origin != "" && origin != allowed && !strings.Contains(origin, "localhost") {
			c.String(http.StatusForbidden, "Forbidden")
			c.Abort()
			return
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func ValidationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Content-Type validation for POST requests
		if c.Request.Method == http.MethodPost {
			contentType := c.GetHeader("Content-Type")
			if !strings.Contains(contentType, "application/json") {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Content-Type must be application/json"})
				c.Abort()
				return
			}
		}
		c.Next()
	}
}
