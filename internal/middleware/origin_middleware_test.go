package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"vaporscope-backend/configs"

	"github.com/gin-gonic/gin"
)

const extensionOrigin = "chrome-extension://jjijnfboadbbebbbljkohheepooleinb"

func setupRouter(t *testing.T) (*gin.Engine, *int) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	saved := *configs.AppConfig
	configs.AppConfig.AllowedOrigin = extensionOrigin
	t.Cleanup(func() { *configs.AppConfig = saved })

	reached := 0
	router := gin.New()
	router.Use(OriginMiddleware())
	router.POST("/api/summarize", func(c *gin.Context) {
		reached++
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router, &reached
}

func TestOriginMiddleware(t *testing.T) {
	t.Run("forbidden origin", func(t *testing.T) {
		router, reached := setupRouter(t)

		req := httptest.NewRequest(http.MethodPost, "/api/summarize", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", w.Code)
		}
		if w.Body.String() != "Forbidden" {
			t.Fatalf("body = %q, want plain %q", w.Body.String(), "Forbidden")
		}
		if *reached != 0 {
			t.Fatal("forbidden request must not reach the handler")
		}
	})

	t.Run("extension origin allowed", func(t *testing.T) {
		router, reached := setupRouter(t)

		req := httptest.NewRequest(http.MethodPost, "/api/summarize", nil)
		req.Header.Set("Origin", extensionOrigin)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK || *reached != 1 {
			t.Fatalf("status = %d, reached = %d", w.Code, *reached)
		}
	})

	t.Run("localhost allowed for development", func(t *testing.T) {
		router, reached := setupRouter(t)

		req := httptest.NewRequest(http.MethodPost, "/api/summarize", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK || *reached != 1 {
			t.Fatalf("status = %d, reached = %d", w.Code, *reached)
		}
	})

	t.Run("no origin header allowed", func(t *testing.T) {
		router, reached := setupRouter(t)

		req := httptest.NewRequest(http.MethodPost, "/api/summarize", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK || *reached != 1 {
			t.Fatalf("status = %d, reached = %d", w.Code, *reached)
		}
	})

	t.Run("preflight", func(t *testing.T) {
		router, reached := setupRouter(t)
		router.OPTIONS("/api/summarize", func(c *gin.Context) {})

		req := httptest.NewRequest(http.MethodOptions, "/api/summarize", nil)
		req.Header.Set("Origin", extensionOrigin)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusNoContent {
			t.Fatalf("preflight status = %d, want 204", w.Code)
		}
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != extensionOrigin {
			t.Fatalf("Allow-Origin = %q", got)
		}
		if got := w.Header().Get("Access-Control-Allow-Methods"); got != "POST, OPTIONS" {
			t.Fatalf("Allow-Methods = %q", got)
		}
		if got := w.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type" {
			t.Fatalf("Allow-Headers = %q", got)
		}
		if *reached != 0 {
			t.Fatal("preflight must not reach the handler")
		}
	})
}

func TestMethodNotAllowed(t *testing.T) {
	router, reached := setupRouter(t)
	router.HandleMethodNotAllowed = true

	req := httptest.NewRequest(http.MethodGet, "/api/summarize", nil)
	req.Header.Set("Origin", extensionOrigin)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", w.Code)
	}
	if *reached != 0 {
		t.Fatal("wrong-method request must not reach the handler")
	}
}

func TestValidationMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(ValidationMiddleware())
	router.POST("/api/summarize", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("rejects non-json content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/summarize", nil)
		req.Header.Set("Content-Type", "text/plain")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
	})

	t.Run("accepts json content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/summarize", nil)
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
	})
}
