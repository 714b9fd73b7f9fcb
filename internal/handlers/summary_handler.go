package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"vaporscope-backend/configs"
	"vaporscope-backend/internal/models"
	"vaporscope-backend/internal/services"

	"github.com/gin-gonic/gin"
)

// UsageLedger charges one request against a per-user daily counter.
type UsageLedger interface {
	CheckAndIncrement(ctx context.Context, userID, day string, limit int) (allowed bool, newCount int, err error)
}

// SummaryStore is the persistent cache of computed summaries.
type SummaryStore interface {
	Get(ctx context.Context, appID string) (*models.Summary, error)
	PutIfAbsent(ctx context.Context, appID string, summary models.Summary) error
}

// Summarizer produces a fresh summary from raw review snippets.
type Summarizer interface {
	Summarize(ctx context.Context, appID string, reviews []string) (models.Summary, error)
}

type SummaryHandler struct {
	ledger     UsageLedger
	store      SummaryStore
	summarizer Summarizer
	now        func() time.Time
}

func NewSummaryHandler(ledger UsageLedger, store SummaryStore, summarizer Summarizer) *SummaryHandler {
	return &SummaryHandler{
		ledger:     ledger,
		store:      store,
		summarizer: summarizer,
		now:        time.Now,
	}
}

// Summarize handles a review-batch summarization request
// @Summary Summarize game reviews
// @Description Rate-limit, check the summary cache, and fall back to AI generation
// @Tags summaries
// @Accept json
// @Produce json
// @Param request body SummarizeRequest true "App id, review snippets, and optional installation id"
// @Success 200 {object} models.Summary
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} LimitResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/summarize [post]
func (h *SummaryHandler) Summarize(c *gin.Context) {
	var req SummarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	if len(req.Reviews) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "No reviews supplied"})
		return
	}

	// Intake is capped to the first N snippets.
	if max := configs.AppConfig.MaxReviews; max > 0 && len(req.Reviews) > max {
		req.Reviews = req.Reviews[:max]
	}

	ctx := c.Request.Context()

	// Quota is charged before the cache check: a cache hit still consumes
	// one scan. Callers without an installation id are not metered.
	if req.UserID != "" {
		day := services.DayKey(h.now())
		allowed, _, err := h.ledger.CheckAndIncrement(ctx, req.UserID, day, configs.AppConfig.DailyLimit)
		if err != nil {
			log.Printf("Usage ledger error for user %s: %v", req.UserID, err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Usage tracking unavailable"})
			return
		}
		if !allowed {
			c.JSON(http.StatusTooManyRequests, LimitResponse{
				Error:   "Daily demo limit reached. Come back tomorrow!",
				IsLimit: true,
			})
			return
		}
	}

	cached, err := h.store.Get(ctx, req.AppID)
	if err != nil {
		log.Printf("Summary store lookup failed for app %s: %v", req.AppID, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Summary store unavailable"})
		return
	}
	if cached != nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	summary, err := h.summarizer.Summarize(ctx, req.AppID, req.Reviews)
	if err != nil {
		log.Printf("Generation failed for app %s: %v", req.AppID, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	// Best-effort write-through; a conflict or storage hiccup must not fail
	// a request that already has its summary.
	if err := h.store.PutIfAbsent(ctx, req.AppID, summary); err != nil {
		log.Printf("Summary store write failed for app %s: %v", req.AppID, err)
	}

	c.JSON(http.StatusOK, summary)
}

// Request/Response structures
type SummarizeRequest struct {
	AppID   string   `json:"appId" binding:"required"`
	Reviews []string `json:"reviews"`
	UserID  string   `json:"userId"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type LimitResponse struct {
	Error   string `json:"error"`
	IsLimit bool   `json:"isLimit"`
}
