package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"vaporscope-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SummaryCache is the read-through layer in front of the summary table.
// Satisfied by cache.CacheManager; nil disables the layer.
type SummaryCache interface {
	Get(key string, target interface{}) (bool, error)
	Set(key string, value interface{}, ttl time.Duration) error
}

// SummaryService stores computed summaries keyed by app id. A summary is
// written once and returned verbatim forever after; there is no refresh or
// invalidation path.
type SummaryService struct {
	db       *gorm.DB
	cache    SummaryCache
	cacheTTL time.Duration
}

func NewSummaryService(db *gorm.DB, c SummaryCache, cacheTTL time.Duration) *SummaryService {
	return &SummaryService{db: db, cache: c, cacheTTL: cacheTTL}
}

func cacheKey(appID string) string {
	return "summary:" + appID
}

// Get returns the stored summary for appID, or nil when none exists.
func (s *SummaryService) Get(ctx context.Context, appID string) (*models.Summary, error) {
	if s.cache != nil {
		var cached models.Summary
		if found, err := s.cache.Get(cacheKey(appID), &cached); found && err == nil {
			return &cached, nil
		}
	}

	var row models.GameSummary
	err := s.db.WithContext(ctx).Where("app_id = ?", appID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var summary models.Summary
	if err := json.Unmarshal([]byte(row.SummaryJSON), &summary); err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(cacheKey(appID), summary, s.cacheTTL)
	}

	return &summary, nil
}

// PutIfAbsent persists a freshly generated summary. First writer wins: a
// concurrent duplicate insert is swallowed by ON CONFLICT DO NOTHING.
func (s *SummaryService) PutIfAbsent(ctx context.Context, appID string, summary models.Summary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}

	row := models.GameSummary{AppID: appID, SummaryJSON: string(data)}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "app_id"}}, DoNothing: true}).
		Create(&row)
	if res.Error != nil {
		return res.Error
	}

	// Warm the read-through layer only when this writer won; a losing
	// duplicate must not shadow the row that actually persisted.
	if s.cache != nil && res.RowsAffected == 1 {
		s.cache.Set(cacheKey(appID), summary, s.cacheTTL)
	}

	return nil
}
