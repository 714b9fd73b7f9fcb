package services

import (
	"context"
	"errors"
	"time"

	"vaporscope-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DayKey formats a point in time as the calendar-day key used by the ledger.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// UsageService is the daily quota ledger. One row per (user, day); the row
// is only ever incremented, never decremented or deleted.
type UsageService struct {
	db *gorm.DB
}

func NewUsageService(db *gorm.DB) *UsageService {
	return &UsageService{db: db}
}

// CheckAndIncrement charges one request against the (userID, day) counter.
// The increment is a single conditional UPDATE guarded by request_count <
// limit, so two concurrent requests cannot both pass the check and push the
// counter past the limit, even across independent server instances. A
// request that would exceed the limit is rejected and not counted.
func (s *UsageService) CheckAndIncrement(ctx context.Context, userID, day string, limit int) (bool, int, error) {
	// Two attempts: the second covers losing an insert race on the first
	// request of the day.
	for attempt := 0; attempt < 2; attempt++ {
		res := s.db.WithContext(ctx).Model(&models.UsageRecord{}).
			Where("user_id = ? AND usage_date = ? AND request_count < ?", userID, day, limit).
			Update("request_count", gorm.Expr("request_count + 1"))
		if res.Error != nil {
			return false, 0, res.Error
		}
		if res.RowsAffected == 1 {
			var rec models.UsageRecord
			if err := s.db.WithContext(ctx).
				Where("user_id = ? AND usage_date = ?", userID, day).
				First(&rec).Error; err != nil {
				return false, 0, err
			}
			return true, rec.RequestCount, nil
		}

		// No row matched: either the record is absent or it is at the limit.
		var rec models.UsageRecord
		err := s.db.WithContext(ctx).
			Where("user_id = ? AND usage_date = ?", userID, day).
			First(&rec).Error
		if err == nil {
			return false, rec.RequestCount, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return false, 0, err
		}

		if limit <= 0 {
			return false, 0, nil
		}

		// First request of the day for this user.
		rec = models.UsageRecord{UserID: userID, UsageDate: day, RequestCount: 1}
		res = s.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&rec)
		if res.Error != nil {
			return false, 0, res.Error
		}
		if res.RowsAffected == 1 {
			return true, 1, nil
		}
		// Lost the insert race to a concurrent request; fall through to the
		// conditional update.
	}

	return false, 0, errors.New("usage ledger: upsert did not converge")
}
