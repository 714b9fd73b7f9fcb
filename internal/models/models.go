package models

import "time"

// Usage Records (one row per user per day)
type UsageRecord struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	UserID       string `gorm:"type:varchar(100);uniqueIndex:idx_user_date;not null"`
	UsageDate    string `gorm:"type:varchar(10);uniqueIndex:idx_user_date;not null"`
	RequestCount int    `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (UsageRecord) TableName() string {
	return "usage_records"
}

// Game Summaries (at most one row per app id, never overwritten)
type GameSummary struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	AppID       string `gorm:"type:varchar(100);uniqueIndex;not null"`
	SummaryJSON string `gorm:"type:text;not null"`
	CreatedAt   time.Time
}

func (GameSummary) TableName() string {
	return "game_summaries"
}

// Summary is the structured verdict produced by generation or served from
// cache. Fields mirror the JSON contract with the extension UI; verdict is
// one of Buy, Wait, or Avoid, but the gateway does not enforce that.
type Summary struct {
	Verdict          string   `json:"verdict"`
	OneLiner         string   `json:"one_liner"`
	PerformanceScore int      `json:"performance_score"`
	Pros             []string `json:"pros"`
	Cons             []string `json:"cons"`
}
