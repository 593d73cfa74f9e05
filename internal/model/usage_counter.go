package model

import "time"

// UsageCounter is a soft per-session daily token tally. The last upsert of
// the day wins; losing a write is acceptable.
type UsageCounter struct {
	SessionIdentifier string    `gorm:"size:128;primaryKey" json:"session_identifier"`
	Day               string    `gorm:"size:10;primaryKey" json:"day"`
	TokensUsed        int       `gorm:"not null" json:"tokens_used"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (UsageCounter) TableName() string { return "usage_counters" }
