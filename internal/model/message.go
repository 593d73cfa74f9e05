package model

import "time"

// Message is one half of a chat turn. Rows are append-only; created_at is
// assigned by the store at insert time and is the sole ordering key.
type Message struct {
	ID                uint      `gorm:"primaryKey" json:"-"`
	SessionIdentifier string    `gorm:"size:128;not null;index" json:"session_identifier"`
	Role              string    `gorm:"size:16;not null" json:"role"`
	MessageText       string    `gorm:"type:text;not null" json:"message_text"`
	CreatedAt         time.Time `gorm:"index" json:"created_time"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
