package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"antrelay/internal/model"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) InsertMessage(ctx context.Context, message *model.Message) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return fmt.Errorf("insert message failed: %w", err)
	}
	return nil
}

// ListBySession returns the most recent messages of one session, newest
// first. The id tiebreak keeps ordering stable for same-timestamp rows.
func (r *MessageRepository) ListBySession(ctx context.Context, sessionIdentifier string, limit int) ([]model.Message, error) {
	var messages []model.Message
	if err := r.db.WithContext(ctx).
		Where("session_identifier = ?", sessionIdentifier).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("list session messages failed: %w", err)
	}
	return messages, nil
}

// ListRecent returns the most recent messages across all sessions, newest
// first.
func (r *MessageRepository) ListRecent(ctx context.Context, limit int) ([]model.Message, error) {
	var messages []model.Message
	if err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("list recent messages failed: %w", err)
	}
	return messages, nil
}

// UpsertUsage overwrites the daily token tally for a session. Last write
// wins; callers treat any failure as non-fatal.
func (r *MessageRepository) UpsertUsage(ctx context.Context, sessionIdentifier, day string, tokensUsed int) error {
	counter := model.UsageCounter{
		SessionIdentifier: sessionIdentifier,
		Day:               day,
		TokensUsed:        tokensUsed,
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_identifier"}, {Name: "day"}},
		DoUpdates: clause.AssignmentColumns([]string{"tokens_used", "updated_at"}),
	}).Create(&counter).Error; err != nil {
		return fmt.Errorf("upsert usage counter failed: %w", err)
	}
	return nil
}
