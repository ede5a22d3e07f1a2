package postgres

import (
	"context"
	"fmt"
	"time"

	"bookstream/pkg/storage"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"
)

var _ storage.SessionStore = (*PostgresClient)(nil)

func (p *PostgresClient) InsertSession(ctx context.Context, record *SessionRecord) error {
	tx := p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(record)

	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return fmt.Errorf("duplicate session skipped: id=%s", record.ID)
	}

	return nil
}

func (p *PostgresClient) GetSession(ctx context.Context, id uuid.UUID) (*SessionRecord, error) {
	var record SessionRecord
	err := p.DB.WithContext(ctx).
		Where("id = ?", id).
		First(&record).Error

	if err != nil {
		return nil, err
	}
	return &record, nil
}

// UpdateSession overwrites the outcome and counters of an existing session.
func (p *PostgresClient) UpdateSession(ctx context.Context, record *SessionRecord) error {
	tx := p.DB.WithContext(ctx).
		Model(&SessionRecord{}).
		Where("id = ?", record.ID).
		Updates(map[string]interface{}{
			"ended_at":      record.EndedAt,
			"outcome":       record.Outcome,
			"error":         record.Error,
			"text_frames":   record.TextFrames,
			"binary_frames": record.BinaryFrames,
			"ping_frames":   record.PingFrames,
			"pong_frames":   record.PongFrames,
			"close_frames":  record.CloseFrames,
			"books":         record.Books,
			"unrecognized":  record.Unrecognized,
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("session not found: id=%s", record.ID)
	}
	return nil
}

func (p *PostgresClient) DeleteOldSessions(ctx context.Context, before time.Time) error {
	return p.DB.WithContext(ctx).
		Where("started_at < ?", before).
		Delete(&SessionRecord{}).Error
}

// StartSession implements storage.SessionStore.
func (p *PostgresClient) StartSession(ctx context.Context, s *storage.SessionSummary) error {
	return p.InsertSession(ctx, ToSessionRecord(s))
}

// FinishSession implements storage.SessionStore.
func (p *PostgresClient) FinishSession(ctx context.Context, s *storage.SessionSummary) error {
	return p.UpdateSession(ctx, ToSessionRecord(s))
}

// ToSessionRecord converts a session summary into a SessionRecord for DB insertion.
func ToSessionRecord(s *storage.SessionSummary) *SessionRecord {
	record := &SessionRecord{
		ID:           s.ID,
		Symbol:       s.Symbol,
		Channel:      s.Channel,
		URL:          s.URL,
		StartedAt:    s.StartedAt,
		Outcome:      string(s.Outcome),
		Error:        s.Error,
		TextFrames:   s.TextFrames,
		BinaryFrames: s.BinaryFrames,
		PingFrames:   s.PingFrames,
		PongFrames:   s.PongFrames,
		CloseFrames:  s.CloseFrames,
		Books:        s.Books,
		Unrecognized: s.Unrecognized,
	}
	if !s.EndedAt.IsZero() {
		ended := s.EndedAt
		record.EndedAt = &ended
	}
	return record
}
