package postgres

import (
	"time"

	"github.com/google/uuid"
)

// SessionRecord is one collector session stored in the database.
type SessionRecord struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	Symbol  string `gorm:"type:text;not null;index:idx_session_symbol"`
	Channel string `gorm:"type:text;not null"`
	URL     string `gorm:"type:text;not null"`

	StartedAt time.Time `gorm:"not null;index:idx_session_started_at"`
	EndedAt   *time.Time

	Outcome string `gorm:"type:varchar(16);not null"`
	Error   string `gorm:"type:text"`

	TextFrames   int `gorm:"not null;default:0"`
	BinaryFrames int `gorm:"not null;default:0"`
	PingFrames   int `gorm:"not null;default:0"`
	PongFrames   int `gorm:"not null;default:0"`
	CloseFrames  int `gorm:"not null;default:0"`
	Books        int `gorm:"not null;default:0"`
	Unrecognized int `gorm:"not null;default:0"`

	RecordedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// TableName overrides the default table name for GORM.
func (SessionRecord) TableName() string {
	return "session_record"
}
