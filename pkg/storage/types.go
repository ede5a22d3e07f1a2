package storage

import (
	"time"

	"github.com/google/uuid"
)

// Outcome is how a streaming session ended.
type Outcome string

const (
	OutcomeStreaming Outcome = "streaming" // still running
	OutcomeClosed    Outcome = "closed"    // close frame or end of stream
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
)

// SessionSummary describes one run of the collector: what it subscribed to,
// how long it ran and how many frames of each kind it saw. It carries no
// order book data.
type SessionSummary struct {
	ID        uuid.UUID
	Symbol    string
	Channel   string
	URL       string
	StartedAt time.Time
	EndedAt   time.Time
	Outcome   Outcome
	Error     string

	TextFrames   int
	BinaryFrames int
	PingFrames   int
	PongFrames   int
	CloseFrames  int
	Books        int
	Unrecognized int
}

// NewSessionSummary starts a summary with a fresh ID.
func NewSessionSummary(symbol, channel, url string) *SessionSummary {
	return &SessionSummary{
		ID:        uuid.New(),
		Symbol:    symbol,
		Channel:   channel,
		URL:       url,
		StartedAt: time.Now().UTC(),
		Outcome:   OutcomeStreaming,
	}
}

// Duration is the session's wall-clock length, or zero while it is running.
func (s *SessionSummary) Duration() time.Duration {
	if s.EndedAt.IsZero() {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt)
}
