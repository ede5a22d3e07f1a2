package storage

import "context"

// SessionStore records session summaries.
type SessionStore interface {
	StartSession(ctx context.Context, s *SessionSummary) error
	FinishSession(ctx context.Context, s *SessionSummary) error
}
