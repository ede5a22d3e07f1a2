package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

type MemoryStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]SessionSummary
	order    []uuid.UUID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[uuid.UUID]SessionSummary),
	}
}

func (m *MemoryStore) StartSession(_ context.Context, s *SessionSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[s.ID]; ok {
		return fmt.Errorf("session %s already started", s.ID)
	}
	m.sessions[s.ID] = *s
	m.order = append(m.order, s.ID)
	return nil
}

func (m *MemoryStore) FinishSession(_ context.Context, s *SessionSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[s.ID]; !ok {
		return fmt.Errorf("session %s not found", s.ID)
	}
	m.sessions[s.ID] = *s
	return nil
}

func (m *MemoryStore) GetSession(id uuid.UUID) (SessionSummary, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// GetSessions returns all sessions in start order.
func (m *MemoryStore) GetSessions() []SessionSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]SessionSummary, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.sessions[id])
	}
	return out
}
