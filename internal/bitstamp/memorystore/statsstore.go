package memorystore

import (
	"sync"

	"bookstream/pkg/bitstamp"
)

// SessionStats is a point-in-time copy of the session counters.
type SessionStats struct {
	Frames       map[bitstamp.FrameKind]int
	Books        int // order books rendered
	Unrecognized int // envelopes logged and skipped
}

// Frame returns the count for one frame kind.
func (s SessionStats) Frame(kind bitstamp.FrameKind) int {
	return s.Frames[kind]
}

type MemoryStatsStore struct {
	mu           sync.Mutex
	frames       map[bitstamp.FrameKind]int
	books        int
	unrecognized int
}

func NewStatsStore() *MemoryStatsStore {
	return &MemoryStatsStore{
		frames: make(map[bitstamp.FrameKind]int),
	}
}

func (s *MemoryStatsStore) AddFrame(kind bitstamp.FrameKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames[kind]++
}

func (s *MemoryStatsStore) AddBook() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books++
}

func (s *MemoryStatsStore) AddUnrecognized() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unrecognized++
}

func (s *MemoryStatsStore) Snapshot() SessionStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make(map[bitstamp.FrameKind]int, len(s.frames))
	for k, v := range s.frames {
		cp[k] = v
	}
	return SessionStats{
		Frames:       cp,
		Books:        s.books,
		Unrecognized: s.unrecognized,
	}
}

// CountAll returns the total number of frames received.
func (s *MemoryStatsStore) CountAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, n := range s.frames {
		total += n
	}
	return total
}
