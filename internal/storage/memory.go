// Package storage provides tally and history persistence implementations.
package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/maheshwarip/naamjaap/internal/domain"
	"github.com/maheshwarip/naamjaap/internal/logger"
)

// Compile-time interface checks.
var (
	_ domain.CounterStore   = (*MemoryStore)(nil)
	_ domain.DailyStatStore = (*MemoryStore)(nil)
	_ domain.HistoryStore   = (*MemoryStore)(nil)
)

// MemoryStore keeps the tally, daily stats, and session history in
// memory. Safe for concurrent access. Used when no database path is
// configured, and by tests.
type MemoryStore struct {
	mu       sync.RWMutex
	counter  domain.TallyState
	loaded   bool
	daily    map[string]int
	sessions []domain.SessionRecord
	log      *logger.Logger
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(log *logger.Logger) *MemoryStore {
	return &MemoryStore{
		daily: make(map[string]int),
		log:   log,
	}
}

// SaveCounter persists the tally. The latest write wins.
func (s *MemoryStore) SaveCounter(ctx context.Context, state domain.TallyState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Debug("saving counter (count=%d, malas=%d)", state.Count, state.MalaCount)
	s.counter = state
	s.loaded = true
	return nil
}

// LoadCounter retrieves the persisted tally. Returns ErrNotFound if no
// counter was ever written.
func (s *MemoryStore) LoadCounter(ctx context.Context) (domain.TallyState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.loaded {
		return domain.TallyState{}, domain.ErrNotFound
	}
	return s.counter, nil
}

// AddDaily increments the aggregate for a day, creating it if absent.
func (s *MemoryStore) AddDaily(ctx context.Context, date string, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.daily[date] += n
	return nil
}

// Daily returns the aggregate for a day, zero if none was recorded.
func (s *MemoryStore) Daily(ctx context.Context, date string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.daily[date], nil
}

// AppendSession adds a finished session to the history log.
func (s *MemoryStore) AppendSession(ctx context.Context, rec domain.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Debug("appending session %s (total=%d)", rec.ID, rec.TotalCount)
	s.sessions = append(s.sessions, rec)
	return nil
}

// ListSessions returns history entries, most recent first.
func (s *MemoryStore) ListSessions(ctx context.Context) ([]domain.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.SessionRecord, len(s.sessions))
	copy(out, s.sessions)
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartTime.After(out[j].StartTime)
	})
	return out, nil
}
