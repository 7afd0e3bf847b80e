package tally

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/maheshwarip/naamjaap/internal/domain"
	"github.com/maheshwarip/naamjaap/internal/logger"
)

// mockStore records counter writes and can be told to fail.
type mockStore struct {
	mu     sync.Mutex
	states []domain.TallyState
	fail   bool
	slow   time.Duration
}

func (m *mockStore) SaveCounter(_ context.Context, state domain.TallyState) error {
	if m.slow > 0 {
		time.Sleep(m.slow)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("store down")
	}
	m.states = append(m.states, state)
	return nil
}

func (m *mockStore) LoadCounter(_ context.Context) (domain.TallyState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.states) == 0 {
		return domain.TallyState{}, nil
	}
	return m.states[len(m.states)-1], nil
}

func (m *mockStore) last() (domain.TallyState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.states) == 0 {
		return domain.TallyState{}, false
	}
	return m.states[len(m.states)-1], true
}

func (m *mockStore) setFail(fail bool) {
	m.mu.Lock()
	m.fail = fail
	m.mu.Unlock()
}

// mockDaily accumulates daily increments per date.
type mockDaily struct {
	mu   sync.Mutex
	days map[string]int
}

func newMockDaily() *mockDaily {
	return &mockDaily{days: make(map[string]int)}
}

func (m *mockDaily) AddDaily(_ context.Context, date string, n int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.days[date] += n
	return nil
}

func (m *mockDaily) Daily(_ context.Context, date string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.days[date], nil
}

func setupCounter(t *testing.T) (*Counter, *mockStore, *mockDaily) {
	t.Helper()
	log := logger.New(logger.LevelOff, nil)
	store := &mockStore{}
	daily := newMockDaily()
	return NewCounter(store, daily, log), store, daily
}

func TestMalaRollover(t *testing.T) {
	tests := []struct {
		name       string
		increments int
		wantCount  int
		wantMalas  int
	}{
		{"zero", 0, 0, 0},
		{"partial", 5, 5, 0},
		{"one short", 107, 107, 0},
		{"exactly one mala", 108, 0, 1},
		{"one past", 109, 1, 1},
		{"two malas plus", 250, 34, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _ := setupCounter(t)
			var state domain.TallyState
			for i := 0; i < tt.increments; i++ {
				state, _ = c.Increment()
			}
			if tt.increments == 0 {
				state = c.State()
			}
			if state.Count != tt.wantCount {
				t.Fatalf("count = %d, want %d", state.Count, tt.wantCount)
			}
			if state.MalaCount != tt.wantMalas {
				t.Fatalf("malaCount = %d, want %d", state.MalaCount, tt.wantMalas)
			}
			if state.TotalJapa() != tt.increments {
				t.Fatalf("totalJapa = %d, want %d", state.TotalJapa(), tt.increments)
			}
		})
	}
}

func TestRolloverSignaledOnce(t *testing.T) {
	c, _, _ := setupCounter(t)

	rollovers := 0
	for i := 0; i < 216; i++ {
		if _, rolled := c.Increment(); rolled {
			rollovers++
		}
	}
	if rollovers != 2 {
		t.Fatalf("expected exactly 2 rollovers in 216 increments, got %d", rollovers)
	}
}

func TestPersistCarriesLatestState(t *testing.T) {
	c, store, _ := setupCounter(t)

	for i := 0; i < 7; i++ {
		c.Increment()
	}
	c.Sync(time.Second)

	last, ok := store.last()
	if !ok {
		t.Fatal("no state persisted")
	}
	if last.Count != 7 {
		t.Fatalf("persisted count = %d, want 7", last.Count)
	}
}

func TestPersistFailureKeepsMemoryAuthoritative(t *testing.T) {
	c, store, _ := setupCounter(t)
	store.setFail(true)

	for i := 0; i < 3; i++ {
		c.Increment()
	}
	c.Sync(time.Second)

	if got := c.State().Count; got != 3 {
		t.Fatalf("in-memory count = %d, want 3 despite store failures", got)
	}

	// Recovery: the next increment's write carries the full latest state,
	// not a stale snapshot.
	store.setFail(false)
	c.Increment()
	c.Sync(time.Second)

	last, ok := store.last()
	if !ok {
		t.Fatal("no state persisted after recovery")
	}
	if last.Count != 4 {
		t.Fatalf("persisted count after recovery = %d, want 4", last.Count)
	}
}

func TestPersistCoalescesWrites(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	store := &mockStore{slow: 20 * time.Millisecond}
	c := NewCounter(store, newMockDaily(), log)

	// Burst of increments while the first write is still in flight.
	for i := 0; i < 50; i++ {
		c.Increment()
	}
	c.Sync(5 * time.Second)

	store.mu.Lock()
	writes := len(store.states)
	store.mu.Unlock()

	// Far fewer writes than increments, and the final write holds the
	// final state.
	if writes >= 50 {
		t.Fatalf("expected coalesced writes, got %d for 50 increments", writes)
	}
	last, _ := store.last()
	if last.Count != 50 {
		t.Fatalf("final persisted count = %d, want 50", last.Count)
	}
}

func TestDailyAggregate(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	store := &mockStore{}
	daily := newMockDaily()
	fixed := time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC)
	c := NewCounter(store, daily, log, WithClock(func() time.Time { return fixed }))

	for i := 0; i < 12; i++ {
		c.Increment()
	}
	c.Sync(time.Second)

	got, _ := daily.Daily(context.Background(), "2025-03-09")
	if got != 12 {
		t.Fatalf("daily aggregate = %d, want 12", got)
	}
	if c.Today() != 12 {
		t.Fatalf("in-memory today = %d, want 12", c.Today())
	}
}

func TestLoad(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	store := &mockStore{states: []domain.TallyState{{Count: 42, MalaCount: 3}}}
	daily := newMockDaily()
	fixed := time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC)
	daily.days["2025-03-09"] = 99

	c := NewCounter(store, daily, log, WithClock(func() time.Time { return fixed }))
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	if st := c.State(); st.Count != 42 || st.MalaCount != 3 {
		t.Fatalf("loaded state = %+v", st)
	}
	if c.Today() != 99 {
		t.Fatalf("loaded today = %d, want 99", c.Today())
	}
}
