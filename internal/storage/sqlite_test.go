package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/maheshwarip/naamjaap/internal/domain"
	"github.com/maheshwarip/naamjaap/internal/logger"
)

func openTestStore(t *testing.T, userID string) *SQLiteStore {
	t.Helper()
	log := logger.New(logger.LevelOff, nil)
	path := filepath.Join(t.TempDir(), "naamjaap.db")
	store, err := OpenSQLite(path, userID, log)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	})
	return store
}

func TestSQLiteCounterRoundTrip(t *testing.T) {
	store := openTestStore(t, "local")
	ctx := context.Background()

	if _, err := store.LoadCounter(ctx); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound on fresh db, got %v", err)
	}

	if err := store.SaveCounter(ctx, domain.TallyState{Count: 45, MalaCount: 2}); err != nil {
		t.Fatalf("save: %v", err)
	}
	// Upsert replaces the previous row.
	if err := store.SaveCounter(ctx, domain.TallyState{Count: 46, MalaCount: 2}); err != nil {
		t.Fatalf("save: %v", err)
	}

	state, err := store.LoadCounter(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if state.Count != 46 || state.MalaCount != 2 {
		t.Fatalf("got %+v, want count=46 malas=2", state)
	}
}

func TestSQLiteCounterScopedByUser(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	path := filepath.Join(t.TempDir(), "shared.db")
	ctx := context.Background()

	a, err := OpenSQLite(path, "a", log)
	if err != nil {
		t.Fatalf("open a: %v", err)
	}
	defer a.Close()
	b, err := OpenSQLite(path, "b", log)
	if err != nil {
		t.Fatalf("open b: %v", err)
	}
	defer b.Close()

	if err := a.SaveCounter(ctx, domain.TallyState{Count: 10}); err != nil {
		t.Fatalf("save a: %v", err)
	}
	if _, err := b.LoadCounter(ctx); err != domain.ErrNotFound {
		t.Fatalf("user b must not see user a's counter, got %v", err)
	}
}

func TestSQLiteDailyIncrementOrCreate(t *testing.T) {
	store := openTestStore(t, "local")
	ctx := context.Background()

	n, err := store.Daily(ctx, "2026-05-01")
	if err != nil {
		t.Fatalf("daily: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 for unrecorded day, got %d", n)
	}

	if err := store.AddDaily(ctx, "2026-05-01", 54); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.AddDaily(ctx, "2026-05-01", 54); err != nil {
		t.Fatalf("add: %v", err)
	}

	n, err = store.Daily(ctx, "2026-05-01")
	if err != nil {
		t.Fatalf("daily: %v", err)
	}
	if n != 108 {
		t.Fatalf("expected 108, got %d", n)
	}
}

func TestSQLiteSessionHistory(t *testing.T) {
	store := openTestStore(t, "local")
	ctx := context.Background()

	base := time.Date(2026, 5, 2, 5, 30, 0, 0, time.UTC)
	recs := []domain.SessionRecord{
		{ID: "s-1", StartTime: base, EndTime: base.Add(20 * time.Minute), TotalCount: 108, MalaCount: 1, ChantText: "ॐ नमः शिवाय"},
		{ID: "s-2", StartTime: base.Add(time.Hour), EndTime: base.Add(90 * time.Minute), TotalCount: 216, MalaCount: 2, ChantText: "राधा राधा"},
	}
	for _, rec := range recs {
		if err := store.AppendSession(ctx, rec); err != nil {
			t.Fatalf("append %s: %v", rec.ID, err)
		}
	}

	got, err := store.ListSessions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(got))
	}
	// Most recent first.
	if got[0].ID != "s-2" {
		t.Fatalf("expected s-2 first, got %s", got[0].ID)
	}
	if got[0].ChantText != "राधा राधा" || got[0].TotalCount != 216 {
		t.Fatalf("round-trip mismatch: %+v", got[0])
	}
	if !got[1].StartTime.Equal(base) {
		t.Fatalf("start time mismatch: %v", got[1].StartTime)
	}
}
