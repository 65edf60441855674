package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ossi-voice/ossi/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordThenRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := model.ClassificationRecord{
		CallID:     "call-1",
		Intent:     model.IntentTriage,
		Confidence: 0.8,
		Reasoning:  "symptoms described",
		NextAction: "ask about duration",
		Keywords:   []string{"headache"},
		TokensUsed: 150,
		LatencyMS:  420.5,
	}
	if err := s.Record(ctx, rec); err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	r := got[0]
	if r.ID == 0 || r.CallID != "call-1" || r.Intent != model.IntentTriage {
		t.Errorf("record = %+v", r)
	}
	if r.Confidence != 0.8 || r.TokensUsed != 150 || r.Degraded {
		t.Errorf("record = %+v", r)
	}
	if len(r.Keywords) != 1 || r.Keywords[0] != "headache" {
		t.Errorf("Keywords = %v", r.Keywords)
	}
	if r.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestRecentNewestFirstAndLimited(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	for i, id := range []string{"a", "b", "c"} {
		rec := model.ClassificationRecord{
			CallID:    id,
			Intent:    model.IntentReceptionist,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.Record(ctx, rec); err != nil {
			t.Fatalf("Record %s: %v", id, err)
		}
	}

	got, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 || got[0].CallID != "c" || got[1].CallID != "b" {
		t.Fatalf("Recent = %+v", got)
	}
}

func TestDegradedRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	fb := model.FallbackClassification("Failed to parse AI response")
	rec := model.ClassificationRecord{
		CallID:     "call-9",
		Intent:     fb.Intent,
		Reasoning:  fb.Reasoning,
		NextAction: fb.NextAction,
		Degraded:   true,
	}
	if err := s.Record(ctx, rec); err != nil {
		t.Fatalf("Record: %v", err)
	}
	got, err := s.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if !got[0].Degraded || got[0].Intent != model.IntentEscalation || len(got[0].Keywords) != 0 {
		t.Errorf("record = %+v", got[0])
	}
}

func TestCleanupRemovesOldKeepsFresh(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := model.ClassificationRecord{CallID: "old", Intent: model.IntentTriage, CreatedAt: time.Now().Add(-48 * time.Hour)}
	if err := s.Record(ctx, old); err != nil {
		t.Fatalf("Record old: %v", err)
	}
	if err := s.Record(ctx, model.ClassificationRecord{CallID: "fresh", Intent: model.IntentTriage}); err != nil {
		t.Fatalf("Record fresh: %v", err)
	}

	removed, err := s.Cleanup(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	got, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 1 || got[0].CallID != "fresh" {
		t.Errorf("remaining = %+v", got)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "twice.db")
	for i := 0; i < 2; i++ {
		s, err := NewSQLiteStore(context.Background(), dbPath)
		if err != nil {
			t.Fatalf("open #%d: %v", i+1, err)
		}
		n, err := s.Count(context.Background())
		if err != nil {
			t.Fatalf("Count: %v", err)
		}
		if n != 0 {
			t.Errorf("Count = %d, want 0", n)
		}
		s.Close()
	}
}

func TestNopStore(t *testing.T) {
	var log model.ClassificationLog = NewNopStore()
	ctx := context.Background()

	if err := log.Record(ctx, model.ClassificationRecord{CallID: "c"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	recs, err := log.Recent(ctx, 10)
	if err != nil || len(recs) != 0 {
		t.Errorf("Recent = %v, %v, want empty", recs, err)
	}
	if n, err := log.Cleanup(ctx, time.Hour); err != nil || n != 0 {
		t.Errorf("Cleanup = %d, %v", n, err)
	}
}
