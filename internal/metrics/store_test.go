package metrics

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"passive-genius/internal/database"
	"passive-genius/internal/shared"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "metrics.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db.SQL)
}

func TestStore(t *testing.T) {
	ctx := context.Background()

	t.Run("RecordAndDailyUsage", func(t *testing.T) {
		s := newTestStore(t)
		meta := shared.AgentMeta{
			AgentName: "IdeaGenerator",
			Usage:     shared.TokenUsage{PromptTokens: 100, CompletionTokens: 50, Model: "gemini-2.5-flash"},
			Latency:   1200 * time.Millisecond,
			Outcome:   shared.OutcomeSuccess,
		}
		if err := s.RecordMeta(ctx, meta); err != nil {
			t.Fatalf("RecordMeta failed: %v", err)
		}
		meta.Outcome = shared.OutcomeFallback
		meta.Usage = shared.TokenUsage{}
		if err := s.RecordMeta(ctx, meta); err != nil {
			t.Fatalf("RecordMeta failed: %v", err)
		}

		usage, err := s.GetDailyUsage(ctx, 1)
		if err != nil {
			t.Fatalf("GetDailyUsage failed: %v", err)
		}
		if len(usage) != 1 {
			t.Fatalf("Expected 1 day of usage, got %d", len(usage))
		}
		u := usage[0]
		if u.TotalPrompt != 100 || u.TotalCompletion != 50 || u.TotalExecution != 2 || u.Fallbacks != 1 {
			t.Errorf("Unexpected usage %+v", u)
		}
	})

	t.Run("SkipsEmptySuccess", func(t *testing.T) {
		s := newTestStore(t)
		if err := s.RecordMeta(ctx, shared.AgentMeta{AgentName: "x", Outcome: shared.OutcomeSuccess}); err != nil {
			t.Fatal(err)
		}
		usage, _ := s.GetDailyUsage(ctx, 1)
		if len(usage) != 0 {
			t.Errorf("Expected nothing persisted, got %v", usage)
		}
	})

	t.Run("Cleanup", func(t *testing.T) {
		s := newTestStore(t)
		old := ExecutionMetric{AgentName: "old", PromptTokens: 1, Timestamp: time.Now().UTC().AddDate(0, 0, -40)}
		recent := ExecutionMetric{AgentName: "recent", PromptTokens: 1}
		if err := s.Record(ctx, old); err != nil {
			t.Fatal(err)
		}
		if err := s.Record(ctx, recent); err != nil {
			t.Fatal(err)
		}

		n, err := s.Cleanup(ctx, 30)
		if err != nil {
			t.Fatalf("Cleanup failed: %v", err)
		}
		if n != 1 {
			t.Errorf("Expected 1 row removed, got %d", n)
		}
	})
}

func TestGetSysHealth(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.bin"), make([]byte, 2048), 0644); err != nil {
		t.Fatal(err)
	}
	h := GetSysHealth(dir)
	if h.Status != "ok" || h.Goroutines == 0 {
		t.Errorf("Unexpected health %+v", h)
	}
	if h.DataDiskSize != "2.0 KB" {
		t.Errorf("Expected 2.0 KB, got %s", h.DataDiskSize)
	}
}

func TestFormatBytes(t *testing.T) {
	cases := map[int64]string{0: "0 B", 1023: "1023 B", 1536: "1.5 KB", 5 * 1024 * 1024: "5.0 MB"}
	for in, want := range cases {
		if got := formatBytes(in); got != want {
			t.Errorf("formatBytes(%d) = %s, want %s", in, got, want)
		}
	}
}
