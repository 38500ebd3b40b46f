package llm

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"passive-genius/internal/shared"
)

type countingGenerator struct {
	calls   int
	content string
	err     error
}

func (g *countingGenerator) Model() string { return "counting" }

func (g *countingGenerator) GenerateContent(ctx context.Context, p Prompt) (ContentResponse, error) {
	g.calls++
	return ContentResponse{Content: g.content, Usage: shared.TokenUsage{Model: "counting"}}, g.err
}

func TestCachedGenerator(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache", "responses.json")

	real := &countingGenerator{content: `{"ok":true}`}
	c, err := NewCachedGenerator(real, path)
	if err != nil {
		t.Fatalf("NewCachedGenerator failed: %v", err)
	}

	p := Prompt{System: "sys", User: "ideas please"}
	for i := 0; i < 3; i++ {
		resp, err := c.GenerateContent(ctx, p)
		if err != nil || resp.Content != `{"ok":true}` {
			t.Fatalf("Unexpected response %v, %v", resp, err)
		}
	}
	if real.calls != 1 {
		t.Errorf("Expected 1 real call, got %d", real.calls)
	}

	if _, err := c.GenerateContent(ctx, Prompt{System: "sys", User: "other"}); err != nil {
		t.Fatal(err)
	}
	if real.calls != 2 {
		t.Errorf("Expected a miss for a different prompt, got %d calls", real.calls)
	}

	t.Run("PersistsAcrossInstances", func(t *testing.T) {
		if err := c.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
		fresh := &countingGenerator{content: "unused"}
		c2, err := NewCachedGenerator(fresh, path)
		if err != nil {
			t.Fatal(err)
		}
		resp, _ := c2.GenerateContent(ctx, p)
		if resp.Content != `{"ok":true}` || fresh.calls != 0 {
			t.Errorf("Expected cached replay, got %q with %d calls", resp.Content, fresh.calls)
		}
	})

	t.Run("ErrorsNotCached", func(t *testing.T) {
		failing := &countingGenerator{err: errors.New("boom")}
		c3, _ := NewCachedGenerator(failing, filepath.Join(t.TempDir(), "c.json"))
		_, _ = c3.GenerateContent(ctx, p)
		_, _ = c3.GenerateContent(ctx, p)
		if failing.calls != 2 {
			t.Errorf("Expected errors to bypass the cache, got %d calls", failing.calls)
		}
	})
}
