package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"passive-genius/internal/config"
	"passive-genius/internal/idea"
	"passive-genius/internal/session"
	"passive-genius/internal/storage"
)

type scriptedAdvisor struct {
	ideasCalls int
}

func (a *scriptedAdvisor) GenerateIdeas(ctx context.Context, p idea.UserProfile) ([]idea.IncomeIdea, error) {
	a.ideasCalls++
	return []idea.IncomeIdea{
		{ID: "i1", Title: "Notion Templates", Description: "Sell templates.", Difficulty: idea.DifficultyEasy},
	}, nil
}

func (a *scriptedAdvisor) GenerateQuestions(ctx context.Context, i idea.IncomeIdea) ([]string, error) {
	return []string{"Audience?"}, nil
}

func (a *scriptedAdvisor) GeneratePlan(ctx context.Context, i idea.IncomeIdea, p idea.UserProfile, ans idea.Answers) (*idea.DetailedPlan, error) {
	return &idea.DetailedPlan{
		Overview: "Overview for " + ans["Audience?"],
		Steps:    []idea.PlanStep{{Phase: "Setup", Tasks: []string{"Pick niche", "Build"}}},
		Projections: []idea.FinancialProjection{
			{Month: "Month 1", Revenue: 200, Expenses: 100, Profit: 100},
		},
	}, nil
}

func newTestMachine(t *testing.T, adv session.Advisor) (*session.Machine, *storage.Stores) {
	t.Helper()
	kv, err := storage.NewFileKV(filepath.Join(t.TempDir(), "store"))
	if err != nil {
		t.Fatal(err)
	}
	stores := storage.NewStores(kv)
	return session.NewMachine(context.Background(), "cli:test", adv, stores, 0), stores
}

func TestBrainstormFullFlow(t *testing.T) {
	adv := &scriptedAdvisor{}
	m, stores := newTestMachine(t, adv)
	outDir := t.TempDir()

	input := strings.Join([]string{
		"Design", "$500", "2", "AI", // profile
		"1",           // open idea
		"Freelancers", // answer
		"t 1 1",       // toggle first task
		"pdf",
		"back",
		"s 1",
		"q",
	}, "\n") + "\n"
	var out bytes.Buffer

	if err := NewBrainstorm(m, strings.NewReader(input), &out, outDir).Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v\n%s", err, out.String())
	}

	got := out.String()
	for _, want := range []string{
		"=== INCOME IDEAS ===",
		"Notion Templates (Easy)",
		"=== STRATEGY: Notion Templates ===",
		"Overview for Freelancers",
		"Progress: 50%",
		"Bye!",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected output to contain %q", want)
		}
	}

	if _, err := os.Stat(filepath.Join(outDir, "PassiveGenius_Notion_Templates.pdf")); err != nil {
		t.Errorf("Expected exported PDF: %v", err)
	}

	p := stores.Profile.Load(context.Background(), "cli:test")
	if p.TimeCommitment != idea.TimeUpTo10 || p.Interests != "AI" {
		t.Errorf("Expected profile to be persisted, got %+v", p)
	}
	if favs := stores.Favorites.Load(context.Background(), "cli:test"); len(favs) != 1 {
		t.Errorf("Expected one saved favorite, got %d", len(favs))
	}
	if prog := stores.Progress.Load(context.Background(), "cli:test", "i1"); !prog.Done(0, 0) {
		t.Error("Expected task progress to be persisted")
	}
}

func TestBrainstormKeepsStoredProfile(t *testing.T) {
	adv := &scriptedAdvisor{}
	m, _ := newTestMachine(t, adv)
	m.UpdateProfile(context.Background(), idea.UserProfile{Skills: "Code", Budget: "$0", TimeCommitment: idea.TimeOver20})

	// Blank answers keep the stored values; input ends at the idea list.
	var out bytes.Buffer
	if err := NewBrainstorm(m, strings.NewReader("\n\n\n\n"), &out, t.TempDir()).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if adv.ideasCalls != 1 {
		t.Errorf("Expected ideas to be generated once, got %d", adv.ideasCalls)
	}
	if !strings.Contains(out.String(), "Skills [Code]") {
		t.Errorf("Expected current value in prompt, got %q", out.String())
	}
}

func TestBrainstormRejectsBadTime(t *testing.T) {
	m, _ := newTestMachine(t, &scriptedAdvisor{})
	var out bytes.Buffer
	NewBrainstorm(m, strings.NewReader("Design\n$5\nforever\n"), &out, t.TempDir()).Run(context.Background())
	if !strings.Contains(out.String(), "Please pick one of the options.") {
		t.Errorf("Expected time validation message, got %q", out.String())
	}
}

func TestNewServices(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		AIProvider:       config.ProviderGroq,
		GroqAPIKey:       "test-key",
		GroqModel:        "llama-test",
		DatabasePath:     filepath.Join(dir, "pg.db"),
		StoreBackend:     config.BackendFile,
		StoreFilePath:    filepath.Join(dir, "store"),
		NotificationTTL:  time.Second,
		AIRequestTimeout: time.Second,
	}

	s, err := NewServices(context.Background(), cfg, Options{CachePath: filepath.Join(dir, "cache.json")})
	if err != nil {
		t.Fatalf("NewServices failed: %v", err)
	}
	if s.Sessions == nil || s.Hub == nil || s.Feedback == nil || s.Metrics == nil {
		t.Fatal("Expected all services to be wired")
	}
	if len(s.Hub.Channels("")) != 4 {
		t.Error("Expected the default community channels")
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}

	t.Run("UnreachableRedis", func(t *testing.T) {
		bad := *cfg
		bad.StoreBackend = config.BackendRedis
		bad.RedisAddr = "127.0.0.1:1"
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, err := NewServices(ctx, &bad, Options{})
		if err == nil || !strings.Contains(err.Error(), "failed to reach redis store backend") {
			t.Errorf("Expected redis startup check to fail, got %v", err)
		}
	})

	t.Run("BadChannelsFile", func(t *testing.T) {
		bad := *cfg
		bad.CommunityChannelsPath = filepath.Join(dir, "missing.yaml")
		if _, err := NewServices(context.Background(), &bad, Options{}); err == nil {
			t.Error("Expected error for missing channels file")
		}
	})
}
