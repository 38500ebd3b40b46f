package planner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"passive-genius/internal/idea"
	"passive-genius/internal/llm"
	"passive-genius/internal/shared"
)

// MockTextGenerator answers by agent, recognised from the system instruction.
type MockTextGenerator struct {
	ideas     string
	questions string
	plan      string
	err       error
	prompts   []llm.Prompt
}

func (m *MockTextGenerator) Model() string { return "mock-model" }

func (m *MockTextGenerator) GenerateContent(ctx context.Context, p llm.Prompt) (llm.ContentResponse, error) {
	m.prompts = append(m.prompts, p)
	usage := shared.TokenUsage{PromptTokens: 10, CompletionTokens: 20, Model: "mock-model"}
	if m.err != nil {
		return llm.ContentResponse{Usage: usage}, m.err
	}
	switch p.System {
	case ideasSystem:
		return llm.ContentResponse{Content: m.ideas, Usage: usage}, nil
	case strategistSystem:
		return llm.ContentResponse{Content: m.plan, Usage: usage}, nil
	default:
		return llm.ContentResponse{Content: m.questions, Usage: usage}, nil
	}
}

type mockRecorder struct {
	mu    sync.Mutex
	metas []shared.AgentMeta
}

func (r *mockRecorder) RecordMeta(ctx context.Context, meta shared.AgentMeta) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metas = append(r.metas, meta)
	return nil
}

func (r *mockRecorder) last() shared.AgentMeta {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.metas[len(r.metas)-1]
}

const validIdeas = `[
  {"title":"Notion Templates","description":"Sell <b>productivity</b> templates.","difficulty":"Easy","estimatedMonthlyRevenue":"$200-$800","setupCost":"$0","timeToRevenue":"1 month","tags":["digital","templates"]},
  {"title":"Niche Newsletter","description":"Curated AI news.","difficulty":"Medium","estimatedMonthlyRevenue":"$500","setupCost":"$50","timeToRevenue":"3 months","tags":["media"]}
]`

const validPlan = "```json\n" + `{
  "ideaId": "model-made-this-up",
  "overview": "Launch a template shop.",
  "marketingStrategy": "Post on Reddit and X.",
  "steps": [
    {"phase": "Setup", "tasks": ["Pick niche", "Build 3 templates"]},
    {"phase": "Launch", "tasks": ["Open Gumroad store"]},
    {"phase": "Scale", "tasks": ["Bundle templates"]}
  ],
  "projections": [
    {"month": "Month 1", "revenue": 0, "expenses": 20, "profit": -20},
    {"month": "Month 2", "revenue": 150, "expenses": 20, "profit": 130}
  ]
}` + "\n```"

var profile = idea.UserProfile{Skills: "Design", Budget: "$100", TimeCommitment: idea.TimeUpTo5, Interests: "Productivity"}

func TestGenerateIdeas(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		gen := &MockTextGenerator{ideas: validIdeas}
		rec := &mockRecorder{}
		p := NewPlanner(gen, rec)

		ideas, err := p.GenerateIdeas(ctx, profile)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(ideas) != 2 {
			t.Fatalf("Expected 2 ideas, got %d", len(ideas))
		}
		if ideas[0].ID == "" || ideas[0].ID == ideas[1].ID {
			t.Errorf("Expected unique ids, got %q and %q", ideas[0].ID, ideas[1].ID)
		}
		if ideas[0].Description != "Sell productivity templates." {
			t.Errorf("Expected markup to be stripped, got %q", ideas[0].Description)
		}
		if ideas[1].Difficulty != idea.DifficultyMedium {
			t.Errorf("Expected Medium difficulty, got %s", ideas[1].Difficulty)
		}
		if !strings.Contains(gen.prompts[0].User, "Skills: Design") || gen.prompts[0].Schema != ideasSchema {
			t.Errorf("Prompt was not built from the profile: %q", gen.prompts[0].User)
		}
		if m := rec.last(); m.AgentName != ideasAgentName || m.Outcome != shared.OutcomeSuccess || m.Usage.PromptTokens != 10 {
			t.Errorf("Unexpected recorded meta %+v", m)
		}
	})

	t.Run("FreshIDsPerBatch", func(t *testing.T) {
		p := NewPlanner(&MockTextGenerator{ideas: validIdeas}, nil)
		first, _ := p.GenerateIdeas(ctx, profile)
		second, _ := p.GenerateIdeas(ctx, profile)
		if first[0].ID == second[0].ID {
			t.Error("Expected ids to differ across batches")
		}
	})

	failures := map[string]*MockTextGenerator{
		"TransportError": {err: errors.New("connection reset")},
		"EmptyText":      {ideas: ""},
		"MalformedJSON":  {ideas: `[{"title": "oops"`},
		"BadEnum":        {ideas: `[{"title":"a","description":"b","difficulty":"Trivial","estimatedMonthlyRevenue":"1","setupCost":"1","timeToRevenue":"1","tags":[]}]`},
		"MissingField":   {ideas: `[{"title":"a"}]`},
	}
	for name, gen := range failures {
		t.Run(name, func(t *testing.T) {
			rec := &mockRecorder{}
			ideas, err := NewPlanner(gen, rec).GenerateIdeas(ctx, profile)
			if err != nil {
				t.Fatalf("Expected nil error, got %v", err)
			}
			if ideas == nil || len(ideas) != 0 {
				t.Errorf("Expected empty non-nil list, got %v", ideas)
			}
			if rec.last().Outcome != shared.OutcomeFallback {
				t.Errorf("Expected fallback outcome, got %s", rec.last().Outcome)
			}
		})
	}
}

func TestGenerateQuestions(t *testing.T) {
	ctx := context.Background()
	target := idea.IncomeIdea{ID: "1", Title: "Notion Templates", Description: "Sell templates."}

	t.Run("Success", func(t *testing.T) {
		gen := &MockTextGenerator{questions: `{"questions":["Which niche?","Which platform?","Which niche?"]}`}
		qs, err := NewPlanner(gen, nil).GenerateQuestions(ctx, target)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(qs) != 2 || qs[0] != "Which niche?" || qs[1] != "Which platform?" {
			t.Errorf("Expected deduplicated questions, got %v", qs)
		}
		if !strings.Contains(gen.prompts[0].User, `"Notion Templates"`) {
			t.Errorf("Expected idea title in prompt, got %q", gen.prompts[0].User)
		}
	})

	cases := []struct {
		name string
		gen  *MockTextGenerator
		want []string
	}{
		{"EmptyText", &MockTextGenerator{questions: "   "}, EmptyAnswerQuestions},
		{"TransportError", &MockTextGenerator{err: errors.New("timeout")}, FailureQuestions},
		{"Malformed", &MockTextGenerator{questions: `{"questions": 3}`}, FailureQuestions},
		{"EmptyList", &MockTextGenerator{questions: `{"questions": []}`}, FailureQuestions},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			qs, err := NewPlanner(tc.gen, nil).GenerateQuestions(ctx, target)
			if err != nil {
				t.Fatalf("Expected nil error, got %v", err)
			}
			if strings.Join(qs, "|") != strings.Join(tc.want, "|") {
				t.Errorf("Expected %v, got %v", tc.want, qs)
			}
		})
	}

	t.Run("FallbackNotAliased", func(t *testing.T) {
		qs, _ := NewPlanner(&MockTextGenerator{err: errors.New("x")}, nil).GenerateQuestions(ctx, target)
		qs[0] = "mutated"
		if FailureQuestions[0] == "mutated" {
			t.Error("Fallback list was aliased")
		}
	})
}

func TestGeneratePlan(t *testing.T) {
	ctx := context.Background()
	target := idea.IncomeIdea{ID: "idea-42", Title: "Notion Templates", Description: "Sell templates."}

	t.Run("Success", func(t *testing.T) {
		gen := &MockTextGenerator{plan: validPlan}
		rec := &mockRecorder{}
		answers := idea.Answers{"Which niche?": "Students", "Budget split?": "All on ads"}

		plan, err := NewPlanner(gen, rec).GeneratePlan(ctx, target, profile, answers)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if plan.IdeaID != "idea-42" {
			t.Errorf("Expected idea id to be overwritten, got %q", plan.IdeaID)
		}
		if len(plan.Steps) != 3 || plan.TaskCount() != 4 {
			t.Errorf("Unexpected steps %+v", plan.Steps)
		}
		if plan.Projections[1].Profit != 130 {
			t.Errorf("Unexpected projections %+v", plan.Projections)
		}
		user := gen.prompts[0].User
		if !strings.Contains(user, "Q: Which niche?\nA: Students") || !strings.Contains(user, "Budget: $100") {
			t.Errorf("Prompt missing answers or profile:\n%s", user)
		}
		if rec.last().AgentName != strategistAgentName {
			t.Errorf("Unexpected meta %+v", rec.last())
		}
	})

	t.Run("NoAnswers", func(t *testing.T) {
		gen := &MockTextGenerator{plan: validPlan}
		if _, err := NewPlanner(gen, nil).GeneratePlan(ctx, target, profile, nil); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if !strings.Contains(gen.prompts[0].User, "None provided.") {
			t.Error("Expected placeholder for missing answers")
		}
	})

	t.Run("Errors", func(t *testing.T) {
		for name, gen := range map[string]*MockTextGenerator{
			"Transport": {err: errors.New("503")},
			"Empty":     {plan: ""},
			"Schema":    {plan: `{"overview":"x","marketingStrategy":"y","steps":[],"projections":[{"month":"M1","revenue":"lots","expenses":0,"profit":0}]}`},
		} {
			rec := &mockRecorder{}
			plan, err := NewPlanner(gen, rec).GeneratePlan(ctx, target, profile, nil)
			if err == nil || plan != nil {
				t.Errorf("%s: expected error, got plan=%v err=%v", name, plan, err)
			}
			if rec.last().Outcome != shared.OutcomeError {
				t.Errorf("%s: expected error outcome, got %s", name, rec.last().Outcome)
			}
		}
	})
}

func TestFormatAnswers(t *testing.T) {
	got := formatAnswers(idea.Answers{"B?": "2", "A?": "1"})
	want := "Q: A?\nA: 1\n\nQ: B?\nA: 2"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
	if formatAnswers(nil) != "" {
		t.Error("Expected empty string for no answers")
	}
}

func TestCleanText(t *testing.T) {
	cases := map[string]string{
		"  plain  ":                   "plain",
		"<p>Hello <em>world</em></p>": "Hello world",
		"Budget &lt; $500":            "Budget < $500",
		"< $500 setup":                "< $500 setup",
	}
	for in, want := range cases {
		if got := cleanText(in); got != want {
			t.Errorf("cleanText(%q) = %q, want %q", in, got, want)
		}
	}
}
