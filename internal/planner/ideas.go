package planner

import (
	"context"
	_ "embed"
	"log"
	"time"

	"passive-genius/internal/idea"
	"passive-genius/internal/llm"
	"passive-genius/internal/shared"
)

//go:embed ideas_prompt.md
var ideasPrompt string

const (
	ideasAgentName = "IdeaGenerator"
	ideasSystem    = "You are an expert business consultant and entrepreneur. You provide realistic, actionable, and data-backed business ideas."
)

type rawIdea struct {
	Title                   string   `json:"title"`
	Description             string   `json:"description"`
	Difficulty              string   `json:"difficulty"`
	EstimatedMonthlyRevenue string   `json:"estimatedMonthlyRevenue"`
	SetupCost               string   `json:"setupCost"`
	TimeToRevenue           string   `json:"timeToRevenue"`
	Tags                    []string `json:"tags"`
}

// GenerateIdeas asks the model for five ideas tailored to the profile.
// Any failure yields an empty list; the error is always nil so callers can
// treat "no ideas" uniformly.
func (p *Planner) GenerateIdeas(ctx context.Context, profile idea.UserProfile) ([]idea.IncomeIdea, error) {
	start := time.Now()
	meta := shared.AgentMeta{AgentName: ideasAgentName, Usage: shared.TokenUsage{Model: p.textGen.Model()}}
	fail := func(stage string, err error) ([]idea.IncomeIdea, error) {
		log.Printf("Failed to generate ideas (%s): %v", stage, err)
		meta.Latency = time.Since(start)
		meta.Outcome = shared.OutcomeFallback
		p.record(ctx, meta)
		return []idea.IncomeIdea{}, nil
	}

	user, err := renderPrompt("ideas", ideasPrompt, profile)
	if err != nil {
		return fail("prompt", err)
	}

	resp, err := p.textGen.GenerateContent(ctx, llm.Prompt{System: ideasSystem, User: user, Schema: ideasSchema})
	meta.Usage = resp.Usage
	if err != nil {
		return fail("request", err)
	}

	var raw []rawIdea
	if err := decode(resp.Content, ideasSchema, &raw); err != nil {
		return fail("response", err)
	}

	ideas := make([]idea.IncomeIdea, 0, len(raw))
	for _, r := range raw {
		ideas = append(ideas, idea.IncomeIdea{
			ID:                      p.newID(),
			Title:                   cleanText(r.Title),
			Description:             cleanText(r.Description),
			Difficulty:              idea.Difficulty(r.Difficulty),
			EstimatedMonthlyRevenue: cleanText(r.EstimatedMonthlyRevenue),
			SetupCost:               cleanText(r.SetupCost),
			TimeToRevenue:           cleanText(r.TimeToRevenue),
			Tags:                    cleanAll(r.Tags),
		})
	}

	meta.Latency = time.Since(start)
	meta.Outcome = shared.OutcomeSuccess
	p.record(ctx, meta)
	return ideas, nil
}
