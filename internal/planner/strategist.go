package planner

import (
	"context"
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"time"

	"passive-genius/internal/idea"
	"passive-genius/internal/llm"
	"passive-genius/internal/shared"
)

//go:embed strategist_prompt.md
var strategistPrompt string

const (
	strategistAgentName = "Strategist"
	strategistSystem    = "You are a strategic business planner. Be specific, avoid fluff. Use realistic financial numbers based on the user's budget and skills."
)

type strategistPromptData struct {
	Idea    idea.IncomeIdea
	Profile idea.UserProfile
	Answers string
}

// GeneratePlan builds the launch plan for an idea. Unlike ideas and
// questions, failures are returned to the caller.
func (p *Planner) GeneratePlan(ctx context.Context, i idea.IncomeIdea, profile idea.UserProfile, answers idea.Answers) (*idea.DetailedPlan, error) {
	start := time.Now()
	meta := shared.AgentMeta{AgentName: strategistAgentName, Usage: shared.TokenUsage{Model: p.textGen.Model()}}
	fail := func(err error) (*idea.DetailedPlan, error) {
		meta.Latency = time.Since(start)
		meta.Outcome = shared.OutcomeError
		p.record(ctx, meta)
		return nil, err
	}

	user, err := renderPrompt("strategist", strategistPrompt, strategistPromptData{
		Idea:    i,
		Profile: profile,
		Answers: formatAnswers(answers),
	})
	if err != nil {
		return fail(fmt.Errorf("failed to build strategist prompt: %w", err))
	}

	resp, err := p.textGen.GenerateContent(ctx, llm.Prompt{System: strategistSystem, User: user, Schema: planSchema})
	meta.Usage = resp.Usage
	if err != nil {
		return fail(fmt.Errorf("failed to generate plan: %w", err))
	}

	var plan idea.DetailedPlan
	if err := decode(resp.Content, planSchema, &plan); err != nil {
		return fail(fmt.Errorf("failed to parse plan response: %w", err))
	}

	plan.IdeaID = i.ID
	plan.Overview = cleanText(plan.Overview)
	plan.MarketingStrategy = cleanText(plan.MarketingStrategy)
	for si := range plan.Steps {
		plan.Steps[si].Phase = cleanText(plan.Steps[si].Phase)
		plan.Steps[si].Tasks = cleanAll(plan.Steps[si].Tasks)
	}

	meta.Latency = time.Since(start)
	meta.Outcome = shared.OutcomeSuccess
	p.record(ctx, meta)
	return &plan, nil
}

// formatAnswers renders answers as "Q: ..\nA: .." blocks sorted by question.
func formatAnswers(answers idea.Answers) string {
	questions := make([]string, 0, len(answers))
	for q := range answers {
		questions = append(questions, q)
	}
	sort.Strings(questions)

	blocks := make([]string, 0, len(questions))
	for _, q := range questions {
		blocks = append(blocks, fmt.Sprintf("Q: %s\nA: %s", q, answers[q]))
	}
	return strings.Join(blocks, "\n\n")
}
