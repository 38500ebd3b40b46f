package planner

import (
	"context"
	_ "embed"
	"errors"
	"log"
	"time"

	"passive-genius/internal/idea"
	"passive-genius/internal/llm"
	"passive-genius/internal/shared"
)

//go:embed questions_prompt.md
var questionsPrompt string

const questionsAgentName = "RefinementInterviewer"

var (
	// EmptyAnswerQuestions are asked when the model returned no text at all.
	EmptyAnswerQuestions = []string{
		"What is your target audience?",
		"Do you have existing tools?",
		"What is your main goal?",
	}
	// FailureQuestions are asked when the request or its payload failed.
	FailureQuestions = []string{
		"What specific niche do you want to target?",
		"How do you plan to find your first customer?",
		"Do you have any existing audience?",
	}
)

type rawQuestions struct {
	Questions []string `json:"questions"`
}

// GenerateQuestions asks for three refinement questions about the idea.
// The result is never empty: failures fall back to fixed question sets.
func (p *Planner) GenerateQuestions(ctx context.Context, i idea.IncomeIdea) ([]string, error) {
	start := time.Now()
	meta := shared.AgentMeta{AgentName: questionsAgentName, Usage: shared.TokenUsage{Model: p.textGen.Model()}}
	fallback := func(stage string, err error, questions []string) ([]string, error) {
		log.Printf("Failed to generate questions (%s): %v", stage, err)
		meta.Latency = time.Since(start)
		meta.Outcome = shared.OutcomeFallback
		p.record(ctx, meta)
		return append([]string(nil), questions...), nil
	}

	user, err := renderPrompt("questions", questionsPrompt, i)
	if err != nil {
		return fallback("prompt", err, FailureQuestions)
	}

	resp, err := p.textGen.GenerateContent(ctx, llm.Prompt{User: user, Schema: questionsSchema})
	meta.Usage = resp.Usage
	if err != nil {
		return fallback("request", err, FailureQuestions)
	}

	var raw rawQuestions
	if err := decode(resp.Content, questionsSchema, &raw); err != nil {
		if errors.Is(err, llm.ErrEmptyResponse) {
			return fallback("response", err, EmptyAnswerQuestions)
		}
		return fallback("response", err, FailureQuestions)
	}

	questions := dedupe(cleanAll(raw.Questions))
	if len(questions) == 0 {
		return fallback("response", errors.New("no questions returned"), FailureQuestions)
	}

	meta.Latency = time.Since(start)
	meta.Outcome = shared.OutcomeSuccess
	p.record(ctx, meta)
	return questions, nil
}

// dedupe drops repeated questions; answers are keyed by question text.
func dedupe(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := list[:0]
	for _, q := range list {
		if _, ok := seen[q]; ok {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}
	return out
}
