package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"text/template"

	"passive-genius/internal/llm"
	"passive-genius/internal/shared"

	"github.com/google/uuid"
)

// Recorder persists agent execution metadata.
type Recorder interface {
	RecordMeta(ctx context.Context, meta shared.AgentMeta) error
}

// Planner is the AI gateway: it turns profiles and ideas into prompts,
// calls the text generator and validates what comes back.
type Planner struct {
	textGen  llm.TextGenerator
	recorder Recorder
	newID    func() string
}

// NewPlanner creates a new Planner instance. recorder may be nil.
func NewPlanner(textGen llm.TextGenerator, recorder Recorder) *Planner {
	return &Planner{
		textGen:  textGen,
		recorder: recorder,
		newID:    uuid.NewString,
	}
}

func (p *Planner) record(ctx context.Context, meta shared.AgentMeta) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.RecordMeta(context.WithoutCancel(ctx), meta); err != nil {
		log.Printf("Warning: failed to record metrics for %s: %v", meta.AgentName, err)
	}
}

// decode extracts the JSON payload of a model answer, validates it against
// schema and unmarshals it into out.
func decode(content string, schema *llm.Schema, out any) error {
	raw, err := llm.ExtractJSON(content)
	if err != nil {
		return err
	}
	if err := schema.ValidateJSON([]byte(raw)); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func renderPrompt(name, text string, data any) (string, error) {
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
