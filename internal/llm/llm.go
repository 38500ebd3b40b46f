package llm

import (
	"context"

	"passive-genius/internal/shared"
)

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// Prompt is a single structured-output request.
type Prompt struct {
	// System is the system instruction sent alongside the user prompt.
	System string
	// User is the rendered user prompt.
	User string
	// Schema describes the JSON the model must answer with. Providers that
	// support native structured output receive it directly; the others get
	// it rendered into the prompt.
	Schema *Schema
}

// TextGenerator is an interface for generating text from a prompt.
type TextGenerator interface {
	GenerateContent(ctx context.Context, p Prompt) (ContentResponse, error)
	Model() string
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}
