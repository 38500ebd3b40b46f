package llm

import (
	"context"
	"fmt"

	"passive-genius/internal/shared"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const groqBaseURL = "https://api.groq.com/openai/v1/"

// ChatCompletionsService is the part of the OpenAI client used by GroqClient.
// Tests substitute a fake.
type ChatCompletionsService interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// GroqClient talks to Groq through its OpenAI-compatible endpoint.
type GroqClient struct {
	completions ChatCompletionsService
	modelName   string
}

// NewGroqClient creates a new Groq API client.
func NewGroqClient(apiKey, model string) *GroqClient {
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(groqBaseURL),
	)
	return &GroqClient{completions: client.Chat.Completions, modelName: model}
}

// Model returns the configured model name.
func (c *GroqClient) Model() string {
	return c.modelName
}

// GenerateContent sends a prompt to the Groq model and returns the generated text.
// The schema is rendered into the system message since Groq has no
// native schema-constrained output for every model.
func (c *GroqClient) GenerateContent(ctx context.Context, p Prompt) (ContentResponse, error) {
	system := p.System
	if p.Schema != nil {
		system += "\n\nRespond only with a JSON value matching this JSON schema, with no other text:\n" + p.Schema.String()
	}

	messages := []openai.ChatCompletionMessageParamUnion{}
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(p.User))

	resp, err := c.completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:    openai.F(messages),
		Model:       openai.F(openai.ChatModel(c.modelName)),
		Temperature: openai.F(0.2),
	})
	if err != nil {
		return ContentResponse{}, fmt.Errorf("groq chat completion failed: %w", err)
	}

	usage := shared.TokenUsage{
		Model:            c.modelName,
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}
	if len(resp.Choices) == 0 {
		return ContentResponse{Usage: usage}, nil
	}

	return ContentResponse{Content: resp.Choices[0].Message.Content, Usage: usage}, nil
}

// Close is a no-op; the OpenAI client holds no resources.
func (c *GroqClient) Close() error {
	return nil
}
