package textservice

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/starford/pensieri/internal/apperr"
	"github.com/starford/pensieri/internal/models"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

const systemPrompt = "You are a writing assistant for a publishing platform. Reply with the requested text only, without preamble."

// OpenAIGenerator serves the contract with a chat completion model.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// OpenAIOption configures an OpenAIGenerator.
type OpenAIOption func(*openai.ClientConfig)

// WithBaseURL points the generator at an OpenAI-compatible endpoint.
func WithBaseURL(url string) OpenAIOption {
	return func(c *openai.ClientConfig) {
		c.BaseURL = url
	}
}

// WithTimeout bounds every completion call.
func WithTimeout(d time.Duration) OpenAIOption {
	return func(c *openai.ClientConfig) {
		c.HTTPClient = &http.Client{Timeout: d}
	}
}

// NewOpenAIGenerator creates a generator using apiKey and model.
func NewOpenAIGenerator(apiKey, model string, opts ...OpenAIOption) *OpenAIGenerator {
	if model == "" {
		model = DefaultModel
	}
	cfg := openai.DefaultConfig(apiKey)
	for _, opt := range opts {
		opt(&cfg)
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Generate implements Generator.
func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt(req)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("textservice: openai: %w: %w", apperr.ErrTextService, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("textservice: openai: %w: no choices", apperr.ErrTextService)
	}
	slog.Debug("openai completion", slog.String("model", g.model),
		slog.String("finish_reason", string(resp.Choices[0].FinishReason)))
	return resp.Choices[0].Message.Content, nil
}

var refineInstructions = map[models.RefineMode]string{
	models.RefineGrammar:      "Fix the grammar and spelling of the following text without changing its meaning.",
	models.RefineProfessional: "Rewrite the following text in a professional tone.",
	models.RefineShorten:      "Shorten the following text while keeping its key points.",
	models.RefineExpand:       "Expand the following text with more detail and examples.",
}

func prompt(req Request) string {
	switch req.Type {
	case TypeTitle:
		return "Suggest five titles for the following article, one per line:\n\n" + req.Content
	case TypeSummary:
		return "Summarize the following article in three sentences:\n\n" + req.Content
	case TypeChat:
		return fmt.Sprintf("Answer the question using the article below.\n\nQuestion: %s\n\nArticle:\n%s",
			req.Params().Question, req.Content)
	case TypeRefine:
		return refineInstructions[req.Params().Mode] + "\n\n" + req.Content
	}
	return req.Content
}
