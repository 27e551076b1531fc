package textservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/starford/pensieri/internal/apperr"
	"github.com/starford/pensieri/internal/models"
)

// Fallback texts shown by the reading assistant when a call fails.
const (
	SummaryFallback = "Could not generate summary."
	AnswerFallback  = "Sorry, I couldn't answer that right now."
	ExplainFallback = "Could not explain."
)

// Service validates requests, calls the configured generator and records
// metrics. It is safe for concurrent use.
type Service struct {
	gen Generator
	log *slog.Logger
}

// NewService creates a service over gen.
func NewService(gen Generator, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{gen: gen, log: log}
}

// Generate serves one request of the contract. Generator failures are
// wrapped with apperr.ErrTextService unless they are validation errors.
func (s *Service) Generate(ctx context.Context, req Request) (string, error) {
	if err := req.Validate(); err != nil {
		requestsTotal.WithLabelValues(string(req.Type), "invalid").Inc()
		return "", err
	}

	start := time.Now()
	result, err := s.gen.Generate(ctx, req)
	requestDuration.WithLabelValues(string(req.Type)).Observe(time.Since(start).Seconds())
	if err != nil {
		requestsTotal.WithLabelValues(string(req.Type), "error").Inc()
		s.log.Warn("text service call failed",
			slog.String("type", string(req.Type)),
			slog.String("error", err.Error()),
		)
		if errors.Is(err, apperr.ErrTextService) {
			return "", err
		}
		return "", fmt.Errorf("textservice: %w: %w", apperr.ErrTextService, err)
	}
	requestsTotal.WithLabelValues(string(req.Type), "ok").Inc()
	return result, nil
}

// Refine rewrites text under mode.
func (s *Service) Refine(ctx context.Context, text string, mode models.RefineMode) (string, error) {
	return s.Generate(ctx, Request{Type: TypeRefine, Content: text, Context: &Context{Mode: mode}})
}

// SuggestTitles returns the title candidates for content in the order given
// by the generator.
func (s *Service) SuggestTitles(ctx context.Context, content string) ([]string, error) {
	result, err := s.Generate(ctx, Request{Type: TypeTitle, Content: content})
	if err != nil {
		return nil, err
	}
	return ParseTitles(result), nil
}

// Summarize returns a summary of an article.
func (s *Service) Summarize(ctx context.Context, article string) (string, error) {
	return s.Generate(ctx, Request{Type: TypeSummary, Content: article})
}

// Ask answers question about an article.
func (s *Service) Ask(ctx context.Context, article, question string) (string, error) {
	return s.Generate(ctx, Request{Type: TypeChat, Content: article, Context: &Context{Question: question}})
}

// Assistant is the reading-view helper. It never fails: errors and empty
// results are replaced with fallback texts.
type Assistant struct {
	svc *Service
}

// NewAssistant creates a reading assistant over svc.
func NewAssistant(svc *Service) *Assistant {
	return &Assistant{svc: svc}
}

// Summary returns the article summary or SummaryFallback.
func (a *Assistant) Summary(ctx context.Context, article string) string {
	out, err := a.svc.Summarize(ctx, article)
	if err != nil || strings.TrimSpace(out) == "" {
		return SummaryFallback
	}
	return out
}

// Answer returns the answer to question or AnswerFallback. A blank question
// yields an empty answer without calling the service.
func (a *Assistant) Answer(ctx context.Context, article, question string) string {
	if strings.TrimSpace(question) == "" {
		return ""
	}
	out, err := a.svc.Ask(ctx, article, question)
	if err != nil || strings.TrimSpace(out) == "" {
		return AnswerFallback
	}
	return out
}

// Explain asks for an explanation of a passage selected in the article.
func (a *Assistant) Explain(ctx context.Context, article, passage string) string {
	if strings.TrimSpace(passage) == "" {
		return ""
	}
	out, err := a.svc.Ask(ctx, article, fmt.Sprintf("Explain this text: %q", passage))
	if err != nil || strings.TrimSpace(out) == "" {
		return ExplainFallback
	}
	return out
}
