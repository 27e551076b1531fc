// Package textservice implements the text-generation contract consumed by
// the editor, the reading assistant and the admin writer flow, together with
// the generators that can serve it.
package textservice

import (
	"context"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/pensieri/internal/apperr"
	"github.com/starford/pensieri/internal/models"
)

// Type selects what the text service produces.
type Type string

const (
	TypeSummary Type = "summary"
	TypeChat    Type = "chat"
	TypeRefine  Type = "refine"
	TypeTitle   Type = "title"
)

// Context carries the per-type parameters of a request.
type Context struct {
	Question string            `json:"question,omitempty"`
	Mode     models.RefineMode `json:"mode,omitempty"`
}

// Request is the JSON body posted to the generation endpoint.
type Request struct {
	Type    Type     `json:"type"`
	Content string   `json:"content"`
	Context *Context `json:"context,omitempty"`
}

// Response is the JSON body returned by the generation endpoint.
type Response struct {
	Result string `json:"result"`
}

// Validate checks that the request is well-formed for its type.
func (r *Request) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Type, validation.Required,
			validation.In(TypeSummary, TypeChat, TypeRefine, TypeTitle)),
		validation.Field(&r.Context,
			validation.When(r.Type == TypeChat || r.Type == TypeRefine, validation.Required)),
	)
	if err != nil {
		return fmt.Errorf("textservice: %w: %w", apperr.ErrInvalidArgument, err)
	}
	switch r.Type {
	case TypeChat:
		if strings.TrimSpace(r.Context.Question) == "" {
			return fmt.Errorf("textservice: chat request needs a question: %w", apperr.ErrInvalidArgument)
		}
	case TypeRefine:
		if !r.Context.Mode.Valid() {
			return fmt.Errorf("textservice: unknown refine mode %q: %w", r.Context.Mode, apperr.ErrInvalidArgument)
		}
	}
	return nil
}

// Params returns the request context, zero when absent.
func (r *Request) Params() Context {
	if r.Context == nil {
		return Context{}
	}
	return *r.Context
}

// Generator produces the result text for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// ParseTitles splits a title result into candidates, dropping blank lines.
func ParseTitles(result string) []string {
	var out []string
	for _, line := range strings.Split(result, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// CleanTitle strips one leading and one trailing quote character from a
// picked title candidate.
func CleanTitle(title string) string {
	title = strings.TrimSpace(title)
	if strings.HasPrefix(title, `"`) || strings.HasPrefix(title, "'") {
		title = title[1:]
	}
	if strings.HasSuffix(title, `"`) || strings.HasSuffix(title, "'") {
		title = title[:len(title)-1]
	}
	return title
}
