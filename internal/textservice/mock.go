package textservice

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/starford/pensieri/internal/models"
)

// MockGenerator answers every request deterministically from the request
// content. It backs local development and tests.
type MockGenerator struct{}

// Generate implements Generator.
func (MockGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	content := strings.Join(strings.Fields(req.Content), " ")
	switch req.Type {
	case TypeTitle:
		topic := firstWords(content, 5)
		if topic == "" {
			topic = "Untitled Thoughts"
		}
		return fmt.Sprintf("%q\nNotes on %s\nWhy %s Matters", topic, topic, topic), nil
	case TypeSummary:
		return "In short: " + firstSentence(content), nil
	case TypeChat:
		return fmt.Sprintf("You asked %q. The article says: %s", req.Params().Question, firstSentence(content)), nil
	case TypeRefine:
		return refine(content, req.Params().Mode), nil
	}
	return content, nil
}

func refine(text string, mode models.RefineMode) string {
	switch mode {
	case models.RefineShorten:
		words := strings.Fields(firstSentence(text))
		if len(words) > 12 {
			words = words[:12]
		}
		return strings.Join(words, " ")
	case models.RefineProfessional:
		r := strings.NewReplacer("don't", "do not", "can't", "cannot", "won't", "will not", "it's", "it is", "I'm", "I am")
		return tidy(r.Replace(text))
	case models.RefineExpand:
		return tidy(text) + " This point deserves a closer look, with examples that show why it matters."
	}
	return tidy(text)
}

// tidy capitalises the first letter and ensures closing punctuation.
func tidy(text string) string {
	if text == "" {
		return text
	}
	r := []rune(text)
	r[0] = unicode.ToUpper(r[0])
	if last := r[len(r)-1]; !strings.ContainsRune(".!?", last) {
		r = append(r, '.')
	}
	return string(r)
}

func firstSentence(text string) string {
	if i := strings.IndexAny(text, ".!?"); i >= 0 {
		return text[:i+1]
	}
	return text
}

func firstWords(text string, n int) string {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	if len(words) > n {
		words = words[:n]
	}
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
