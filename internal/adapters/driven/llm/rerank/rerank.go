// Package rerank implements passage reranking on top of any generation
// backend. The model is asked for a JSON permutation of candidate indices.
package rerank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aksara-legal/aksara/internal/core/ports/driven"
)

// DefaultSystemPrompt is used when no prompt store overrides "rerank_system".
const DefaultSystemPrompt = `You are a legal document reranker. Rank passages by relevance.
Respond with a JSON object {"order": [...]} listing every candidate index, most relevant first.`

// ErrMalformed indicates the model output is not a usable ordering.
var ErrMalformed = errors.New("malformed rerank output")

// Generator is the subset of driven.LLMService needed for reranking.
type Generator interface {
	Generate(ctx context.Context, req driven.GenerateRequest) (*driven.Generation, error)
}

type rerankInput struct {
	Query      string   `json:"query"`
	Candidates []string `json:"candidates"`
}

// Rerank asks gen to order candidates by relevance to query.
// The returned indices are not validated against len(candidates).
func Rerank(ctx context.Context, gen Generator, system, query string, candidates []string) ([]int, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	input, err := json.Marshal(rerankInput{Query: query, Candidates: candidates})
	if err != nil {
		return nil, fmt.Errorf("rerank: marshal input: %w", err)
	}

	out, err := gen.Generate(ctx, driven.GenerateRequest{
		System:   system,
		Messages: []driven.ChatMessage{{Role: driven.RoleUser, Content: string(input)}},
		JSON:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("rerank: %w", err)
	}
	return ParseOrder(out.Text)
}

// ParseOrder extracts the "order" array from model output. Markdown code
// fences and a bare JSON array are tolerated.
func ParseOrder(text string) ([]int, error) {
	raw := []byte(stripFences(text))
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty output", ErrMalformed)
	}

	if raw[0] == '[' {
		var order []int
		if err := json.Unmarshal(raw, &order); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return order, nil
	}

	var parsed struct {
		Order *[]int `json:"order"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if parsed.Order == nil {
		return nil, fmt.Errorf("%w: missing order", ErrMalformed)
	}
	return *parsed.Order, nil
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	// Drop the info string ("json") up to the first newline.
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[i+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
