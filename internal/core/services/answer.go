package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aksara-legal/aksara/internal/core/domain"
	"github.com/aksara-legal/aksara/internal/core/ports/driven"
	"github.com/aksara-legal/aksara/internal/core/ports/driving"
	"github.com/aksara-legal/aksara/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// DefaultQASystemPrompt is used when no prompt store is configured.
const DefaultQASystemPrompt = `Anda adalah asisten hukum perizinan usaha di Indonesia.
Jawab hanya berdasarkan konteks sumber yang diberikan. Jika konteks tidak cukup, katakan bahwa informasinya tidak tersedia.`

// Generation parameters for grounded answers.
const (
	answerMaxTokens   = 2048
	answerTemperature = 0.2
)

// AnswerService grounds questions in retrieved evidence and refuses
// whenever an answer would carry no citation.
type AnswerService struct {
	retrieval driving.RetrievalService
	llm       driven.LLMService
	prompts   driven.PromptStore
}

// NewAnswerService creates a new answer service.
func NewAnswerService(retrieval driving.RetrievalService, llm driven.LLMService) *AnswerService {
	return &AnswerService{
		retrieval: retrieval,
		llm:       llm,
	}
}

// SetPromptStore sets the prompt store for the system prompt.
func (s *AnswerService) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// Answer returns a grounded answer or a refusal.
func (s *AnswerService) Answer(ctx context.Context, q domain.Question) (*domain.Answer, error) {
	logger.Section("Answer")

	question := strings.TrimSpace(q.Text)
	if question == "" {
		logger.Info("Refusing: empty question")
		return domain.NewRefusal(domain.StateNoQuestion), nil
	}

	chunks, err := s.retrieval.Search(ctx, question, q.Filters)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	if len(chunks) == 0 {
		logger.Info("Refusing: no evidence for %q", question)
		return domain.NewRefusal(domain.StateNoEvidence), nil
	}

	if s.llm == nil {
		return nil, &domain.GenerationError{Err: domain.ErrLLMUnavailable}
	}

	req := driven.GenerateRequest{
		System: s.systemPrompt(),
		Messages: []driven.ChatMessage{
			{Role: driven.RoleUser, Content: QuestionTurn(question)},
			{Role: driven.RoleUser, Content: ContextBlock(chunks)},
		},
		MaxTokens:   answerMaxTokens,
		Temperature: answerTemperature,
	}

	gen, err := s.llm.Generate(ctx, req)
	if err != nil {
		return nil, &domain.GenerationError{Model: s.llm.ModelName(), Err: err}
	}
	text := strings.TrimSpace(gen.Text)
	if text == "" {
		return nil, &domain.GenerationError{Model: modelName(gen, s.llm), Err: errors.New("empty generation")}
	}

	citations := Citations(chunks)
	if len(citations) == 0 {
		logger.Info("Refusing: %d chunks carried no source URL", len(chunks))
		return domain.NewRefusal(domain.StateDraftedUngrounded), nil
	}

	logger.Info("Answered with %d citations from %d chunks", len(citations), len(chunks))
	return &domain.Answer{
		Markdown:  text,
		Citations: citations,
		Retrieval: domain.RetrievalMeta{
			ChunksConsidered:  len(chunks),
			LatestVersionDate: latestVersionDate(chunks),
		},
		Model: domain.ModelMeta{
			Model:          modelName(gen, s.llm),
			PromptTokens:   gen.PromptTokens,
			ResponseTokens: gen.ResponseTokens,
		},
		State: domain.StateGrounded,
	}, nil
}

func (s *AnswerService) systemPrompt() string {
	if s.prompts == nil {
		return DefaultQASystemPrompt
	}
	prompt, err := s.prompts.Load(driven.PromptQASystem)
	if err != nil || strings.TrimSpace(prompt) == "" {
		logger.Warn("QA system prompt unavailable, using default: %v", err)
		return DefaultQASystemPrompt
	}
	return prompt
}

func modelName(gen *driven.Generation, llm driven.LLMService) string {
	if gen != nil && gen.Model != "" {
		return gen.Model
	}
	return llm.ModelName()
}

// QuestionTurn is the user turn that carries the question.
func QuestionTurn(question string) string {
	return "Pertanyaan: " + question + "\nJawab berdasarkan konteks yang diberikan."
}

// ContextBlock renders chunks as numbered sources separated by blank lines.
func ContextBlock(chunks []domain.RetrievedChunk) string {
	blocks := make([]string, len(chunks))
	for i, c := range chunks {
		blocks[i] = fmt.Sprintf("Sumber #%d\nJudul: %s\nBagian: %s\nVersi: %s\nIsi:\n%s",
			i+1, c.Metadata.Title(), c.Metadata.Section, c.Metadata.VersionDate, c.Text)
	}
	return strings.Join(blocks, "\n\n")
}

// Citations returns one citation per distinct source URL, first chunk wins.
// Chunks without a URL are skipped.
func Citations(chunks []domain.RetrievedChunk) []domain.Citation {
	seen := make(map[string]bool)
	var citations []domain.Citation

	for _, c := range chunks {
		url := c.Metadata.SourceURL
		if url == "" || seen[url] {
			continue
		}
		seen[url] = true

		title := c.Metadata.SourceTitle
		if title == "" {
			title = domain.DefaultCitationTitle
		}
		citations = append(citations, domain.Citation{
			URL:     url,
			Title:   title,
			Section: c.Metadata.Section,
			Snippet: truncateRunes(c.Text, domain.SnippetMaxRunes),
		})
	}
	return citations
}

// latestVersionDate returns the greatest ISO version date, or "".
func latestVersionDate(chunks []domain.RetrievedChunk) string {
	latest := ""
	for _, c := range chunks {
		if c.Metadata.VersionDate > latest {
			latest = c.Metadata.VersionDate
		}
	}
	return latest
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
