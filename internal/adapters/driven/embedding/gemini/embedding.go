// Package gemini provides an embedding service adapter using the Google
// Generative Language REST API.
package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aksara-legal/aksara/internal/adapters/driven/ai/apiclient"
	"github.com/aksara-legal/aksara/internal/core/ports/driven"
	"github.com/aksara-legal/aksara/internal/retry"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel      = "text-embedding-004"
	DefaultDimensions = 768
	DefaultTimeout    = 20 * time.Second
)

// Config holds configuration for the Gemini embedding service.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://generativelanguage.googleapis.com/v1beta).
	BaseURL string

	// Model is the embedding model to use (default: text-embedding-004).
	Model string

	// Dimensions is the expected vector size (default: 768).
	Dimensions int

	// OutputDimensionality asks the API to truncate vectors. Zero sends nothing.
	OutputDimensionality int

	// Timeout bounds each attempt (default: 20s).
	Timeout time.Duration

	// Retry is the policy for transient failures.
	Retry retry.Policy
}

// EmbeddingService generates embeddings using the Gemini API.
type EmbeddingService struct {
	client     *apiclient.Client
	baseURL    string
	apiKey     string
	model      string
	dimensions int
	outputDims int
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type embedContentRequest struct {
	Model                string  `json:"model,omitempty"`
	Content              content `json:"content"`
	OutputDimensionality int     `json:"outputDimensionality,omitempty"`
}

type batchEmbedRequest struct {
	Requests []embedContentRequest `json:"requests"`
}

type embeddingValues struct {
	Values []float32 `json:"values"`
}

// embedResponse covers both the single and batch response shapes.
type embedResponse struct {
	Embedding  *embeddingValues  `json:"embedding"`
	Embeddings []embeddingValues `json:"embeddings"`
}

// NewEmbeddingService creates a new Gemini embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	dimensions := cfg.Dimensions
	if cfg.OutputDimensionality > 0 {
		dimensions = cfg.OutputDimensionality
	}
	if dimensions == 0 {
		dimensions = DefaultDimensions
	}

	return &EmbeddingService{
		client: apiclient.New(apiclient.Config{
			Provider: "gemini",
			Timeout:  cfg.Timeout,
			Retry:    cfg.Retry,
		}),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      strings.TrimPrefix(cfg.Model, "models/"),
		dimensions: dimensions,
		outputDims: cfg.OutputDimensionality,
	}, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	req := s.request(text)
	req.Model = ""

	var resp embedResponse
	if err := s.client.PostJSON(ctx, s.endpoint("embedContent"), s.headers(), req, &resp); err != nil {
		return nil, err
	}

	values := resp.first()
	if len(values) == 0 {
		return nil, fmt.Errorf("gemini: empty embedding response")
	}
	return values, nil
}

// EmbedBatch generates embeddings for multiple texts in one call.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	batch := batchEmbedRequest{Requests: make([]embedContentRequest, len(texts))}
	for i, text := range texts {
		batch.Requests[i] = s.request(text)
	}

	var resp embedResponse
	if err := s.client.PostJSON(ctx, s.endpoint("batchEmbedContents"), s.headers(), batch, &resp); err != nil {
		return nil, err
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini: got %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}
	embeddings := make([][]float32, len(texts))
	for i, e := range resp.Embeddings {
		if len(e.Values) == 0 {
			return nil, fmt.Errorf("gemini: empty embedding at index %d", i)
		}
		embeddings[i] = e.Values
	}
	return embeddings, nil
}

func (s *EmbeddingService) request(text string) embedContentRequest {
	return embedContentRequest{
		Model:                "models/" + s.model,
		Content:              content{Parts: []part{{Text: text}}},
		OutputDimensionality: s.outputDims,
	}
}

func (r *embedResponse) first() []float32 {
	if r.Embedding != nil {
		return r.Embedding.Values
	}
	if len(r.Embeddings) > 0 {
		return r.Embeddings[0].Values
	}
	return nil
}

func (s *EmbeddingService) endpoint(method string) string {
	return fmt.Sprintf("%s/models/%s:%s", s.baseURL, s.model, method)
}

func (s *EmbeddingService) headers() map[string]string {
	return map[string]string{"x-goog-api-key": s.apiKey}
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping validates the API key by fetching the model description.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if err := s.client.Get(ctx, fmt.Sprintf("%s/models/%s", s.baseURL, s.model), s.headers()); err != nil {
		return fmt.Errorf("gemini: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
