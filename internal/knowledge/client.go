// Package knowledge provides ranked-text lookup over the clinic knowledge
// base: query embeddings come from an Ollama server and vector search runs
// against a Qdrant collection, both over their REST APIs.
package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/clinicops/clinic-assistant/pkg/logging"
)

// Hit is one ranked result. An empty result set means "no relevant match",
// never an error.
type Hit struct {
	Text  string
	Score float64
}

// Embedder turns a query string into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// OllamaEmbedder calls a local Ollama server for embeddings.
type OllamaEmbedder struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewOllamaEmbedder(baseURL, model string) *OllamaEmbedder {
	return &OllamaEmbedder{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float64 `json:"embedding"`
}

func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(ollamaEmbedRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("knowledge: marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("knowledge: build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("knowledge: embed call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("knowledge: embed call returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var decoded ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("knowledge: decode embed response: %w", err)
	}
	if len(decoded.Embedding) == 0 {
		return nil, fmt.Errorf("knowledge: embed call returned empty vector")
	}
	return decoded.Embedding, nil
}

// QdrantSearcher runs similarity search against one Qdrant collection.
type QdrantSearcher struct {
	baseURL    string
	apiKey     string
	collection string
	embedder   Embedder
	httpClient *http.Client
	logger     *logging.Logger
}

// SearcherOption configures a QdrantSearcher.
type SearcherOption func(*QdrantSearcher)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) SearcherOption {
	return func(s *QdrantSearcher) {
		s.httpClient = client
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *logging.Logger) SearcherOption {
	return func(s *QdrantSearcher) {
		s.logger = logger
	}
}

func NewQdrantSearcher(baseURL, apiKey, collection string, embedder Embedder, opts ...SearcherOption) *QdrantSearcher {
	s := &QdrantSearcher{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		collection: collection,
		embedder:   embedder,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logging.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type qdrantSearchRequest struct {
	Vector         []float64 `json:"vector"`
	Limit          int       `json:"limit"`
	ScoreThreshold float64   `json:"score_threshold,omitempty"`
	WithPayload    bool      `json:"with_payload"`
}

type qdrantSearchResponse struct {
	Result []struct {
		Score   float64 `json:"score"`
		Payload struct {
			Text string `json:"text"`
		} `json:"payload"`
	} `json:"result"`
}

// Search embeds the query and returns ranked payload text above the score
// threshold, best first.
func (s *QdrantSearcher) Search(ctx context.Context, query string, limit int, scoreThreshold float64) ([]Hit, error) {
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(qdrantSearchRequest{
		Vector:         vector,
		Limit:          limit,
		ScoreThreshold: scoreThreshold,
		WithPayload:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("knowledge: marshal search request: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", s.baseURL, s.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("knowledge: build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("knowledge: search call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("knowledge: search call returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var decoded qdrantSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("knowledge: decode search response: %w", err)
	}

	hits := make([]Hit, 0, len(decoded.Result))
	for _, r := range decoded.Result {
		if r.Payload.Text == "" {
			continue
		}
		hits = append(hits, Hit{Text: r.Payload.Text, Score: r.Score})
	}
	s.logger.Debug("knowledge search completed", "query_len", len(query), "hits", len(hits))
	return hits, nil
}
