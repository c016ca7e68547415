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

	"github.com/google/uuid"

	"github.com/clinicops/clinic-assistant/pkg/logging"
)

const upsertBatchSize = 10

// QdrantIndexer writes documents into a Qdrant collection so the searcher
// has something to find. It shares the Embedder with the search path, which
// keeps indexed vectors and query vectors in the same space.
type QdrantIndexer struct {
	baseURL    string
	apiKey     string
	collection string
	embedder   Embedder
	httpClient *http.Client
	logger     *logging.Logger
}

// IndexerOption configures a QdrantIndexer.
type IndexerOption func(*QdrantIndexer)

// WithIndexerHTTPClient sets a custom HTTP client.
func WithIndexerHTTPClient(client *http.Client) IndexerOption {
	return func(i *QdrantIndexer) {
		i.httpClient = client
	}
}

// WithIndexerLogger sets a custom logger.
func WithIndexerLogger(logger *logging.Logger) IndexerOption {
	return func(i *QdrantIndexer) {
		i.logger = logger
	}
}

func NewQdrantIndexer(baseURL, apiKey, collection string, embedder Embedder, opts ...IndexerOption) *QdrantIndexer {
	idx := &QdrantIndexer{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		collection: collection,
		embedder:   embedder,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logging.Default(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

type qdrantCreateCollectionRequest struct {
	Vectors qdrantVectorParams `json:"vectors"`
}

type qdrantVectorParams struct {
	Size     int    `json:"size"`
	Distance string `json:"distance"`
}

type qdrantPoint struct {
	ID      string         `json:"id"`
	Vector  []float64      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

type qdrantUpsertRequest struct {
	Points []qdrantPoint `json:"points"`
}

// RecreateCollection drops the collection if it exists and creates it fresh
// with cosine distance. A delete failure is ignored so first-time seeding
// works against an empty Qdrant instance.
func (i *QdrantIndexer) RecreateCollection(ctx context.Context, vectorSize int) error {
	if vectorSize <= 0 {
		return fmt.Errorf("knowledge: vector size must be positive, got %d", vectorSize)
	}

	url := fmt.Sprintf("%s/collections/%s", i.baseURL, i.collection)
	if err := i.do(ctx, http.MethodDelete, url, nil); err != nil {
		i.logger.Debug("collection delete skipped", "collection", i.collection, "error", err)
	}

	body, err := json.Marshal(qdrantCreateCollectionRequest{
		Vectors: qdrantVectorParams{Size: vectorSize, Distance: "Cosine"},
	})
	if err != nil {
		return fmt.Errorf("knowledge: marshal create collection request: %w", err)
	}
	if err := i.do(ctx, http.MethodPut, url, body); err != nil {
		return fmt.Errorf("knowledge: create collection %q: %w", i.collection, err)
	}

	i.logger.Info("collection recreated", "collection", i.collection, "vector_size", vectorSize)
	return nil
}

// Upsert embeds each document and writes it with a fresh point id. Documents
// go up in small batches so one oversized request cannot stall the whole run.
func (i *QdrantIndexer) Upsert(ctx context.Context, documents []string) (int, error) {
	indexed := 0
	for start := 0; start < len(documents); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(documents) {
			end = len(documents)
		}

		points := make([]qdrantPoint, 0, end-start)
		for _, doc := range documents[start:end] {
			vector, err := i.embedder.Embed(ctx, doc)
			if err != nil {
				return indexed, err
			}
			points = append(points, qdrantPoint{
				ID:      uuid.NewString(),
				Vector:  vector,
				Payload: map[string]any{"text": doc},
			})
		}

		body, err := json.Marshal(qdrantUpsertRequest{Points: points})
		if err != nil {
			return indexed, fmt.Errorf("knowledge: marshal upsert request: %w", err)
		}

		url := fmt.Sprintf("%s/collections/%s/points", i.baseURL, i.collection)
		if err := i.do(ctx, http.MethodPut, url, body); err != nil {
			return indexed, fmt.Errorf("knowledge: upsert batch: %w", err)
		}
		indexed += len(points)
		i.logger.Debug("batch indexed", "collection", i.collection, "indexed", indexed, "total", len(documents))
	}
	return indexed, nil
}

func (i *QdrantIndexer) do(ctx context.Context, method, url string, body []byte) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("knowledge: build %s request: %w", method, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if i.apiKey != "" {
		req.Header.Set("api-key", i.apiKey)
	}

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("knowledge: %s call failed: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("knowledge: %s returned %d: %s", method, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return nil
}
