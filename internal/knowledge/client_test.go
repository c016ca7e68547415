package knowledge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaEmbedder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)

		var req ollamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text:latest", req.Model)
		assert.Equal(t, "who is dr sarah", req.Prompt)

		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float64{0.1, 0.2, 0.3}})
	}))
	defer srv.Close()

	embedder := NewOllamaEmbedder(srv.URL, "nomic-embed-text:latest")
	vector, err := embedder.Embed(context.Background(), "who is dr sarah")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, vector)
}

func TestOllamaEmbedderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	embedder := NewOllamaEmbedder(srv.URL, "missing")
	_, err := embedder.Embed(context.Background(), "query")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

type staticEmbedder struct{ vector []float64 }

func (e *staticEmbedder) Embed(context.Context, string) ([]float64, error) {
	return e.vector, nil
}

func TestQdrantSearcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/clinic_knowledge/points/search", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("api-key"))

		var req qdrantSearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 5, req.Limit)
		assert.True(t, req.WithPayload)

		w.Write([]byte(`{"result":[
			{"score":0.91,"payload":{"text":"Dr. Sarah Martinez specializes in cardiology."}},
			{"score":0.52,"payload":{"text":"Operating hours are 7 AM to 7 PM."}},
			{"score":0.40,"payload":{"text":""}}
		]}`))
	}))
	defer srv.Close()

	searcher := NewQdrantSearcher(srv.URL, "secret", "clinic_knowledge", &staticEmbedder{vector: []float64{1, 2}})
	hits, err := searcher.Search(context.Background(), "sarah", 5, 0.3)
	require.NoError(t, err)
	require.Len(t, hits, 2, "empty payload text is dropped")
	assert.Equal(t, "Dr. Sarah Martinez specializes in cardiology.", hits[0].Text)
	assert.InDelta(t, 0.91, hits[0].Score, 1e-9)
}

func TestQdrantSearcherEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":[]}`))
	}))
	defer srv.Close()

	searcher := NewQdrantSearcher(srv.URL, "", "clinic_knowledge", &staticEmbedder{vector: []float64{1}})
	hits, err := searcher.Search(context.Background(), "nothing relevant", 5, 0.3)
	require.NoError(t, err)
	assert.Empty(t, hits, "no relevant match is not an error")
}
