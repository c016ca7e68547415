package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	appconfig "github.com/clinicops/clinic-assistant/internal/config"
	"github.com/clinicops/clinic-assistant/internal/knowledge"
	"github.com/clinicops/clinic-assistant/pkg/logging"
)

type KnowledgeFile struct {
	Documents []Document `json:"documents"`
}

type Document struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Content  string `json:"content"`
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: seed-knowledge <knowledge-file.json>")
		fmt.Println("Example: seed-knowledge knowledge/clinic-knowledge.json")
		os.Exit(1)
	}

	_ = godotenv.Load()
	cfg := appconfig.Load()

	if cfg.QdrantURL == "" {
		fmt.Println("❌ QDRANT_URL is not set")
		os.Exit(1)
	}

	knowledgeFile := os.Args[1]

	fmt.Printf("🌱 Seeding Knowledge Base\n")
	fmt.Printf("============================\n")
	fmt.Printf("Qdrant URL: %s\n", cfg.QdrantURL)
	fmt.Printf("Collection: %s\n", cfg.QdrantCollection)
	fmt.Printf("Embedding model: %s\n", cfg.EmbeddingModel)
	fmt.Printf("Knowledge file: %s\n\n", knowledgeFile)

	data, err := os.ReadFile(knowledgeFile)
	if err != nil {
		fmt.Printf("❌ Error reading file: %v\n", err)
		os.Exit(1)
	}

	var kf KnowledgeFile
	if err := json.Unmarshal(data, &kf); err != nil {
		fmt.Printf("❌ Error parsing JSON: %v\n", err)
		os.Exit(1)
	}
	if len(kf.Documents) == 0 {
		fmt.Println("❌ Knowledge file has no documents")
		os.Exit(1)
	}

	fmt.Printf("Documents to index: %d\n\n", len(kf.Documents))

	// Format: "Title\n\nContent"
	docs := make([]string, len(kf.Documents))
	for i, doc := range kf.Documents {
		docs[i] = fmt.Sprintf("%s\n\n%s", doc.Title, doc.Content)
	}

	ctx := context.Background()
	logger := logging.New(cfg.LogLevel)
	embedder := knowledge.NewOllamaEmbedder(cfg.OllamaBaseURL, cfg.EmbeddingModel)
	indexer := knowledge.NewQdrantIndexer(cfg.QdrantURL, cfg.QdrantAPIKey, cfg.QdrantCollection, embedder,
		knowledge.WithIndexerLogger(logger))

	// Embed once up front so the collection gets the right vector width.
	sample, err := embedder.Embed(ctx, "test")
	if err != nil {
		fmt.Printf("❌ Error reaching embedding model: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("📐 Embedding dimension: %d\n", len(sample))

	if err := indexer.RecreateCollection(ctx, len(sample)); err != nil {
		fmt.Printf("❌ Error recreating collection: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("📦 Collection %q recreated\n\n", cfg.QdrantCollection)

	indexed, err := indexer.Upsert(ctx, docs)
	if err != nil {
		fmt.Printf("❌ Error after indexing %d documents: %v\n", indexed, err)
		os.Exit(1)
	}

	fmt.Printf("✅ Indexed %d documents\n", indexed)
	fmt.Printf("\n📝 Next steps:\n")
	fmt.Printf("  1. Start the API server\n")
	fmt.Printf("  2. Ask the assistant something covered by the knowledge base, e.g. \"Who is Dr. Sarah?\"\n")
}
