package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
)

// Document is one indexed chunk of reference text with its embedding.
type Document struct {
	Content   string    `json:"content"`
	Source    string    `json:"source"`
	Topic     string    `json:"topic"`
	Embedding []float64 `json:"embedding"`
}

// indexFile is the on-disk layout of a persisted index.
type indexFile struct {
	Model     string     `json:"model"`
	Documents []Document `json:"documents"`
}

// Index is an in-memory embedding index persisted as a single JSON file.
// Reads are lock-free: the document slice is never mutated after load, only
// replaced via Add during index construction.
type Index struct {
	embedder Embedder
	model    string
	docs     []Document
}

// NewIndex creates an empty index backed by the given embedder.
func NewIndex(embedder Embedder, model string) *Index {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return &Index{embedder: embedder, model: model}
}

// LoadIndex reads a persisted index from disk.
func LoadIndex(path string, embedder Embedder) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}

	var file indexFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse index %s: %w", path, err)
	}

	ix := NewIndex(embedder, file.Model)
	ix.docs = file.Documents
	return ix, nil
}

// Save writes the index to disk, creating parent directories as needed.
func (ix *Index) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}

	data, err := json.MarshalIndent(indexFile{Model: ix.model, Documents: ix.docs}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	return len(ix.docs)
}

// Add embeds the given documents and appends them to the index. Documents
// that already carry an embedding are appended as-is.
func (ix *Index) Add(ctx context.Context, docs []Document) error {
	var pending []int
	var texts []string
	for i := range docs {
		if len(docs[i].Embedding) == 0 {
			pending = append(pending, i)
			texts = append(texts, docs[i].Content)
		}
	}

	if len(texts) > 0 {
		if ix.embedder == nil {
			return fmt.Errorf("index has no embedder")
		}
		vectors, err := ix.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed documents: %w", err)
		}
		for n, i := range pending {
			docs[i].Embedding = vectors[n]
		}
	}

	ix.docs = append(ix.docs, docs...)
	return nil
}

// Retrieve embeds the query and returns the k most similar snippets.
func (ix *Index) Retrieve(ctx context.Context, query string, k int) ([]Snippet, error) {
	return ix.Search(ctx, query, k, "")
}

// Search is Retrieve with an optional topic filter. An empty topic matches
// all documents.
func (ix *Index) Search(ctx context.Context, query string, k int, topic string) ([]Snippet, error) {
	if len(ix.docs) == 0 {
		return nil, nil
	}
	if k <= 0 {
		k = 5
	}
	if ix.embedder == nil {
		return nil, fmt.Errorf("index has no embedder")
	}

	vectors, err := ix.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	queryVec := vectors[0]

	type scored struct {
		doc   int
		score float64
	}
	var candidates []scored
	for i := range ix.docs {
		if topic != "" && ix.docs[i].Topic != topic {
			continue
		}
		candidates = append(candidates, scored{doc: i, score: cosineSimilarity(queryVec, ix.docs[i].Embedding)})
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].score > candidates[b].score
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	snippets := make([]Snippet, 0, len(candidates))
	for _, c := range candidates {
		d := ix.docs[c.doc]
		snippets = append(snippets, Snippet{Content: d.Content, Source: d.Source, Topic: d.Topic})
	}
	return snippets, nil
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
