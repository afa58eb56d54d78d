// Package retrieval provides the reference-text lookup used to ground final
// answers: an embedding index built from a local document corpus, searched by
// cosine similarity. The advisor only depends on the Retriever interface and
// treats the returned snippets as opaque pass-through data.
package retrieval

import "context"

// Snippet is one retrieved reference record.
type Snippet struct {
	Content string `json:"content"`
	Source  string `json:"source"`
	Topic   string `json:"topic"`
}

// Retriever returns the k reference snippets most relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]Snippet, error)
}

// Embedder converts texts into vectors. One call embeds a batch.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}
