package retrieval

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedder maps known texts to fixed vectors so similarity is exact and
// deterministic.
type stubEmbedder struct {
	vectors map[string][]float64
}

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		v, ok := s.vectors[text]
		if !ok {
			return nil, fmt.Errorf("no stub vector for %q", text)
		}
		out[i] = v
	}
	return out, nil
}

func newStubIndex(t *testing.T) (*Index, *stubEmbedder) {
	t.Helper()
	emb := &stubEmbedder{vectors: map[string][]float64{
		"rice likes water":   {1, 0, 0},
		"maize likes sun":    {0, 1, 0},
		"coffee likes shade": {0, 0, 1},
		"water crops":        {0.9, 0.1, 0},
	}}

	ix := NewIndex(emb, "stub-model")
	err := ix.Add(context.Background(), []Document{
		{Content: "rice likes water", Source: "rice.txt", Topic: "rice"},
		{Content: "maize likes sun", Source: "maize.txt", Topic: "maize"},
		{Content: "coffee likes shade", Source: "coffee.txt", Topic: "coffee"},
	})
	require.NoError(t, err)
	return ix, emb
}

func TestSearchRanksBySimilarity(t *testing.T) {
	ix, _ := newStubIndex(t)

	snippets, err := ix.Search(context.Background(), "water crops", 2, "")
	require.NoError(t, err)
	require.Len(t, snippets, 2)
	assert.Equal(t, "rice likes water", snippets[0].Content)
	assert.Equal(t, "rice", snippets[0].Topic)
}

func TestSearchTopicFilter(t *testing.T) {
	ix, _ := newStubIndex(t)

	snippets, err := ix.Search(context.Background(), "water crops", 5, "coffee")
	require.NoError(t, err)
	require.Len(t, snippets, 1)
	assert.Equal(t, "coffee.txt", snippets[0].Source)
}

func TestRetrieveOnEmptyIndex(t *testing.T) {
	ix := NewIndex(&stubEmbedder{}, "")
	snippets, err := ix.Retrieve(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, snippets)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	ix, emb := newStubIndex(t)
	path := filepath.Join(t.TempDir(), "index", "agro_index.json")

	require.NoError(t, ix.Save(path))

	loaded, err := LoadIndex(path, emb)
	require.NoError(t, err)
	assert.Equal(t, ix.Len(), loaded.Len())

	snippets, err := loaded.Retrieve(context.Background(), "water crops", 1)
	require.NoError(t, err)
	require.Len(t, snippets, 1)
	assert.Equal(t, "rice likes water", snippets[0].Content)
}

func TestLoadIndexMissingFile(t *testing.T) {
	_, err := LoadIndex(filepath.Join(t.TempDir(), "nope.json"), &stubEmbedder{})
	assert.Error(t, err)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float64{1, 0}, []float64{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float64{1, 0}, []float64{0, 3}), 1e-9)
	assert.Zero(t, cosineSimilarity([]float64{1, 0}, []float64{1}))
	assert.Zero(t, cosineSimilarity(nil, nil))
	assert.Zero(t, cosineSimilarity([]float64{0, 0}, []float64{0, 0}))
}

func TestChunkTextPacksParagraphs(t *testing.T) {
	text := "first paragraph\n\nsecond paragraph\n\n\n\nthird"
	chunks := chunkText(text)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0], "first paragraph")
	assert.Contains(t, chunks[0], "third")

	long := make([]byte, maxChunkChars)
	for i := range long {
		long[i] = 'a'
	}
	chunks = chunkText(string(long) + "\n\nshort tail")
	require.Len(t, chunks, 2)
	assert.Equal(t, "short tail", chunks[1])
}

func TestBuildFromDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "rice"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "rice", "notes.txt"), []byte("rice likes water"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "general.md"), []byte("maize likes sun"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "ignored.bin"), []byte("binary"), 0644))

	emb := &stubEmbedder{vectors: map[string][]float64{
		"rice likes water": {1, 0},
		"maize likes sun":  {0, 1},
	}}

	ix, err := BuildFromDir(context.Background(), root, emb, "stub-model")
	require.NoError(t, err)
	assert.Equal(t, 2, ix.Len())

	snippets, err := ix.Search(context.Background(), "rice likes water", 1, "rice")
	require.NoError(t, err)
	require.Len(t, snippets, 1)
	assert.Equal(t, filepath.Join("rice", "notes.txt"), snippets[0].Source)
}

func TestBuildFromDirEmptyCorpus(t *testing.T) {
	_, err := BuildFromDir(context.Background(), t.TempDir(), &stubEmbedder{}, "")
	assert.Error(t, err)
}
