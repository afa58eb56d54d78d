package retrieval

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	maxChunkChars = 1200
	maxFileSize   = 1024 * 1024 // 1MB
)

var corpusExtensions = map[string]bool{
	".txt": true,
	".md":  true,
}

// BuildFromDir walks a document corpus directory, chunks each text file, and
// returns a fully embedded index. The topic of a chunk is the name of the
// file's parent directory when the file sits in a subdirectory of root, else
// the file name without extension. Mirrors how the reference corpus is laid
// out: one subdirectory per crop or topic.
func BuildFromDir(ctx context.Context, root string, embedder Embedder, model string) (*Index, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("corpus directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus path %s is not a directory", root)
	}

	ix := NewIndex(embedder, model)

	var docs []Document
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		if !corpusExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		fi, err := d.Info()
		if err != nil || fi.Size() > maxFileSize {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		topic := topicFor(rel)

		for _, chunk := range chunkText(string(data)) {
			docs = append(docs, Document{
				Content: chunk,
				Source:  rel,
				Topic:   topic,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no documents found under %s", root)
	}

	if err := ix.Add(ctx, docs); err != nil {
		return nil, err
	}
	return ix, nil
}

// topicFor derives a topic label from a path relative to the corpus root.
func topicFor(rel string) string {
	dir := filepath.Dir(rel)
	if dir != "." {
		parts := strings.Split(dir, string(filepath.Separator))
		return parts[0]
	}
	base := filepath.Base(rel)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// chunkText splits text on blank lines and packs paragraphs into chunks of at
// most maxChunkChars. A single oversized paragraph becomes its own chunk.
func chunkText(text string) []string {
	paragraphs := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n")

	var chunks []string
	var current strings.Builder
	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if current.Len() > 0 && current.Len()+len(p)+2 > maxChunkChars {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(p)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
