// Package rag implements retrieval-augmented answering over a prebuilt
// similarity index. The index is produced offline by cmd/indexer, loaded once
// at startup, and read-only at serve time.
package rag

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const indexFileName = "index.json"

// Chunk is one indexed fragment with its source-file provenance.
type Chunk struct {
	Content   string    `json:"content"`
	Source    string    `json:"source"`
	Embedding []float32 `json:"embedding"`
}

// Index is the serialized similarity index artifact.
type Index struct {
	EmbeddingModel string    `json:"embedding_model"`
	Dimension      int       `json:"dimension"`
	CreatedAt      time.Time `json:"created_at"`
	Chunks         []Chunk   `json:"chunks"`
}

// LoadIndex reads the index artifact from dir and validates that every chunk's
// embedding matches the declared dimension.
func LoadIndex(dir string) (*Index, error) {
	path := filepath.Join(dir, indexFileName)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read index artifact failed: %w", err)
	}

	var idx Index
	if err := json.Unmarshal(raw, &idx); err != nil {
		return nil, fmt.Errorf("parse index artifact failed: %w", err)
	}
	if idx.Dimension <= 0 {
		return nil, fmt.Errorf("index artifact has no embedding dimension")
	}
	if len(idx.Chunks) == 0 {
		return nil, fmt.Errorf("index artifact has no chunks")
	}
	for i := range idx.Chunks {
		if len(idx.Chunks[i].Embedding) != idx.Dimension {
			return nil, fmt.Errorf("chunk %d has dimension %d, index declares %d",
				i, len(idx.Chunks[i].Embedding), idx.Dimension)
		}
	}
	return &idx, nil
}

// Save writes the index artifact into dir, creating it if needed.
func (idx *Index) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index dir failed: %w", err)
	}
	payload, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("marshal index artifact failed: %w", err)
	}
	path := filepath.Join(dir, indexFileName)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write index artifact failed: %w", err)
	}
	return nil
}
