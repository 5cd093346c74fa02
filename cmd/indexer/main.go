// The indexer is a one-shot batch job: it walks a directory of source
// documents, chunks their text, embeds every chunk, and writes the similarity
// index artifact the server loads at startup.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"hr-assistant/internal/ai"
	"hr-assistant/internal/config"
	"hr-assistant/internal/pkg/pdfextract"
	"hr-assistant/internal/rag"
)

// DashScope-style APIs limit embedding batch sizes, so chunks are embedded in
// small groups.
const embeddingBatchSize = 10

func main() {
	dataDir := flag.String("data", "data/docs", "directory of source documents (.pdf, .txt, .md)")
	outDir := flag.String("out", "data/index", "directory to write the index artifact into")
	chunkSize := flag.Int("chunk-size", rag.DefaultChunkSize, "chunk window size in runes")
	chunkOverlap := flag.Int("chunk-overlap", rag.DefaultChunkOverlap, "chunk window overlap in runes")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	embCfg := ai.EmbeddingConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.EmbeddingModel,
	}
	client := ai.NewClient()
	ctx := context.Background()

	chunks, err := collectChunks(*dataDir, *chunkSize, *chunkOverlap)
	if err != nil {
		log.Fatalf("collect documents failed: %v", err)
	}
	if len(chunks) == 0 {
		log.Fatalf("no documents found under %s", *dataDir)
	}
	log.Printf("split documents into %d chunks", len(chunks))

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}

	var embeddings [][]float32
	for i := 0; i < len(texts); i += embeddingBatchSize {
		end := i + embeddingBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := client.EmbedBatch(ctx, embCfg, texts[i:end])
		if err != nil {
			log.Fatalf("embed batch failed: %v", err)
		}
		embeddings = append(embeddings, batch...)
	}
	if len(embeddings) != len(chunks) {
		log.Fatalf("embedding count mismatch: %d chunks, %d embeddings", len(chunks), len(embeddings))
	}

	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}

	index := &rag.Index{
		EmbeddingModel: embCfg.Model,
		Dimension:      len(embeddings[0]),
		CreatedAt:      time.Now().UTC(),
		Chunks:         chunks,
	}
	if err := index.Save(*outDir); err != nil {
		log.Fatalf("save index failed: %v", err)
	}
	log.Printf("index with %d chunks written to %s", len(chunks), *outDir)
}

// collectChunks extracts text from every supported file and splits it into
// windows, tagging each chunk with its source file name.
func collectChunks(dir string, size, overlap int) ([]rag.Chunk, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var chunks []rag.Chunk
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		var text string
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".pdf":
			text, err = pdfextract.ExtractFile(path)
			if err != nil {
				log.Printf("skip %s: %v", entry.Name(), err)
				continue
			}
		case ".txt", ".md":
			raw, err := os.ReadFile(path)
			if err != nil {
				log.Printf("skip %s: %v", entry.Name(), err)
				continue
			}
			text = string(raw)
		default:
			continue
		}

		text = strings.TrimSpace(text)
		if text == "" {
			log.Printf("skip %s: no extractable text", entry.Name())
			continue
		}

		log.Printf("loading %s", entry.Name())
		for _, piece := range rag.SplitText(text, size, overlap) {
			chunks = append(chunks, rag.Chunk{
				Content: piece,
				Source:  entry.Name(),
			})
		}
	}
	return chunks, nil
}
