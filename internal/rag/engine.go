package rag

import (
	"context"
	"fmt"
	"sort"
	"strings"

	goaway "github.com/TwiN/go-away"

	"hr-assistant/internal/ai"
)

const (
	defaultTopK   = 3
	defaultFetchK = 12
	defaultLambda = 0.5

	// Fixed replies for the deterministic branches. These bypass retrieval
	// and generation entirely.
	RefusalReply  = "I cannot process requests with inappropriate language."
	GreetingReply = "Hello! How can I assist you with our HR policies today?"

	promptInstruction = "Use the context from the documents to answer the question concisely and clearly. " +
		"If you don't know the answer from the context provided, say that you don't have information on that topic."
)

var greetings = map[string]struct{}{
	"hi":    {},
	"hello": {},
	"hey":   {},
}

// Embedder converts text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator produces a completion for a prompt.
type Generator interface {
	Complete(ctx context.Context, messages []ai.ChatMessage) (string, error)
}

// Answer is the outcome of one query.
type Answer struct {
	Text    string   `json:"text"`
	Sources []string `json:"sources,omitempty"`
}

// Engine answers questions against an immutable index. It is constructed once
// at startup and shared read-only across all sessions.
type Engine struct {
	index     *Index
	embedder  Embedder
	generator Generator
	topK      int
	fetchK    int
	lambda    float32
}

type Options struct {
	TopK   int
	FetchK int
	Lambda float32
}

func NewEngine(index *Index, embedder Embedder, generator Generator, opts Options) *Engine {
	if opts.TopK <= 0 {
		opts.TopK = defaultTopK
	}
	if opts.FetchK < opts.TopK {
		opts.FetchK = defaultFetchK
	}
	if opts.Lambda <= 0 || opts.Lambda > 1 {
		opts.Lambda = defaultLambda
	}
	return &Engine{
		index:     index,
		embedder:  embedder,
		generator: generator,
		topK:      opts.TopK,
		fetchK:    opts.FetchK,
		lambda:    opts.Lambda,
	}
}

// Ask routes a question: profanity and bare greetings short-circuit with fixed
// replies; everything else goes through embed, MMR retrieval, and generation.
// The returned text carries a deduplicated "Sources:" suffix when any chunks
// contributed.
func (e *Engine) Ask(ctx context.Context, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question is empty")
	}

	if goaway.IsProfane(question) {
		return &Answer{Text: RefusalReply}, nil
	}
	if _, ok := greetings[strings.ToLower(question)]; ok {
		return &Answer{Text: GreetingReply}, nil
	}

	queryEmb, err := e.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question failed: %w", err)
	}

	selected := e.retrieve(queryEmb)

	var contextBlock strings.Builder
	for _, sc := range selected {
		contextBlock.WriteString("\n---\n")
		contextBlock.WriteString(sc.chunk.Content)
	}
	if len(selected) > 0 {
		contextBlock.WriteString("\n---")
	}

	messages := []ai.ChatMessage{
		{Role: "system", Content: promptInstruction},
		{Role: "user", Content: "Context:" + contextBlock.String() + "\n\nQuestion: " + question + "\n\nAnswer:"},
	}
	answer, err := e.generator.Complete(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("generate answer failed: %w", err)
	}
	answer = strings.TrimSpace(answer)

	sources := dedupeSources(selected)
	return &Answer{
		Text:    attachSources(answer, sources),
		Sources: sources,
	}, nil
}

// retrieve scores every chunk against the query, keeps the fetchK most
// relevant, and MMR-selects the final topK.
func (e *Engine) retrieve(queryEmb []float32) []scoredChunk {
	scored := make([]scoredChunk, len(e.index.Chunks))
	for i := range e.index.Chunks {
		scored[i] = scoredChunk{
			chunk: e.index.Chunks[i],
			score: cosineSimilarity(queryEmb, e.index.Chunks[i].Embedding),
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	fetchK := e.fetchK
	if fetchK > len(scored) {
		fetchK = len(scored)
	}
	return maximalMarginalRelevance(scored[:fetchK], e.topK, e.lambda)
}

// dedupeSources keeps first-seen order.
func dedupeSources(selected []scoredChunk) []string {
	var sources []string
	seen := make(map[string]struct{})
	for _, sc := range selected {
		name := sc.chunk.Source
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		sources = append(sources, name)
	}
	return sources
}

func attachSources(answer string, sources []string) string {
	if len(sources) == 0 {
		return answer
	}
	return answer + "\n\nSources: " + strings.Join(sources, ", ")
}

// ModelClient adapts the shared ai.Client to the Embedder and Generator
// interfaces with fixed model configs.
type ModelClient struct {
	client  *ai.Client
	embCfg  ai.EmbeddingConfig
	chatCfg ai.ChatConfig
}

func NewModelClient(client *ai.Client, embCfg ai.EmbeddingConfig, chatCfg ai.ChatConfig) *ModelClient {
	return &ModelClient{client: client, embCfg: embCfg, chatCfg: chatCfg}
}

func (m *ModelClient) Embed(ctx context.Context, text string) ([]float32, error) {
	return m.client.Embed(ctx, m.embCfg, text)
}

func (m *ModelClient) Complete(ctx context.Context, messages []ai.ChatMessage) (string, error) {
	return m.client.Complete(ctx, m.chatCfg, messages)
}
