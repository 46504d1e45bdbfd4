package retrieval

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// NoContextAnswer is returned when retrieval finds nothing to ground an
// answer in. An empty index is a valid outcome, not an error.
const NoContextAnswer = "No relevant content was found in the index for this question. Ingest some URLs first."

const contextSeparator = "\n\n---\n\n"

// RetrievedChunk is one fragment returned by the vector index, in
// descending relevance order.
type RetrievedChunk struct {
	Text        string  `json:"text"`
	SourceURL   string  `json:"source_url"`
	ChunkIndex  int     `json:"chunk_index"`
	TotalChunks int     `json:"total_chunks"`
	Score       float32 `json:"score"`
}

// Result is the answer to one query together with the distinct source URLs
// that grounded it, ordered by first appearance in the relevance ranking.
type Result struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// Stage names the query step that failed.
type Stage string

const (
	StageEmbedding  Stage = "embedding"
	StageRetrieval  Stage = "retrieval"
	StageGeneration Stage = "generation"
)

// QueryError is the typed failure the engine surfaces. Callers need to tell
// "nothing relevant indexed" (a Result) apart from "the system could not
// answer" (this error); an empty answer is never silently substituted.
type QueryError struct {
	Stage Stage
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed during %s: %v", e.Stage, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type VectorStore interface {
	Query(ctx context.Context, vector []float32, topK int) ([]RetrievedChunk, error)
}

type Generator interface {
	Generate(ctx context.Context, query, contextText string) (string, error)
}

type Engine struct {
	embedder        Embedder
	store           VectorStore
	generator       Generator
	logger          *QueryLogger
	defaultTopK     int
	maxContextChars int
}

func NewEngine(e Embedder, s VectorStore, g Generator, l *QueryLogger, defaultTopK, maxContextChars int) *Engine {
	return &Engine{
		embedder:        e,
		store:           s,
		generator:       g,
		logger:          l,
		defaultTopK:     defaultTopK,
		maxContextChars: maxContextChars,
	}
}

// Answer embeds the query, retrieves the topK most similar chunks, composes
// a bounded context and generates a grounded answer. topK values below 1
// fall back to the configured default.
func (e *Engine) Answer(ctx context.Context, query string, topK int) (*Result, error) {
	start := time.Now()
	if topK < 1 {
		topK = e.defaultTopK
	}

	vec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, &QueryError{Stage: StageEmbedding, Err: err}
	}

	chunks, err := e.store.Query(ctx, vec, topK)
	if err != nil {
		return nil, &QueryError{Stage: StageRetrieval, Err: err}
	}

	if len(chunks) == 0 {
		e.log(query, 0, start)
		return &Result{Answer: NoContextAnswer, Sources: []string{}}, nil
	}

	answer, err := e.generator.Generate(ctx, query, e.composeContext(chunks))
	if err != nil {
		return nil, &QueryError{Stage: StageGeneration, Err: err}
	}

	e.log(query, len(chunks), start)
	return &Result{Answer: answer, Sources: sourceURLs(chunks)}, nil
}

// composeContext concatenates chunk texts, each tagged with its source URL,
// most relevant first. When the budget runs out whole chunks are dropped
// from the low-relevance tail; a chunk is never split. The top chunk is
// always included even if it alone exceeds the budget.
func (e *Engine) composeContext(chunks []RetrievedChunk) string {
	var sb strings.Builder
	for i, c := range chunks {
		block := fmt.Sprintf("Source: %s\n%s", c.SourceURL, c.Text)
		cost := len(block)
		if i > 0 {
			cost += len(contextSeparator)
		}
		if i > 0 && sb.Len()+cost > e.maxContextChars {
			break
		}
		if i > 0 {
			sb.WriteString(contextSeparator)
		}
		sb.WriteString(block)
	}
	return sb.String()
}

// sourceURLs deduplicates source URLs preserving first-seen relevance order.
func sourceURLs(chunks []RetrievedChunk) []string {
	seen := make(map[string]bool, len(chunks))
	sources := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if seen[c.SourceURL] {
			continue
		}
		seen[c.SourceURL] = true
		sources = append(sources, c.SourceURL)
	}
	return sources
}

func (e *Engine) log(query string, numResults int, start time.Time) {
	if e.logger == nil {
		return
	}
	e.logger.Log(QueryLogEntry{
		Query:      query,
		NumResults: numResults,
		Duration:   time.Since(start),
	})
}
