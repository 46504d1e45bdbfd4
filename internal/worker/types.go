package worker

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"aira/features/ingest"
)

// Chunk is one embedded fragment of a source document, the unit stored in
// the vector index.
type Chunk struct {
	ID          string
	SourceURL   string
	Index       int
	TotalChunks int
	Text        string
	Vector      []float32
}

// ChunkID derives the vector-store id for a chunk deterministically from its
// source URL and position. Re-ingesting a URL therefore overwrites its old
// chunks instead of appending duplicates.
func ChunkID(sourceURL string, index int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s#%d", sourceURL, index))).String()
}

type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type VectorStore interface {
	UpsertChunks(ctx context.Context, chunks []Chunk) error
}

// JobStore is the slice of the job repository the pipeline needs.
type JobStore interface {
	CompareAndSetStatus(ctx context.Context, url string, expected, next ingest.Status) (bool, error)
	SetFailed(ctx context.Context, url, message string) error
	SetCompleted(ctx context.Context, url string, chunkCount int) error
}

// FailureKind classifies which pipeline step a job died in. The kind
// prefixes the job's error_message so failures are inspectable via the
// status endpoint.
type FailureKind string

const (
	FetchError        FailureKind = "FetchError"
	EmptyContentError FailureKind = "EmptyContentError"
	EmbeddingError    FailureKind = "EmbeddingError"
	IndexError        FailureKind = "IndexError"
	InternalError     FailureKind = "InternalError"
)
