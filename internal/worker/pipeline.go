package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"aira/features/ingest"
	"aira/internal/text"
)

// PipelineConfig carries the chunking and timeout knobs the pipeline runs
// with. Chunk sizing is validated once at startup; the pipeline trusts it.
type PipelineConfig struct {
	ChunkSizeWords    int
	ChunkOverlapWords int
	MinContentWords   int
	EmbedTimeout      time.Duration
	EmbeddingModel    string
}

// Pipeline processes one ingestion job end to end: claim, fetch, extract,
// chunk, embed, index, finalize. Every step failure is recorded on the job
// and terminates the attempt; nothing is retried here.
type Pipeline struct {
	jobs     JobStore
	fetcher  Fetcher
	embedder Embedder
	store    VectorStore
	cfg      PipelineConfig
}

func NewPipeline(jobs JobStore, fetcher Fetcher, embedder Embedder, store VectorStore, cfg PipelineConfig) *Pipeline {
	return &Pipeline{jobs: jobs, fetcher: fetcher, embedder: embedder, store: store, cfg: cfg}
}

// Process runs the pipeline for url. The returned error is only ever a job
// store failure during the claim; job-level failures are absorbed into the
// job record so the caller's loop keeps running.
func (p *Pipeline) Process(ctx context.Context, url string) error {
	// Claim. The compare-and-set is the at-most-one-processing guarantee:
	// under at-least-once delivery a second claimant sees a non-pending
	// status and walks away.
	claimed, err := p.jobs.CompareAndSetStatus(ctx, url, ingest.StatusPending, ingest.StatusProcessing)
	if err != nil {
		return fmt.Errorf("claiming job %s: %w", url, err)
	}
	if !claimed {
		slog.InfoContext(ctx, "job not pending, skipping", "url", url)
		return nil
	}

	// Fetch + extract.
	raw, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		return p.fail(ctx, url, FetchError, err)
	}

	if text.WordCount(raw) < p.cfg.MinContentWords {
		return p.fail(ctx, url, EmptyContentError,
			fmt.Errorf("extracted %d words, need at least %d", text.WordCount(raw), p.cfg.MinContentWords))
	}

	// Chunk.
	pieces := text.ChunkWords(raw, p.cfg.ChunkSizeWords, p.cfg.ChunkOverlapWords)
	if len(pieces) == 0 {
		// Unreachable for non-empty text; treat as a bug, not a fetch issue.
		return p.fail(ctx, url, InternalError, fmt.Errorf("chunker produced no chunks for non-empty text"))
	}

	// Embed. No index writes happen until every chunk has a vector, so a
	// mid-batch embedding failure leaves the index untouched.
	chunks := make([]Chunk, len(pieces))
	for i, piece := range pieces {
		vec, err := p.embed(ctx, piece)
		if err != nil {
			return p.fail(ctx, url, EmbeddingError, fmt.Errorf("chunk %d/%d: %w", i, len(pieces), err))
		}
		chunks[i] = Chunk{
			ID:          ChunkID(url, i),
			SourceURL:   url,
			Index:       i,
			TotalChunks: len(pieces),
			Text:        piece,
			Vector:      vec,
		}
	}

	// Index. Deterministic ids make this an overwrite on re-ingestion.
	if err := p.store.UpsertChunks(ctx, chunks); err != nil {
		return p.fail(ctx, url, IndexError, err)
	}

	// Finalize.
	if err := p.jobs.SetCompleted(ctx, url, len(chunks)); err != nil {
		slog.ErrorContext(ctx, "failed to finalize job", "error", err, "url", url)
		return fmt.Errorf("finalizing job %s: %w", url, err)
	}

	slog.InfoContext(ctx, "job completed", "url", url, "chunks", len(chunks))
	return nil
}

func (p *Pipeline) embed(ctx context.Context, piece string) ([]float32, error) {
	embedCtx, cancel := context.WithTimeout(ctx, p.cfg.EmbedTimeout)
	defer cancel()
	return p.embedder.Embed(embedCtx, piece)
}

// fail records a step failure on the job. The message keeps the kind as a
// prefix ("FetchError: ...") so status lookups show where the job died.
func (p *Pipeline) fail(ctx context.Context, url string, kind FailureKind, cause error) error {
	message := fmt.Sprintf("%s: %v", kind, cause)
	slog.ErrorContext(ctx, "job failed", "url", url, "kind", string(kind), "error", cause)
	if err := p.jobs.SetFailed(ctx, url, message); err != nil {
		slog.ErrorContext(ctx, "failed to record job failure", "error", err, "url", url)
	}
	return nil
}
