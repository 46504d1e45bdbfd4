package stats

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"aira/internal/config"
	"aira/internal/middleware"
)

type JobRepo interface {
	Count(ctx context.Context) (int, error)
}

type VectorStore interface {
	CountChunks(ctx context.Context) (int, error)
}

type QueueInfo interface {
	Depth(ctx context.Context, topic string) (int, error)
	Connected() bool
}

type Handler struct {
	jobRepo     JobRepo
	vectorStore VectorStore
	queue       QueueInfo
}

func NewHandler(j JobRepo, v VectorStore, q QueueInfo) *Handler {
	return &Handler{jobRepo: j, vectorStore: v, queue: q}
}

// Health handles GET /health: liveness plus a quick look at the queue and
// the index, mirroring what operators ask first when ingestion stalls.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	totalChunks, err := h.vectorStore.CountChunks(ctx)
	if err != nil {
		slog.WarnContext(ctx, "failed to count chunks for health", "error", err)
		totalChunks = -1
	}

	w.Header().Set("Content-Type", "application/json")
	resp := map[string]interface{}{
		"status":          "ok",
		"queue_connected": h.queue.Connected(),
		"total_chunks":    totalChunks,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type StatsResponse struct {
	Jobs       int `json:"jobs"`
	Chunks     int `json:"chunks"`
	QueueDepth int `json:"queue_depth"`
}

// Stats handles GET /stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	jobs, err := h.jobRepo.Count(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count jobs", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count jobs", http.StatusInternalServerError)
		return
	}

	chunks, err := h.vectorStore.CountChunks(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count chunks", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count chunks", http.StatusInternalServerError)
		return
	}

	depth, err := h.queue.Depth(ctx, config.TopicIngestTask)
	if err != nil {
		slog.WarnContext(ctx, "failed to read queue depth", "error", err)
		depth = -1
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"data": StatsResponse{Jobs: jobs, Chunks: chunks, QueueDepth: depth},
	}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// QueueInfoHandler handles GET /queue-info.
func (h *Handler) QueueInfoHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	depth, err := h.queue.Depth(ctx, config.TopicIngestTask)
	if err != nil {
		slog.WarnContext(ctx, "failed to read queue depth", "error", err)
		h.writeError(ctx, w, "QUEUE_UNAVAILABLE", err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"queue_length":    depth,
		"queue_connected": h.queue.Connected(),
	}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
