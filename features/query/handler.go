package query

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"aira/internal/middleware"
	"aira/internal/retrieval"
)

type Engine interface {
	Answer(ctx context.Context, query string, topK int) (*retrieval.Result, error)
}

type Handler struct {
	engine Engine
}

func NewHandler(engine Engine) *Handler {
	return &Handler{engine: engine}
}

type request struct {
	Query string `json:"query"`
	TopK  *int   `json:"top_k,omitempty"`
}

type response struct {
	Query      string   `json:"query"`
	Answer     string   `json:"answer"`
	Sources    []string `json:"sources"`
	NumSources int      `json:"num_sources"`
}

// Answer handles POST /query. A query that retrieves nothing still succeeds
// with a no-context answer; only genuine engine failures become errors.
func (h *Handler) Answer(w http.ResponseWriter, r *http.Request) {
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "query is required", http.StatusBadRequest)
		return
	}

	topK := 0 // engine falls back to its configured default
	if req.TopK != nil {
		if *req.TopK < 1 {
			h.writeError(r.Context(), w, "VALIDATION_ERROR", "top_k must be at least 1", http.StatusBadRequest)
			return
		}
		topK = *req.TopK
	}

	result, err := h.engine.Answer(r.Context(), req.Query, topK)
	if err != nil {
		var qe *retrieval.QueryError
		if errors.As(err, &qe) {
			slog.ErrorContext(r.Context(), "query failed", "stage", string(qe.Stage), "error", qe.Err)
			h.writeError(r.Context(), w, "QUERY_ERROR", qe.Error(), http.StatusBadGateway)
			return
		}
		slog.ErrorContext(r.Context(), "query failed", "error", err)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response{
		Query:      req.Query,
		Answer:     result.Answer,
		Sources:    result.Sources,
		NumSources: len(result.Sources),
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
