package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"aira/features/ingest"
	"aira/features/query"
	"aira/features/stats"
	"aira/internal/config"
	"aira/internal/middleware"
	"aira/internal/retrieval"
	"aira/internal/scraper"
	"aira/internal/worker"
)

// App wires the HTTP surface and the background pipeline together. The
// TaskConsumer is exposed so main can attach it to an NSQ consumer when the
// worker role is enabled.
type App struct {
	Handler      http.Handler
	IngestSvc    *ingest.Service
	TaskConsumer *worker.TaskConsumer
	port         int
}

func New(
	cfg *config.Config,
	deps *Dependencies,
	embedder retrieval.Embedder,
	generator retrieval.Generator,
) (*App, error) {

	// Feature: Ingest
	ingestRepo := ingest.NewPostgresRepo(deps.DB)
	ingestService := ingest.NewService(ingestRepo, deps.Queue)
	ingestHandler := ingest.NewHandler(ingestService)

	// Feature: Query
	queryLogger, err := retrieval.NewFileQueryLogger(cfg.QueryLogPath)
	if err != nil {
		slog.Warn("failed to create query logger, falling back to stdout", "error", err)
		queryLogger = retrieval.NewQueryLogger(os.Stdout)
	}
	engine := retrieval.NewEngine(embedder, deps.VectorStore, generator, queryLogger, cfg.QueryTopK, cfg.MaxContextChars)
	queryHandler := query.NewHandler(engine)

	// Feature: Stats
	statsHandler := stats.NewHandler(ingestRepo, deps.VectorStore, deps.Queue)

	// Worker pipeline. The embedder is shared with the query path; both sides
	// must produce vectors in the same space.
	pipeline := worker.NewPipeline(
		ingestRepo,
		scraper.New(time.Duration(cfg.FetchTimeoutSeconds)*time.Second),
		embedder,
		deps.VectorStore,
		worker.PipelineConfig{
			ChunkSizeWords:    cfg.ChunkSizeWords,
			ChunkOverlapWords: cfg.ChunkOverlapWords,
			MinContentWords:   cfg.MinContentWords,
			EmbedTimeout:      time.Duration(cfg.EmbedTimeoutSeconds) * time.Second,
			EmbeddingModel:    cfg.EmbeddingModel,
		},
	)
	taskConsumer := worker.NewTaskConsumer(pipeline)

	// Middleware: CORS
	enableCORS := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	// Routes
	mux := http.NewServeMux()

	mux.Handle("POST /ingest", middleware.CorrelationID(enableCORS(ingestHandler.Submit)))
	mux.Handle("GET /status", middleware.CorrelationID(enableCORS(ingestHandler.Status)))

	mux.Handle("POST /query", middleware.CorrelationID(enableCORS(queryHandler.Answer)))

	mux.Handle("GET /stats", middleware.CorrelationID(enableCORS(statsHandler.Stats)))
	mux.Handle("GET /queue-info", middleware.CorrelationID(enableCORS(statsHandler.QueueInfoHandler)))
	mux.Handle("GET /health", middleware.CorrelationID(enableCORS(statsHandler.Health)))

	return &App{
		Handler:      mux,
		IngestSvc:    ingestService,
		TaskConsumer: taskConsumer,
		port:         cfg.ServerPort,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.port),
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
