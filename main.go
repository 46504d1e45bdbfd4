package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nsqio/go-nsq"

	"aira/internal/adapter/gemini"
	"aira/internal/app"
	"aira/internal/config"
	"aira/internal/logger"
)

func main() {
	// Structured logger; the context handler stamps every record with the
	// request's correlation id.
	baseHandler := slog.NewJSONHandler(os.Stdout, nil)
	slog.SetDefault(slog.New(logger.NewContextHandler(baseHandler)))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer deps.DB.Close()

	embedder, err := gemini.NewEmbedder(ctx, cfg.GeminiAPIKey, cfg.EmbeddingModel)
	if err != nil {
		slog.Error("failed to create gemini embedder", "error", err)
		os.Exit(1)
	}
	defer embedder.Close()

	generator, err := gemini.NewGenerator(ctx, cfg.GeminiAPIKey, cfg.GenerationModel)
	if err != nil {
		slog.Error("failed to create gemini generator", "error", err)
		os.Exit(1)
	}
	defer generator.Close()

	application, err := app.New(cfg, deps, embedder, generator)
	if err != nil {
		slog.Error("failed to build app", "error", err)
		os.Exit(1)
	}

	// Worker role: consume ingestion tasks from NSQ. The same binary serves
	// HTTP and works the queue unless ENABLE_WORKER says otherwise.
	if cfg.EnableWorker {
		consumer, err := nsq.NewConsumer(config.TopicIngestTask, config.ChannelWorkers, nsq.NewConfig())
		if err != nil {
			slog.Error("failed to create NSQ consumer", "error", err)
			os.Exit(1)
		}
		consumer.AddConcurrentHandlers(nsq.HandlerFunc(func(m *nsq.Message) error {
			return application.TaskConsumer.HandleMessage(m)
		}), cfg.WorkerConcurrency)

		if err := consumer.ConnectToNSQLookupd(cfg.NSQLookupd); err != nil {
			slog.Error("failed to connect to NSQLookupd", "error", err)
			os.Exit(1)
		}
		slog.Info("task consumer connected", "topic", config.TopicIngestTask, "concurrency", cfg.WorkerConcurrency)
		defer consumer.Stop()
	}

	if err := application.Run(ctx); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
