package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nsqio/go-nsq"

	"aira/features/ingest"
	"aira/internal/middleware"
)

// Processor is implemented by Pipeline; tests substitute their own.
type Processor interface {
	Process(ctx context.Context, url string) error
}

// TaskConsumer adapts the pipeline to NSQ's handler interface. Several of
// these run concurrently off the same channel; redelivery of a message a
// worker already handled is neutralized by the pipeline's claim step.
type TaskConsumer struct {
	pipeline Processor
}

func NewTaskConsumer(pipeline Processor) *TaskConsumer {
	return &TaskConsumer{pipeline: pipeline}
}

func (c *TaskConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var payload ingest.TaskPayload
	if err := json.Unmarshal(m.Body, &payload); err != nil {
		// Poison pill: requeueing malformed JSON never helps.
		slog.Error("dropping malformed task message", "error", err)
		return nil
	}
	if payload.URL == "" {
		slog.Error("dropping task with no url")
		return nil
	}

	ctx := context.Background()
	if payload.CorrelationID != "" {
		ctx = middleware.WithCorrelationID(ctx, payload.CorrelationID)
	}

	// A non-nil return here means the job store itself was unreachable;
	// NSQ redelivers and the claim step keeps that retry idempotent.
	return c.pipeline.Process(ctx, payload.URL)
}
