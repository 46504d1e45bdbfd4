package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"aira/internal/config"
	"aira/internal/middleware"
)

type EventPublisher interface {
	Publish(topic string, body []byte) error
}

// TaskPayload is the message placed on the ingestion queue. Workers look the
// job up by URL, so the URL is the whole identity of the task.
type TaskPayload struct {
	URL           string `json:"url"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

type Service struct {
	repo Repository
	pub  EventPublisher
}

func NewService(repo Repository, pub EventPublisher) *Service {
	return &Service{repo: repo, pub: pub}
}

// Submit registers rawURL for ingestion. Re-submitting a known URL never
// creates a second record: a job mid-processing is a no-op, a terminal job
// is reset to pending (the explicit retry path), and a pending job is simply
// re-published, which the worker-side claim makes harmless.
func (s *Service) Submit(ctx context.Context, rawURL string) (*Job, error) {
	url, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	job, created, err := s.repo.CreateIfAbsent(ctx, url)
	if err != nil {
		return nil, err
	}

	switch {
	case created:
		slog.InfoContext(ctx, "job created", "url", url)
	case job.Status == StatusProcessing:
		slog.InfoContext(ctx, "job already processing, submission is a no-op", "url", url)
		return job, nil
	case job.Status.Terminal():
		requeued, err := s.repo.Requeue(ctx, url)
		if err != nil {
			return nil, err
		}
		if !requeued {
			// Lost a race with another submitter; the job is already back
			// in flight and that submission owns the enqueue.
			return s.repo.Get(ctx, url)
		}
		slog.InfoContext(ctx, "terminal job requeued", "url", url, "previous_status", job.Status)
		job, err = s.repo.Get(ctx, url)
		if err != nil {
			return nil, err
		}
	}

	if err := s.enqueue(ctx, url); err != nil {
		return nil, fmt.Errorf("job recorded but enqueue failed: %w", err)
	}
	return job, nil
}

func (s *Service) enqueue(ctx context.Context, url string) error {
	payload, err := json.Marshal(TaskPayload{
		URL:           url,
		CorrelationID: middleware.GetCorrelationID(ctx),
	})
	if err != nil {
		return err
	}
	if err := s.pub.Publish(config.TopicIngestTask, payload); err != nil {
		slog.ErrorContext(ctx, "failed to publish ingest task", "error", err, "url", url)
		return err
	}
	slog.InfoContext(ctx, "published ingest task", "url", url)
	return nil
}

// Get returns the job for rawURL, normalizing first so status lookups accept
// the same spellings Submit does.
func (s *Service) Get(ctx context.Context, rawURL string) (*Job, error) {
	url, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, url)
}

func (s *Service) List(ctx context.Context) ([]Job, error) {
	return s.repo.List(ctx)
}
