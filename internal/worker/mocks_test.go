package worker_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"aira/features/ingest"
	"aira/internal/worker"
)

// Mocks

type MockFetcher struct{ mock.Mock }

func (m *MockFetcher) Fetch(ctx context.Context, url string) (string, error) {
	args := m.Called(ctx, url)
	return args.String(0), args.Error(1)
}

type MockEmbedder struct{ mock.Mock }

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

type MockVectorStore struct{ mock.Mock }

func (m *MockVectorStore) UpsertChunks(ctx context.Context, chunks []worker.Chunk) error {
	args := m.Called(ctx, chunks)
	return args.Error(0)
}

type MockJobStore struct{ mock.Mock }

func (m *MockJobStore) CompareAndSetStatus(ctx context.Context, url string, expected, next ingest.Status) (bool, error) {
	args := m.Called(ctx, url, expected, next)
	return args.Bool(0), args.Error(1)
}

func (m *MockJobStore) SetFailed(ctx context.Context, url, message string) error {
	args := m.Called(ctx, url, message)
	return args.Error(0)
}

func (m *MockJobStore) SetCompleted(ctx context.Context, url string, chunkCount int) error {
	args := m.Called(ctx, url, chunkCount)
	return args.Error(0)
}

type MockProcessor struct{ mock.Mock }

func (m *MockProcessor) Process(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}
