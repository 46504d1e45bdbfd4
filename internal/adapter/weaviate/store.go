package weaviate

import (
	"context"
	"fmt"

	"github.com/go-openapi/strfmt"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"aira/internal/retrieval"
	"aira/internal/worker"
)

const className = "DocumentChunk"

// Store persists chunks in Weaviate. Object ids come from the pipeline's
// deterministic chunk-id scheme, so batch writes behave as upserts.
type Store struct {
	client         *weaviate.Client
	embeddingModel string
}

func NewStore(client *weaviate.Client, embeddingModel string) *Store {
	return &Store{client: client, embeddingModel: embeddingModel}
}

// UpsertChunks writes all chunks of one job as a single batch. Re-ingestion
// of the same URL reuses the same ids and overwrites in place. Concurrent
// batches for different URLs never share ids, so they cannot conflict.
func (s *Store) UpsertChunks(ctx context.Context, chunks []worker.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	objects := make([]*models.Object, len(chunks))
	for i, c := range chunks {
		objects[i] = &models.Object{
			Class: className,
			ID:    strfmt.UUID(c.ID),
			Properties: map[string]interface{}{
				"content":        c.Text,
				"url":            c.SourceURL,
				"chunkIndex":     c.Index,
				"totalChunks":    c.TotalChunks,
				"embeddingModel": s.embeddingModel,
			},
			Vector: c.Vector,
		}
	}

	res, err := s.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return err
	}
	for _, obj := range res {
		if obj.Result != nil && obj.Result.Errors != nil && len(obj.Result.Errors.Error) > 0 {
			return fmt.Errorf("batch upsert rejected object %s: %s", obj.ID, obj.Result.Errors.Error[0].Message)
		}
	}
	return nil
}

// Query returns the topK chunks nearest to vector, most similar first.
func (s *Store) Query(ctx context.Context, vector []float32, topK int) ([]retrieval.RetrievedChunk, error) {
	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(vector)

	fields := []graphql.Field{
		{Name: "content"},
		{Name: "url"},
		{Name: "chunkIndex"},
		{Name: "totalChunks"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "certainty"}}},
	}

	res, err := s.client.GraphQL().Get().
		WithClassName(className).
		WithNearVector(nearVector).
		WithLimit(topK).
		WithFields(fields...).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %v", res.Errors)
	}

	var results []retrieval.RetrievedChunk
	data, ok := res.Data["Get"].(map[string]interface{})
	if !ok {
		return results, nil
	}
	rawChunks, ok := data[className].([]interface{})
	if !ok {
		return results, nil
	}

	for _, raw := range rawChunks {
		props, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		chunk := retrieval.RetrievedChunk{}
		if content, ok := props["content"].(string); ok {
			chunk.Text = content
		}
		if url, ok := props["url"].(string); ok {
			chunk.SourceURL = url
		}
		if idx, ok := props["chunkIndex"].(float64); ok {
			chunk.ChunkIndex = int(idx)
		}
		if total, ok := props["totalChunks"].(float64); ok {
			chunk.TotalChunks = int(total)
		}
		if additional, ok := props["_additional"].(map[string]interface{}); ok {
			// Certainty arrives as a JSON number, but older server versions
			// stringify additional fields.
			if certainty, ok := additional["certainty"].(float64); ok {
				chunk.Score = float32(certainty)
			} else if str, ok := additional["certainty"].(string); ok {
				var f float64
				fmt.Sscanf(str, "%f", &f)
				chunk.Score = float32(f)
			}
		}
		results = append(results, chunk)
	}
	return results, nil
}

// CountChunks reports how many chunks are indexed, for the stats endpoint.
func (s *Store) CountChunks(ctx context.Context) (int, error) {
	res, err := s.client.GraphQL().Aggregate().
		WithClassName(className).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil {
		return 0, err
	}
	if len(res.Errors) > 0 {
		return 0, fmt.Errorf("graphql error: %v", res.Errors)
	}

	data, ok := res.Data["Aggregate"].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	entries, ok := data[className].([]interface{})
	if !ok || len(entries) == 0 {
		return 0, nil
	}
	entry, ok := entries[0].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	meta, ok := entry["meta"].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	count, _ := meta["count"].(float64)
	return int(count), nil
}
