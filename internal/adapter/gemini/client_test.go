package gemini_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/option"

	"aira/internal/adapter/gemini"
)

func geminiTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(handler)
}

func TestEmbedder_Embed(t *testing.T) {
	ts := geminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"embedding": map[string]interface{}{
				"values": []float32{0.1, 0.2, 0.3},
			},
		})
	})
	defer ts.Close()

	embedder, err := gemini.NewEmbedder(context.Background(), "test-key", "gemini-embedding-001",
		option.WithEndpoint(ts.URL))
	assert.NoError(t, err)
	defer embedder.Close()

	vec, err := embedder.Embed(context.Background(), "hello world")
	assert.NoError(t, err)
	if assert.Len(t, vec, 3) {
		assert.Equal(t, float32(0.1), vec[0])
	}
}

func TestEmbedder_Embed_EmptyEmbedding(t *testing.T) {
	ts := geminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"embedding": map[string]interface{}{"values": []float32{}},
		})
	})
	defer ts.Close()

	embedder, err := gemini.NewEmbedder(context.Background(), "test-key", "gemini-embedding-001",
		option.WithEndpoint(ts.URL))
	assert.NoError(t, err)
	defer embedder.Close()

	vec, err := embedder.Embed(context.Background(), "hello")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "empty embedding")
	assert.Nil(t, vec)
}

func TestEmbedder_Model(t *testing.T) {
	embedder, err := gemini.NewEmbedder(context.Background(), "test-key", "gemini-embedding-001",
		option.WithEndpoint("http://127.0.0.1:0"))
	assert.NoError(t, err)
	defer embedder.Close()

	assert.Equal(t, "gemini-embedding-001", embedder.Model())
}

func TestGenerator_Generate(t *testing.T) {
	var prompt string
	ts := geminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if contents, ok := body["contents"].([]interface{}); ok && len(contents) > 0 {
			content := contents[0].(map[string]interface{})
			if parts, ok := content["parts"].([]interface{}); ok && len(parts) > 0 {
				part := parts[0].(map[string]interface{})
				prompt, _ = part["text"].(string)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{
					"content": map[string]interface{}{
						"parts": []map[string]interface{}{
							{"text": "Grounded answer."},
						},
						"role": "model",
					},
				},
			},
		})
	})
	defer ts.Close()

	generator, err := gemini.NewGenerator(context.Background(), "test-key", "gemini-1.5-flash",
		option.WithEndpoint(ts.URL))
	assert.NoError(t, err)
	defer generator.Close()

	answer, err := generator.Generate(context.Background(), "what is aira?", "Source: https://a.example.com/\nsome context")
	assert.NoError(t, err)
	assert.Equal(t, "Grounded answer.", answer)

	// The prompt carries both the context and the question, and instructs
	// the model to stay within the context.
	assert.Contains(t, prompt, "some context")
	assert.Contains(t, prompt, "what is aira?")
	assert.Contains(t, prompt, "Use only the information from the context below")
}

func TestGenerator_Generate_EmptyResponse(t *testing.T) {
	ts := geminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{},
		})
	})
	defer ts.Close()

	generator, err := gemini.NewGenerator(context.Background(), "test-key", "gemini-1.5-flash",
		option.WithEndpoint(ts.URL))
	assert.NoError(t, err)
	defer generator.Close()

	_, err = generator.Generate(context.Background(), "q", "ctx")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
}
