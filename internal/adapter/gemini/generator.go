package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const systemInstruction = "You are a helpful assistant that provides accurate answers based on given context."

const promptTemplate = `You are a helpful assistant that answers questions based on the provided context.
Use only the information from the context below to answer the question. If you cannot answer the question based on the context, say so.

Context:
%s

Question: %s

Answer:`

// Generator produces a grounded answer from a query and a composed context
// via the Gemini generation API. The prompt constrains the model to the
// supplied context; that constraint is a product contract, the engine only
// controls what goes into the context.
type Generator struct {
	client *genai.Client
	model  string
}

func NewGenerator(ctx context.Context, apiKey, model string, opts ...option.ClientOption) (*Generator, error) {
	opts = append(opts, option.WithAPIKey(apiKey))
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &Generator{client: client, model: model}, nil
}

func (g *Generator) Generate(ctx context.Context, query, contextText string) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemInstruction)},
	}

	prompt := fmt.Sprintf(promptTemplate, contextText, query)
	res, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}

	answer := collectText(res)
	if answer == "" {
		return "", fmt.Errorf("empty response from %s", g.model)
	}
	return answer, nil
}

func collectText(res *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, cand := range res.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
	}
	return strings.TrimSpace(sb.String())
}

func (g *Generator) Close() error {
	return g.client.Close()
}
