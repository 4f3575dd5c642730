package assistant

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Completer is the narrow view of the language-model completion service.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// GeminiCompleter implements Completer with the Gemini API. Credentials come
// from the environment (GEMINI_API_KEY or Application Default Credentials).
type GeminiCompleter struct {
	model string
}

// NewGeminiCompleter creates a completer for the given model name.
func NewGeminiCompleter(model string) *GeminiCompleter {
	return &GeminiCompleter{model: model}
}

// Complete sends the assembled messages to Gemini and returns the reply
// text. System-role messages become the system instruction; assistant turns
// map to the "model" role.
func (g *GeminiCompleter) Complete(ctx context.Context, messages []Message) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return "", fmt.Errorf("Complete: create genai client: %w", err)
	}

	cfg := &genai.GenerateContentConfig{}
	var contents []*genai.Content
	for _, m := range messages {
		switch m.Role {
		case "system":
			cfg.SystemInstruction = &genai.Content{
				Parts: []*genai.Part{{Text: m.Content}},
			}
		case "assistant":
			contents = append(contents, &genai.Content{
				Role:  "model",
				Parts: []*genai.Part{{Text: m.Content}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{{Text: m.Content}},
			})
		}
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("Complete: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("Complete: empty response from model")
	}
	return text, nil
}
