package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiClassifier classifies through the Gemini API.
type GeminiClassifier struct {
	client *genai.Client
	model  string
	prompt Prompt
}

// NewGeminiClassifier creates a Gemini client. baseURL overrides the API
// endpoint when set.
func NewGeminiClassifier(ctx context.Context, apiKey, baseURL, model string, prompt Prompt) (*GeminiClassifier, error) {
	cfg := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(apiKey),
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiClassifier{client: client, model: strings.TrimSpace(model), prompt: prompt}, nil
}

// Classify sends one generate-content request and returns the reply text.
func (c *GeminiClassifier) Classify(ctx context.Context, text string, categories []string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		genai.Text(c.prompt.Render(text, categories)),
		&genai.GenerateContentConfig{Temperature: genai.Ptr[float32](0)},
	)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	out := strings.TrimSpace(resp.Text())
	if out == "" {
		return "", fmt.Errorf("generate content: %w", ErrEmptyResponse)
	}
	return out, nil
}
