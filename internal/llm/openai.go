package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// GroqBaseURL is Groq's OpenAI-compatible endpoint.
const GroqBaseURL = "https://api.groq.com/openai/v1"

// ErrEmptyResponse is returned when the service answers without text.
var ErrEmptyResponse = errors.New("empty response")

// OpenAIClassifier classifies through an OpenAI-compatible chat completions
// API (Groq, OpenAI).
type OpenAIClassifier struct {
	client openai.Client
	model  string
	prompt Prompt
}

// NewOpenAIClassifier creates a classifier. An empty baseURL uses the SDK
// default. SDK retries are off; the caller owns retry policy.
func NewOpenAIClassifier(apiKey, baseURL, model string, prompt Prompt) *OpenAIClassifier {
	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(apiKey)),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIClassifier{
		client: openai.NewClient(opts...),
		model:  strings.TrimSpace(model),
		prompt: prompt,
	}
}

// Classify sends one chat completion request and returns the reply text.
func (c *OpenAIClassifier) Classify(ctx context.Context, text string, categories []string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(c.prompt.Render(text, categories)),
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: %w", ErrEmptyResponse)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
