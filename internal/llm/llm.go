// Package llm implements transaction classifiers backed by hosted language
// models.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/gastos-dev/gastos/internal/pipeline"
)

const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Options selects and configures a classifier.
type Options struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
	Prompt   string
}

// New returns the classifier for opts.Provider.
func New(ctx context.Context, opts Options) (pipeline.Classifier, error) {
	switch strings.ToLower(opts.Provider) {
	case ProviderGroq, "":
		base := opts.BaseURL
		if base == "" {
			base = GroqBaseURL
		}
		return NewOpenAIClassifier(opts.APIKey, base, opts.Model, Prompt(opts.Prompt)), nil
	case ProviderOpenAI:
		base := opts.BaseURL
		if base == GroqBaseURL {
			base = ""
		}
		return NewOpenAIClassifier(opts.APIKey, base, opts.Model, Prompt(opts.Prompt)), nil
	case ProviderGemini:
		base := opts.BaseURL
		if base == GroqBaseURL {
			base = ""
		}
		return NewGeminiClassifier(ctx, opts.APIKey, base, opts.Model, Prompt(opts.Prompt))
	default:
		return nil, fmt.Errorf("unknown classifier provider %q", opts.Provider)
	}
}
