// Package llm provides LLM provider implementations.
package llm

import (
	"context"
	"fmt"
	"os"

	adkmodel "google.golang.org/adk/model"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/genai"
)

// DefaultModel is used when neither config nor GOOGLE_MODEL names one.
const DefaultModel = "gemini-2.5-flash"

// GeminiProvider implements LLMProvider using Google GenAI Gemini.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// GeminiConfig holds configuration for the Gemini provider.
type GeminiConfig struct {
	APIKey string // If empty, uses GOOGLE_API_KEY env var
	Model  string // e.g., "gemini-2.5-pro"
}

// DefaultGeminiConfig returns default configuration.
func DefaultGeminiConfig() GeminiConfig {
	return GeminiConfig{}
}

func (cfg GeminiConfig) resolve() (apiKey, model string, err error) {
	apiKey = cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if apiKey == "" {
		return "", "", fmt.Errorf("GOOGLE_API_KEY not set")
	}

	model = cfg.Model
	if model == "" {
		model = os.Getenv("GOOGLE_MODEL")
	}
	if model == "" {
		model = DefaultModel
	}
	return apiKey, model, nil
}

func clientConfig(apiKey string) *genai.ClientConfig {
	return &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
}

// NewGeminiProvider creates a new Gemini provider.
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	apiKey, model, err := cfg.resolve()
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, clientConfig(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiProvider{
		client: client,
		model:  model,
	}, nil
}

// NewADKModel creates a tool-calling Gemini model for ADK agents.
func NewADKModel(ctx context.Context, cfg GeminiConfig) (adkmodel.LLM, error) {
	apiKey, model, err := cfg.resolve()
	if err != nil {
		return nil, err
	}
	m, err := gemini.NewModel(ctx, model, clientConfig(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini model (%s): %w", model, err)
	}
	return m, nil
}

// Generate produces a response from Gemini.
func (p *GeminiProvider) Generate(ctx context.Context, prompt string) (string, error) {
	return p.GenerateWithConfig(ctx, prompt, nil)
}

// GenerateWithConfig produces a response with custom generation config.
func (p *GeminiProvider) GenerateWithConfig(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error) {
	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}
	return ResponseText(resp)
}

// ResponseText concatenates the text parts of the first candidate.
func ResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response from gemini")
	}

	var result string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			result += part.Text
		}
	}
	return result, nil
}

// Close closes the provider.
func (p *GeminiProvider) Close() {
	// Client doesn't need explicit close in current SDK
}

// Model returns the model name.
func (p *GeminiProvider) Model() string {
	return p.model
}
