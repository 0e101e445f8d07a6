package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/api/option"

	"github.com/billsnap/bill-analyzer-service/internal/models"
)

// Provider abstracts the LLM backend used for the second-opinion pass
type Provider interface {
	// Complete sends a prompt and returns the raw model response
	Complete(ctx context.Context, prompt string) (string, error)
	Name() string
}

// NewProvider builds the configured provider, or returns nil when the
// assist pass is disabled
func NewProvider(cfg models.AIConfig) (Provider, error) {
	switch cfg.DefaultProvider {
	case "":
		return nil, nil
	case "openai":
		return NewOpenAIProvider(cfg.OpenAI), nil
	case "gemini":
		return NewGeminiProvider(cfg.Gemini)
	case "ollama":
		return NewOllamaProvider(cfg.Ollama), nil
	default:
		return nil, fmt.Errorf("unknown AI provider: %s", cfg.DefaultProvider)
	}
}

// OpenAIProvider talks to OpenAI or any OpenAI-compatible endpoint
type OpenAIProvider struct {
	client *openai.Client
	model  string
	name   string
}

// NewOpenAIProvider creates an OpenAI-backed provider
func NewOpenAIProvider(cfg models.OpenAIConfig) *OpenAIProvider {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
		name:   "openai",
	}
}

// NewOllamaProvider creates a provider backed by a local Ollama server,
// using its OpenAI-compatible API
func NewOllamaProvider(cfg models.OllamaConfig) *OpenAIProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	clientConfig := openai.DefaultConfig("ollama")
	clientConfig.BaseURL = strings.TrimSuffix(baseURL, "/") + "/v1"

	model := cfg.Model
	if model == "" {
		model = "mistral"
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
		name:   "ollama",
	}
}

func (p *OpenAIProvider) Name() string {
	return p.name
}

func (p *OpenAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%s completion failed: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", p.name)
	}
	return resp.Choices[0].Message.Content, nil
}

// GeminiProvider talks to Google Gemini
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a Gemini-backed provider
func NewGeminiProvider(cfg models.GeminiConfig) (*GeminiProvider, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-1.5-flash"
	}

	return &GeminiProvider{
		client: client,
		model:  model,
	}, nil
}

func (p *GeminiProvider) Name() string {
	return "gemini"
}

func (p *GeminiProvider) Complete(ctx context.Context, prompt string) (string, error) {
	model := p.client.GenerativeModel(p.model)
	model.SetTemperature(0)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini completion failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}

// Close releases provider resources
func (p *GeminiProvider) Close() error {
	return p.client.Close()
}
