package models

import (
	"time"

	"github.com/billsnap/bill-analyzer-service/internal/engine"
)

// AnalyzeRequest represents the input for bill analysis
type AnalyzeRequest struct {
	// Image data (sent as multipart) or raw OCR text (skips the OCR step)
	ImageData []byte `json:"-"`
	Text      string `json:"text"`

	// Locale context for the scan
	Language string `json:"language"`
	Country  string `json:"country"`

	// Optional hints that override locale defaults
	Currency string `json:"currency"`
	Company  string `json:"company"`
}

// AnalyzeResponse represents the output of bill analysis
type AnalyzeResponse struct {
	Success bool                   `json:"success"`
	BillID  string                 `json:"billId,omitempty"`
	Result  *engine.AnalysisResult `json:"result,omitempty"`
	Error   string                 `json:"error,omitempty"`

	// Processing metadata
	OCRConfidence float64 `json:"ocrConfidence,omitempty"`
	OCRDuration   float64 `json:"ocrDuration,omitempty"`   // OCR time in seconds
	TotalDuration float64 `json:"totalDuration"`           // Total processing time
	AIAssisted    bool    `json:"aiAssisted,omitempty"`    // AI second opinion was merged
	ImageURL      string  `json:"imageUrl,omitempty"`      // Stored scan location
	ProcessedAt   time.Time `json:"processedAt"`
}

// BatchItem is one bill in a batch analysis request. The ID is caller
// generated; results carry it back so callers can correlate.
type BatchItem struct {
	ID            string  `json:"id"`
	Text          string  `json:"text"`
	OCRConfidence float64 `json:"ocrConfidence"`
	Language      string  `json:"language"`
	Country       string  `json:"country"`
	Currency      string  `json:"currency"`
}

// BatchItemResult is the per-bill outcome of a batch request.
type BatchItemResult struct {
	ID     string                 `json:"id"`
	Result *engine.AnalysisResult `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

// Config represents the service configuration
type Config struct {
	// Server config
	Port int    `yaml:"port"`
	Host string `yaml:"host"`

	// OCR config
	OCR OCRConfig `yaml:"ocr"`

	// AI assist config
	AI AIConfig `yaml:"ai"`

	// Locale defaults used when the caller sends none
	Locale LocaleConfig `yaml:"locale"`
}

// OCRConfig represents OCR-specific configuration
type OCRConfig struct {
	Language string `yaml:"language"` // tesseract language pack (default: "eng")
}

// LocaleConfig holds fallback locale context
type LocaleConfig struct {
	Language string `yaml:"language"` // default: "en"
	Country  string `yaml:"country"`  // default: "US"
}

// AIConfig represents AI provider configuration for the low-confidence
// second-opinion pass
type AIConfig struct {
	OpenAI OpenAIConfig `yaml:"openai"`
	Gemini GeminiConfig `yaml:"gemini"`
	Ollama OllamaConfig `yaml:"ollama"`

	// Default provider: "openai", "gemini", "ollama" or "" (disabled)
	DefaultProvider string `yaml:"default_provider"`

	// Results below this calibrated confidence trigger the assist pass
	AssistThreshold float64 `yaml:"assist_threshold"`
}

// OpenAIConfig for OpenAI/Azure OpenAI
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"` // For custom endpoints
	Model   string `yaml:"model"`              // Default: "gpt-4o-mini"
}

// GeminiConfig for Google Gemini
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"` // Default: "gemini-1.5-flash"
}

// OllamaConfig for local Ollama
type OllamaConfig struct {
	BaseURL string `yaml:"base_url"` // Default: "http://localhost:11434"
	Model   string `yaml:"model"`    // e.g., "mistral", "llama3"
}
