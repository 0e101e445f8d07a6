package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/billsnap/bill-analyzer-service/api"
	"github.com/billsnap/bill-analyzer-service/internal/ai"
	"github.com/billsnap/bill-analyzer-service/internal/auth"
	"github.com/billsnap/bill-analyzer-service/internal/db"
	"github.com/billsnap/bill-analyzer-service/internal/engine"
	"github.com/billsnap/bill-analyzer-service/internal/models"
	"github.com/billsnap/bill-analyzer-service/internal/storage"
)

func main() {
	// Initialize JWT
	if err := auth.Init(); err != nil {
		log.Fatalf("Failed to initialize auth: %v", err)
	}
	log.Println("JWT authentication initialized")

	// Initialize database connection pool
	if err := db.Init(); err != nil {
		log.Printf("Warning: Database not available: %v", err)
		log.Println("Running in analyze-only mode (no persistence)")
	} else {
		defer db.Close()
	}

	// Initialize MinIO storage
	if err := storage.Init(); err != nil {
		log.Printf("Warning: MinIO storage not available: %v", err)
		log.Println("Scan images will not be stored")
	} else {
		log.Println("MinIO storage initialized")
	}

	// Load configuration
	config, err := loadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// A malformed rule table is a programming error, not a runtime condition
	analyzer, err := engine.NewAnalyzer(engine.DefaultRules(), engine.DefaultWeights())
	if err != nil {
		log.Fatalf("Failed to build analyzer: %v", err)
	}

	// AI assist is optional
	var assist *ai.Assist
	provider, err := ai.NewProvider(config.AI)
	if err != nil {
		log.Fatalf("Failed to create AI provider: %v", err)
	}
	if provider != nil {
		assist = ai.NewAssist(provider)
		log.Printf("AI assist enabled (provider: %s, threshold: %.2f)", provider.Name(), config.AI.AssistThreshold)
	} else {
		log.Println("AI assist disabled")
	}

	// Create API handler
	handler := api.NewHandler(config, analyzer, assist)
	router := handler.SetupRoutes()

	// Wrap router with JWT middleware (skips /health, /metrics and /api/login)
	protectedRouter := auth.JWTMiddleware(router)

	// Start server
	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	log.Printf("Starting Bill Analyzer Service v%s on %s", api.Version, addr)
	log.Printf("OCR Language: %s", config.OCR.Language)
	log.Printf("Database: %v", db.Pool != nil)
	log.Printf("Storage: %v", storage.Client != nil)
	log.Printf("Endpoints:")
	log.Printf("  POST http://%s/api/login           - Authenticate", addr)
	log.Printf("  POST http://%s/api/analyze-bill    - Analyze a bill scan (requires JWT)", addr)
	log.Printf("  POST http://%s/api/analyze-batch   - Analyze pre-OCRed texts (requires JWT)", addr)
	log.Printf("  GET  http://%s/api/bills           - List analyzed bills (requires JWT)", addr)
	log.Printf("  GET  http://%s/api/bill/{id}       - Get single bill (requires JWT)", addr)
	log.Printf("  PUT  http://%s/api/bill/{id}       - Correct a bill (requires JWT)", addr)
	log.Printf("  DELETE http://%s/api/bill/{id}     - Delete bill (requires JWT)", addr)
	log.Printf("  GET  http://%s/api/stats           - Monthly stats (requires JWT)", addr)
	log.Printf("  GET  http://%s/health              - Health check", addr)
	log.Printf("  GET  http://%s/metrics             - Prometheus metrics", addr)

	if err := http.ListenAndServe(addr, protectedRouter); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func loadConfig(path string) (*models.Config, error) {
	// Read config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	var config models.Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables if present
	if port := os.Getenv("PORT"); port != "" {
		fmt.Sscanf(port, "%d", &config.Port)
	}
	if host := os.Getenv("HOST"); host != "" {
		config.Host = host
	}
	if lang := os.Getenv("OCR_LANGUAGE"); lang != "" {
		config.OCR.Language = lang
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.AI.OpenAI.APIKey = apiKey
	}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.AI.Gemini.APIKey = apiKey
	}
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.AI.Ollama.BaseURL = baseURL
	}
	if provider := os.Getenv("AI_PROVIDER"); provider != "" {
		config.AI.DefaultProvider = provider
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.AI.OpenAI.BaseURL = baseURL
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		config.AI.OpenAI.Model = model
	}
	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		config.AI.Gemini.Model = model
	}

	// Defaults
	if config.OCR.Language == "" {
		config.OCR.Language = "eng"
	}
	if config.Locale.Language == "" {
		config.Locale.Language = "en"
	}
	if config.Locale.Country == "" {
		config.Locale.Country = "US"
	}
	if config.AI.AssistThreshold == 0 {
		config.AI.AssistThreshold = 0.5
	}

	return &config, nil
}
