package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/billsnap/bill-analyzer-service/internal/ai"
	"github.com/billsnap/bill-analyzer-service/internal/auth"
	"github.com/billsnap/bill-analyzer-service/internal/db"
	"github.com/billsnap/bill-analyzer-service/internal/engine"
	"github.com/billsnap/bill-analyzer-service/internal/models"
	"github.com/billsnap/bill-analyzer-service/internal/ocr"
	"github.com/billsnap/bill-analyzer-service/internal/storage"
)

const (
	MaxUploadSize = 10 * 1024 * 1024 // 10MB
	MaxBatchSize  = 50
	Version       = "1.0.0"
)

// Handler handles HTTP requests for bill analysis
type Handler struct {
	config       *models.Config
	analyzer     *engine.Analyzer
	assist       *ai.Assist
	preprocessor *ocr.Preprocessor
}

// NewHandler creates a new API handler
func NewHandler(config *models.Config, analyzer *engine.Analyzer, assist *ai.Assist) *Handler {
	return &Handler{
		config:       config,
		analyzer:     analyzer,
		assist:       assist,
		preprocessor: ocr.NewPreprocessor(),
	}
}

// SetupRoutes configures the HTTP routes
func (h *Handler) SetupRoutes() *mux.Router {
	router := mux.NewRouter()

	// Analysis endpoints
	router.HandleFunc("/api/analyze-bill", h.AnalyzeBill).Methods("POST")
	router.HandleFunc("/api/analyze-batch", h.AnalyzeBatch).Methods("POST")

	// Bill CRUD
	router.HandleFunc("/api/bills", h.GetBills).Methods("GET")
	router.HandleFunc("/api/bill/{id}", h.GetBill).Methods("GET")
	router.HandleFunc("/api/bill/{id}", h.UpdateBill).Methods("PUT")
	router.HandleFunc("/api/bill/{id}", h.DeleteBill).Methods("DELETE")

	// Statistics
	router.HandleFunc("/api/stats", h.GetStats).Methods("GET")

	// Auth
	router.HandleFunc("/api/login", auth.LoginHandler).Methods("POST")

	// Operational
	router.HandleFunc("/health", h.Health).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return router
}

// HealthResponse represents the health check response structure
type HealthResponse struct {
	Status      string            `json:"status"`
	Version     string            `json:"version"`
	Timestamp   string            `json:"timestamp"`
	Uptime      string            `json:"uptime"`
	Memory      MemoryStats       `json:"memory"`
	Tesseract   ServiceStatus     `json:"tesseract"`
	ImageMagick ServiceStatus     `json:"imageMagick"`
	Database    ServiceStatus     `json:"database"`
	Storage     ServiceStatus     `json:"storage"`
	AI          map[string]string `json:"ai"`
}

// MemoryStats represents memory usage statistics
type MemoryStats struct {
	Allocated string `json:"allocated"`
	Total     string `json:"total"`
	System    string `json:"system"`
}

// ServiceStatus represents the status of a service dependency
type ServiceStatus struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

var startTime = time.Now()

// Health endpoint - enhanced for monitoring
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	tesseractStatus := h.checkTesseract()
	imageMagickStatus := h.checkImageMagick()
	databaseStatus := h.checkDatabase()
	storageStatus := h.checkStorage()

	aiProvider := h.config.AI.DefaultProvider
	if aiProvider == "" {
		aiProvider = "disabled"
	}

	response := HealthResponse{
		Status:    "healthy",
		Version:   Version,
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    time.Since(startTime).String(),
		Memory: MemoryStats{
			Allocated: fmt.Sprintf("%.2f MB", float64(m.Alloc)/1024/1024),
			Total:     fmt.Sprintf("%.2f MB", float64(m.TotalAlloc)/1024/1024),
			System:    fmt.Sprintf("%.2f MB", float64(m.Sys)/1024/1024),
		},
		Tesseract:   tesseractStatus,
		ImageMagick: imageMagickStatus,
		Database:    databaseStatus,
		Storage:     storageStatus,
		AI: map[string]string{
			"defaultProvider": aiProvider,
			"ocrLanguage":     h.config.OCR.Language,
		},
	}

	// Text-only analysis works without tesseract, so OCR being down is
	// degraded, not dead
	if !tesseractStatus.Available || !imageMagickStatus.Available {
		response.Status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	json.NewEncoder(w).Encode(response)
}

// checkTesseract verifies Tesseract OCR is available
func (h *Handler) checkTesseract() ServiceStatus {
	cmd := exec.Command("tesseract", "--version")
	output, err := cmd.CombinedOutput()

	if err != nil {
		return ServiceStatus{
			Available: false,
			Error:     "tesseract not found or not executable",
		}
	}

	version := "unknown"
	lines := strings.Split(string(output), "\n")
	if len(lines) > 0 {
		version = strings.TrimSpace(lines[0])
	}

	return ServiceStatus{
		Available: true,
		Version:   version,
	}
}

// checkImageMagick verifies ImageMagick is available
func (h *Handler) checkImageMagick() ServiceStatus {
	cmd := exec.Command("convert", "-version")
	output, err := cmd.CombinedOutput()

	if err != nil {
		return ServiceStatus{
			Available: false,
			Error:     "imagemagick not found or not executable",
		}
	}

	version := "unknown"
	lines := strings.Split(string(output), "\n")
	if len(lines) > 0 {
		version = strings.TrimSpace(lines[0])
	}

	return ServiceStatus{
		Available: true,
		Version:   version,
	}
}

// checkDatabase verifies PostgreSQL connection
func (h *Handler) checkDatabase() ServiceStatus {
	if db.GetPool() == nil {
		return ServiceStatus{
			Available: false,
			Error:     "database pool not initialized",
		}
	}

	return ServiceStatus{
		Available: true,
		Version:   "PostgreSQL via PgBouncer",
	}
}

// checkStorage verifies MinIO connection
func (h *Handler) checkStorage() ServiceStatus {
	if storage.Client == nil {
		return ServiceStatus{
			Available: false,
			Error:     "storage client not initialized",
		}
	}

	return ServiceStatus{
		Available: true,
		Version:   "MinIO S3",
	}
}

// AnalyzeBill handles a single bill analysis request. It accepts either
// a multipart image upload (field "file" or "image") which goes through
// preprocessing and OCR, or a "text" form value carrying OCR text from
// the mobile client's on-device recognizer.
func (h *Handler) AnalyzeBill(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()
	start := time.Now()
	defer func() {
		analyzeDuration.Observe(time.Since(start).Seconds())
	}()

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		h.sendError(w, http.StatusBadRequest, "file too large or invalid form data")
		return
	}

	locale := engine.LocaleContext{
		Language: formOrDefault(r, "language", h.config.Locale.Language),
		Country:  formOrDefault(r, "country", h.config.Locale.Country),
	}
	hints := engine.Hints{Company: r.FormValue("company")}
	if c, ok := parseCurrency(r.FormValue("currency")); ok {
		hints.Currency = c
	}

	var raw engine.RawText
	var imageData []byte
	var contentType string
	var ocrDuration float64

	if text := r.FormValue("text"); strings.TrimSpace(text) != "" {
		raw.Text = text
		raw.Confidence = 1.0
		if v, err := strconv.ParseFloat(r.FormValue("ocrConfidence"), 64); err == nil {
			raw.Confidence = v
		}
	} else {
		file, header, err := r.FormFile("file")
		if err != nil {
			file, header, err = r.FormFile("image")
			if err != nil {
				h.sendError(w, http.StatusBadRequest, "provide an image (field 'file' or 'image') or a 'text' value")
				return
			}
		}
		defer file.Close()

		imageData, err = io.ReadAll(file)
		if err != nil {
			h.sendError(w, http.StatusInternalServerError, "failed to read file")
			return
		}
		contentType = header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "image/jpeg"
		}

		ocrStart := time.Now()
		raw, err = h.runOCR(ctx, imageData, locale.Language)
		ocrDuration = time.Since(ocrStart).Seconds()
		if err != nil {
			ocrFailures.Inc()
			h.sendError(w, http.StatusUnprocessableEntity, fmt.Sprintf("OCR failed: %v", err))
			return
		}
	}

	result, err := h.analyzer.Analyze(raw, locale, hints)
	if err != nil {
		if errors.Is(err, engine.ErrLowInputQuality) {
			lowQualityRejections.Inc()
			h.sendError(w, http.StatusUnprocessableEntity, "scan quality too low to analyze, please rescan")
			return
		}
		h.sendError(w, http.StatusInternalServerError, fmt.Sprintf("analysis failed: %v", err))
		return
	}

	aiAssisted := h.maybeAssist(ctx, raw.Text, result)

	billID := uuid.New()

	// Store the scan image (best effort)
	var imagePath string
	if storage.Client != nil && len(imageData) > 0 {
		path, err := storage.UploadScan(ctx, billID.String(), bytes.NewReader(imageData), int64(len(imageData)), contentType)
		if err != nil {
			log.Printf("Warning: failed to upload scan: %v", err)
		} else {
			imagePath = path
		}
	}

	// Persist the result (best effort)
	var savedID string
	if db.Pool != nil {
		bill := billFromResult(billID, result, raw, locale, imagePath)
		if _, err := db.SaveBill(ctx, bill); err != nil {
			log.Printf("Warning: failed to save bill: %v", err)
		} else {
			savedID = billID.String()
		}
	}

	billsAnalyzed.WithLabelValues(string(result.Type)).Inc()

	json.NewEncoder(w).Encode(models.AnalyzeResponse{
		Success:       true,
		BillID:        savedID,
		Result:        result,
		OCRConfidence: raw.Confidence,
		OCRDuration:   ocrDuration,
		TotalDuration: time.Since(start).Seconds(),
		AIAssisted:    aiAssisted,
		ImageURL:      imagePath,
		ProcessedAt:   time.Now().UTC(),
	})
}

// AnalyzeBatch analyzes up to MaxBatchSize pre-OCRed texts concurrently.
// Results come back in request order; per-item failures do not abort
// the rest of the batch.
func (h *Handler) AnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var items []models.BatchItem
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(items) == 0 {
		h.sendError(w, http.StatusBadRequest, "empty batch")
		return
	}
	if len(items) > MaxBatchSize {
		h.sendError(w, http.StatusBadRequest, fmt.Sprintf("batch too large (max %d)", MaxBatchSize))
		return
	}

	results := make([]models.BatchItemResult, len(items))
	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(i int, item models.BatchItem) {
			defer wg.Done()
			results[i].ID = item.ID

			locale := engine.LocaleContext{Language: item.Language, Country: item.Country}
			if locale.Language == "" {
				locale.Language = h.config.Locale.Language
			}
			if locale.Country == "" {
				locale.Country = h.config.Locale.Country
			}
			hints := engine.Hints{}
			if c, ok := parseCurrency(item.Currency); ok {
				hints.Currency = c
			}

			confidence := item.OCRConfidence
			if confidence == 0 {
				confidence = 1.0
			}

			result, err := h.analyzer.Analyze(
				engine.RawText{Text: item.Text, Confidence: confidence},
				locale, hints,
			)
			if err != nil {
				results[i].Error = err.Error()
				return
			}
			billsAnalyzed.WithLabelValues(string(result.Type)).Inc()
			results[i].Result = result
		}(i, item)
	}
	wg.Wait()

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"results": results,
		"count":   len(results),
	})
}

// GetBills returns stored bills, filterable by type, status and company
func (h *Handler) GetBills(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()
	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	filter := db.BillFilter{
		BillType: r.URL.Query().Get("type"),
		Status:   r.URL.Query().Get("status"),
		Company:  r.URL.Query().Get("company"),
	}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil {
		filter.Offset = offset
	}

	bills, err := db.GetBills(ctx, filter)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get bills: %v", err))
		return
	}

	// Swap stored object paths for presigned URLs
	for i := range bills {
		if bills[i].ImagePath != "" && storage.Client != nil {
			if presignedURL, err := storage.GetPresignedURL(ctx, bills[i].ImagePath); err == nil {
				bills[i].ImagePath = presignedURL
			}
		}
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"bills":   bills,
		"count":   len(bills),
	})
}

// GetBill returns a single bill
func (h *Handler) GetBill(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()
	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid bill id")
		return
	}

	bill, err := db.GetBillByID(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		h.sendError(w, http.StatusNotFound, "bill not found")
		return
	}
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get bill: %v", err))
		return
	}

	if bill.ImagePath != "" && storage.Client != nil {
		if presignedURL, err := storage.GetPresignedURL(ctx, bill.ImagePath); err == nil {
			bill.ImagePath = presignedURL
		}
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"bill":    bill,
	})
}

// UpdateBill applies user corrections to an analyzed bill
func (h *Handler) UpdateBill(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()
	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid bill id")
		return
	}

	var update db.Bill
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !validBillType(update.BillType) {
		h.sendError(w, http.StatusBadRequest, "invalid bill type")
		return
	}
	if update.Status == "" {
		update.Status = "confirmed"
	}

	if err := db.UpdateBill(ctx, id, &update); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			h.sendError(w, http.StatusNotFound, "bill not found")
			return
		}
		h.sendError(w, http.StatusInternalServerError, "failed to update bill")
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "bill updated",
	})
}

// DeleteBill removes a bill and its stored scan
func (h *Handler) DeleteBill(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()
	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid bill id")
		return
	}

	if storage.Client != nil {
		if bill, err := db.GetBillByID(ctx, id); err == nil && bill.ImagePath != "" {
			_ = storage.DeleteScan(ctx, bill.ImagePath)
		}
	}

	if err := db.DeleteBill(ctx, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			h.sendError(w, http.StatusNotFound, "bill not found")
			return
		}
		h.sendError(w, http.StatusInternalServerError, "failed to delete bill")
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "bill deleted",
	})
}

// GetStats returns monthly per-type statistics. Defaults to the current
// month; override with ?year= and ?month=
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()
	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	now := time.Now().UTC()
	year := now.Year()
	month := now.Month()
	if y, err := strconv.Atoi(r.URL.Query().Get("year")); err == nil {
		year = y
	}
	if m, err := strconv.Atoi(r.URL.Query().Get("month")); err == nil && m >= 1 && m <= 12 {
		month = time.Month(m)
	}

	stats, err := db.GetMonthlyStats(ctx, year, month)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"year":    year,
		"month":   int(month),
		"stats":   stats,
	})
}

// runOCR preprocesses the image and extracts text with tesseract
func (h *Handler) runOCR(ctx context.Context, imageData []byte, language string) (engine.RawText, error) {
	processed := imageData
	var err error
	if h.preprocessor.LooksLikeThermalReceipt(imageData) {
		processed, err = h.preprocessor.PreprocessReceipt(imageData)
	} else {
		processed, err = h.preprocessor.Preprocess(imageData)
	}
	if err != nil {
		processed = imageData
	}

	tesseract := ocr.NewTesseractOCR(ocrLanguageFor(language, h.config.OCR.Language))
	text, confidence, err := tesseract.ExtractText(ctx, processed)
	if err != nil {
		return engine.RawText{}, err
	}
	return engine.RawText{Text: text, Confidence: confidence}, nil
}

// maybeAssist runs the AI second-opinion pass when the calibrated
// confidence falls below the configured threshold
func (h *Handler) maybeAssist(ctx context.Context, text string, result *engine.AnalysisResult) bool {
	if h.assist == nil || result.Confidence >= h.config.AI.AssistThreshold {
		return false
	}

	assistCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, merged, err := h.assist.Review(assistCtx, text, result)
	if err != nil {
		log.Printf("Warning: AI assist failed: %v", err)
		aiAssistRuns.WithLabelValues("error").Inc()
		return false
	}
	if merged {
		aiAssistRuns.WithLabelValues("merged").Inc()
	} else {
		aiAssistRuns.WithLabelValues("noop").Inc()
	}
	return merged
}

// billFromResult maps an analysis result onto the persistence model
func billFromResult(id uuid.UUID, result *engine.AnalysisResult, raw engine.RawText, locale engine.LocaleContext, imagePath string) *db.Bill {
	bill := &db.Bill{
		ID:            id,
		BillType:      string(result.Type),
		Confidence:    result.Confidence,
		Reasoning:     result.Reasoning,
		Language:      locale.Language,
		Country:       locale.Country,
		OCRText:       raw.Text,
		OCRConfidence: raw.Confidence,
		ImagePath:     imagePath,
		Status:        "pending",
	}
	if result.Amount != nil {
		v := result.Amount.Value
		bill.Amount = &v
		bill.Currency = string(result.Amount.Currency)
	}
	if result.DueDate != nil {
		d := result.DueDate.Date
		bill.DueDate = &d
	}
	if result.Company != nil {
		bill.Company = result.Company.Name
	}
	return bill
}

// ocrTesseractLanguages maps locale languages to tesseract packs
var ocrTesseractLanguages = map[string]string{
	"en": "eng",
	"de": "deu",
	"tr": "tur",
	"fr": "fra",
	"es": "spa",
	"it": "ita",
	"nl": "nld",
	"sv": "swe",
	"no": "nor",
}

func ocrLanguageFor(language, fallback string) string {
	if pack, ok := ocrTesseractLanguages[strings.ToLower(strings.TrimSpace(language))]; ok {
		return pack
	}
	return fallback
}

func formOrDefault(r *http.Request, field, fallback string) string {
	if v := r.FormValue(field); v != "" {
		return v
	}
	return fallback
}

func parseCurrency(s string) (engine.Currency, bool) {
	candidate := engine.Currency(strings.ToUpper(strings.TrimSpace(s)))
	for _, c := range engine.Currencies {
		if c == candidate {
			return c, true
		}
	}
	return "", false
}

func validBillType(s string) bool {
	if s == string(engine.BillTypeUnknown) {
		return true
	}
	for _, t := range engine.BillTypes {
		if string(t) == s {
			return true
		}
	}
	return false
}

// sendError sends an error response
func (h *Handler) sendError(w http.ResponseWriter, statusCode int, message string) {
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
