package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billsnap/bill-analyzer-service/internal/engine"
	"github.com/billsnap/bill-analyzer-service/internal/models"
)

func testHandler() *Handler {
	config := &models.Config{
		OCR:    models.OCRConfig{Language: "eng"},
		Locale: models.LocaleConfig{Language: "en", Country: "US"},
	}
	return NewHandler(config, engine.NewDefaultAnalyzer(), nil)
}

func multipartText(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestAnalyzeBillWithTextInput(t *testing.T) {
	router := testHandler().SetupRoutes()

	body, contentType := multipartText(t, map[string]string{
		"text":     "TEDAŞ Elektrik tüketim faturası\nSon ödeme tarihi: 15.03.2024\nTutar: 245,80 TL",
		"language": "tr",
		"country":  "TR",
	})

	req := httptest.NewRequest("POST", "/api/analyze-bill", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp models.AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Result)
	assert.Equal(t, engine.BillTypeElectricity, resp.Result.Type)
	require.NotNil(t, resp.Result.Amount)
	assert.Equal(t, engine.CurrencyTRY, resp.Result.Amount.Currency)
	// No database in tests: nothing persisted, no ID handed out.
	assert.Empty(t, resp.BillID)
}

func TestAnalyzeBillRejectsLowOCRConfidence(t *testing.T) {
	router := testHandler().SetupRoutes()

	body, contentType := multipartText(t, map[string]string{
		"text":          "blurry scan",
		"ocrConfidence": "0.2",
	})

	req := httptest.NewRequest("POST", "/api/analyze-bill", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAnalyzeBillRequiresInput(t *testing.T) {
	router := testHandler().SetupRoutes()

	body, contentType := multipartText(t, map[string]string{"language": "en"})
	req := httptest.NewRequest("POST", "/api/analyze-bill", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeBatchKeepsRequestOrder(t *testing.T) {
	router := testHandler().SetupRoutes()

	items := []models.BatchItem{
		{ID: "a", Text: "Vodafone mobile bill Total: $62.30", Language: "en", Country: "US"},
		{ID: "b", Text: "blurry", OCRConfidence: 0.1},
		{ID: "c", Text: "Rechnung für Wasser und Abwasser: 88,40 €", Language: "de", Country: "DE"},
	}
	payload, err := json.Marshal(items)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/analyze-batch", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Success bool                     `json:"success"`
		Results []models.BatchItemResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Results, 3)

	assert.Equal(t, "a", resp.Results[0].ID)
	require.NotNil(t, resp.Results[0].Result)
	assert.Equal(t, engine.BillTypePhone, resp.Results[0].Result.Type)

	// Item failures stay per-item.
	assert.Equal(t, "b", resp.Results[1].ID)
	assert.Nil(t, resp.Results[1].Result)
	assert.NotEmpty(t, resp.Results[1].Error)

	assert.Equal(t, "c", resp.Results[2].ID)
	require.NotNil(t, resp.Results[2].Result)
	assert.Equal(t, engine.BillTypeWater, resp.Results[2].Result.Type)
}

func TestAnalyzeBatchRejectsOversizedBatch(t *testing.T) {
	router := testHandler().SetupRoutes()

	items := make([]models.BatchItem, MaxBatchSize+1)
	payload, err := json.Marshal(items)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/analyze-batch", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParseCurrency(t *testing.T) {
	c, ok := parseCurrency(" try ")
	assert.True(t, ok)
	assert.Equal(t, engine.CurrencyTRY, c)

	_, ok = parseCurrency("XYZ")
	assert.False(t, ok)

	_, ok = parseCurrency("")
	assert.False(t, ok)
}

func TestOCRLanguageFor(t *testing.T) {
	assert.Equal(t, "tur", ocrLanguageFor("tr", "eng"))
	assert.Equal(t, "deu", ocrLanguageFor("DE", "eng"))
	assert.Equal(t, "eng", ocrLanguageFor("xx", "eng"))
}

func TestValidBillType(t *testing.T) {
	assert.True(t, validBillType("ELECTRICITY"))
	assert.True(t, validBillType("UNKNOWN"))
	assert.False(t, validBillType("PIZZA"))
	assert.False(t, validBillType(""))
}
