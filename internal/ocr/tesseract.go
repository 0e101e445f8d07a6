package ocr

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// TesseractOCR runs the tesseract binary over preprocessed image bytes
type TesseractOCR struct {
	language string
}

// NewTesseractOCR creates a tesseract wrapper for the given language pack,
// e.g. "eng", "deu", "tur" or combined "eng+tur"
func NewTesseractOCR(language string) *TesseractOCR {
	if language == "" {
		language = "eng"
	}
	return &TesseractOCR{
		language: language,
	}
}

// Available reports whether the tesseract binary is on PATH
func (t *TesseractOCR) Available() bool {
	_, err := exec.LookPath("tesseract")
	return err == nil
}

// ExtractText performs OCR and returns the recognized text together with
// the mean word confidence normalized to [0,1]
func (t *TesseractOCR) ExtractText(ctx context.Context, imageBytes []byte) (string, float64, error) {
	inputFile, err := os.CreateTemp("", "billscan_*.img")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(inputFile.Name())

	if _, err := inputFile.Write(imageBytes); err != nil {
		inputFile.Close()
		return "", 0, fmt.Errorf("failed to write temp file: %w", err)
	}
	inputFile.Close()

	// TSV output carries per-word confidences alongside the text
	cmd := exec.CommandContext(ctx, "tesseract",
		inputFile.Name(), "stdout",
		"-l", t.language,
		"--psm", "6",
		"tsv",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", 0, fmt.Errorf("tesseract failed: %w (%s)", err, strings.TrimSpace(stderr.String()))
	}

	text, confidence := parseTSV(stdout.String())
	log.Printf("OCR extracted %d chars, mean confidence %.2f", len(text), confidence)
	return text, confidence, nil
}

// parseTSV reassembles line text from tesseract TSV output and averages
// word-level confidences. Rows with conf -1 are layout elements, not words.
func parseTSV(tsv string) (string, float64) {
	var sb strings.Builder
	var confSum float64
	var confCount int

	lines := strings.Split(tsv, "\n")
	lastLineKey := ""
	for i, line := range lines {
		if i == 0 { // header row
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 12 {
			continue
		}

		conf, err := strconv.ParseFloat(fields[10], 64)
		if err != nil || conf < 0 {
			continue
		}
		word := strings.TrimSpace(fields[11])
		if word == "" {
			continue
		}

		// page/block/par/line numbers identify the physical line
		lineKey := strings.Join(fields[1:5], ":")
		if lastLineKey != "" && lineKey != lastLineKey {
			sb.WriteString("\n")
		} else if lastLineKey != "" {
			sb.WriteString(" ")
		}
		lastLineKey = lineKey

		sb.WriteString(word)
		confSum += conf
		confCount++
	}

	if confCount == 0 {
		return "", 0
	}
	return sb.String(), confSum / float64(confCount) / 100.0
}
