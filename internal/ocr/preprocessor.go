package ocr

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"os/exec"
)

// Preprocessor enhances scanned bill images before OCR
type Preprocessor struct{}

// NewPreprocessor creates a new image preprocessor
func NewPreprocessor() *Preprocessor {
	return &Preprocessor{}
}

// Preprocess applies image enhancement filters using ImageMagick:
// resize, grayscale, auto-contrast, denoise, sharpen. Falls back to the
// original bytes when ImageMagick is missing or fails, so a broken
// preprocessing step never blocks analysis.
func (p *Preprocessor) Preprocess(imageData []byte) ([]byte, error) {
	inputFile, err := os.CreateTemp("", "bill_in_*.jpg")
	if err != nil {
		return imageData, nil
	}
	defer os.Remove(inputFile.Name())

	outputFile, err := os.CreateTemp("", "bill_out_*.jpg")
	if err != nil {
		inputFile.Close()
		return imageData, nil
	}
	outputFile.Close()
	defer os.Remove(outputFile.Name())

	if _, err := inputFile.Write(imageData); err != nil {
		inputFile.Close()
		return imageData, nil
	}
	inputFile.Close()

	args := []string{
		inputFile.Name(),
		// Resize if larger than 2000px (keeps aspect ratio)
		"-resize", "2000x2000>",
		"-colorspace", "Gray",
		// Normalize histogram (auto-contrast)
		"-normalize",
		"-contrast-stretch", "2%x1%",
		"-despeckle",
		// Sharpen text edges
		"-sharpen", "0x1",
		"-unsharp", "0x0.5+0.5+0",
		"-quality", "95",
		outputFile.Name(),
	}

	// Try 'magick' first (ImageMagick 7), fallback to 'convert' (ImageMagick 6)
	var cmd *exec.Cmd
	if _, err := exec.LookPath("magick"); err == nil {
		cmd = exec.Command("magick", args...)
	} else {
		cmd = exec.Command("convert", args...)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		log.Printf("ImageMagick failed, using original image: %v - %s", err, stderr.String())
		return imageData, nil
	}

	processed, err := os.ReadFile(outputFile.Name())
	if err != nil || len(processed) == 0 {
		return imageData, nil
	}

	log.Printf("Image enhanced: %d bytes -> %d bytes", len(imageData), len(processed))
	return processed, nil
}

// PreprocessReceipt applies a more aggressive pipeline for thermal
// receipts, where print is faint and lighting uneven
func (p *Preprocessor) PreprocessReceipt(imageData []byte) ([]byte, error) {
	inputFile, err := os.CreateTemp("", "receipt_in_*.jpg")
	if err != nil {
		return p.Preprocess(imageData)
	}
	defer os.Remove(inputFile.Name())

	outputFile, err := os.CreateTemp("", "receipt_out_*.jpg")
	if err != nil {
		inputFile.Close()
		return p.Preprocess(imageData)
	}
	outputFile.Close()
	defer os.Remove(outputFile.Name())

	if _, err := inputFile.Write(imageData); err != nil {
		inputFile.Close()
		return p.Preprocess(imageData)
	}
	inputFile.Close()

	args := []string{
		inputFile.Name(),
		"-resize", "2500x2500>",
		"-colorspace", "Gray",
		// Local adaptive threshold handles uneven lighting
		"-lat", "50x50+10%",
		"-contrast-stretch", "5%x2%",
		"-despeckle",
		"-despeckle",
		"-sharpen", "0x2",
		"-quality", "95",
		outputFile.Name(),
	}

	var cmd *exec.Cmd
	if _, err := exec.LookPath("magick"); err == nil {
		cmd = exec.Command("magick", args...)
	} else {
		cmd = exec.Command("convert", args...)
	}

	if err := cmd.Run(); err != nil {
		return p.Preprocess(imageData)
	}

	processed, err := os.ReadFile(outputFile.Name())
	if err != nil || len(processed) == 0 {
		return p.Preprocess(imageData)
	}

	return processed, nil
}

// LooksLikeThermalReceipt is a cheap heuristic based on image
// dimensions reported by ImageMagick identify: tall narrow scans are
// treated as thermal receipts
func (p *Preprocessor) LooksLikeThermalReceipt(imageData []byte) bool {
	inputFile, err := os.CreateTemp("", "ident_*.img")
	if err != nil {
		return false
	}
	defer os.Remove(inputFile.Name())

	if _, err := inputFile.Write(imageData); err != nil {
		inputFile.Close()
		return false
	}
	inputFile.Close()

	out, err := exec.Command("identify", "-format", "%w %h", inputFile.Name()).Output()
	if err != nil {
		return false
	}

	var w, h int
	if _, err := fmt.Sscanf(string(out), "%d %d", &w, &h); err != nil || w == 0 {
		return false
	}
	return h > w*2
}
