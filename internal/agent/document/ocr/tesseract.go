package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// TesseractRecognizer runs a fresh tesseract client per page.
type TesseractRecognizer struct {
	languages   []string
	pageSegMode gosseract.PageSegMode
}

// NewTesseractRecognizer accepts tesseract language codes joined with "+", e.g. "eng+deu".
func NewTesseractRecognizer(lang string) *TesseractRecognizer {
	if lang == "" {
		lang = "eng"
	}
	return &TesseractRecognizer{
		languages:   strings.Split(lang, "+"),
		pageSegMode: gosseract.PSM_AUTO,
	}
}

func (r *TesseractRecognizer) Recognize(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(r.languages...); err != nil {
		return "", fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetPageSegMode(r.pageSegMode); err != nil {
		return "", fmt.Errorf("failed to set page segmentation mode: %w", err)
	}

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("failed to get text: %w", err)
	}
	return text, nil
}
