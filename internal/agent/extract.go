package agent

import (
	"context"
	"time"

	"github.com/feichai0017/pdf-processor/internal/agent/document"
	"github.com/feichai0017/pdf-processor/internal/models"
	"github.com/feichai0017/pdf-processor/pkg/logger"
)

// Extractor runs a backend over a file and assembles the unprocessed result.
type Extractor struct {
	selector *BackendSelector
	logger   logger.Logger
}

func NewExtractor(log logger.Logger, selector *BackendSelector) *Extractor {
	return &Extractor{selector: selector, logger: log}
}

// Extract reads text, pages and metadata with the backend chosen by mode. The returned
// error wraps ErrUnsupportedMode, document.ErrNotFound or a context error; backend
// failures only show up in the result's Status.
func (e *Extractor) Extract(ctx context.Context, path, mode string) (*models.DocumentResult, error) {
	backend, err := e.selector.Select(mode)
	if err != nil {
		return nil, err
	}
	if err := document.CheckPath(path); err != nil {
		return nil, err
	}

	start := time.Now()
	e.logger.Info("Extracting document",
		logger.String("path", path),
		logger.String("backend", backend.Name()),
	)

	pages, err := backend.ExtractPages(ctx, path)
	if err != nil {
		return nil, err
	}
	// the full text is derived from good pages so OCR runs only once
	text := document.OK(document.JoinPages(pages.Value))
	if pages.Degraded() {
		text, err = backend.ExtractText(ctx, path)
		if err != nil {
			return nil, err
		}
	}
	metadata, err := backend.ExtractMetadata(ctx, path)
	if err != nil {
		return nil, err
	}

	doc := models.NewDocumentResult(path, backend.Name(), text.Value, pages.Value, metadata.Value)
	doc.Status = models.ExtractionStatus{
		Text:     string(text.Status),
		Pages:    string(pages.Status),
		Metadata: string(metadata.Status),
	}
	recordErr(&doc.Status, "text", text.ErrMessage())
	recordErr(&doc.Status, "pages", pages.ErrMessage())
	recordErr(&doc.Status, "metadata", metadata.ErrMessage())

	e.logger.Info("Extraction finished",
		logger.String("path", path),
		logger.Int("pages", doc.PageCount),
		logger.Int("chars", len(doc.Text)),
		logger.Duration("elapsed", time.Since(start)),
	)
	return doc, nil
}

func recordErr(status *models.ExtractionStatus, call, msg string) {
	if msg == "" {
		return
	}
	if status.Errors == nil {
		status.Errors = make(map[string]string)
	}
	status.Errors[call] = msg
}
