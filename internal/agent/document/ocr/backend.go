package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/feichai0017/pdf-processor/internal/agent/document"
	"github.com/feichai0017/pdf-processor/pkg/logger"
)

const Name = "ocr"

// Recognizer turns a rendered page into text.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

type Options struct {
	DPI  int
	Lang string
}

func DefaultOptions() Options {
	return Options{DPI: 300, Lang: "eng"}
}

// Backend renders every page to an image and runs it through a Recognizer.
type Backend struct {
	logger        logger.Logger
	rasterizer    Rasterizer
	recognizer    Recognizer
	preprocessors []Preprocessor
	opts          Options
}

func NewBackend(log logger.Logger, rasterizer Rasterizer, recognizer Recognizer, opts Options, preprocessors ...Preprocessor) *Backend {
	if opts.DPI <= 0 {
		opts.DPI = DefaultOptions().DPI
	}
	if opts.Lang == "" {
		opts.Lang = DefaultOptions().Lang
	}
	return &Backend{
		logger:        log,
		rasterizer:    rasterizer,
		recognizer:    recognizer,
		preprocessors: preprocessors,
		opts:          opts,
	}
}

func (b *Backend) Name() string {
	return Name
}

func (b *Backend) ExtractText(ctx context.Context, path string) (document.Result[string], error) {
	pages, err := b.ExtractPages(ctx, path)
	if err != nil {
		return document.Result[string]{}, err
	}
	if pages.Degraded() {
		return document.Degraded("", pages.Err), nil
	}
	return document.OK(document.JoinPages(pages.Value)), nil
}

func (b *Backend) ExtractPages(ctx context.Context, path string) (document.Result[[]string], error) {
	if err := document.CheckPath(path); err != nil {
		return document.Result[[]string]{}, err
	}

	pages, err := b.recognizePages(ctx, path)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return document.Result[[]string]{}, err
		}
		b.logger.Error("Failed to recognize pages",
			logger.String("backend", Name),
			logger.String("path", path),
			logger.Error(err),
		)
		return document.Degraded([]string{}, err), nil
	}
	return document.OK(pages), nil
}

// ExtractMetadata only counts pages; rendered images carry no document information.
func (b *Backend) ExtractMetadata(ctx context.Context, path string) (document.Result[map[string]any], error) {
	if err := document.CheckPath(path); err != nil {
		return document.Result[map[string]any]{}, err
	}
	if err := ctx.Err(); err != nil {
		return document.Result[map[string]any]{}, err
	}

	n, err := b.countPages(path)
	if err != nil {
		b.logger.Error("Failed to extract metadata",
			logger.String("backend", Name),
			logger.String("path", path),
			logger.Error(err),
		)
		return document.Degraded(map[string]any{}, err), nil
	}

	return document.OK(map[string]any{
		"pages":             n,
		"extraction_method": Name,
		"ocr_lang":          b.opts.Lang,
		"dpi":               b.opts.DPI,
	}), nil
}

func (b *Backend) recognizePages(ctx context.Context, path string) (pages []string, err error) {
	defer document.Recover(&err)

	doc, err := b.rasterizer.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer doc.Close()

	numPages := doc.NumPage()
	pages = make([]string, 0, numPages)
	for i := 0; i < numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		img, err := doc.Render(i, float64(b.opts.DPI))
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", i+1, err)
		}

		img, err = b.preprocess(img)
		if err != nil {
			return nil, fmt.Errorf("failed to preprocess page %d: %w", i+1, err)
		}

		text, err := b.recognizer.Recognize(ctx, img)
		if err != nil {
			return nil, fmt.Errorf("failed to recognize page %d: %w", i+1, err)
		}

		b.logger.Debug("Recognized page",
			logger.String("path", path),
			logger.Int("page", i+1),
			logger.Int("chars", len(text)),
		)
		pages = append(pages, text)
	}
	return pages, nil
}

func (b *Backend) countPages(path string) (n int, err error) {
	defer document.Recover(&err)

	doc, err := b.rasterizer.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open document: %w", err)
	}
	defer doc.Close()

	return doc.NumPage(), nil
}

func (b *Backend) preprocess(img image.Image) (image.Image, error) {
	var err error
	for _, p := range b.preprocessors {
		img, err = p.Process(img)
		if err != nil {
			return nil, err
		}
		if img == nil {
			return nil, fmt.Errorf("preprocessor returned nil image")
		}
	}
	return img, nil
}
