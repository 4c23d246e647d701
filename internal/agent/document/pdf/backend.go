package pdf

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/feichai0017/pdf-processor/internal/agent/document"
	"github.com/feichai0017/pdf-processor/pkg/logger"
)

// pageFunc renders the text of one page.
type pageFunc func(page pdf.Page) (string, error)

// backend holds the behaviour shared by the text-layer backends; they only differ in how a
// single page is turned into text.
type backend struct {
	name     string
	logger   logger.Logger
	pageText pageFunc
}

func (b *backend) Name() string {
	return b.name
}

func (b *backend) ExtractText(ctx context.Context, path string) (document.Result[string], error) {
	pages, err := b.ExtractPages(ctx, path)
	if err != nil {
		return document.Result[string]{}, err
	}
	if pages.Degraded() {
		return document.Degraded("", pages.Err), nil
	}
	return document.OK(document.JoinPages(pages.Value)), nil
}

func (b *backend) ExtractPages(ctx context.Context, path string) (document.Result[[]string], error) {
	if err := document.CheckPath(path); err != nil {
		return document.Result[[]string]{}, err
	}

	pages, err := b.readPages(ctx, path)
	if err != nil {
		if isContextErr(err) {
			return document.Result[[]string]{}, err
		}
		b.logger.Error("Failed to extract pages",
			logger.String("backend", b.name),
			logger.String("path", path),
			logger.Error(err),
		)
		return document.Degraded([]string{}, err), nil
	}
	return document.OK(pages), nil
}

func (b *backend) ExtractMetadata(ctx context.Context, path string) (document.Result[map[string]any], error) {
	if err := document.CheckPath(path); err != nil {
		return document.Result[map[string]any]{}, err
	}
	if err := ctx.Err(); err != nil {
		return document.Result[map[string]any]{}, err
	}

	metadata, err := readMetadata(path)
	if err != nil {
		b.logger.Error("Failed to extract metadata",
			logger.String("backend", b.name),
			logger.String("path", path),
			logger.Error(err),
		)
		return document.Degraded(map[string]any{}, err), nil
	}
	return document.OK(metadata), nil
}

func (b *backend) readPages(ctx context.Context, path string) (pages []string, err error) {
	defer document.Recover(&err)

	f, reader, err := pdf.Open(path)
	if f != nil {
		defer f.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	numPages := reader.NumPage()
	pages = make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}

		text, err := b.pageText(page)
		if err != nil {
			return nil, fmt.Errorf("failed to get text from page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// readMetadata returns the document information dictionary plus the page count under "pages".
func readMetadata(path string) (metadata map[string]any, err error) {
	defer document.Recover(&err)

	f, reader, err := pdf.Open(path)
	if f != nil {
		defer f.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	metadata = make(map[string]any)
	info := reader.Trailer().Key("Info")
	if !info.IsNull() {
		for _, key := range info.Keys() {
			if v, ok := infoValue(info.Key(key)); ok {
				metadata[strings.TrimPrefix(key, "/")] = v
			}
		}
	}
	metadata["pages"] = reader.NumPage()

	return metadata, nil
}

func infoValue(v pdf.Value) (any, bool) {
	switch v.Kind() {
	case pdf.String:
		return v.Text(), true
	case pdf.Name:
		return v.Name(), true
	case pdf.Integer:
		return v.Int64(), true
	case pdf.Real:
		return v.Float64(), true
	case pdf.Bool:
		return v.Bool(), true
	default:
		return nil, false
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
