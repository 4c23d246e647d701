// Package output persists processed documents as text, JSON and per-page files.
package output

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/feichai0017/pdf-processor/internal/models"
	"github.com/feichai0017/pdf-processor/pkg/converters"
	"github.com/feichai0017/pdf-processor/pkg/logger"
	"github.com/feichai0017/pdf-processor/pkg/storage"
)

type Options struct {
	SaveText  bool
	SaveJSON  bool
	SavePages bool
	// Prefix is prepended to every key, e.g. a task ID.
	Prefix string
}

// Writer lays out the files of one document:
//
//	<base>.txt               full text, skipped when empty
//	<base>.json              serialized record
//	<base>_pages/page_N.txt  one file per page, N starting at 1
type Writer struct {
	storage   storage.Storage
	converter *converters.JSONConverter
	opts      Options
	logger    logger.Logger
}

func NewWriter(store storage.Storage, opts Options, log logger.Logger) *Writer {
	return &Writer{
		storage:   store,
		converter: converters.NewJSONConverter(),
		opts:      opts,
		logger:    log,
	}
}

// BaseName is the file name of doc without its extension.
func BaseName(doc *models.DocumentResult) string {
	name := doc.Filename
	if name == "" {
		name = filepath.Base(doc.Path)
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Write stores the enabled outputs of doc and returns the keys written.
func (w *Writer) Write(ctx context.Context, doc *models.DocumentResult) ([]string, error) {
	base := path.Join(w.opts.Prefix, BaseName(doc))
	var keys []string

	if w.opts.SaveText && doc.Text != "" {
		key, err := w.storage.Store(ctx, strings.NewReader(doc.Text), base+".txt")
		if err != nil {
			return keys, fmt.Errorf("failed to write text: %w", err)
		}
		keys = append(keys, key)
	}

	if w.opts.SaveJSON {
		var buf bytes.Buffer
		if err := w.converter.Encode(&buf, doc); err != nil {
			return keys, err
		}
		key, err := w.storage.Store(ctx, &buf, base+".json")
		if err != nil {
			return keys, fmt.Errorf("failed to write record: %w", err)
		}
		keys = append(keys, key)
	}

	if w.opts.SavePages {
		for i, page := range doc.Pages {
			name := fmt.Sprintf("%s_pages/page_%d.txt", base, i+1)
			key, err := w.storage.Store(ctx, strings.NewReader(page), name)
			if err != nil {
				return keys, fmt.Errorf("failed to write page %d: %w", i+1, err)
			}
			keys = append(keys, key)
		}
	}

	w.logger.Debug("Saved document outputs",
		logger.String("path", doc.Path),
		logger.Strings("keys", keys),
	)
	return keys, nil
}
