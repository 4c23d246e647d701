package pdf

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/pdf-processor/internal/agent/document"
	"github.com/feichai0017/pdf-processor/internal/testutil"
	"github.com/feichai0017/pdf-processor/pkg/logger"
)

func backends(log logger.Logger) []document.Backend {
	return []document.Backend{
		NewEmbeddedBackend(log),
		NewLayoutBackend(log, DefaultLayoutOptions()),
	}
}

func TestBackends_MissingFile(t *testing.T) {
	ctx := context.Background()
	missing := filepath.Join(t.TempDir(), "missing.pdf")

	for _, b := range backends(logger.NewNop()) {
		t.Run(b.Name(), func(t *testing.T) {
			_, err := b.ExtractText(ctx, missing)
			assert.True(t, errors.Is(err, document.ErrNotFound))

			_, err = b.ExtractPages(ctx, missing)
			assert.True(t, errors.Is(err, document.ErrNotFound))

			_, err = b.ExtractMetadata(ctx, missing)
			assert.True(t, errors.Is(err, document.ErrNotFound))
		})
	}
}

func TestBackends_CorruptFileIsDegraded(t *testing.T) {
	ctx := context.Background()
	path := testutil.WriteFile(t, t.TempDir(), "corrupt.pdf", []byte("this is not a pdf"))

	for _, b := range backends(logger.NewNop()) {
		t.Run(b.Name(), func(t *testing.T) {
			text, err := b.ExtractText(ctx, path)
			require.NoError(t, err)
			assert.True(t, text.Degraded())
			assert.Empty(t, text.Value)
			assert.Error(t, text.Err)

			pages, err := b.ExtractPages(ctx, path)
			require.NoError(t, err)
			assert.True(t, pages.Degraded())
			assert.NotNil(t, pages.Value)
			assert.Empty(t, pages.Value)

			meta, err := b.ExtractMetadata(ctx, path)
			require.NoError(t, err)
			assert.True(t, meta.Degraded())
			assert.Empty(t, meta.Value)
		})
	}
}

func TestBackends_DegradedIsLogged(t *testing.T) {
	log := logger.NewTestLogger()
	path := testutil.WriteFile(t, t.TempDir(), "corrupt.pdf", []byte("%PDF-1.4 garbage"))

	_, err := NewEmbeddedBackend(log).ExtractPages(context.Background(), path)
	require.NoError(t, err)

	entries := log.EntriesAt("ERROR")
	require.Len(t, entries, 1)
	assert.Equal(t, "Failed to extract pages", entries[0].Message)
}

func TestBackends_Pages(t *testing.T) {
	ctx := context.Background()
	path := testutil.WritePDF(t, t.TempDir(), "doc.pdf", "Quarterly Report",
		testutil.PDFPage{"Hello World"},
		testutil.PDFPage{},
		testutil.PDFPage{"Closing remarks"},
	)

	for _, b := range backends(logger.NewNop()) {
		t.Run(b.Name(), func(t *testing.T) {
			pages, err := b.ExtractPages(ctx, path)
			require.NoError(t, err)
			require.False(t, pages.Degraded())
			require.Len(t, pages.Value, 3)
			assert.Contains(t, pages.Value[0], "Hello World")
			assert.Empty(t, pages.Value[1])
			assert.Contains(t, pages.Value[2], "Closing remarks")

			text, err := b.ExtractText(ctx, path)
			require.NoError(t, err)
			assert.Equal(t, document.JoinPages(pages.Value), text.Value)
			assert.NotContains(t, text.Value, "\n\n\n\n")
		})
	}
}

func TestBackends_NoTextIsNotDegraded(t *testing.T) {
	ctx := context.Background()
	path := testutil.WritePDF(t, t.TempDir(), "scan.pdf", "", testutil.PDFPage{})

	for _, b := range backends(logger.NewNop()) {
		t.Run(b.Name(), func(t *testing.T) {
			text, err := b.ExtractText(ctx, path)
			require.NoError(t, err)
			assert.Equal(t, document.StatusOK, text.Status)
			assert.Empty(t, text.Value)
		})
	}
}

func TestBackends_Metadata(t *testing.T) {
	path := testutil.WritePDF(t, t.TempDir(), "doc.pdf", "Quarterly Report",
		testutil.PDFPage{"one"}, testutil.PDFPage{"two"})

	meta, err := NewEmbeddedBackend(logger.NewNop()).ExtractMetadata(context.Background(), path)
	require.NoError(t, err)
	require.False(t, meta.Degraded())
	assert.Equal(t, 2, meta.Value["pages"])
	assert.Equal(t, "Quarterly Report", meta.Value["Title"])
	assert.Equal(t, "testutil", meta.Value["Producer"])
	for k := range meta.Value {
		assert.NotEqual(t, '/', k[0])
	}
}

func TestBackends_CancelledContext(t *testing.T) {
	path := testutil.WritePDF(t, t.TempDir(), "doc.pdf", "", testutil.PDFPage{"one"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEmbeddedBackend(logger.NewNop()).ExtractPages(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}
