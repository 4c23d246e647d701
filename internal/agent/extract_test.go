package agent

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

func newExtractor() *Extractor {
	return NewExtractor(logger.NewNop(), newSelector())
}

func TestExtract_Embedded(t *testing.T) {
	path := testutil.WritePDF(t, t.TempDir(), "report.pdf", "Annual Report",
		testutil.PDFPage{"Revenue grew"},
		testutil.PDFPage{"Costs fell"},
	)

	doc, err := newExtractor().Extract(context.Background(), path, "auto")
	require.NoError(t, err)

	assert.Equal(t, "report.pdf", doc.Filename)
	assert.Equal(t, path, doc.Path)
	assert.Equal(t, "embedded", doc.Backend)
	assert.Equal(t, 2, doc.PageCount)
	require.Len(t, doc.Pages, 2)
	assert.Contains(t, doc.Text, "Revenue grew")
	assert.Contains(t, doc.Text, "Costs fell")
	assert.Equal(t, "Annual Report", doc.Metadata["Title"])
	assert.False(t, doc.Processed)
	assert.Equal(t, "ok", doc.Status.Text)
	assert.Equal(t, "ok", doc.Status.Pages)
	assert.Equal(t, "ok", doc.Status.Metadata)
	assert.Empty(t, doc.Status.Errors)
}

func TestExtract_CorruptFileIsDegraded(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "broken.pdf", []byte("not a pdf at all"))

	doc, err := newExtractor().Extract(context.Background(), path, "layout")
	require.NoError(t, err)

	assert.Empty(t, doc.Text)
	assert.Empty(t, doc.Pages)
	assert.Equal(t, 0, doc.PageCount)
	assert.Equal(t, "degraded", doc.Status.Text)
	assert.Equal(t, "degraded", doc.Status.Pages)
	assert.Equal(t, "degraded", doc.Status.Metadata)
	assert.Contains(t, doc.Status.Errors, "pages")
}

func TestExtract_PartialDegradation(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "a.pdf", []byte("%PDF-1.4"))
	s := newSelector()
	s.Register("stub", &stubBackend{name: "stub"})

	doc, err := NewExtractor(logger.NewNop(), s).Extract(context.Background(), path, "stub")
	require.NoError(t, err)
	assert.Equal(t, "stub text", doc.Text)
	assert.Equal(t, 1, doc.PageCount)
	assert.Equal(t, "ok", doc.Status.Text)
	assert.Equal(t, "degraded", doc.Status.Metadata)
	assert.Equal(t, map[string]string{"metadata": "no info dictionary"}, doc.Status.Errors)
}

type countingBackend struct {
	stubBackend
	pages     document.Result[[]string]
	textCalls int
}

func (b *countingBackend) ExtractText(ctx context.Context, path string) (document.Result[string], error) {
	b.textCalls++
	return document.Degraded("", errors.New("render failed")), nil
}

func (b *countingBackend) ExtractPages(ctx context.Context, path string) (document.Result[[]string], error) {
	return b.pages, nil
}

func TestExtract_TextDerivedFromPages(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "a.pdf", []byte("%PDF-1.4"))
	ctx := context.Background()

	ok := &countingBackend{
		stubBackend: stubBackend{name: "counting"},
		pages:       document.OK([]string{"first page", "", "third page"}),
	}
	s := newSelector()
	s.Register("counting", ok)

	doc, err := NewExtractor(logger.NewNop(), s).Extract(ctx, path, "counting")
	require.NoError(t, err)
	assert.Equal(t, 0, ok.textCalls)
	assert.Equal(t, "first page\n\nthird page", doc.Text)
	assert.Equal(t, "ok", doc.Status.Text)
	assert.Equal(t, 3, doc.PageCount)

	broken := &countingBackend{
		stubBackend: stubBackend{name: "counting"},
		pages:       document.Degraded([]string{}, errors.New("bad xref")),
	}
	s.Register("counting", broken)

	doc, err = NewExtractor(logger.NewNop(), s).Extract(ctx, path, "counting")
	require.NoError(t, err)
	assert.Equal(t, 1, broken.textCalls)
	assert.Empty(t, doc.Text)
	assert.Equal(t, "degraded", doc.Status.Text)
	assert.Equal(t, "degraded", doc.Status.Pages)
	assert.Equal(t, "render failed", doc.Status.Errors["text"])
}

func TestExtract_Errors(t *testing.T) {
	ctx := context.Background()
	e := newExtractor()

	_, err := e.Extract(ctx, filepath.Join(t.TempDir(), "nope.pdf"), "embedded")
	assert.True(t, errors.Is(err, document.ErrNotFound))

	_, err = e.Extract(ctx, t.TempDir(), "embedded")
	assert.True(t, errors.Is(err, document.ErrNotFound))

	path := testutil.WritePDF(t, t.TempDir(), "ok.pdf", "", testutil.PDFPage{"x"})
	_, err = e.Extract(ctx, path, "ouija")
	assert.True(t, errors.Is(err, ErrUnsupportedMode))
}
