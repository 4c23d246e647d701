package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/pdf-processor/config"
	"github.com/feichai0017/pdf-processor/internal/agent/document"
	"github.com/feichai0017/pdf-processor/pkg/logger"
)

type stubBackend struct {
	name string
}

func (b *stubBackend) Name() string { return b.name }

func (b *stubBackend) ExtractText(ctx context.Context, path string) (document.Result[string], error) {
	return document.OK("stub text"), nil
}

func (b *stubBackend) ExtractPages(ctx context.Context, path string) (document.Result[[]string], error) {
	return document.OK([]string{"stub text"}), nil
}

func (b *stubBackend) ExtractMetadata(ctx context.Context, path string) (document.Result[map[string]any], error) {
	return document.Degraded(map[string]any{}, errors.New("no info dictionary")), nil
}

func newSelector() *BackendSelector {
	return NewBackendSelector(logger.NewNop(), config.Default())
}

func TestSelect(t *testing.T) {
	s := newSelector()

	tests := []struct {
		mode string
		want string
	}{
		{"embedded", "embedded"},
		{"layout", "layout"},
		{"auto", "embedded"},
		{"AUTO", "embedded"},
		{"pypdf", "embedded"},
		{"pdfplumber", "layout"},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			b, err := s.Select(tt.mode)
			require.NoError(t, err)
			assert.Equal(t, tt.want, b.Name())
		})
	}
}

func TestSelect_Unsupported(t *testing.T) {
	_, err := newSelector().Select("telepathy")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedMode))
	assert.Contains(t, err.Error(), "telepathy")
}

func TestSelect_OCRBadPreprocess(t *testing.T) {
	cfg := config.Default()
	cfg.OCR.Preprocess = []string{"grayscale", "sepia"}

	_, err := NewBackendSelector(logger.NewNop(), cfg).Select("ocr")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnsupportedMode))
}

func TestSelect_Registered(t *testing.T) {
	s := newSelector()
	s.Register("OCR", &stubBackend{name: "ocr"})

	b, err := s.Select("ocr")
	require.NoError(t, err)
	assert.Equal(t, "ocr", b.Name())
}

func TestModes(t *testing.T) {
	assert.Equal(t, []string{"embedded", "layout", "ocr", "auto"}, newSelector().Modes())
}
