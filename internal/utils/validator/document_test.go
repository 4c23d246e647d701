package validator

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/pdf-processor/internal/testutil"
	"github.com/feichai0017/pdf-processor/pkg/logger"
)

func pdfBytes(t *testing.T, pages ...testutil.PDFPage) []byte {
	t.Helper()
	path := testutil.WritePDF(t, t.TempDir(), "in.pdf", "", pages...)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func codes(r *ValidationResult) []string {
	var out []string
	for _, e := range r.Errors {
		out = append(out, e.Code)
	}
	return out
}

func TestValidate_ValidPDF(t *testing.T) {
	data := pdfBytes(t, testutil.PDFPage{"one"}, testutil.PDFPage{"two"})
	v := NewDocumentValidator(logger.NewNop(), nil)

	result, err := v.Validate("Scan.PDF", bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.True(t, result.IsValid, result.Error())
	assert.Equal(t, "application/pdf", result.FileInfo.MimeType)
	assert.Equal(t, ".pdf", result.FileInfo.Extension)
	assert.Equal(t, 2, result.FileInfo.PageCount)
	assert.Len(t, result.FileInfo.Hash, 64)
}

func TestValidate_Rejections(t *testing.T) {
	data := pdfBytes(t, testutil.PDFPage{"a"}, testutil.PDFPage{"b"}, testutil.PDFPage{"c"})
	text := []byte("plain text, not a pdf")

	tests := []struct {
		name     string
		filename string
		data     []byte
		cfg      *ValidatorConfig
		want     []string
	}{
		{"too large", "a.pdf", data, &ValidatorConfig{MaxFileSize: 10, AllowedTypes: []string{".pdf"}}, []string{"FILE_TOO_LARGE"}},
		{"extension", "a.docx", data, nil, []string{"INVALID_FILE_TYPE"}},
		{"content", "a.pdf", text, nil, []string{"INVALID_MIME_TYPE"}},
		{"empty", "a.pdf", []byte{}, nil, []string{"EMPTY_FILE", "INVALID_MIME_TYPE"}},
		{"malformed", "a.pdf", []byte("%PDF-1.4\nnothing else"), nil, []string{"MALFORMED_PDF"}},
		{"pages", "a.pdf", data, &ValidatorConfig{AllowedTypes: []string{".pdf"}, MaxPageCount: 2}, []string{"TOO_MANY_PAGES"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewDocumentValidator(logger.NewNop(), tt.cfg)
			result, err := v.Validate(tt.filename, bytes.NewReader(tt.data), int64(len(tt.data)))
			require.NoError(t, err)
			assert.False(t, result.IsValid)
			assert.Equal(t, tt.want, codes(result))
		})
	}
}
