package validator

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/feichai0017/pdf-processor/internal/agent/document"
	"github.com/feichai0017/pdf-processor/pkg/logger"
)

// DocumentValidator checks uploaded files before they are queued.
type DocumentValidator struct {
	logger logger.Logger
	config *ValidatorConfig
}

type ValidatorConfig struct {
	MaxFileSize  int64    // bytes
	AllowedTypes []string // extensions, lower case with dot
	MaxPageCount int
}

type ValidationResult struct {
	IsValid  bool              `json:"isValid"`
	Errors   []ValidationError `json:"errors,omitempty"`
	FileInfo FileInfo          `json:"fileInfo"`
}

type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type FileInfo struct {
	Filename  string `json:"filename"`
	Size      int64  `json:"size"`
	MimeType  string `json:"mimeType"`
	Extension string `json:"extension"`
	Hash      string `json:"hash"`
	PageCount int    `json:"pageCount"`
}

func DefaultConfig() *ValidatorConfig {
	return &ValidatorConfig{
		MaxFileSize:  100 << 20,
		AllowedTypes: []string{".pdf"},
		MaxPageCount: 1000,
	}
}

func NewDocumentValidator(log logger.Logger, config *ValidatorConfig) *DocumentValidator {
	if config == nil {
		config = DefaultConfig()
	}
	return &DocumentValidator{
		logger: log,
		config: config,
	}
}

// ValidateFile validates an uploaded multipart file.
func (v *DocumentValidator) ValidateFile(header *multipart.FileHeader) (*ValidationResult, error) {
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return v.Validate(header.Filename, f, header.Size)
}

// Validate runs every check against r. Check failures are reported in the result; the
// error is only set when r cannot be read.
func (v *DocumentValidator) Validate(filename string, r io.ReaderAt, size int64) (*ValidationResult, error) {
	result := &ValidationResult{
		IsValid: true,
		FileInfo: FileInfo{
			Filename:  filename,
			Size:      size,
			Extension: strings.ToLower(filepath.Ext(filename)),
		},
	}

	hash, err := calculateHash(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate hash: %w", err)
	}
	result.FileInfo.Hash = hash

	mimeType, err := detectMimeType(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to detect mime type: %w", err)
	}
	result.FileInfo.MimeType = mimeType

	result.add(v.performBasicValidation(result.FileInfo)...)
	if mimeType != "application/pdf" {
		result.add(ValidationError{
			Code:    "INVALID_MIME_TYPE",
			Message: fmt.Sprintf("Invalid MIME type %s, expected application/pdf", mimeType),
			Field:   "mimeType",
		})
	} else {
		result.add(v.validatePDF(r, size, &result.FileInfo)...)
	}

	if !result.IsValid {
		v.logger.Warn("File rejected",
			logger.String("filename", filename),
			logger.Any("errors", result.Errors),
		)
	}
	return result, nil
}

func (r *ValidationResult) add(errs ...ValidationError) {
	if len(errs) == 0 {
		return
	}
	r.IsValid = false
	r.Errors = append(r.Errors, errs...)
}

// Error joins the validation messages.
func (r *ValidationResult) Error() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

func (v *DocumentValidator) performBasicValidation(info FileInfo) []ValidationError {
	var errs []ValidationError

	if info.Size == 0 {
		errs = append(errs, ValidationError{
			Code:    "EMPTY_FILE",
			Message: "File is empty",
			Field:   "size",
		})
	}
	if v.config.MaxFileSize > 0 && info.Size > v.config.MaxFileSize {
		errs = append(errs, ValidationError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum limit of %d bytes", v.config.MaxFileSize),
			Field:   "size",
		})
	}

	allowed := false
	for _, ext := range v.config.AllowedTypes {
		if ext == info.Extension {
			allowed = true
			break
		}
	}
	if !allowed {
		errs = append(errs, ValidationError{
			Code:    "INVALID_FILE_TYPE",
			Message: fmt.Sprintf("File type %s is not allowed", info.Extension),
			Field:   "extension",
		})
	}

	return errs
}

// validatePDF reads the document structure in relaxed mode and counts pages.
func (v *DocumentValidator) validatePDF(r io.ReaderAt, size int64, info *FileInfo) []ValidationError {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	var (
		count int
		err   error
	)
	func() {
		defer document.Recover(&err)
		count, err = api.PageCount(io.NewSectionReader(r, 0, size), conf)
	}()
	if err != nil {
		return []ValidationError{{
			Code:    "MALFORMED_PDF",
			Message: fmt.Sprintf("PDF could not be parsed: %v", err),
		}}
	}
	info.PageCount = count

	if v.config.MaxPageCount > 0 && count > v.config.MaxPageCount {
		return []ValidationError{{
			Code:    "TOO_MANY_PAGES",
			Message: fmt.Sprintf("PDF has %d pages, maximum is %d", count, v.config.MaxPageCount),
			Field:   "pageCount",
		}}
	}
	return nil
}

func detectMimeType(r io.ReaderAt, size int64) (string, error) {
	buffer := make([]byte, 512)
	n, err := r.ReadAt(buffer, 0)
	if err != nil && err != io.EOF {
		return "", err
	}
	if n == 0 && size > 0 {
		return "", io.ErrUnexpectedEOF
	}
	return http.DetectContentType(buffer[:n]), nil
}

func calculateHash(r io.ReaderAt, size int64) (string, error) {
	hash := sha256.New()
	if _, err := io.Copy(hash, io.NewSectionReader(r, 0, size)); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
