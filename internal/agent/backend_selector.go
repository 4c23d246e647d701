package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/feichai0017/pdf-processor/config"
	"github.com/feichai0017/pdf-processor/internal/agent/document"
	"github.com/feichai0017/pdf-processor/internal/agent/document/ocr"
	"github.com/feichai0017/pdf-processor/internal/agent/document/pdf"
	"github.com/feichai0017/pdf-processor/pkg/logger"
)

// ErrUnsupportedMode is returned for a backend mode no selector knows about.
var ErrUnsupportedMode = errors.New("unsupported backend mode")

// AutoMode always resolves to the embedded text layer; no content sniffing is done.
const AutoMode = "auto"

var modeAliases = map[string]string{
	"pypdf":      pdf.EmbeddedName,
	"pdfplumber": pdf.LayoutName,
	AutoMode:     pdf.EmbeddedName,
}

// BackendSelector maps a mode name to a backend. The OCR backend is built on first use
// since the textract engine needs AWS credentials.
type BackendSelector struct {
	logger   logger.Logger
	cfg      *config.Config
	mu       sync.Mutex
	backends map[string]document.Backend
}

func NewBackendSelector(log logger.Logger, cfg *config.Config) *BackendSelector {
	return &BackendSelector{
		logger: log,
		cfg:    cfg,
		backends: map[string]document.Backend{
			pdf.EmbeddedName: pdf.NewEmbeddedBackend(log),
			pdf.LayoutName:   pdf.NewLayoutBackend(log, pdf.DefaultLayoutOptions()),
		},
	}
}

// Register installs or replaces the backend for a mode.
func (s *BackendSelector) Register(name string, backend document.Backend) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backends[strings.ToLower(name)] = backend
}

// Modes lists the accepted mode names.
func (s *BackendSelector) Modes() []string {
	return Modes()
}

// Modes lists the built-in mode names, aliases excluded.
func Modes() []string {
	return []string{pdf.EmbeddedName, pdf.LayoutName, ocr.Name, AutoMode}
}

// Select returns the backend for mode, or an error wrapping ErrUnsupportedMode.
func (s *BackendSelector) Select(mode string) (document.Backend, error) {
	name := strings.ToLower(strings.TrimSpace(mode))
	if alias, ok := modeAliases[name]; ok {
		name = alias
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if backend, ok := s.backends[name]; ok {
		return backend, nil
	}
	if name != ocr.Name {
		s.logger.Error("Unsupported backend mode", logger.String("mode", mode))
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMode, mode)
	}

	backend, err := s.newOCRBackend()
	if err != nil {
		return nil, fmt.Errorf("failed to create ocr backend: %w", err)
	}
	s.backends[name] = backend
	return backend, nil
}

func (s *BackendSelector) newOCRBackend() (*ocr.Backend, error) {
	preprocessors, err := ocr.NewPreprocessors(s.cfg.OCR.Preprocess)
	if err != nil {
		return nil, err
	}

	var recognizer ocr.Recognizer
	switch s.cfg.OCR.Engine {
	case "textract":
		recognizer, err = ocr.NewTextractRecognizer(context.Background(), ocr.TextractConfig{
			Region:        s.cfg.Textract.Region,
			Endpoint:      s.cfg.Textract.Endpoint,
			AccessKey:     s.cfg.Textract.AccessKey,
			SecretKey:     s.cfg.Textract.SecretKey,
			MinConfidence: s.cfg.Textract.MinConfidence,
		}, s.logger)
		if err != nil {
			return nil, err
		}
	default:
		recognizer = ocr.NewTesseractRecognizer(s.cfg.OCR.Lang)
	}

	s.logger.Info("OCR backend ready",
		logger.String("engine", s.cfg.OCR.Engine),
		logger.String("lang", s.cfg.OCR.Lang),
		logger.Int("dpi", s.cfg.OCR.DPI),
		logger.Strings("preprocess", s.cfg.OCR.Preprocess),
	)

	return ocr.NewBackend(s.logger, ocr.NewFitzRasterizer(), recognizer,
		ocr.Options{DPI: s.cfg.OCR.DPI, Lang: s.cfg.OCR.Lang},
		preprocessors...,
	), nil
}
