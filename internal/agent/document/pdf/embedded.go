package pdf

import (
	"github.com/ledongthuc/pdf"

	"github.com/feichai0017/pdf-processor/pkg/logger"
)

const EmbeddedName = "embedded"

// EmbeddedBackend reads the text layer of each page in content-stream order.
type EmbeddedBackend struct {
	backend
}

func NewEmbeddedBackend(log logger.Logger) *EmbeddedBackend {
	return &EmbeddedBackend{
		backend: backend{
			name:   EmbeddedName,
			logger: log,
			pageText: func(page pdf.Page) (string, error) {
				return page.GetPlainText(nil)
			},
		},
	}
}
