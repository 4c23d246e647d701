package models

import (
	"path/filepath"
	"time"
)

// ExtractionStatus records how each backend call of an extraction went.
type ExtractionStatus struct {
	Text     string `json:"text"`
	Pages    string `json:"pages"`
	Metadata string `json:"metadata"`
	// Errors holds the swallowed backend error per call ("text", "pages", "metadata").
	Errors map[string]string `json:"errors,omitempty"`
}

// DocumentResult is one processed document. It is created by the extraction step and
// mutated in place by each pipeline stage.
type DocumentResult struct {
	Path     string
	Filename string

	// Text is the ordered concatenation of page texts separated by blank lines.
	Text string
	// Pages holds the text of each page; the index is the zero-based page number.
	Pages []string

	Metadata  map[string]any
	PageCount int
	Backend   string
	Status    ExtractionStatus

	Processed   bool
	ProcessedAt time.Time

	Keywords    []string
	Entities    map[string][]string
	Summary     string
	StageErrors map[string]string
}

// NewDocumentResult builds an unprocessed result and derives filename and page count.
func NewDocumentResult(path, backend, text string, pages []string, metadata map[string]any) *DocumentResult {
	if pages == nil {
		pages = []string{}
	}
	if metadata == nil {
		metadata = map[string]any{}
	}

	doc := &DocumentResult{
		Path:        path,
		Filename:    filepath.Base(path),
		Text:        text,
		Pages:       pages,
		Metadata:    metadata,
		Backend:     backend,
		ProcessedAt: time.Now(),
		Keywords:    []string{},
		Entities:    map[string][]string{},
	}
	doc.PageCount = derivePageCount(metadata, pages)
	return doc
}

// derivePageCount prefers the backend-reported "pages" value over the page slice.
func derivePageCount(metadata map[string]any, pages []string) int {
	if v, ok := metadata["pages"]; ok {
		if n, ok := toInt(v); ok && n >= 0 {
			return n
		}
	}
	return len(pages)
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// Clone returns a deep copy of the document.
func (d *DocumentResult) Clone() *DocumentResult {
	c := *d

	c.Pages = append([]string{}, d.Pages...)
	c.Keywords = append([]string{}, d.Keywords...)

	c.Metadata = make(map[string]any, len(d.Metadata))
	for k, v := range d.Metadata {
		c.Metadata[k] = v
	}

	c.Entities = make(map[string][]string, len(d.Entities))
	for k, v := range d.Entities {
		c.Entities[k] = append([]string{}, v...)
	}

	if d.StageErrors != nil {
		c.StageErrors = make(map[string]string, len(d.StageErrors))
		for k, v := range d.StageErrors {
			c.StageErrors[k] = v
		}
	}
	if d.Status.Errors != nil {
		c.Status.Errors = make(map[string]string, len(d.Status.Errors))
		for k, v := range d.Status.Errors {
			c.Status.Errors[k] = v
		}
	}

	return &c
}

// RecordStageError notes a failed pipeline stage on the document.
func (d *DocumentResult) RecordStageError(stage, msg string) {
	if d.StageErrors == nil {
		d.StageErrors = make(map[string]string)
	}
	d.StageErrors[stage] = msg
}

// ProcessingTask tracks an asynchronous extraction job.
type ProcessingTask struct {
	ID        string            `json:"id"`
	Status    ProcessingStatus  `json:"status"`
	Type      string            `json:"type"`
	Priority  int               `json:"priority"`
	Progress  float64           `json:"progress"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt,omitempty"`
}

type ProcessingStatus string

const (
	StatusPending   ProcessingStatus = "pending"
	StatusRunning   ProcessingStatus = "running"
	StatusCompleted ProcessingStatus = "completed"
	StatusFailed    ProcessingStatus = "failed"
	StatusCancelled ProcessingStatus = "cancelled"
)
