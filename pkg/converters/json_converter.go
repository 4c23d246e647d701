package converters

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/feichai0017/pdf-processor/internal/models"
)

// Record is the serializable shape of a processed document.
type Record struct {
	TaskID              string                  `json:"task_id,omitempty"`
	Filename            string                  `json:"filename"`
	Path                string                  `json:"path"`
	PageCount           int                     `json:"page_count"`
	ExtractionMethod    string                  `json:"extraction_method"`
	Metadata            map[string]any          `json:"metadata"`
	Keywords            []string                `json:"keywords"`
	Entities            map[string][]string     `json:"entities"`
	Summary             string                  `json:"summary"`
	ProcessingTimestamp string                  `json:"processing_timestamp"`
	Processed           bool                    `json:"processed"`
	ExtractionStatus    models.ExtractionStatus `json:"extraction_status"`
	StageErrors         map[string]string       `json:"stage_errors,omitempty"`
}

// DocumentConverter turns a document result into its serializable record.
type DocumentConverter interface {
	Convert(doc *models.DocumentResult) (*Record, error)
}

// JSONConverter builds records and encodes them as indented JSON.
type JSONConverter struct{}

func NewJSONConverter() *JSONConverter {
	return &JSONConverter{}
}

func (c *JSONConverter) Convert(doc *models.DocumentResult) (*Record, error) {
	if doc == nil {
		return nil, fmt.Errorf("no document to convert")
	}

	record := &Record{
		Filename:            doc.Filename,
		Path:                doc.Path,
		PageCount:           doc.PageCount,
		ExtractionMethod:    doc.Backend,
		Metadata:            doc.Metadata,
		Keywords:            doc.Keywords,
		Entities:            doc.Entities,
		Summary:             doc.Summary,
		ProcessingTimestamp: doc.ProcessedAt.Format(time.RFC3339),
		Processed:           doc.Processed,
		ExtractionStatus:    doc.Status,
		StageErrors:         doc.StageErrors,
	}

	if record.Metadata == nil {
		record.Metadata = map[string]any{}
	}
	if record.Keywords == nil {
		record.Keywords = []string{}
	}
	if record.Entities == nil {
		record.Entities = map[string][]string{}
	}
	return record, nil
}

// Encode writes the record of doc to w.
func (c *JSONConverter) Encode(w io.Writer, doc *models.DocumentResult) error {
	record, err := c.Convert(doc)
	if err != nil {
		return err
	}
	return EncodeRecord(w, record)
}

func EncodeRecord(w io.Writer, record *Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(record); err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	return nil
}

// DecodeRecord reads a record previously written with EncodeRecord.
func DecodeRecord(r io.Reader) (*Record, error) {
	var record Record
	if err := json.NewDecoder(r).Decode(&record); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return &record, nil
}
