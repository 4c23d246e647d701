// Package processor holds the analysis stages run over an extracted document.
package processor

import (
	"fmt"
	"strings"

	"github.com/feichai0017/pdf-processor/config"
	"github.com/feichai0017/pdf-processor/internal/models"
)

// Processor is one analysis stage. Process mutates the document in place; on error the
// caller is expected to discard whatever the stage changed.
type Processor interface {
	Name() string
	Process(doc *models.DocumentResult) error
}

const (
	NormalizeStage = "normalize"
	ContentStage   = "analyze-content"
	EntityStage    = "extract-entities"
)

var aliases = map[string]string{
	"text":         NormalizeStage,
	NormalizeStage: NormalizeStage,
	"content":      ContentStage,
	ContentStage:   ContentStage,
	"entity":       EntityStage,
	EntityStage:    EntityStage,
}

// Available lists the canonical stage names in default pipeline order.
func Available() []string {
	return []string{NormalizeStage, ContentStage, EntityStage}
}

// New builds a stage by name from the application configuration.
func New(name string, cfg *config.Config) (Processor, error) {
	canonical, ok := aliases[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unsupported processor type: %s", name)
	}

	switch canonical {
	case NormalizeStage:
		return NewTextNormalizer(NormalizerOptions{
			RemoveExtraWhitespace: cfg.Normalize.RemoveExtraWhitespace,
			FixLineBreaks:         cfg.Normalize.FixLineBreaks,
			RemoveHeadersFooters:  cfg.Normalize.RemoveHeadersFooters,
			NormalizeCharacters:   cfg.Normalize.NormalizeCharacters,
		}), nil
	case ContentStage:
		return NewContentAnalyzer(ContentOptions{
			ExtractKeywords: cfg.Keywords.Enabled,
			NumKeywords:     cfg.Keywords.Count,
			Language:        cfg.Keywords.Language,
			GenerateSummary: cfg.Summary.Enabled,
			SummarySize:     cfg.Summary.Sentences,
		})
	default:
		return NewEntityExtractor(EntityOptions{
			ExtractEmails: cfg.Entities.ExtractEmails,
			ExtractPhones: cfg.Entities.ExtractPhones,
			ExtractURLs:   cfg.Entities.ExtractURLs,
			ExtractDates:  cfg.Entities.ExtractDates,
		}), nil
	}
}

// Defaults builds normalize, analyze-content and extract-entities, in that order.
func Defaults(cfg *config.Config) ([]Processor, error) {
	stages := make([]Processor, 0, 3)
	for _, name := range Available() {
		p, err := New(name, cfg)
		if err != nil {
			return nil, err
		}
		stages = append(stages, p)
	}
	return stages, nil
}
