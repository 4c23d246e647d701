// Package pipeline runs the analysis stages over an extracted document.
package pipeline

import (
	"fmt"
	"time"

	"github.com/feichai0017/pdf-processor/config"
	"github.com/feichai0017/pdf-processor/internal/models"
	"github.com/feichai0017/pdf-processor/internal/processor"
	"github.com/feichai0017/pdf-processor/pkg/logger"
)

// Pipeline applies its stages in order. A failing stage is rolled back and the
// remaining stages still run.
type Pipeline struct {
	stages []processor.Processor
	logger logger.Logger
}

func New(log logger.Logger, stages ...processor.Processor) *Pipeline {
	return &Pipeline{
		stages: append([]processor.Processor{}, stages...),
		logger: log.Named("pipeline"),
	}
}

// DefaultStages builds normalize, analyze-content and extract-entities from cfg.
func DefaultStages(log logger.Logger, cfg *config.Config) (*Pipeline, error) {
	stages, err := processor.Defaults(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline stages: %w", err)
	}
	return New(log, stages...), nil
}

// Add appends a stage.
func (p *Pipeline) Add(stage processor.Processor) {
	p.stages = append(p.stages, stage)
}

// Stages returns the stage names in run order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Run applies every stage to doc and marks it processed. It never fails: a stage that
// returns an error or panics leaves the document as it was before that stage, and the
// failure is recorded in doc.StageErrors.
func (p *Pipeline) Run(doc *models.DocumentResult) *models.DocumentResult {
	for _, stage := range p.stages {
		snapshot := doc.Clone()
		start := time.Now()

		if err := runStage(stage, doc); err != nil {
			p.logger.Error("Stage failed",
				logger.String("stage", stage.Name()),
				logger.String("path", doc.Path),
				logger.Error(err),
			)
			*doc = *snapshot
			doc.RecordStageError(stage.Name(), err.Error())
			continue
		}

		p.logger.Debug("Stage completed",
			logger.String("stage", stage.Name()),
			logger.String("path", doc.Path),
			logger.Duration("elapsed", time.Since(start)),
		)
	}

	doc.Processed = true
	return doc
}

func runStage(stage processor.Processor, doc *models.DocumentResult) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return stage.Process(doc)
}
