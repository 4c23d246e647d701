package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/feichai0017/pdf-processor/internal/agent"
	"github.com/feichai0017/pdf-processor/internal/agent/document"
	docservice "github.com/feichai0017/pdf-processor/internal/service/document"
	"github.com/feichai0017/pdf-processor/pkg/logger"
	"github.com/feichai0017/pdf-processor/pkg/queue"
)

// DocumentHandler processes one queued extraction task.
type DocumentHandler interface {
	HandleDocument(ctx context.Context, task *queue.Task) error
}

type DocumentWorker struct {
	BaseWorker
	handler DocumentHandler
}

func NewDocumentWorker(cfg *Config, handler DocumentHandler, log logger.Logger) *DocumentWorker {
	queues := cfg.Queues
	if len(queues) == 0 {
		queues = queue.QueueWeights
	}

	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB},
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues:      queues,
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				return time.Duration(n) * time.Minute
			},
		},
	)

	w := &DocumentWorker{
		BaseWorker: BaseWorker{
			server: server,
			mux:    asynq.NewServeMux(),
			logger: log,
		},
		handler: handler,
	}
	w.mux.HandleFunc(queue.TaskTypeExtract, w.handleExtract)
	return w
}

func (w *DocumentWorker) handleExtract(ctx context.Context, t *asynq.Task) error {
	var task queue.Task
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		w.logger.Error("Failed to unmarshal task",
			logger.Error(err),
			logger.String("payload", string(t.Payload())),
		)
		return fmt.Errorf("failed to unmarshal task: %v: %w", err, asynq.SkipRetry)
	}

	w.logger.Info("Processing document task",
		logger.String("taskId", task.ID),
		logger.String("filename", task.Payload.Filename),
		logger.String("mode", task.Payload.Mode),
	)

	err := w.handler.HandleDocument(ctx, &task)
	if err != nil && permanent(err) {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	return err
}

// permanent reports errors that a retry cannot fix.
func permanent(err error) bool {
	return errors.Is(err, docservice.ErrInvalidTask) ||
		errors.Is(err, document.ErrNotFound) ||
		errors.Is(err, agent.ErrUnsupportedMode) ||
		errors.Is(err, context.Canceled)
}

func (w *DocumentWorker) Start(ctx context.Context) error {
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("failed to start worker: %w", err)
	}

	go func() {
		<-ctx.Done()
		w.Stop()
	}()

	return nil
}
