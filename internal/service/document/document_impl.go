package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/feichai0017/pdf-processor/config"
	"github.com/feichai0017/pdf-processor/internal/agent"
	"github.com/feichai0017/pdf-processor/internal/models"
	"github.com/feichai0017/pdf-processor/internal/pipeline"
	"github.com/feichai0017/pdf-processor/internal/utils/validator"
	"github.com/feichai0017/pdf-processor/pkg/converters"
	"github.com/feichai0017/pdf-processor/pkg/logger"
	"github.com/feichai0017/pdf-processor/pkg/output"
	"github.com/feichai0017/pdf-processor/pkg/queue"
	"github.com/feichai0017/pdf-processor/pkg/storage"
)

var (
	// ErrInvalidFile is returned when an upload fails validation.
	ErrInvalidFile = errors.New("invalid file")
	// ErrInvalidTask marks a queued task that can never succeed.
	ErrInvalidTask = errors.New("invalid task")
	// ErrNotReady is returned when a result is requested before the task completed.
	ErrNotReady = errors.New("task is not completed")
)

type DocumentService struct {
	extractor *agent.Extractor
	pipeline  *pipeline.Pipeline
	queue     queue.Queue
	storage   storage.Storage
	validator *validator.DocumentValidator
	logger    logger.Logger
	config    *ServiceConfig
}

type ServiceConfig struct {
	Mode            string // backend mode used when a call passes ""
	Workers         int
	QueuePriority   int
	SaveText        bool
	SavePages       bool
	RetentionPeriod time.Duration
}

func NewService(
	extractor *agent.Extractor,
	pipe *pipeline.Pipeline,
	q queue.Queue,
	store storage.Storage,
	v *validator.DocumentValidator,
	log logger.Logger,
	cfg *ServiceConfig,
) *DocumentService {
	if cfg == nil {
		cfg = &ServiceConfig{
			Mode:            agent.AutoMode,
			Workers:         4,
			SaveText:        true,
			RetentionPeriod: 24 * time.Hour,
		}
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	return &DocumentService{
		extractor: extractor,
		pipeline:  pipe,
		queue:     q,
		storage:   store,
		validator: v,
		logger:    log,
		config:    cfg,
	}
}

// GetService wires a service from the application configuration. q and store may be nil
// for purely local use.
func GetService(cfg *config.Config, q queue.Queue, store storage.Storage, log logger.Logger) (*DocumentService, error) {
	pipe, err := pipeline.DefaultStages(log, cfg)
	if err != nil {
		return nil, err
	}

	extractor := agent.NewExtractor(log, agent.NewBackendSelector(log, cfg))
	v := validator.NewDocumentValidator(log, &validator.ValidatorConfig{
		MaxFileSize:  cfg.Server.MaxUploadSize,
		AllowedTypes: []string{".pdf"},
		MaxPageCount: validator.DefaultConfig().MaxPageCount,
	})

	return NewService(extractor, pipe, q, store, v, log, &ServiceConfig{
		Mode:            cfg.Backend.Mode,
		Workers:         cfg.Batch.Workers,
		SaveText:        cfg.Output.SaveText,
		SavePages:       cfg.Output.SavePages,
		RetentionPeriod: cfg.Queue.StatusTTL,
	}), nil
}

func (s *DocumentService) mode(mode string) string {
	if mode == "" {
		return s.config.Mode
	}
	return mode
}

// Process extracts path with the given backend mode and runs the pipeline over it.
func (s *DocumentService) Process(ctx context.Context, path, mode string) (*models.DocumentResult, error) {
	doc, err := s.extractor.Extract(ctx, path, s.mode(mode))
	if err != nil {
		s.logger.Error("Extraction failed",
			logger.String("path", path),
			logger.Error(err),
		)
		return nil, err
	}
	return s.pipeline.Run(doc), nil
}

// ProcessBatch runs Process over paths with at most Workers documents in flight. Results
// keep the order of paths.
func (s *DocumentService) ProcessBatch(ctx context.Context, paths []string, mode string) []BatchResult {
	results := make([]BatchResult, len(paths))

	var g errgroup.Group
	g.SetLimit(s.config.Workers)
	for i, p := range paths {
		g.Go(func() error {
			doc, err := s.Process(ctx, p, mode)
			results[i] = BatchResult{Path: p, Document: doc, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// ProcessDirectory processes the *.pdf files (any case) directly inside dir, by name.
func (s *DocumentService) ProcessDirectory(ctx context.Context, dir, mode string) ([]BatchResult, error) {
	paths, err := ListPDFs(dir)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Processing directory",
		logger.String("dir", dir),
		logger.Int("files", len(paths)),
	)
	return s.ProcessBatch(ctx, paths, mode), nil
}

// ListPDFs returns the regular files in dir with a .pdf extension, sorted by name.
func ListPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return paths, nil
}

// ProcessUpload validates an uploaded file and processes it synchronously.
func (s *DocumentService) ProcessUpload(ctx context.Context, file multipart.File, header *multipart.FileHeader, mode string) (*models.DocumentResult, error) {
	if err := s.validate(file, header); err != nil {
		return nil, err
	}

	tmp, cleanup, err := spool(file, header.Filename)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	doc, err := s.Process(ctx, tmp, mode)
	if err != nil {
		return nil, err
	}
	doc.Path = header.Filename
	doc.Filename = filepath.Base(header.Filename)
	return doc, nil
}

// Submit stores an upload and queues it for a worker.
func (s *DocumentService) Submit(ctx context.Context, file multipart.File, header *multipart.FileHeader, mode string) (*models.ProcessingTask, error) {
	s.logger.Info("Starting file processing",
		logger.String("filename", header.Filename),
		logger.Int64("size", header.Size),
	)

	if err := s.validate(file, header); err != nil {
		return nil, err
	}

	now := time.Now()
	filename := filepath.Base(header.Filename)
	task := &models.ProcessingTask{
		ID:        uuid.New().String(),
		Status:    models.StatusPending,
		Type:      queue.TaskTypeExtract,
		Priority:  s.config.QueuePriority,
		CreatedAt: now,
		UpdatedAt: now,
		Metadata: map[string]string{
			"filename": filename,
			"size":     strconv.FormatInt(header.Size, 10),
			"mode":     s.mode(mode),
		},
	}

	fileKey, err := s.storage.Store(ctx, file, path.Join("uploads", task.ID, filename))
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	queueTask := &queue.Task{
		ID:       task.ID,
		Type:     task.Type,
		Priority: task.Priority,
		Payload: queue.Payload{
			FileKey:  fileKey,
			Filename: filename,
			Size:     header.Size,
			Mode:     s.mode(mode),
		},
		Metadata:  task.Metadata,
		CreatedAt: now,
	}
	if err := s.queue.Enqueue(ctx, queueTask); err != nil {
		s.logger.Error("Failed to enqueue task",
			logger.String("taskId", task.ID),
			logger.Error(err),
		)
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	s.saveStatus(ctx, &queue.TaskStatus{
		TaskID:    task.ID,
		Status:    queue.StatePending,
		StartedAt: now,
	})

	s.logger.Info("File processing task created",
		logger.String("taskId", task.ID),
		logger.String("filename", filename),
	)
	return task, nil
}

// SubmitBatch submits every file; it stops at the first failure and returns the tasks
// queued so far.
func (s *DocumentService) SubmitBatch(ctx context.Context, headers []*multipart.FileHeader, mode string) ([]*models.ProcessingTask, error) {
	tasks := make([]*models.ProcessingTask, len(headers))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)
	for i, header := range headers {
		g.Go(func() error {
			file, err := header.Open()
			if err != nil {
				return fmt.Errorf("failed to open file %s: %w", header.Filename, err)
			}
			defer file.Close()

			task, err := s.Submit(ctx, file, header, mode)
			if err != nil {
				return fmt.Errorf("failed to process file %s: %w", header.Filename, err)
			}
			tasks[i] = task
			return nil
		})
	}
	err := g.Wait()

	submitted := make([]*models.ProcessingTask, 0, len(tasks))
	for _, t := range tasks {
		if t != nil {
			submitted = append(submitted, t)
		}
	}
	return submitted, err
}

// HandleDocument is run by the worker for each queued task.
func (s *DocumentService) HandleDocument(ctx context.Context, task *queue.Task) error {
	if task == nil || task.ID == "" || task.Payload.FileKey == "" {
		return fmt.Errorf("%w: missing required data", ErrInvalidTask)
	}

	s.logger.Info("Processing document",
		logger.String("taskId", task.ID),
		logger.String("filename", task.Payload.Filename),
	)

	status := &queue.TaskStatus{
		TaskID:    task.ID,
		Status:    queue.StateRunning,
		Progress:  0.1,
		StartedAt: time.Now(),
	}
	s.saveStatus(ctx, status)

	resultKey, err := s.handle(ctx, task)
	status.FinishedAt = time.Now()
	switch {
	case errors.Is(err, context.Canceled):
		status.Status = queue.StateCancelled
		status.Error = err.Error()
	case err != nil:
		status.Status = queue.StateFailed
		status.Error = err.Error()
	default:
		status.Status = queue.StateCompleted
		status.Progress = 1.0
		status.ResultKey = resultKey
	}
	// the task context may already be cancelled
	s.saveStatus(context.WithoutCancel(ctx), status)

	if err != nil {
		s.logger.Error("Document processing failed",
			logger.String("taskId", task.ID),
			logger.Error(err),
		)
		return err
	}

	s.logger.Info("Document processing completed",
		logger.String("taskId", task.ID),
		logger.String("result", resultKey),
	)
	return nil
}

func (s *DocumentService) handle(ctx context.Context, task *queue.Task) (string, error) {
	reader, err := s.storage.Get(ctx, task.Payload.FileKey)
	if err != nil {
		return "", fmt.Errorf("failed to get file: %w", err)
	}
	defer reader.Close()

	tmp, cleanup, err := spool(reader, task.Payload.Filename)
	if err != nil {
		return "", err
	}
	defer cleanup()

	doc, err := s.Process(ctx, tmp, task.Payload.Mode)
	if err != nil {
		return "", fmt.Errorf("failed to process document: %w", err)
	}
	doc.Path = task.Payload.Filename
	doc.Filename = filepath.Base(task.Payload.Filename)

	writer := output.NewWriter(s.storage, output.Options{
		SaveText:  s.config.SaveText,
		SaveJSON:  true,
		SavePages: s.config.SavePages,
		Prefix:    path.Join("results", task.ID),
	}, s.logger)
	keys, err := writer.Write(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("failed to store result: %w", err)
	}

	for _, k := range keys {
		if strings.HasSuffix(k, ".json") {
			return k, nil
		}
	}
	return "", fmt.Errorf("no result record written")
}

func (s *DocumentService) GetProcessingStatus(ctx context.Context, taskID string) (*models.ProcessingTask, error) {
	status, err := s.queue.GetTaskStatus(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task status: %w", err)
	}

	var taskStatus models.ProcessingStatus
	switch status.Status {
	case queue.StateRunning:
		taskStatus = models.StatusRunning
	case queue.StateCompleted:
		taskStatus = models.StatusCompleted
	case queue.StateFailed:
		taskStatus = models.StatusFailed
	case queue.StateCancelled:
		taskStatus = models.StatusCancelled
	default:
		taskStatus = models.StatusPending
	}

	metadata := make(map[string]string)
	if status.ResultKey != "" {
		metadata["result"] = status.ResultKey
	}

	return &models.ProcessingTask{
		ID:        status.TaskID,
		Status:    taskStatus,
		Type:      queue.TaskTypeExtract,
		Progress:  status.Progress,
		Error:     status.Error,
		Metadata:  metadata,
		CreatedAt: status.StartedAt,
		UpdatedAt: status.FinishedAt,
	}, nil
}

func (s *DocumentService) GetProcessedDocument(ctx context.Context, taskID string) (*converters.Record, error) {
	status, err := s.queue.GetTaskStatus(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task status: %w", err)
	}
	if status.Status != queue.StateCompleted {
		return nil, fmt.Errorf("%w: %s", ErrNotReady, status.Status)
	}

	reader, err := s.storage.Get(ctx, status.ResultKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	defer reader.Close()

	record, err := converters.DecodeRecord(reader)
	if err != nil {
		return nil, err
	}
	record.TaskID = taskID
	return record, nil
}

func (s *DocumentService) CancelTask(ctx context.Context, taskID string) error {
	if err := s.queue.CancelTask(ctx, taskID); err != nil {
		return fmt.Errorf("failed to cancel task: %w", err)
	}

	s.logger.Info("Task cancelled", logger.String("taskId", taskID))
	return nil
}

// CleanupTasks removes stored uploads and results older than the retention period.
func (s *DocumentService) CleanupTasks(ctx context.Context) error {
	threshold := time.Now().Add(-s.config.RetentionPeriod)

	if err := s.storage.CleanupBefore(ctx, threshold); err != nil {
		return fmt.Errorf("failed to cleanup storage: %w", err)
	}

	s.logger.Info("Completed tasks cleanup", logger.Time("threshold", threshold))
	return nil
}

func (s *DocumentService) validate(file multipart.File, header *multipart.FileHeader) error {
	if s.validator == nil {
		return nil
	}

	result, err := s.validator.Validate(header.Filename, file, header.Size)
	if err != nil {
		return err
	}
	if !result.IsValid {
		return fmt.Errorf("%w: %s", ErrInvalidFile, result.Error())
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to reset file pointer: %w", err)
	}
	return nil
}

func (s *DocumentService) saveStatus(ctx context.Context, status *queue.TaskStatus) {
	if err := s.queue.SaveStatus(ctx, status); err != nil {
		s.logger.Error("Failed to save task status",
			logger.String("taskId", status.TaskID),
			logger.String("status", status.Status),
			logger.Error(err),
		)
	}
}

// spool copies r into a temporary file since the backends read from disk.
func spool(r io.Reader, name string) (string, func(), error) {
	f, err := os.CreateTemp("", "pdfx-*"+filepath.Ext(name))
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	cleanup := func() { os.Remove(f.Name()) }

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("failed to copy file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to copy file: %w", err)
	}
	return f.Name(), cleanup, nil
}
