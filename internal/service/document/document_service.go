package document

import (
	"context"
	"mime/multipart"

	"github.com/feichai0017/pdf-processor/internal/models"
	"github.com/feichai0017/pdf-processor/pkg/converters"
	"github.com/feichai0017/pdf-processor/pkg/queue"
)

// DocumentProcessor is the application surface shared by the CLI, the HTTP API and the
// queue worker.
type DocumentProcessor interface {
	// Process extracts and analyses one local file.
	Process(ctx context.Context, path, mode string) (*models.DocumentResult, error)
	// ProcessBatch processes files concurrently; one failure does not stop the rest.
	ProcessBatch(ctx context.Context, paths []string, mode string) []BatchResult
	// ProcessDirectory processes every *.pdf file directly inside dir.
	ProcessDirectory(ctx context.Context, dir, mode string) ([]BatchResult, error)
	// ProcessUpload runs an uploaded file synchronously.
	ProcessUpload(ctx context.Context, file multipart.File, header *multipart.FileHeader, mode string) (*models.DocumentResult, error)

	Submit(ctx context.Context, file multipart.File, header *multipart.FileHeader, mode string) (*models.ProcessingTask, error)
	SubmitBatch(ctx context.Context, headers []*multipart.FileHeader, mode string) ([]*models.ProcessingTask, error)
	HandleDocument(ctx context.Context, task *queue.Task) error
	GetProcessingStatus(ctx context.Context, taskID string) (*models.ProcessingTask, error)
	GetProcessedDocument(ctx context.Context, taskID string) (*converters.Record, error)
	CancelTask(ctx context.Context, taskID string) error
}

// BatchResult pairs an input path with its result or error.
type BatchResult struct {
	Path     string
	Document *models.DocumentResult
	Err      error
}
