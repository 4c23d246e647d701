package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/pdf-processor/internal/agent"
	"github.com/feichai0017/pdf-processor/internal/agent/document"
	docservice "github.com/feichai0017/pdf-processor/internal/service/document"
	"github.com/feichai0017/pdf-processor/pkg/converters"
	"github.com/feichai0017/pdf-processor/pkg/logger"
	"github.com/feichai0017/pdf-processor/pkg/queue"
)

type DocumentHandler struct {
	service     docservice.DocumentProcessor
	modes       []string
	maxSyncSize int64
	logger      logger.Logger
}

type ProcessResponse struct {
	TaskID    string `json:"taskId"`
	Status    string `json:"status"`
	Filename  string `json:"filename"`
	FileSize  int64  `json:"fileSize"`
	Mode      string `json:"mode"`
	CreatedAt string `json:"createdAt"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func NewDocumentHandler(service docservice.DocumentProcessor, modes []string, maxSyncSize int64, log logger.Logger) *DocumentHandler {
	return &DocumentHandler{
		service:     service,
		modes:       modes,
		maxSyncSize: maxSyncSize,
		logger:      log,
	}
}

// ProcessDocument queues one uploaded file.
func (h *DocumentHandler) ProcessDocument(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid file upload", err)
		return
	}
	defer file.Close()

	mode := c.PostForm("mode")
	task, err := h.service.Submit(c.Request.Context(), file, header, mode)
	if err != nil {
		h.handleError(c, statusFor(err), "Failed to process file", err)
		return
	}

	c.JSON(http.StatusAccepted, ProcessResponse{
		TaskID:    task.ID,
		Status:    string(task.Status),
		Filename:  header.Filename,
		FileSize:  header.Size,
		Mode:      task.Metadata["mode"],
		CreatedAt: task.CreatedAt.Format(time.RFC3339),
	})
}

// ProcessBatch queues every file of the "files" form field.
func (h *DocumentHandler) ProcessBatch(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid form data", err)
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		h.handleError(c, http.StatusBadRequest, "No files provided", nil)
		return
	}

	tasks, err := h.service.SubmitBatch(c.Request.Context(), files, c.PostForm("mode"))
	if err != nil && len(tasks) == 0 {
		h.handleError(c, statusFor(err), "Failed to process files", err)
		return
	}

	responses := make([]ProcessResponse, len(tasks))
	for i, task := range tasks {
		size, _ := strconv.ParseInt(task.Metadata["size"], 10, 64)
		responses[i] = ProcessResponse{
			TaskID:    task.ID,
			Status:    string(task.Status),
			Filename:  task.Metadata["filename"],
			FileSize:  size,
			Mode:      task.Metadata["mode"],
			CreatedAt: task.CreatedAt.Format(time.RFC3339),
		}
	}

	body := gin.H{
		"message": fmt.Sprintf("Processing %d of %d documents", len(tasks), len(files)),
		"tasks":   responses,
	}
	if err != nil {
		body["error"] = err.Error()
	}
	c.JSON(http.StatusAccepted, body)
}

// ExtractDocument processes a small upload synchronously and returns its record.
func (h *DocumentHandler) ExtractDocument(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid file upload", err)
		return
	}
	defer file.Close()

	if h.maxSyncSize > 0 && header.Size > h.maxSyncSize {
		h.handleError(c, http.StatusRequestEntityTooLarge, "File too large for synchronous extraction",
			fmt.Errorf("%d bytes exceeds %d, use /documents/process", header.Size, h.maxSyncSize))
		return
	}

	doc, err := h.service.ProcessUpload(c.Request.Context(), file, header, c.PostForm("mode"))
	if err != nil {
		h.handleError(c, statusFor(err), "Failed to extract document", err)
		return
	}

	record, err := converters.NewJSONConverter().Convert(doc)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to serialize result", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"record": record,
		"text":   doc.Text,
	})
}

func (h *DocumentHandler) GetStatus(c *gin.Context) {
	taskID := c.Param("taskId")

	task, err := h.service.GetProcessingStatus(c.Request.Context(), taskID)
	if err != nil {
		h.handleError(c, statusFor(err), "Failed to get status", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"taskId":    task.ID,
		"status":    string(task.Status),
		"progress":  task.Progress,
		"error":     task.Error,
		"metadata":  task.Metadata,
		"createdAt": task.CreatedAt.Format(time.RFC3339),
		"updatedAt": task.UpdatedAt.Format(time.RFC3339),
	})
}

// DownloadResult returns the stored record of a completed task as an attachment.
func (h *DocumentHandler) DownloadResult(c *gin.Context) {
	taskID := c.Param("taskId")

	record, err := h.service.GetProcessedDocument(c.Request.Context(), taskID)
	if err != nil {
		h.handleError(c, statusFor(err), "Failed to get result", err)
		return
	}

	filename := fmt.Sprintf("result_%s.json", taskID)
	if record.Filename != "" {
		filename = fmt.Sprintf("%s.json", trimExt(record.Filename))
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.IndentedJSON(http.StatusOK, record)
}

func (h *DocumentHandler) CancelTask(c *gin.Context) {
	taskID := c.Param("taskId")

	if err := h.service.CancelTask(c.Request.Context(), taskID); err != nil {
		h.handleError(c, statusFor(err), "Failed to cancel task", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task cancelled successfully",
		"taskId":  taskID,
	})
}

// ListBackends reports the accepted backend modes.
func (h *DocumentHandler) ListBackends(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"backends": h.modes})
}

func (h *DocumentHandler) handleError(c *gin.Context, status int, message string, err error) {
	fields := []logger.Field{logger.String("path", c.Request.URL.Path)}
	if err != nil {
		fields = append(fields, logger.Error(err))
	}
	h.logger.Error(message, fields...)

	response := ErrorResponse{Message: message}
	if err != nil {
		response.Error = err.Error()
	}
	c.JSON(status, response)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, docservice.ErrInvalidFile),
		errors.Is(err, agent.ErrUnsupportedMode),
		errors.Is(err, document.ErrNotFound):
		return http.StatusBadRequest
	case errors.Is(err, queue.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, docservice.ErrNotReady),
		errors.Is(err, queue.ErrTaskFinished):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
