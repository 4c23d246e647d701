package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/pdf-processor/internal/agent"
	"github.com/feichai0017/pdf-processor/internal/models"
	docservice "github.com/feichai0017/pdf-processor/internal/service/document"
	"github.com/feichai0017/pdf-processor/pkg/converters"
	"github.com/feichai0017/pdf-processor/pkg/logger"
	"github.com/feichai0017/pdf-processor/pkg/queue"
)

type fakeService struct {
	docservice.DocumentProcessor

	submitted []string
	submitErr error
	statusErr error
	resultErr error
	cancelErr error
	cancelled string
}

func (f *fakeService) Submit(ctx context.Context, file multipart.File, header *multipart.FileHeader, mode string) (*models.ProcessingTask, error) {
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.submitted = append(f.submitted, header.Filename)
	return task(fmt.Sprintf("task-%d", len(f.submitted)), header, mode), nil
}

func (f *fakeService) SubmitBatch(ctx context.Context, headers []*multipart.FileHeader, mode string) ([]*models.ProcessingTask, error) {
	var tasks []*models.ProcessingTask
	for _, h := range headers {
		t, err := f.Submit(ctx, nil, h, mode)
		if err != nil {
			return tasks, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (f *fakeService) ProcessUpload(ctx context.Context, file multipart.File, header *multipart.FileHeader, mode string) (*models.DocumentResult, error) {
	if mode == "bogus" {
		return nil, fmt.Errorf("%w: %s", agent.ErrUnsupportedMode, mode)
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	doc := models.NewDocumentResult(header.Filename, "embedded", string(data), []string{string(data)}, nil)
	doc.Processed = true
	return doc, nil
}

func (f *fakeService) GetProcessingStatus(ctx context.Context, taskID string) (*models.ProcessingTask, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return &models.ProcessingTask{
		ID:       taskID,
		Status:   models.StatusRunning,
		Progress: 50,
		Metadata: map[string]string{},
	}, nil
}

func (f *fakeService) GetProcessedDocument(ctx context.Context, taskID string) (*converters.Record, error) {
	if f.resultErr != nil {
		return nil, f.resultErr
	}
	return &converters.Record{TaskID: taskID, Filename: "report.pdf", PageCount: 2, Processed: true}, nil
}

func (f *fakeService) CancelTask(ctx context.Context, taskID string) error {
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.cancelled = taskID
	return nil
}

func task(id string, header *multipart.FileHeader, mode string) *models.ProcessingTask {
	return &models.ProcessingTask{
		ID:        id,
		Status:    models.StatusPending,
		CreatedAt: time.Now(),
		Metadata: map[string]string{
			"filename": header.Filename,
			"size":     fmt.Sprint(header.Size),
			"mode":     mode,
		},
	}
}

func newRouter(svc *fakeService, maxSync int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewDocumentHandler(svc, agent.Modes(), maxSync, logger.NewNop())

	r := gin.New()
	r.GET("/backends", h.ListBackends)
	r.POST("/extract", h.ExtractDocument)
	r.POST("/process", h.ProcessDocument)
	r.POST("/batch", h.ProcessBatch)
	r.GET("/status/:taskId", h.GetStatus)
	r.GET("/download/:taskId", h.DownloadResult)
	r.DELETE("/task/:taskId", h.CancelTask)
	return r
}

type upload struct {
	field, name, content string
}

func multipartRequest(t *testing.T, target string, fields map[string]string, files ...upload) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestProcessDocument(t *testing.T) {
	svc := &fakeService{}
	r := newRouter(svc, 0)

	rec := serve(r, multipartRequest(t, "/process", map[string]string{"mode": "layout"},
		upload{"file", "report.pdf", "%PDF-1.4"}))

	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp ProcessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "task-1", resp.TaskID)
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, "report.pdf", resp.Filename)
	assert.Equal(t, "layout", resp.Mode)
	assert.Equal(t, []string{"report.pdf"}, svc.submitted)
}

func TestProcessDocument_Errors(t *testing.T) {
	r := newRouter(&fakeService{}, 0)
	rec := serve(r, multipartRequest(t, "/process", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc := &fakeService{submitErr: fmt.Errorf("%w: not a pdf", docservice.ErrInvalidFile)}
	rec = serve(newRouter(svc, 0), multipartRequest(t, "/process", nil, upload{"file", "a.txt", "hello"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Failed to process file", decode(t, rec)["message"])
}

func TestProcessBatch(t *testing.T) {
	svc := &fakeService{}
	r := newRouter(svc, 0)

	rec := serve(r, multipartRequest(t, "/batch", nil,
		upload{"files", "a.pdf", "%PDF-1.4 a"},
		upload{"files", "b.pdf", "%PDF-1.4 b"},
	))

	require.Equal(t, http.StatusAccepted, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Processing 2 of 2 documents", body["message"])
	assert.Len(t, body["tasks"], 2)

	rec = serve(r, multipartRequest(t, "/batch", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExtractDocument(t *testing.T) {
	r := newRouter(&fakeService{}, 1024)

	rec := serve(r, multipartRequest(t, "/extract", nil, upload{"file", "memo.pdf", "quarterly numbers"}))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "quarterly numbers", body["text"])
	record := body["record"].(map[string]any)
	assert.Equal(t, "memo.pdf", record["filename"])
	assert.Equal(t, float64(1), record["page_count"])
	assert.Equal(t, "embedded", record["extraction_method"])
}

func TestExtractDocument_Limits(t *testing.T) {
	r := newRouter(&fakeService{}, 4)
	rec := serve(r, multipartRequest(t, "/extract", nil, upload{"file", "big.pdf", "more than four bytes"}))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	r = newRouter(&fakeService{}, 0)
	rec = serve(r, multipartRequest(t, "/extract", map[string]string{"mode": "bogus"}, upload{"file", "a.pdf", "x"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "unsupported backend mode")
}

func TestGetStatus(t *testing.T) {
	r := newRouter(&fakeService{}, 0)
	rec := serve(r, httptest.NewRequest(http.MethodGet, "/status/abc", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "abc", body["taskId"])
	assert.Equal(t, "running", body["status"])

	r = newRouter(&fakeService{statusErr: fmt.Errorf("%w: abc", queue.ErrTaskNotFound)}, 0)
	rec = serve(r, httptest.NewRequest(http.MethodGet, "/status/abc", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDownloadResult(t *testing.T) {
	r := newRouter(&fakeService{}, 0)
	rec := serve(r, httptest.NewRequest(http.MethodGet, "/download/abc", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="report.json"`, rec.Header().Get("Content-Disposition"))

	record, err := converters.DecodeRecord(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, "abc", record.TaskID)
	assert.Equal(t, 2, record.PageCount)

	r = newRouter(&fakeService{resultErr: fmt.Errorf("%w: still running", docservice.ErrNotReady)}, 0)
	rec = serve(r, httptest.NewRequest(http.MethodGet, "/download/abc", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCancelTask(t *testing.T) {
	svc := &fakeService{}
	rec := serve(newRouter(svc, 0), httptest.NewRequest(http.MethodDelete, "/task/abc", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", svc.cancelled)

	svc = &fakeService{cancelErr: fmt.Errorf("%w: abc is completed", queue.ErrTaskFinished)}
	rec = serve(newRouter(svc, 0), httptest.NewRequest(http.MethodDelete, "/task/abc", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)

	svc = &fakeService{cancelErr: fmt.Errorf("boom")}
	rec = serve(newRouter(svc, 0), httptest.NewRequest(http.MethodDelete, "/task/abc", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestListBackends(t *testing.T) {
	rec := serve(newRouter(&fakeService{}, 0), httptest.NewRequest(http.MethodGet, "/backends", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"embedded", "layout", "ocr", "auto"}, decode(t, rec)["backends"])
}
