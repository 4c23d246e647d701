package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	docservice "github.com/feichai0017/pdf-processor/internal/service/document"
	"github.com/feichai0017/pdf-processor/pkg/logger"
)

type Handlers struct {
	Document *DocumentHandler
}

func NewHandlers(
	documentService docservice.DocumentProcessor,
	modes []string,
	maxSyncSize int64,
	log logger.Logger,
) *Handlers {
	return &Handlers{
		Document: NewDocumentHandler(documentService, modes, maxSyncSize, log),
	}
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
