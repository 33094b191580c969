package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"salesdesk/internal/catalog"
	"salesdesk/internal/repository"
	"salesdesk/internal/service"
)

// EmbeddingHandler handles embedding-related HTTP requests
type EmbeddingHandler struct {
	indexer *service.FAQIndexer
}

// NewEmbeddingHandler creates a new embedding handler
func NewEmbeddingHandler(indexer *service.FAQIndexer) *EmbeddingHandler {
	return &EmbeddingHandler{indexer: indexer}
}

// RebuildFAQs handles POST /api/v1/embeddings/faqs?project_id=
func (h *EmbeddingHandler) RebuildFAQs(c *gin.Context) {
	response, err := h.indexer.Rebuild(c.Request.Context(), c.Query("project_id"))
	switch {
	case errors.Is(err, service.ErrEmbeddingsDisabled), errors.Is(err, repository.ErrVectorUnsupported):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	case errors.Is(err, catalog.ErrProjectNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to rebuild embeddings: " + err.Error()})
		return
	}

	if len(response.Errors) > 0 {
		c.JSON(http.StatusPartialContent, response)
	} else {
		c.JSON(http.StatusOK, response)
	}
}
