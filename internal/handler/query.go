package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"salesdesk/internal/catalog"
	"salesdesk/internal/model"
	"salesdesk/internal/pipeline"
	"salesdesk/internal/service"
)

// QueryHandler serves the query pipeline
type QueryHandler struct {
	queries *service.QueryService
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(queries *service.QueryService) *QueryHandler {
	return &QueryHandler{queries: queries}
}

// Query handles POST /api/v1/query
func (h *QueryHandler) Query(c *gin.Context) {
	var req model.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	resp, err := h.queries.Resolve(c.Request.Context(), &req)
	if err != nil {
		c.JSON(queryErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// QueryStream handles POST /api/v1/query/stream. Each stage the pipeline
// tries is reported as a "stage" event before the "result".
func (h *QueryHandler) QueryStream(c *gin.Context) {
	var req model.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	flusher, ok := startSSE(c)
	if !ok {
		return
	}

	sendSSE(c, "start", gin.H{"query": req.Query, "project_id": req.ProjectID})
	flusher.Flush()

	resp, err := h.queries.ResolveObserved(c.Request.Context(), &req, func(e pipeline.StageEvent) {
		sendSSE(c, "stage", e)
		flusher.Flush()
	})
	if err != nil {
		sendSSE(c, "error", gin.H{"error": err.Error()})
		flusher.Flush()
		return
	}

	sendSSE(c, "result", resp)
	flusher.Flush()

	sendSSE(c, "done", nil)
	flusher.Flush()
}

// Recent handles GET /api/v1/queries/recent?limit=
func (h *QueryHandler) Recent(c *gin.Context) {
	limit := service.DefaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	history, err := h.queries.History(c.Request.Context(), limit)
	switch {
	case errors.Is(err, service.ErrHistoryDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Queries are not logged without a SQL store"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list queries: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"queries": history, "total": len(history)})
}

func queryErrorStatus(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrProjectNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
