package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"salesdesk/internal/model"
	"salesdesk/internal/repository"
	"salesdesk/internal/service"
)

// FeedbackHandler handles feedback-related HTTP requests
type FeedbackHandler struct {
	queries *service.QueryService
}

// NewFeedbackHandler creates a new feedback handler
func NewFeedbackHandler(queries *service.QueryService) *FeedbackHandler {
	return &FeedbackHandler{queries: queries}
}

// Submit handles POST /api/v1/feedback
func (h *FeedbackHandler) Submit(c *gin.Context) {
	var req model.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	err := h.queries.Feedback(c.Request.Context(), &req)
	switch {
	case errors.Is(err, service.ErrInvalidAction):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid action. Must be one of: helpful, not_helpful, contact, view_unit"})
		return
	case errors.Is(err, repository.ErrQueryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Query not found"})
		return
	case errors.Is(err, service.ErrFeedbackDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Feedback is not recorded without a SQL store"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log feedback: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, model.FeedbackResponse{
		Success: true,
		Message: "Feedback logged successfully",
	})
}
