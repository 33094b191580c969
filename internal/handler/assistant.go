package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"salesdesk/internal/catalog"
	"salesdesk/internal/model"
	"salesdesk/internal/pipeline"
	"salesdesk/internal/service"
)

// AssistantHandler serves the remote-model contract and the quick
// response buttons
type AssistantHandler struct {
	assistant *service.AssistantService
	store     catalog.Store
}

// NewAssistantHandler creates a new assistant handler
func NewAssistantHandler(assistant *service.AssistantService, store catalog.Store) *AssistantHandler {
	return &AssistantHandler{assistant: assistant, store: store}
}

// Ask handles POST /api/v1/assistant
func (h *AssistantHandler) Ask(c *gin.Context) {
	var req model.AssistantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.AssistantError{Error: "Invalid request: " + err.Error(), Fallback: service.AssistantFallbackText})
		return
	}

	resp, err := h.assistant.Ask(c.Request.Context(), &req)
	if err != nil {
		c.JSON(assistantErrorStatus(err), model.AssistantError{Error: err.Error(), Fallback: service.AssistantFallbackText})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// AskStream handles POST /api/v1/assistant/stream. The answer arrives as
// "token" events followed by the full response in "result".
func (h *AssistantHandler) AskStream(c *gin.Context) {
	var req model.AssistantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.AssistantError{Error: "Invalid request: " + err.Error(), Fallback: service.AssistantFallbackText})
		return
	}
	if !h.assistant.Enabled() {
		c.JSON(http.StatusServiceUnavailable, model.AssistantError{Error: service.ErrAssistantDisabled.Error(), Fallback: service.AssistantFallbackText})
		return
	}

	flusher, ok := startSSE(c)
	if !ok {
		return
	}

	sendSSE(c, "start", gin.H{"query": req.Query})
	flusher.Flush()

	resp, err := h.assistant.AskStream(c.Request.Context(), &req, func(thinking, content string) error {
		payload := gin.H{"content": content}
		if thinking != "" {
			payload["thinking"] = thinking
		}
		sendSSE(c, "token", payload)
		flusher.Flush()
		return c.Request.Context().Err()
	})
	if err != nil {
		sendSSE(c, "error", model.AssistantError{Error: err.Error(), Fallback: service.AssistantFallbackText})
		flusher.Flush()
		return
	}

	sendSSE(c, "result", resp)
	flusher.Flush()

	sendSSE(c, "done", nil)
	flusher.Flush()
}

// Quick handles GET /api/v1/projects/:id/quick/:kind
func (h *AssistantHandler) Quick(c *gin.Context) {
	ctx := c.Request.Context()
	project, err := h.store.GetProject(ctx, c.Param("id"))
	switch {
	case errors.Is(err, catalog.ErrProjectNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get project: " + err.Error()})
		return
	}

	units, err := h.store.ListUnitsByProject(ctx, project.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list units: " + err.Error()})
		return
	}

	resp, err := h.assistant.QuickResponse(ctx, c.Param("kind"), project, units)
	if err != nil {
		c.JSON(assistantErrorStatus(err), model.AssistantError{Error: err.Error(), Fallback: service.AssistantFallbackText})
		return
	}

	c.JSON(http.StatusOK, gin.H{"kind": c.Param("kind"), "project_id": project.ID, "answer": resp})
}

func assistantErrorStatus(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrEmptyQuery), errors.Is(err, service.ErrUnknownQuickKind):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrAssistantDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
