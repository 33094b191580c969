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

// CatalogHandler serves projects, units, FAQs, the FAQ taxonomy and the
// quick filters
type CatalogHandler struct {
	store  catalog.Store
	search *service.SearchService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(store catalog.Store, search *service.SearchService) *CatalogHandler {
	return &CatalogHandler{store: store, search: search}
}

// ListProjects handles GET /api/v1/projects
func (h *CatalogHandler) ListProjects(c *gin.Context) {
	projects, err := h.store.ListProjects(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list projects: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects, "total": len(projects)})
}

// GetProject handles GET /api/v1/projects/:id
func (h *CatalogHandler) GetProject(c *gin.Context) {
	project, ok := h.project(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, project)
}

// ProjectUnits handles GET /api/v1/projects/:id/units
func (h *CatalogHandler) ProjectUnits(c *gin.Context) {
	project, ok := h.project(c)
	if !ok {
		return
	}
	units, err := h.store.ListUnitsByProject(c.Request.Context(), project.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list units: " + err.Error()})
		return
	}
	if units == nil {
		units = []model.Unit{}
	}
	c.JSON(http.StatusOK, gin.H{"units": units, "total": len(units)})
}

// ProjectFAQs handles GET /api/v1/projects/:id/faqs
func (h *CatalogHandler) ProjectFAQs(c *gin.Context) {
	project, ok := h.project(c)
	if !ok {
		return
	}
	faqs, err := h.store.ListFaqsByProject(c.Request.Context(), project.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list faqs: " + err.Error()})
		return
	}
	if faqs == nil {
		faqs = []model.FAQ{}
	}
	c.JSON(http.StatusOK, gin.H{"faqs": faqs, "total": len(faqs)})
}

// Categories handles GET /api/v1/categories?project_id=
func (h *CatalogHandler) Categories(c *gin.Context) {
	faqs, ok := h.faqs(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": pipeline.CountByCategory(faqs), "total_faqs": len(faqs)})
}

// CategoryFAQs handles GET /api/v1/categories/:id/faqs?project_id=
func (h *CatalogHandler) CategoryFAQs(c *gin.Context) {
	category, found := pipeline.CategoryByID(c.Param("id"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}
	faqs, ok := h.faqs(c)
	if !ok {
		return
	}
	filed := pipeline.FAQsByCategory(faqs, category.ID)
	if filed == nil {
		filed = []model.FAQ{}
	}
	c.JSON(http.StatusOK, gin.H{"category": category, "faqs": filed, "total": len(filed)})
}

// QuickFilters handles GET /api/v1/quick-filters
func (h *CatalogHandler) QuickFilters(c *gin.Context) {
	filters := pipeline.QuickFilters()
	c.JSON(http.StatusOK, gin.H{"filters": filters, "total": len(filters)})
}

// QuickFilterUnits handles GET /api/v1/quick-filters/:id/units?project_id=
func (h *CatalogHandler) QuickFilterUnits(c *gin.Context) {
	resp, err := h.search.FilterUnits(c.Request.Context(), c.Param("id"), c.Query("project_id"))
	switch {
	case errors.Is(err, service.ErrFilterNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Quick filter not found"})
	case errors.Is(err, catalog.ErrProjectNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Filter failed: " + err.Error()})
	default:
		c.JSON(http.StatusOK, resp)
	}
}

func (h *CatalogHandler) project(c *gin.Context) (*model.Project, bool) {
	project, err := h.store.GetProject(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, catalog.ErrProjectNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return nil, false
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get project: " + err.Error()})
		return nil, false
	}
	return project, true
}

// faqs returns the FAQs of the project_id query parameter, or all of them.
func (h *CatalogHandler) faqs(c *gin.Context) ([]model.FAQ, bool) {
	ctx := c.Request.Context()
	projectID := c.Query("project_id")
	if projectID == "" {
		faqs, err := h.store.ListFaqs(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list faqs: " + err.Error()})
			return nil, false
		}
		return faqs, true
	}

	if _, err := h.store.GetProject(ctx, projectID); err != nil {
		if errors.Is(err, catalog.ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get project: " + err.Error()})
		}
		return nil, false
	}
	faqs, err := h.store.ListFaqsByProject(ctx, projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list faqs: " + err.Error()})
		return nil, false
	}
	return faqs, true
}
