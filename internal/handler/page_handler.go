package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-site-api/internal/models"
	"github.com/noah-isme/course-site-api/pkg/response"
)

type pageService interface {
	Offering(ctx context.Context, offeringID, page string) ([]byte, error)
	Availability(ctx context.Context, semesterID string) ([]byte, error)
}

type exportService interface {
	Export(ctx context.Context, offeringID string, format models.ExportFormat) (*models.ExportFile, error)
}

// PageHandler serves rendered pages and schedule exports.
type PageHandler struct {
	pages   pageService
	exports exportService
}

// NewPageHandler constructs a page handler.
func NewPageHandler(pages pageService, exports exportService) *PageHandler {
	return &PageHandler{pages: pages, exports: exports}
}

// Page godoc
// @Summary Rendered offering page
// @Tags Pages
// @Produce html
// @Param id path string true "Offering ID"
// @Param page path string true "schedule or syllabus"
// @Success 200 {string} string "HTML page"
// @Router /offerings/{id}/pages/{page} [get]
func (h *PageHandler) Page(c *gin.Context) {
	html, err := h.pages.Offering(c.Request.Context(), c.Param("id"), c.Param("page"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.HTML(c, html)
}

// Availability godoc
// @Summary Weekly availability grid
// @Tags Pages
// @Produce html
// @Param semester_id query string false "Restrict meetings to one semester"
// @Success 200 {string} string "HTML page"
// @Router /availability [get]
func (h *PageHandler) Availability(c *gin.Context) {
	html, err := h.pages.Availability(c.Request.Context(), c.Query("semester_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.HTML(c, html)
}

// Export godoc
// @Summary Export an offering schedule
// @Tags Pages
// @Produce octet-stream
// @Param id path string true "Offering ID"
// @Param format query string false "csv, pdf, xlsx or ics" default(csv)
// @Success 200 {file} binary
// @Router /offerings/{id}/export [get]
func (h *PageHandler) Export(c *gin.Context) {
	format := models.ExportFormat(strings.ToLower(c.DefaultQuery("format", string(models.ExportFormatCSV))))
	file, err := h.exports.Export(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
