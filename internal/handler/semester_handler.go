package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-site-api/internal/dto"
	"github.com/noah-isme/course-site-api/internal/models"
	appErrors "github.com/noah-isme/course-site-api/pkg/errors"
	"github.com/noah-isme/course-site-api/pkg/response"
)

type semesterService interface {
	List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Semester, error)
	Create(ctx context.Context, req dto.CreateSemesterRequest) (*models.Semester, error)
	Delete(ctx context.Context, id string) error
	Cancel(ctx context.Context, id string, req dto.SemesterCancellationRequest) (*models.Semester, error)
	DayIndex(ctx context.Context, id, rawDate string) (*dto.DayIndexResponse, error)
	DateOf(ctx context.Context, id string, index int) (*dto.DayIndexResponse, error)
}

// SemesterHandler exposes semester calendar endpoints.
type SemesterHandler struct {
	service semesterService
}

// NewSemesterHandler constructs a semester handler.
func NewSemesterHandler(svc semesterService) *SemesterHandler {
	return &SemesterHandler{service: svc}
}

// List godoc
// @Summary List semesters
// @Tags Semesters
// @Produce json
// @Param search query string false "Title search"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param order query string false "asc or desc by first day"
// @Success 200 {object} response.Envelope
// @Router /semesters [get]
func (h *SemesterHandler) List(c *gin.Context) {
	filter := models.SemesterFilter{
		Search:    c.Query("search"),
		SortOrder: c.Query("order"),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	semesters, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semesters, pagination)
}

// Get godoc
// @Summary Get semester
// @Tags Semesters
// @Produce json
// @Param id path string true "Semester ID"
// @Success 200 {object} response.Envelope
// @Router /semesters/{id} [get]
func (h *SemesterHandler) Get(c *gin.Context) {
	semester, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semester, nil)
}

// Create godoc
// @Summary Create semester
// @Tags Semesters
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateSemesterRequest true "Semester payload"
// @Success 201 {object} response.Envelope
// @Router /semesters [post]
func (h *SemesterHandler) Create(c *gin.Context) {
	var req dto.CreateSemesterRequest
	if !bindJSON(c, &req) {
		return
	}
	semester, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, semester)
}

// Delete godoc
// @Summary Delete semester
// @Tags Semesters
// @Security BearerAuth
// @Param id path string true "Semester ID"
// @Success 204
// @Router /semesters/{id} [delete]
func (h *SemesterHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Cancel godoc
// @Summary Cancel a calendar day for every offering
// @Tags Semesters
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Semester ID"
// @Param payload body dto.SemesterCancellationRequest true "Cancellation"
// @Success 200 {object} response.Envelope
// @Router /semesters/{id}/cancellations [post]
func (h *SemesterHandler) Cancel(c *gin.Context) {
	var req dto.SemesterCancellationRequest
	if !bindJSON(c, &req) {
		return
	}
	semester, err := h.service.Cancel(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semester, nil)
}

// DayIndex godoc
// @Summary Convert a date to its semester day index
// @Tags Semesters
// @Produce json
// @Param id path string true "Semester ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /semesters/{id}/day-index [get]
func (h *SemesterHandler) DayIndex(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date required"))
		return
	}
	result, err := h.service.DayIndex(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// DateOf godoc
// @Summary Convert a semester day index to its date
// @Tags Semesters
// @Produce json
// @Param id path string true "Semester ID"
// @Param index path int true "Day index"
// @Success 200 {object} response.Envelope
// @Router /semesters/{id}/dates/{index} [get]
func (h *SemesterHandler) DateOf(c *gin.Context) {
	index, ok := intParam(c, "index")
	if !ok {
		return
	}
	result, err := h.service.DateOf(c.Request.Context(), c.Param("id"), index)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
