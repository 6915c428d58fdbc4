package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-site-api/internal/dto"
	"github.com/noah-isme/course-site-api/internal/middleware"
	"github.com/noah-isme/course-site-api/internal/models"
	appErrors "github.com/noah-isme/course-site-api/pkg/errors"
	"github.com/noah-isme/course-site-api/pkg/response"
)

type offeringService interface {
	ListBySemester(ctx context.Context, semesterID string) ([]models.Offering, error)
	ListAll(ctx context.Context) ([]models.Offering, error)
	Detail(ctx context.Context, id string) (*models.OfferingDetail, error)
	Create(ctx context.Context, req dto.CreateOfferingRequest) (*models.Offering, error)
	Delete(ctx context.Context, id string) error
	ReplaceTopics(ctx context.Context, id string, req dto.ReplaceTopicsRequest) ([]models.CourseTopic, error)
	AddPin(ctx context.Context, id string, req dto.PinRequest) (*models.OfferingPin, error)
	CancelMeeting(ctx context.Context, id string, req dto.OfferingCancellationRequest) (*models.OfferingPin, error)
	ReplaceAssignments(ctx context.Context, id string, req dto.ReplaceAssignmentsRequest) ([]models.Assignment, error)
	Schedule(ctx context.Context, id string, rebuild bool) (*models.OfferingSchedule, error)
	AssignmentDates(ctx context.Context, id, assignmentType string, index int) (*dto.AssignmentDatesResponse, error)
}

// OfferingHandler exposes offering, topic, pin, assignment and schedule endpoints.
type OfferingHandler struct {
	service offeringService
}

// NewOfferingHandler constructs an offering handler.
func NewOfferingHandler(svc offeringService) *OfferingHandler {
	return &OfferingHandler{service: svc}
}

// List godoc
// @Summary List offerings
// @Tags Offerings
// @Produce json
// @Param semester_id query string false "Restrict to one semester"
// @Success 200 {object} response.Envelope
// @Router /offerings [get]
func (h *OfferingHandler) List(c *gin.Context) {
	var (
		offerings []models.Offering
		err       error
	)
	if semesterID := c.Query("semester_id"); semesterID != "" {
		offerings, err = h.service.ListBySemester(c.Request.Context(), semesterID)
	} else {
		offerings, err = h.service.ListAll(c.Request.Context())
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offerings, nil)
}

// Get godoc
// @Summary Get offering with topics, pins and assignments
// @Tags Offerings
// @Produce json
// @Param id path string true "Offering ID"
// @Success 200 {object} response.Envelope
// @Router /offerings/{id} [get]
func (h *OfferingHandler) Get(c *gin.Context) {
	detail, err := h.service.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Create godoc
// @Summary Create offering
// @Tags Offerings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateOfferingRequest true "Offering payload"
// @Success 201 {object} response.Envelope
// @Router /offerings [post]
func (h *OfferingHandler) Create(c *gin.Context) {
	var req dto.CreateOfferingRequest
	if !bindJSON(c, &req) {
		return
	}
	offering, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, offering)
}

// Delete godoc
// @Summary Delete offering
// @Tags Offerings
// @Security BearerAuth
// @Param id path string true "Offering ID"
// @Success 204
// @Router /offerings/{id} [delete]
func (h *OfferingHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ReplaceTopics godoc
// @Summary Replace the ordered topic list
// @Tags Offerings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Offering ID"
// @Param payload body dto.ReplaceTopicsRequest true "Topics"
// @Success 200 {object} response.Envelope
// @Router /offerings/{id}/topics [put]
func (h *OfferingHandler) ReplaceTopics(c *gin.Context) {
	var req dto.ReplaceTopicsRequest
	if !bindJSON(c, &req) {
		return
	}
	topics, err := h.service.ReplaceTopics(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, topics, nil)
}

// AddPin godoc
// @Summary Pin a fixed entry to a meeting day
// @Tags Offerings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Offering ID"
// @Param payload body dto.PinRequest true "Pin"
// @Success 201 {object} response.Envelope
// @Router /offerings/{id}/pins [post]
func (h *OfferingHandler) AddPin(c *gin.Context) {
	var req dto.PinRequest
	if !bindJSON(c, &req) {
		return
	}
	pin, err := h.service.AddPin(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, pin)
}

// CancelMeeting godoc
// @Summary Cancel one meeting of the offering
// @Tags Offerings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Offering ID"
// @Param payload body dto.OfferingCancellationRequest true "Cancellation"
// @Success 201 {object} response.Envelope
// @Router /offerings/{id}/cancellations [post]
func (h *OfferingHandler) CancelMeeting(c *gin.Context) {
	var req dto.OfferingCancellationRequest
	if !bindJSON(c, &req) {
		return
	}
	pin, err := h.service.CancelMeeting(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, pin)
}

// ReplaceAssignments godoc
// @Summary Replace the assignment list
// @Tags Offerings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Offering ID"
// @Param payload body dto.ReplaceAssignmentsRequest true "Assignments"
// @Success 200 {object} response.Envelope
// @Router /offerings/{id}/assignments [put]
func (h *OfferingHandler) ReplaceAssignments(c *gin.Context) {
	var req dto.ReplaceAssignmentsRequest
	if !bindJSON(c, &req) {
		return
	}
	assignments, err := h.service.ReplaceAssignments(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// Schedule godoc
// @Summary Topic schedule of an offering
// @Description Served from cache unless rebuild=true forces a fresh build.
// @Tags Schedules
// @Produce json
// @Param id path string true "Offering ID"
// @Param rebuild query bool false "Force a fresh build"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /offerings/{id}/schedule [get]
func (h *OfferingHandler) Schedule(c *gin.Context) {
	rebuild := boolQuery(c, "rebuild")
	schedule, err := h.service.Schedule(c.Request.Context(), c.Param("id"), rebuild)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "rebuild", rebuild)
	response.JSON(c, http.StatusOK, schedule, nil, middleware.ExtractMeta(c))
}

// AssignmentDates godoc
// @Summary Assign and due datetimes of one assignment
// @Tags Schedules
// @Produce json
// @Param id path string true "Offering ID"
// @Param type path string true "Assignment type"
// @Param index path int true "Zero based index within the type"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /offerings/{id}/assignments/{type}/{index}/dates [get]
func (h *OfferingHandler) AssignmentDates(c *gin.Context) {
	index, ok := intParam(c, "index")
	if !ok {
		return
	}
	dates, err := h.service.AssignmentDates(c.Request.Context(), c.Param("id"), c.Param("type"), index)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dates, nil)
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return false
	}
	return true
}
