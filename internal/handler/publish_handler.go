package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-site-api/internal/dto"
	"github.com/noah-isme/course-site-api/internal/models"
	"github.com/noah-isme/course-site-api/internal/service"
	appErrors "github.com/noah-isme/course-site-api/pkg/errors"
	"github.com/noah-isme/course-site-api/pkg/response"
)

type publishService interface {
	Enqueue(ctx context.Context, offeringID string, req dto.PublishRequest) (*models.PublishJob, error)
	Status(ctx context.Context, id string) (*models.PublishJob, error)
	ResolveDownload(ctx context.Context, token string) (*service.PublishDownload, error)
}

// PublishHandler exposes background publishing and signed file downloads.
type PublishHandler struct {
	service publishService
}

// NewPublishHandler constructs a publish handler.
func NewPublishHandler(svc publishService) *PublishHandler {
	return &PublishHandler{service: svc}
}

// Publish godoc
// @Summary Publish offering pages
// @Description Renders the pages in the background. Poll the job for signed download links.
// @Tags Publishing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Offering ID"
// @Param payload body dto.PublishRequest false "Pages to publish"
// @Success 202 {object} response.Envelope
// @Router /offerings/{id}/publish [post]
func (h *PublishHandler) Publish(c *gin.Context) {
	var req dto.PublishRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	job, err := h.service.Enqueue(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, job)
}

// Status godoc
// @Summary Publish job status
// @Tags Publishing
// @Produce json
// @Security BearerAuth
// @Param jobId path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /publish/{jobId} [get]
func (h *PublishHandler) Status(c *gin.Context) {
	job, err := h.service.Status(c.Request.Context(), c.Param("jobId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Download godoc
// @Summary Download a published file via signed token
// @Tags Publishing
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Router /files/{token} [get]
func (h *PublishHandler) Download(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	result, err := h.service.ResolveDownload(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.File.Close() //nolint:errcheck

	info, err := result.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat file"))
		return
	}
	response.Stream(c, result.Filename, result.ContentType, info.Size(), result.File)
}
