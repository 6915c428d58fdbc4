package handler

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-site-api/internal/dto"
	"github.com/noah-isme/course-site-api/internal/models"
	"github.com/noah-isme/course-site-api/internal/service"
	appErrors "github.com/noah-isme/course-site-api/pkg/errors"
)

type publishServiceStub struct {
	req      dto.PublishRequest
	download *service.PublishDownload
	err      error
}

func (s *publishServiceStub) Enqueue(ctx context.Context, offeringID string, req dto.PublishRequest) (*models.PublishJob, error) {
	s.req = req
	return &models.PublishJob{ID: "job-1", OfferingID: offeringID, Status: models.PublishStatusQueued}, s.err
}

func (s *publishServiceStub) Status(ctx context.Context, id string) (*models.PublishJob, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.PublishJob{ID: id, Status: models.PublishStatusFinished}, nil
}

func (s *publishServiceStub) ResolveDownload(ctx context.Context, token string) (*service.PublishDownload, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.download, nil
}

type pageServiceStub struct{}

func (pageServiceStub) Offering(ctx context.Context, offeringID, page string) ([]byte, error) {
	if page != "schedule" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "page not found")
	}
	return []byte("<html>schedule</html>"), nil
}

func (pageServiceStub) Availability(ctx context.Context, semesterID string) ([]byte, error) {
	return []byte("<html>grid</html>"), nil
}

type exportServiceStub struct {
	format models.ExportFormat
}

func (e *exportServiceStub) Export(ctx context.Context, offeringID string, format models.ExportFormat) (*models.ExportFile, error) {
	e.format = format
	return &models.ExportFile{Filename: "cs-101-schedule.ics", ContentType: "text/calendar", Data: []byte("BEGIN:VCALENDAR")}, nil
}

func TestPublishHandlerPublishAcceptsEmptyBody(t *testing.T) {
	svc := &publishServiceStub{}
	h := NewPublishHandler(svc)

	c, w := newGinContext(http.MethodPost, "/offerings/off-1/publish", nil)
	c.Params = gin.Params{{Key: "id", Value: "off-1"}}
	h.Publish(c)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Empty(t, svc.req.Pages)

	c, w = newGinContext(http.MethodPost, "/offerings/off-1/publish", []byte(`{"pages":["syllabus"]}`))
	c.Params = gin.Params{{Key: "id", Value: "off-1"}}
	h.Publish(c)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{"syllabus"}, svc.req.Pages)
}

func TestPublishHandlerDownload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.html")
	require.NoError(t, os.WriteFile(path, []byte("<html>hi</html>"), 0o644))
	file, err := os.Open(path)
	require.NoError(t, err)

	h := NewPublishHandler(&publishServiceStub{download: &service.PublishDownload{File: file, Filename: "schedule.html", ContentType: "text/html; charset=utf-8"}})
	c, w := newGinContext(http.MethodGet, "/files/tok", nil)
	c.Params = gin.Params{{Key: "token", Value: "tok"}}
	h.Download(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "<html>hi</html>", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "schedule.html")

	h = NewPublishHandler(&publishServiceStub{err: appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")})
	c, w = newGinContext(http.MethodGet, "/files/bad", nil)
	c.Params = gin.Params{{Key: "token", Value: "bad"}}
	h.Download(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPageHandlerServesHTMLAndExports(t *testing.T) {
	exports := &exportServiceStub{}
	h := NewPageHandler(pageServiceStub{}, exports)

	c, w := newGinContext(http.MethodGet, "/offerings/off-1/pages/schedule", nil)
	c.Params = gin.Params{{Key: "id", Value: "off-1"}, {Key: "page", Value: "schedule"}}
	h.Page(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))

	c, w = newGinContext(http.MethodGet, "/offerings/off-1/pages/blog", nil)
	c.Params = gin.Params{{Key: "id", Value: "off-1"}, {Key: "page", Value: "blog"}}
	h.Page(c)
	assert.Equal(t, http.StatusNotFound, w.Code)

	c, w = newGinContext(http.MethodGet, "/offerings/off-1/export?format=ICS", nil)
	c.Params = gin.Params{{Key: "id", Value: "off-1"}}
	h.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ExportFormatICS, exports.format)
	assert.Equal(t, `attachment; filename="cs-101-schedule.ics"`, w.Header().Get("Content-Disposition"))

	c, w = newGinContext(http.MethodGet, "/availability", nil)
	h.Availability(c)
	assert.Contains(t, w.Body.String(), "grid")
}
