package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-site-api/internal/dto"
	"github.com/noah-isme/course-site-api/internal/models"
	appErrors "github.com/noah-isme/course-site-api/pkg/errors"
	"github.com/noah-isme/course-site-api/pkg/response"
)

type semesterServiceStub struct {
	filter    models.SemesterFilter
	created   dto.CreateSemesterRequest
	dayIndex  *dto.DayIndexResponse
	dateIndex int
	err       error
}

func (s *semesterServiceStub) List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, *models.Pagination, error) {
	s.filter = filter
	return []models.Semester{{ID: "sem-1", Title: "Spring 2024"}}, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: 1}, s.err
}

func (s *semesterServiceStub) Get(ctx context.Context, id string) (*models.Semester, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Semester{ID: id}, nil
}

func (s *semesterServiceStub) Create(ctx context.Context, req dto.CreateSemesterRequest) (*models.Semester, error) {
	s.created = req
	return &models.Semester{ID: "sem-2", Title: req.Title}, s.err
}

func (s *semesterServiceStub) Delete(ctx context.Context, id string) error { return s.err }

func (s *semesterServiceStub) Cancel(ctx context.Context, id string, req dto.SemesterCancellationRequest) (*models.Semester, error) {
	return &models.Semester{ID: id}, s.err
}

func (s *semesterServiceStub) DayIndex(ctx context.Context, id, rawDate string) (*dto.DayIndexResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.dayIndex, nil
}

func (s *semesterServiceStub) DateOf(ctx context.Context, id string, index int) (*dto.DayIndexResponse, error) {
	s.dateIndex = index
	return s.dayIndex, s.err
}

func TestSemesterHandlerList(t *testing.T) {
	svc := &semesterServiceStub{}
	h := NewSemesterHandler(svc)

	c, w := newGinContext(http.MethodGet, "/semesters?search=spring&page=2&limit=5&order=asc", nil)
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.SemesterFilter{Search: "spring", Page: 2, PageSize: 5, SortOrder: "asc"}, svc.filter)
	var env struct {
		Pagination models.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, 1, env.Pagination.TotalCount)
}

func TestSemesterHandlerCreate(t *testing.T) {
	svc := &semesterServiceStub{}
	h := NewSemesterHandler(svc)

	body, _ := json.Marshal(dto.CreateSemesterRequest{Title: "Spring 2024", FirstDay: "2024-01-08", Timezone: "UTC", WeekCount: 15})
	c, w := newGinContext(http.MethodPost, "/semesters", body)
	h.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "2024-01-08", svc.created.FirstDay)

	c, w = newGinContext(http.MethodPost, "/semesters", []byte("{"))
	h.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSemesterHandlerDayIndex(t *testing.T) {
	svc := &semesterServiceStub{dayIndex: &dto.DayIndexResponse{SemesterID: "sem-1", DayIndex: 4, Weekday: "Friday", Date: time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC).Format("2006-01-02")}}
	h := NewSemesterHandler(svc)

	c, w := newGinContext(http.MethodGet, "/semesters/sem-1/day-index?date=2024-01-12", nil)
	c.Params = gin.Params{{Key: "id", Value: "sem-1"}}
	h.DayIndex(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"day_index":4`)

	c, w = newGinContext(http.MethodGet, "/semesters/sem-1/day-index", nil)
	h.DayIndex(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newGinContext(http.MethodGet, "/semesters/sem-1/dates/x", nil)
	c.Params = gin.Params{{Key: "id", Value: "sem-1"}, {Key: "index", Value: "x"}}
	h.DateOf(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newGinContext(http.MethodGet, "/semesters/sem-1/dates/4", nil)
	c.Params = gin.Params{{Key: "id", Value: "sem-1"}, {Key: "index", Value: "4"}}
	h.DateOf(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 4, svc.dateIndex)
}

func TestSemesterHandlerMapsServiceErrors(t *testing.T) {
	h := NewSemesterHandler(&semesterServiceStub{err: appErrors.Clone(appErrors.ErrNotFound, "semester not found")})

	c, w := newGinContext(http.MethodGet, "/semesters/nope", nil)
	c.Params = gin.Params{{Key: "id", Value: "nope"}}
	h.Get(c)

	require.Equal(t, http.StatusNotFound, w.Code)
	var env response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}
