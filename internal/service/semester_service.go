package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-site-api/internal/dto"
	"github.com/noah-isme/course-site-api/internal/models"
	appErrors "github.com/noah-isme/course-site-api/pkg/errors"
	"github.com/noah-isme/course-site-api/pkg/logger"
)

type semesterRepository interface {
	List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, int, error)
	FindByID(ctx context.Context, id string) (*models.Semester, error)
	Create(ctx context.Context, semester *models.Semester) error
	Delete(ctx context.Context, id string) error
	AddCancellation(ctx context.Context, cancellation *models.SemesterCancellation) error
}

type scheduleInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// SemesterService orchestrates semester calendars and day-index conversions.
type SemesterService struct {
	repo            semesterRepository
	cache           scheduleInvalidator
	validator       *validator.Validate
	logger          *zap.Logger
	defaultTimezone string
}

// NewSemesterService creates a semester service. defaultTimezone applies to semesters created without one.
func NewSemesterService(repo semesterRepository, cache scheduleInvalidator, validate *validator.Validate, logger *zap.Logger, defaultTimezone string) *SemesterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultTimezone == "" {
		defaultTimezone = "UTC"
	}
	return &SemesterService{repo: repo, cache: cache, validator: validate, logger: logger, defaultTimezone: defaultTimezone}
}

// List returns paginated semesters.
func (s *SemesterService) List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, *models.Pagination, error) {
	semesters, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list semesters")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return semesters, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a semester by ID.
func (s *SemesterService) Get(ctx context.Context, id string) (*models.Semester, error) {
	semester, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
	}
	return semester, nil
}

// Create validates and stores a semester. Reading days must fall after the first day of classes.
func (s *SemesterService) Create(ctx context.Context, req dto.CreateSemesterRequest) (*models.Semester, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid semester payload")
	}
	timezone := req.Timezone
	if timezone == "" {
		timezone = s.defaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown timezone %q", timezone))
	}

	firstDay, err := time.ParseInLocation(dateLayout, req.FirstDay, loc)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid first_day")
	}
	semester := &models.Semester{
		Title:        req.Title,
		FirstDay:     firstDay,
		Timezone:     timezone,
		WeekOverride: req.WeekCount,
	}
	for _, raw := range req.ReadingDays {
		day, err := time.ParseInLocation(dateLayout, raw, loc)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reading day")
		}
		semester.ReadingDays = append(semester.ReadingDays, day)
	}
	if err := semester.Validate(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	if err := s.repo.Create(ctx, semester); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create semester")
	}
	logger.FromContext(ctx, s.logger).Info("semester created", zap.String("semester_id", semester.ID), zap.Int("weeks", semester.WeekCount()))
	return semester, nil
}

// Delete removes a semester with its offerings.
func (s *SemesterService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete semester")
	}
	s.invalidate(ctx, id)
	return nil
}

// Cancel records a cancelled day for every offering in the semester.
func (s *SemesterService) Cancel(ctx context.Context, id string, req dto.SemesterCancellationRequest) (*models.Semester, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cancellation payload")
	}
	semester, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	date, err := time.ParseInLocation(dateLayout, req.Date, semester.Location())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date")
	}
	idx, err := semester.DayIndexOf(date)
	if err != nil {
		return nil, mapScheduleError(err, "failed to resolve day index")
	}
	if idx < 0 || idx >= semester.Horizon() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date is outside the teaching period")
	}

	cancellation := &models.SemesterCancellation{SemesterID: id, Date: date, Reason: req.Reason}
	if err := s.repo.AddCancellation(ctx, cancellation); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel day")
	}
	semester.CancelDay(date, req.Reason)
	s.invalidate(ctx, id)
	return semester, nil
}

// DayIndex converts a YYYY-MM-DD date into its day index within the semester.
func (s *SemesterService) DayIndex(ctx context.Context, id, rawDate string) (*dto.DayIndexResponse, error) {
	semester, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	date, err := time.ParseInLocation(dateLayout, rawDate, semester.Location())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "date must use YYYY-MM-DD")
	}
	idx, err := semester.DayIndexOf(date)
	if err != nil {
		logger.FromContext(ctx, s.logger).Error("calendar conversion failed", zap.String("semester_id", id), zap.Error(err))
		return nil, mapScheduleError(err, "failed to resolve day index")
	}
	return dayIndexResponse(semester, idx), nil
}

// DateOf converts a day index into its calendar date.
func (s *SemesterService) DateOf(ctx context.Context, id string, index int) (*dto.DayIndexResponse, error) {
	semester, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dayIndexResponse(semester, index), nil
}

func (s *SemesterService) invalidate(ctx context.Context, semesterID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, scheduleCachePattern(semesterID)); err != nil {
		s.logger.Warn("failed to invalidate schedules", zap.String("semester_id", semesterID), zap.Error(err))
	}
}

func dayIndexResponse(semester *models.Semester, idx int) *dto.DayIndexResponse {
	date := semester.DateOfDayIndex(idx)
	reason, cancelled := semester.IsCancelled(date)
	return &dto.DayIndexResponse{
		SemesterID: semester.ID,
		Date:       date.Format(dateLayout),
		DayIndex:   idx,
		Weekday:    semester.WeekdayOfDayIndex(idx).String(),
		Cancelled:  cancelled,
		Reason:     reason,
	}
}
