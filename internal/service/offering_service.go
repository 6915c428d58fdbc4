package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-site-api/internal/dto"
	"github.com/noah-isme/course-site-api/internal/models"
	appErrors "github.com/noah-isme/course-site-api/pkg/errors"
	"github.com/noah-isme/course-site-api/pkg/logger"
)

type offeringRepository interface {
	ListBySemester(ctx context.Context, semesterID string) ([]models.Offering, error)
	ListAll(ctx context.Context) ([]models.Offering, error)
	FindByID(ctx context.Context, id string) (*models.Offering, error)
	Create(ctx context.Context, offering *models.Offering) error
	Delete(ctx context.Context, id string) error
	ReplaceTopics(ctx context.Context, offeringID string, topics []models.CourseTopic) error
	AddPin(ctx context.Context, pin *models.OfferingPin) error
	ReplaceAssignments(ctx context.Context, offeringID string, assignments []models.Assignment) error
	LoadDetail(ctx context.Context, offering *models.Offering, semester *models.Semester) (*models.OfferingDetail, error)
}

type semesterFinder interface {
	FindByID(ctx context.Context, id string) (*models.Semester, error)
}

type scheduleCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// OfferingServiceConfig tunes schedule building and caching.
type OfferingServiceConfig struct {
	StrictAssignments bool
	CacheTTL          time.Duration
}

// OfferingService manages offerings and builds their schedules.
type OfferingService struct {
	repo      offeringRepository
	semesters semesterFinder
	cache     scheduleCache
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       OfferingServiceConfig
}

// NewOfferingService wires an offering service. cache and metrics may be nil.
func NewOfferingService(repo offeringRepository, semesters semesterFinder, cache scheduleCache, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg OfferingServiceConfig) *OfferingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OfferingService{repo: repo, semesters: semesters, cache: cache, metrics: metrics, validator: validate, logger: logger, cfg: cfg}
}

// ListBySemester returns the offerings of a semester.
func (s *OfferingService) ListBySemester(ctx context.Context, semesterID string) ([]models.Offering, error) {
	offerings, err := s.repo.ListBySemester(ctx, semesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list offerings")
	}
	return offerings, nil
}

// ListAll returns every offering.
func (s *OfferingService) ListAll(ctx context.Context) ([]models.Offering, error) {
	offerings, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list offerings")
	}
	return offerings, nil
}

// Get returns an offering by ID.
func (s *OfferingService) Get(ctx context.Context, id string) (*models.Offering, error) {
	offering, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "offering not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering")
	}
	return offering, nil
}

// Detail loads an offering with its semester, topics, pins and assignments.
func (s *OfferingService) Detail(ctx context.Context, id string) (*models.OfferingDetail, error) {
	offering, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	semester, err := s.semesters.FindByID(ctx, offering.SemesterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
	}
	detail, err := s.repo.LoadDetail(ctx, offering, semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering detail")
	}
	return detail, nil
}

// Create validates and stores a new offering.
func (s *OfferingService) Create(ctx context.Context, req dto.CreateOfferingRequest) (*models.Offering, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid offering payload")
	}
	meeting := models.MeetingMinutes(req.MeetingMinutes)
	if meeting.Total() == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "offering needs at least one meeting day")
	}
	times := models.AssignmentTimes{}
	for kind, t := range req.AssignmentTimes {
		for _, clock := range []string{t.Assign, t.Due} {
			if clock == "" {
				continue
			}
			if _, _, err := models.ParseClock(clock); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("invalid time for %s", kind))
			}
		}
		times[normalizeType(kind)] = t
	}
	if _, err := s.semesters.FindByID(ctx, req.SemesterID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
	}

	institution := req.Institution
	if institution == "" {
		institution = models.InstitutionGeneric
	}
	kind := req.Kind
	if kind == "" {
		kind = models.OfferingKindCourse
	}
	offering := &models.Offering{
		SemesterID:      req.SemesterID,
		Code:            req.Code,
		Title:           req.Title,
		Institution:     institution,
		Kind:            kind,
		MeetingMinutes:  meeting,
		MeetingStart:    req.MeetingStart,
		Location:        req.Location,
		AssignmentTimes: times,
	}
	if err := s.repo.Create(ctx, offering); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create offering")
	}
	return offering, nil
}

// Delete removes an offering.
func (s *OfferingService) Delete(ctx context.Context, id string) error {
	offering, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete offering")
	}
	s.invalidate(ctx, offering)
	return nil
}

// ReplaceTopics stores a new ordered topic queue.
func (s *OfferingService) ReplaceTopics(ctx context.Context, id string, req dto.ReplaceTopicsRequest) ([]models.CourseTopic, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid topics payload")
	}
	offering, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(req.Topics))
	topics := make([]models.CourseTopic, 0, len(req.Topics))
	for i, t := range req.Topics {
		if t.ID != "" {
			if _, dup := seen[t.ID]; dup {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate topic id %s", t.ID))
			}
			seen[t.ID] = struct{}{}
		}
		topics = append(topics, models.CourseTopic{ID: t.ID, OfferingID: id, Position: i, Title: t.Title, Minutes: t.Minutes, Notes: t.Notes})
	}
	if err := s.repo.ReplaceTopics(ctx, id, topics); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store topics")
	}
	s.invalidate(ctx, offering)
	return topics, nil
}

// AddPin places a fixed entry on one day after checking it fits the meeting.
func (s *OfferingService) AddPin(ctx context.Context, id string, req dto.PinRequest) (*models.OfferingPin, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pin payload")
	}
	kind := req.Kind
	if kind == "" {
		kind = models.PinKindFixed
	}
	return s.addPin(ctx, id, models.OfferingPin{OfferingID: id, Day: req.Day, Title: req.Title, Minutes: req.Minutes, Kind: kind})
}

// CancelMeeting cancels one meeting of the offering.
func (s *OfferingService) CancelMeeting(ctx context.Context, id string, req dto.OfferingCancellationRequest) (*models.OfferingPin, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cancellation payload")
	}
	return s.addPin(ctx, id, models.OfferingPin{OfferingID: id, Day: req.Day, Title: req.Reason, Kind: models.PinKindCancelled})
}

func (s *OfferingService) addPin(ctx context.Context, id string, pin models.OfferingPin) (*models.OfferingPin, error) {
	detail, err := s.Detail(ctx, id)
	if err != nil {
		return nil, err
	}
	schedule, err := NewTopicSchedule(&detail.Semester, detail.Offering.MeetingMinutes)
	if err != nil {
		return nil, mapScheduleError(err, "failed to prepare schedule")
	}
	for _, existing := range detail.Pins {
		if existing.Kind != models.PinKindCancelled && schedule.IsCancelled(existing.Day) {
			continue
		}
		if err := schedule.Pin(existing.Day, existing.Title, existing.Minutes, existing.Kind); err != nil {
			return nil, mapScheduleError(err, "failed to pin entry")
		}
	}
	if pin.Kind != models.PinKindCancelled && schedule.IsCancelled(pin.Day) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("meeting on day %d is cancelled", pin.Day))
	}
	if err := schedule.Pin(pin.Day, pin.Title, pin.Minutes, pin.Kind); err != nil {
		return nil, mapScheduleError(err, "failed to pin entry")
	}

	if err := s.repo.AddPin(ctx, &pin); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store pin")
	}
	s.invalidate(ctx, &detail.Offering)
	return &pin, nil
}

// ReplaceAssignments stores the assignment list. Positions are assigned per type in request order.
func (s *OfferingService) ReplaceAssignments(ctx context.Context, id string, req dto.ReplaceAssignmentsRequest) ([]models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignments payload")
	}
	detail, err := s.Detail(ctx, id)
	if err != nil {
		return nil, err
	}
	topicIDs := make(map[string]struct{}, len(detail.Topics))
	for _, t := range detail.Topics {
		topicIDs[t.ID] = struct{}{}
	}

	positions := make(map[string]int)
	assignments := make([]models.Assignment, 0, len(req.Assignments))
	for _, item := range req.Assignments {
		if item.DueDay == nil && item.DueTopicID == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("assignment %q needs due_day or due_topic_id", item.Title))
		}
		for _, ref := range []*string{item.AnchorTopicID, item.DueTopicID, item.DueTopicEndID} {
			if ref == nil {
				continue
			}
			if _, ok := topicIDs[*ref]; !ok {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown topic %s", *ref))
			}
		}
		kind := normalizeType(item.Type)
		assignments = append(assignments, models.Assignment{
			ID:            item.ID,
			OfferingID:    id,
			Type:          kind,
			Position:      positions[kind],
			Title:         strings.TrimSpace(item.Title),
			Description:   item.Description,
			Points:        item.Points,
			DueDay:        item.DueDay,
			AssignDay:     item.AssignDay,
			AnchorTopicID: item.AnchorTopicID,
			DueTopicID:    item.DueTopicID,
			DueTopicEndID: item.DueTopicEndID,
			DueOffsetDays: item.DueOffsetDays,
		})
		positions[kind]++
	}

	if err := s.repo.ReplaceAssignments(ctx, id, assignments); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store assignments")
	}
	s.invalidate(ctx, &detail.Offering)
	return assignments, nil
}

// Schedule returns the built schedule of an offering, served from cache unless rebuild is set.
func (s *OfferingService) Schedule(ctx context.Context, id string, rebuild bool) (*models.OfferingSchedule, error) {
	view, err := s.View(ctx, id, rebuild)
	if err != nil {
		return nil, err
	}
	return view.Schedule, nil
}

// View assembles everything the page renderer and exporters need for one offering.
func (s *OfferingService) View(ctx context.Context, id string, rebuild bool) (*OfferingView, error) {
	detail, err := s.Detail(ctx, id)
	if err != nil {
		return nil, err
	}
	key := scheduleCacheKey(detail.Offering.SemesterID, detail.Offering.ID)

	var schedule *models.OfferingSchedule
	if !rebuild && s.cache != nil {
		var cached models.OfferingSchedule
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			logger.FromContext(ctx, s.logger).Warn("schedule cache read failed", zap.String("offering_id", id), zap.Error(err))
		}
		if hit {
			schedule = &cached
		}
	}
	if schedule == nil {
		plan, err := s.plan(detail, rebuild)
		if err != nil {
			return nil, err
		}
		schedule = plan.Schedule
		if s.cache != nil {
			if err := s.cache.Set(ctx, key, schedule, s.cfg.CacheTTL); err != nil {
				logger.FromContext(ctx, s.logger).Warn("schedule cache write failed", zap.String("offering_id", id), zap.Error(err))
			}
		}
	}

	return &OfferingView{
		Offering: detail.Offering,
		Semester: &detail.Semester,
		Topics:   detail.Topics,
		Schedule: schedule,
	}, nil
}

// AssignmentDates resolves the assign and due datetimes of the index-th assignment of a type.
func (s *OfferingService) AssignmentDates(ctx context.Context, id, assignmentType string, index int) (*dto.AssignmentDatesResponse, error) {
	if index < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "index must not be negative")
	}
	detail, err := s.Detail(ctx, id)
	if err != nil {
		return nil, err
	}
	plan, err := s.plan(detail, false)
	if err != nil {
		return nil, err
	}
	assignDay, dueDay, err := plan.Resolver.Days(assignmentType, index)
	if err != nil {
		return nil, mapScheduleError(err, "failed to resolve assignment")
	}
	assignAt, dueAt, err := plan.Resolver.Dates(assignmentType, index)
	if err != nil {
		return nil, mapScheduleError(err, "failed to resolve assignment")
	}
	return &dto.AssignmentDatesResponse{
		Type:      normalizeType(assignmentType),
		Index:     index,
		AssignDay: assignDay,
		DueDay:    dueDay,
		AssignAt:  assignAt,
		DueAt:     dueAt,
	}, nil
}

func (s *OfferingService) plan(detail *models.OfferingDetail, rebuild bool) (*OfferingPlan, error) {
	start := time.Now()
	plan, err := PlanOffering(detail, PlanOptions{StrictAssignments: s.cfg.StrictAssignments, Rebuild: rebuild})
	if err != nil {
		s.metrics.ObserveScheduleBuild(nil, time.Since(start), err)
		s.logger.Warn("schedule build failed", zap.String("offering_id", detail.Offering.ID), zap.Error(err))
		return nil, mapScheduleError(err, "failed to build schedule")
	}
	stats := plan.Schedule.Stats
	s.metrics.ObserveScheduleBuild(&stats, time.Since(start), nil)
	s.logger.Debug("schedule built",
		zap.String("offering_id", detail.Offering.ID),
		zap.Int("days_used", stats.DaysUsed),
		zap.Int("minutes_unused", stats.MinutesUnused),
	)
	return plan, nil
}

func (s *OfferingService) invalidate(ctx context.Context, offering *models.Offering) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, scheduleCacheKey(offering.SemesterID, offering.ID)); err != nil {
		s.logger.Warn("failed to invalidate schedule", zap.String("offering_id", offering.ID), zap.Error(err))
	}
}
