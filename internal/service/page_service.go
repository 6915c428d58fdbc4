package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/course-site-api/internal/models"
	appErrors "github.com/noah-isme/course-site-api/pkg/errors"
	"github.com/noah-isme/course-site-api/pkg/logger"
)

type offeringPageSource interface {
	View(ctx context.Context, id string, rebuild bool) (*OfferingView, error)
	ListBySemester(ctx context.Context, semesterID string) ([]models.Offering, error)
	ListAll(ctx context.Context) ([]models.Offering, error)
}

// PageServiceConfig holds the grid bounds and the owner's office hours.
type PageServiceConfig struct {
	Grid        GridConfig
	OfficeHours []string
	OwnerName   string
}

// PageService serves rendered HTML pages for offerings and the availability grid.
type PageService struct {
	offerings   offeringPageSource
	renderer    *PageRenderer
	logger      *zap.Logger
	grid        GridConfig
	officeHours []models.AvailabilityBlock
	ownerName   string
}

// NewPageService parses the configured office hours up front so bad entries fail at startup.
func NewPageService(offerings offeringPageSource, renderer *PageRenderer, logger *zap.Logger, cfg PageServiceConfig) (*PageService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if renderer == nil {
		renderer = NewPageRenderer(logger)
	}
	hours, err := ParseOfficeHours(cfg.OfficeHours)
	if err != nil {
		return nil, fmt.Errorf("parse office hours: %w", err)
	}
	return &PageService{
		offerings:   offerings,
		renderer:    renderer,
		logger:      logger,
		grid:        cfg.Grid,
		officeHours: hours,
		ownerName:   cfg.OwnerName,
	}, nil
}

// Offering renders one page of an offering.
func (s *PageService) Offering(ctx context.Context, offeringID, page string) ([]byte, error) {
	switch page {
	case PageSchedule, PageSyllabus:
	default:
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("page %q not found", page))
	}
	view, err := s.offerings.View(ctx, offeringID, false)
	if err != nil {
		return nil, err
	}
	html, err := s.renderer.Render(page, *view)
	if err != nil {
		logger.FromContext(ctx, s.logger).Error("failed to render page", zap.String("offering_id", offeringID), zap.String("page", page), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render page")
	}
	return html, nil
}

// Availability renders the weekly grid of meetings and office hours.
// An empty semesterID includes every offering.
func (s *PageService) Availability(ctx context.Context, semesterID string) ([]byte, error) {
	var (
		offerings []models.Offering
		err       error
	)
	if semesterID == "" {
		offerings, err = s.offerings.ListAll(ctx)
	} else {
		offerings, err = s.offerings.ListBySemester(ctx, semesterID)
	}
	if err != nil {
		return nil, err
	}

	blocks := append([]models.AvailabilityBlock(nil), s.officeHours...)
	for _, o := range offerings {
		meetings, err := OfferingBlocks(o)
		if err != nil {
			logger.FromContext(ctx, s.logger).Warn("skipping offering with bad meeting time", zap.String("offering_id", o.ID), zap.Error(err))
			continue
		}
		blocks = append(blocks, meetings...)
	}

	grid, err := BuildAvailabilityGrid(s.grid, blocks)
	if err != nil {
		if errors.Is(err, ErrGridOverlap) {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build availability grid")
	}

	title := "Weekly Availability"
	if s.ownerName != "" {
		title = s.ownerName + ": Weekly Availability"
	}
	html, err := s.renderer.RenderAvailability(title, grid)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render availability")
	}
	return html, nil
}
