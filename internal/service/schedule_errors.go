package service

import (
	"errors"
	"fmt"

	"github.com/noah-isme/course-site-api/internal/models"
	appErrors "github.com/noah-isme/course-site-api/pkg/errors"
)

const dateLayout = "2006-01-02"

func scheduleCacheKey(semesterID, offeringID string) string {
	return fmt.Sprintf("schedule:%s:%s", semesterID, offeringID)
}

func scheduleCachePattern(semesterID string) string {
	return fmt.Sprintf("schedule:%s:*", semesterID)
}

// mapScheduleError turns scheduling and calendar failures into typed API errors.
func mapScheduleError(err error, fallback string) error {
	var appErr *appErrors.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, ErrScheduleOverflow):
		return appErrors.Wrap(err, appErrors.ErrScheduleOverflow.Code, appErrors.ErrScheduleOverflow.Status, err.Error())
	case errors.Is(err, ErrAssignmentNotConfigured):
		return appErrors.Wrap(err, appErrors.ErrAssignmentUnavailable.Code, appErrors.ErrAssignmentUnavailable.Status, err.Error())
	case errors.Is(err, ErrTopicNotScheduled):
		return appErrors.Wrap(err, appErrors.ErrTopicNotScheduled.Code, appErrors.ErrTopicNotScheduled.Status, err.Error())
	case errors.Is(err, models.ErrCalendarInconsistent):
		return appErrors.Wrap(err, appErrors.ErrCalendarInconsistent.Code, appErrors.ErrCalendarInconsistent.Status, appErrors.ErrCalendarInconsistent.Message)
	case errors.Is(err, ErrInvalidPin), errors.Is(err, ErrGridOverlap):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fallback)
	}
}
