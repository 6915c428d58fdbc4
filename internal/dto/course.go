package dto

import (
	"time"

	"github.com/noah-isme/course-site-api/internal/models"
)

// CreateSemesterRequest describes a new term calendar. Dates use YYYY-MM-DD.
type CreateSemesterRequest struct {
	Title       string   `json:"title" validate:"required"`
	FirstDay    string   `json:"first_day" validate:"required,datetime=2006-01-02"`
	Timezone    string   `json:"timezone"`
	ReadingDays []string `json:"reading_days" validate:"omitempty,dive,datetime=2006-01-02"`
	WeekCount   int      `json:"week_count" validate:"omitempty,min=1,max=52"`
}

// SemesterCancellationRequest cancels classes on one date for every offering.
type SemesterCancellationRequest struct {
	Date   string `json:"date" validate:"required,datetime=2006-01-02"`
	Reason string `json:"reason" validate:"required,max=200"`
}

// DayIndexResponse pairs a calendar date with its day index.
type DayIndexResponse struct {
	SemesterID string `json:"semester_id"`
	Date       string `json:"date"`
	DayIndex   int    `json:"day_index"`
	Weekday    string `json:"weekday"`
	Cancelled  bool   `json:"cancelled"`
	Reason     string `json:"reason,omitempty"`
}

// CreateOfferingRequest describes a course or lab section within a semester.
type CreateOfferingRequest struct {
	SemesterID      string                 `json:"semester_id" validate:"required"`
	Code            string                 `json:"code" validate:"required,max=32"`
	Title           string                 `json:"title" validate:"required"`
	Institution     models.Institution     `json:"institution" validate:"omitempty,oneof=GENERIC PLYMOUTH FLSOUTHERN"`
	Kind            models.OfferingKind    `json:"kind" validate:"omitempty,oneof=COURSE LAB"`
	MeetingMinutes  [7]int                 `json:"meeting_minutes" validate:"dive,min=0,max=600"`
	MeetingStart    string                 `json:"meeting_start" validate:"omitempty,datetime=15:04"`
	Location        string                 `json:"location"`
	AssignmentTimes models.AssignmentTimes `json:"assignment_times"`
}

// TopicRequest is one topic of the ordered queue.
type TopicRequest struct {
	ID      string `json:"id"`
	Title   string `json:"title" validate:"required"`
	Minutes int    `json:"minutes" validate:"required,min=1"`
	Notes   string `json:"notes"`
}

// ReplaceTopicsRequest replaces the topic queue of an offering.
type ReplaceTopicsRequest struct {
	Topics []TopicRequest `json:"topics" validate:"dive"`
}

// PinRequest places a fixed entry, or cancels a meeting, on one day.
type PinRequest struct {
	Day     int            `json:"day" validate:"min=0"`
	Title   string         `json:"title" validate:"required"`
	Minutes int            `json:"minutes" validate:"min=0"`
	Kind    models.PinKind `json:"kind" validate:"omitempty,oneof=FIXED CANCELLED"`
}

// OfferingCancellationRequest cancels a single meeting of one offering.
type OfferingCancellationRequest struct {
	Day    int    `json:"day" validate:"min=0"`
	Reason string `json:"reason" validate:"required,max=200"`
}

// AssignmentRequest configures one assignment and its date rule.
type AssignmentRequest struct {
	ID            string  `json:"id"`
	Type          string  `json:"type" validate:"required"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Points        float64 `json:"points" validate:"min=0"`
	DueDay        *int    `json:"due_day" validate:"omitempty,min=0"`
	AssignDay     *int    `json:"assign_day" validate:"omitempty,min=0"`
	AnchorTopicID *string `json:"anchor_topic_id"`
	DueTopicID    *string `json:"due_topic_id"`
	DueTopicEndID *string `json:"due_topic_end_id"`
	DueOffsetDays int     `json:"due_offset_days"`
}

// ReplaceAssignmentsRequest replaces every assignment of an offering.
type ReplaceAssignmentsRequest struct {
	Assignments []AssignmentRequest `json:"assignments" validate:"dive"`
}

// AssignmentDatesResponse is the resolved schedule of one assignment.
type AssignmentDatesResponse struct {
	Type      string    `json:"type"`
	Index     int       `json:"index"`
	AssignDay int       `json:"assign_day"`
	DueDay    int       `json:"due_day"`
	AssignAt  time.Time `json:"assign_at"`
	DueAt     time.Time `json:"due_at"`
}

// PublishRequest selects the pages to publish. Empty means every offering page.
type PublishRequest struct {
	Pages []string `json:"pages" validate:"omitempty,dive,oneof=schedule syllabus"`
}
