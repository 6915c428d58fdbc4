package models

import "time"

// Assignment is a graded piece of work attached to an offering. Its dates are
// either given directly as day indices or anchored to course topics.
type Assignment struct {
	ID            string  `db:"id" json:"id"`
	OfferingID    string  `db:"offering_id" json:"offering_id"`
	Type          string  `db:"type" json:"type"`
	Position      int     `db:"position" json:"position"`
	Title         string  `db:"title" json:"title"`
	Description   string  `db:"description" json:"description,omitempty"`
	Points        float64 `db:"points" json:"points"`
	DueDay        *int    `db:"due_day" json:"due_day,omitempty"`
	AssignDay     *int    `db:"assign_day" json:"assign_day,omitempty"`
	AnchorTopicID *string `db:"anchor_topic_id" json:"anchor_topic_id,omitempty"`
	DueTopicID    *string `db:"due_topic_id" json:"due_topic_id,omitempty"`
	DueTopicEndID *string `db:"due_topic_end_id" json:"due_topic_end_id,omitempty"`
	DueOffsetDays int     `db:"due_offset_days" json:"due_offset_days"`
}

// IsAnchored reports whether the dates come from topic placement.
func (a Assignment) IsAnchored() bool {
	return a.DueTopicID != nil
}

// AssignmentInOffering is an assignment with its resolved days and datetimes.
type AssignmentInOffering struct {
	Assignment Assignment `json:"assignment"`
	Index      int        `json:"index"`
	AssignDay  int        `json:"assign_day"`
	DueDay     int        `json:"due_day"`
	AssignAt   time.Time  `json:"assign_at"`
	DueAt      time.Time  `json:"due_at"`
}

// EntryKind tags a schedule entry.
type EntryKind string

const (
	EntryKindTopic     EntryKind = "TOPIC"
	EntryKindFixed     EntryKind = "FIXED"
	EntryKindCancelled EntryKind = "CANCELLED"
)

// ScheduleEntry is a block of minutes on one day. Split topics carry Part and Parts.
type ScheduleEntry struct {
	TopicID string    `json:"topic_id,omitempty"`
	Title   string    `json:"title"`
	Minutes int       `json:"minutes"`
	Kind    EntryKind `json:"kind"`
	Part    int       `json:"part,omitempty"`
	Parts   int       `json:"parts,omitempty"`
}

// ScheduleDay is the packed content of one meeting day.
type ScheduleDay struct {
	Index          int             `json:"index"`
	Date           time.Time       `json:"date"`
	Weekday        string          `json:"weekday"`
	MeetingMinutes int             `json:"meeting_minutes"`
	Entries        []ScheduleEntry `json:"entries"`
}

// ScheduleStats summarises how much of the calendar a schedule uses.
type ScheduleStats struct {
	MeetingDays      int `json:"meeting_days"`
	DaysUsed         int `json:"days_used"`
	MinutesAllocated int `json:"minutes_allocated"`
	MinutesPinned    int `json:"minutes_pinned"`
	MinutesUnused    int `json:"minutes_unused"`
}

// OfferingSchedule is the serialisable view of a built schedule.
type OfferingSchedule struct {
	OfferingID  string                 `json:"offering_id"`
	Horizon     int                    `json:"horizon"`
	Days        []ScheduleDay          `json:"days"`
	Assignments []AssignmentInOffering `json:"assignments"`
	Stats       ScheduleStats          `json:"stats"`
	BuiltAt     time.Time              `json:"built_at"`
}
