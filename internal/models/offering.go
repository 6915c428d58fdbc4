package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// Institution selects the page theme used for an offering.
type Institution string

const (
	InstitutionGeneric    Institution = "GENERIC"
	InstitutionPlymouth   Institution = "PLYMOUTH"
	InstitutionFlSouthern Institution = "FLSOUTHERN"
)

// OfferingKind distinguishes lecture sections from labs.
type OfferingKind string

const (
	OfferingKindCourse OfferingKind = "COURSE"
	OfferingKindLab    OfferingKind = "LAB"
)

// Default times of day applied to assignment dates.
const (
	DefaultAssignTime = "09:00"
	DefaultDueTime    = "23:59"
)

// MeetingMinutes holds the meeting length for each weekday, Sunday first. Zero means no meeting.
type MeetingMinutes [7]int

// For returns the meeting length on the given weekday.
func (m MeetingMinutes) For(day time.Weekday) int {
	return m[int(day)%7]
}

// Total is the number of scheduled minutes in one week.
func (m MeetingMinutes) Total() int {
	total := 0
	for _, v := range m {
		total += v
	}
	return total
}

// Scan implements sql.Scanner for INTEGER[] columns.
func (m *MeetingMinutes) Scan(src interface{}) error {
	var arr pq.Int64Array
	if err := arr.Scan(src); err != nil {
		return err
	}
	if len(arr) != 7 {
		return fmt.Errorf("meeting minutes require 7 entries, got %d", len(arr))
	}
	for i, v := range arr {
		(*m)[i] = int(v)
	}
	return nil
}

// Value implements driver.Valuer.
func (m MeetingMinutes) Value() (driver.Value, error) {
	arr := make(pq.Int64Array, len(m))
	for i, v := range m {
		arr[i] = int64(v)
	}
	return arr.Value()
}

// AssignmentTime is the time of day assignments of one type are handed out and collected.
type AssignmentTime struct {
	Assign string `json:"assign"`
	Due    string `json:"due"`
}

// AssignmentTimes maps assignment type to its configured times of day.
type AssignmentTimes map[string]AssignmentTime

// For returns the configured times for the type with defaults filled in.
func (a AssignmentTimes) For(assignmentType string) AssignmentTime {
	t := a[strings.ToLower(assignmentType)]
	if t.Assign == "" {
		t.Assign = DefaultAssignTime
	}
	if t.Due == "" {
		t.Due = DefaultDueTime
	}
	return t
}

// Scan implements sql.Scanner for JSONB columns.
func (a *AssignmentTimes) Scan(src interface{}) error {
	if src == nil {
		*a = AssignmentTimes{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported assignment times type %T", src)
	}
	out := AssignmentTimes{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return err
		}
	}
	*a = out
	return nil
}

// Value implements driver.Valuer.
func (a AssignmentTimes) Value() (driver.Value, error) {
	if a == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(a)
}

// Offering is one section of a course or lab within a semester.
type Offering struct {
	ID              string          `db:"id" json:"id"`
	SemesterID      string          `db:"semester_id" json:"semester_id"`
	Code            string          `db:"code" json:"code"`
	Title           string          `db:"title" json:"title"`
	Institution     Institution     `db:"institution" json:"institution"`
	Kind            OfferingKind    `db:"kind" json:"kind"`
	MeetingMinutes  MeetingMinutes  `db:"meeting_minutes" json:"meeting_minutes"`
	MeetingStart    string          `db:"meeting_start" json:"meeting_start"`
	Location        string          `db:"location" json:"location"`
	AssignmentTimes AssignmentTimes `db:"assignment_times" json:"assignment_times"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// CourseTopic is a unit of class content queued for placement onto meeting days.
type CourseTopic struct {
	ID         string `db:"id" json:"id"`
	OfferingID string `db:"offering_id" json:"offering_id"`
	Position   int    `db:"position" json:"position"`
	Title      string `db:"title" json:"title"`
	Minutes    int    `db:"minutes" json:"minutes"`
	Notes      string `db:"notes" json:"notes,omitempty"`
}

// PinKind describes a pre-placed schedule entry.
type PinKind string

const (
	PinKindFixed     PinKind = "FIXED"
	PinKindCancelled PinKind = "CANCELLED"
)

// OfferingPin occupies minutes of a day before topics are packed.
type OfferingPin struct {
	ID         string  `db:"id" json:"id"`
	OfferingID string  `db:"offering_id" json:"offering_id"`
	Day        int     `db:"day_index" json:"day_index"`
	Title      string  `db:"title" json:"title"`
	Minutes    int     `db:"minutes" json:"minutes"`
	Kind       PinKind `db:"kind" json:"kind"`
}

// OfferingDetail bundles an offering with everything needed to schedule it.
type OfferingDetail struct {
	Offering    Offering      `json:"offering"`
	Semester    Semester      `json:"semester"`
	Topics      []CourseTopic `json:"topics"`
	Pins        []OfferingPin `json:"pins"`
	Assignments []Assignment  `json:"assignments"`
}

// ParseClock parses an "HH:MM" time of day into hour and minute.
func ParseClock(raw string) (int, int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(raw))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time of day %q", raw)
	}
	return t.Hour(), t.Minute(), nil
}
