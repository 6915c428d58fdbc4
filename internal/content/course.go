// Package content loads course definitions from YAML files for offline site generation.
package content

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/course-site-api/internal/models"
)

const dateLayout = "2006-01-02"

// CourseFile is the on-disk description of one offering and its semester.
type CourseFile struct {
	Semester    SemesterSpec     `yaml:"semester"`
	Offering    OfferingSpec     `yaml:"offering"`
	Topics      []TopicSpec      `yaml:"topics"`
	Pins        []PinSpec        `yaml:"pins"`
	Assignments []AssignmentSpec `yaml:"assignments"`
}

// SemesterSpec describes the term calendar. Dates use YYYY-MM-DD.
type SemesterSpec struct {
	Title         string             `yaml:"title"`
	FirstDay      string             `yaml:"first_day"`
	Timezone      string             `yaml:"timezone"`
	ReadingDays   []string           `yaml:"reading_days"`
	WeekCount     int                `yaml:"week_count"`
	Cancellations []CancellationSpec `yaml:"cancellations"`
}

// CancellationSpec cancels every class on one date.
type CancellationSpec struct {
	Date   string `yaml:"date"`
	Reason string `yaml:"reason"`
}

// OfferingSpec describes the section. Meetings map weekday names to minutes.
type OfferingSpec struct {
	ID              string                           `yaml:"id"`
	Code            string                           `yaml:"code"`
	Title           string                           `yaml:"title"`
	Institution     string                           `yaml:"institution"`
	Kind            string                           `yaml:"kind"`
	Meetings        map[string]int                   `yaml:"meetings"`
	MeetingStart    string                           `yaml:"meeting_start"`
	Location        string                           `yaml:"location"`
	AssignmentTimes map[string]models.AssignmentTime `yaml:"assignment_times"`
}

// TopicSpec is one entry of the topic queue. IDs are optional unless assignments anchor to them.
type TopicSpec struct {
	ID      string `yaml:"id"`
	Title   string `yaml:"title"`
	Minutes int    `yaml:"minutes"`
	Notes   string `yaml:"notes"`
}

// PinSpec fixes an entry on a day index. Cancelled pins blank the whole meeting.
type PinSpec struct {
	Day       int    `yaml:"day"`
	Title     string `yaml:"title"`
	Minutes   int    `yaml:"minutes"`
	Cancelled bool   `yaml:"cancelled"`
}

// AssignmentSpec configures one assignment by explicit days or by topic anchors.
type AssignmentSpec struct {
	ID          string  `yaml:"id"`
	Type        string  `yaml:"type"`
	Title       string  `yaml:"title"`
	Description string  `yaml:"description"`
	Points      float64 `yaml:"points"`
	AssignDay   *int    `yaml:"assign_day"`
	DueDay      *int    `yaml:"due_day"`
	Anchor      string  `yaml:"anchor"`
	DueTopic    string  `yaml:"due_topic"`
	DueTopicEnd string  `yaml:"due_topic_end"`
	DueOffset   int     `yaml:"due_offset_days"`
}

// Load reads and converts a course file.
func Load(path string) (*models.OfferingDetail, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read course file: %w", err)
	}
	course, err := Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return course.Detail()
}

// Parse decodes a course file, rejecting unknown keys.
func Parse(r io.Reader) (*CourseFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var course CourseFile
	if err := dec.Decode(&course); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("course file is empty")
		}
		return nil, fmt.Errorf("decode course file: %w", err)
	}
	return &course, nil
}

// Detail converts the file into the model used by the scheduler and renderer.
func (c *CourseFile) Detail() (*models.OfferingDetail, error) {
	semester, err := c.Semester.semester()
	if err != nil {
		return nil, err
	}
	offering, err := c.Offering.offering()
	if err != nil {
		return nil, err
	}

	detail := &models.OfferingDetail{Offering: offering, Semester: *semester}
	known := make(map[string]bool, len(c.Topics))
	for i, t := range c.Topics {
		if strings.TrimSpace(t.Title) == "" {
			return nil, fmt.Errorf("topic %d: title is required", i+1)
		}
		if t.Minutes <= 0 {
			return nil, fmt.Errorf("topic %q: minutes must be positive", t.Title)
		}
		id := t.ID
		if id == "" {
			id = fmt.Sprintf("topic-%d", i+1)
		}
		if known[id] {
			return nil, fmt.Errorf("duplicate topic id %q", id)
		}
		known[id] = true
		detail.Topics = append(detail.Topics, models.CourseTopic{
			ID:         id,
			OfferingID: offering.ID,
			Position:   i,
			Title:      t.Title,
			Minutes:    t.Minutes,
			Notes:      t.Notes,
		})
	}

	for i, p := range c.Pins {
		if p.Day < 0 {
			return nil, fmt.Errorf("pin %q: day must not be negative", p.Title)
		}
		kind := models.PinKindFixed
		if p.Cancelled {
			kind = models.PinKindCancelled
		}
		detail.Pins = append(detail.Pins, models.OfferingPin{
			ID:         fmt.Sprintf("pin-%d", i+1),
			OfferingID: offering.ID,
			Day:        p.Day,
			Title:      p.Title,
			Minutes:    p.Minutes,
			Kind:       kind,
		})
	}

	positions := map[string]int{}
	for i, a := range c.Assignments {
		assignment, err := a.assignment(offering.ID, known)
		if err != nil {
			return nil, fmt.Errorf("assignment %d: %w", i+1, err)
		}
		assignment.Position = positions[assignment.Type]
		positions[assignment.Type]++
		if assignment.ID == "" {
			assignment.ID = fmt.Sprintf("%s-%d", assignment.Type, assignment.Position+1)
		}
		detail.Assignments = append(detail.Assignments, assignment)
	}
	return detail, nil
}

func (s SemesterSpec) semester() (*models.Semester, error) {
	if s.FirstDay == "" {
		return nil, errors.New("semester.first_day is required")
	}
	timezone := s.Timezone
	if timezone == "" {
		timezone = "UTC"
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q", timezone)
	}
	first, err := time.ParseInLocation(dateLayout, s.FirstDay, loc)
	if err != nil {
		return nil, fmt.Errorf("semester.first_day: %w", err)
	}

	semester := &models.Semester{
		ID:           "local",
		Title:        s.Title,
		FirstDay:     first,
		Timezone:     timezone,
		WeekOverride: s.WeekCount,
	}
	for _, raw := range s.ReadingDays {
		day, err := time.ParseInLocation(dateLayout, raw, loc)
		if err != nil {
			return nil, fmt.Errorf("semester.reading_days: %w", err)
		}
		semester.ReadingDays = append(semester.ReadingDays, day)
	}
	for _, c := range s.Cancellations {
		day, err := time.ParseInLocation(dateLayout, c.Date, loc)
		if err != nil {
			return nil, fmt.Errorf("semester.cancellations: %w", err)
		}
		semester.CancelDay(day, c.Reason)
	}
	if err := semester.Validate(); err != nil {
		return nil, err
	}
	return semester, nil
}

func (o OfferingSpec) offering() (models.Offering, error) {
	if o.Code == "" {
		return models.Offering{}, errors.New("offering.code is required")
	}
	var minutes models.MeetingMinutes
	for name, m := range o.Meetings {
		day, err := ParseWeekday(name)
		if err != nil {
			return models.Offering{}, fmt.Errorf("offering.meetings: %w", err)
		}
		if m < 0 {
			return models.Offering{}, fmt.Errorf("offering.meetings: negative minutes for %s", name)
		}
		minutes[day] = m
	}
	if minutes.Total() == 0 {
		return models.Offering{}, errors.New("offering.meetings: at least one meeting day is required")
	}
	if o.MeetingStart != "" {
		if _, _, err := models.ParseClock(o.MeetingStart); err != nil {
			return models.Offering{}, fmt.Errorf("offering.meeting_start: %w", err)
		}
	}

	id := o.ID
	if id == "" {
		id = strings.ToLower(strings.ReplaceAll(o.Code, " ", "-"))
	}
	institution := models.Institution(strings.ToUpper(o.Institution))
	switch institution {
	case "":
		institution = models.InstitutionGeneric
	case models.InstitutionGeneric, models.InstitutionPlymouth, models.InstitutionFlSouthern:
	default:
		return models.Offering{}, fmt.Errorf("offering.institution: unknown value %q", o.Institution)
	}
	kind := models.OfferingKind(strings.ToUpper(o.Kind))
	switch kind {
	case "":
		kind = models.OfferingKindCourse
	case models.OfferingKindCourse, models.OfferingKindLab:
	default:
		return models.Offering{}, fmt.Errorf("offering.kind: unknown value %q", o.Kind)
	}

	times := models.AssignmentTimes{}
	for name, t := range o.AssignmentTimes {
		times[strings.ToLower(name)] = t
	}
	return models.Offering{
		ID:              id,
		SemesterID:      "local",
		Code:            o.Code,
		Title:           o.Title,
		Institution:     institution,
		Kind:            kind,
		MeetingMinutes:  minutes,
		MeetingStart:    o.MeetingStart,
		Location:        o.Location,
		AssignmentTimes: times,
	}, nil
}

func (a AssignmentSpec) assignment(offeringID string, topics map[string]bool) (models.Assignment, error) {
	if a.Type == "" {
		return models.Assignment{}, errors.New("type is required")
	}
	out := models.Assignment{
		ID:            a.ID,
		OfferingID:    offeringID,
		Type:          strings.ToLower(a.Type),
		Title:         a.Title,
		Description:   a.Description,
		Points:        a.Points,
		AssignDay:     a.AssignDay,
		DueDay:        a.DueDay,
		DueOffsetDays: a.DueOffset,
	}
	for _, ref := range []struct {
		name string
		id   string
		dst  **string
	}{
		{"anchor", a.Anchor, &out.AnchorTopicID},
		{"due_topic", a.DueTopic, &out.DueTopicID},
		{"due_topic_end", a.DueTopicEnd, &out.DueTopicEndID},
	} {
		if ref.id == "" {
			continue
		}
		if !topics[ref.id] {
			return models.Assignment{}, fmt.Errorf("%s references unknown topic %q", ref.name, ref.id)
		}
		id := ref.id
		*ref.dst = &id
	}
	return out, nil
}

// ParseWeekday accepts full or three letter English weekday names in any case.
func ParseWeekday(name string) (time.Weekday, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if n == full || n == full[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", name)
}
