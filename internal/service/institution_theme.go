package service

import (
	"fmt"
	"strings"

	"github.com/noah-isme/course-site-api/internal/models"
)

// TitleBar is the heading block shown on every page of an offering.
type TitleBar struct {
	Heading    string
	Subheading string
	Meta       []string
}

// SyllabusSection is a titled block of Markdown on the syllabus page.
type SyllabusSection struct {
	Title string
	Body  string
}

// institutionTheme supplies the parts of a page that differ between institutions.
type institutionTheme interface {
	TitleBar(o models.Offering, s *models.Semester) TitleBar
	SyllabusSections(o models.Offering) []SyllabusSection
}

func themeFor(institution models.Institution) institutionTheme {
	switch institution {
	case models.InstitutionPlymouth:
		return plymouthTheme{}
	case models.InstitutionFlSouthern:
		return flSouthernTheme{}
	default:
		return genericTheme{}
	}
}

type genericTheme struct{}

func (genericTheme) TitleBar(o models.Offering, s *models.Semester) TitleBar {
	bar := TitleBar{
		Heading:    strings.TrimSpace(o.Code + " " + o.Title),
		Subheading: s.Title,
	}
	if o.Location != "" {
		bar.Meta = append(bar.Meta, o.Location)
	}
	if o.MeetingStart != "" {
		bar.Meta = append(bar.Meta, fmt.Sprintf("%s at %s", meetingDays(o.MeetingMinutes), o.MeetingStart))
	}
	return bar
}

func (genericTheme) SyllabusSections(o models.Offering) []SyllabusSection {
	return []SyllabusSection{
		{Title: "Meetings", Body: fmt.Sprintf("This %s meets %s.", strings.ToLower(string(kindOrCourse(o.Kind))), meetingDays(o.MeetingMinutes))},
		{Title: "Grading", Body: "Grades are computed from the points listed in the assignment table below."},
	}
}

// plymouthTheme adds the university's required policy headings to the generic layout.
type plymouthTheme struct {
	genericTheme
}

func (t plymouthTheme) TitleBar(o models.Offering, s *models.Semester) TitleBar {
	bar := t.genericTheme.TitleBar(o, s)
	bar.Subheading = "Plymouth State University, " + s.Title
	return bar
}

func (t plymouthTheme) SyllabusSections(o models.Offering) []SyllabusSection {
	return append(t.genericTheme.SyllabusSections(o),
		SyllabusSection{Title: "Accessibility", Body: "Students requesting accommodations should contact the Campus Accessibility Services office."},
		SyllabusSection{Title: "Academic Integrity", Body: "The university academic integrity policy applies to all work in this course."},
	)
}

type flSouthernTheme struct {
	genericTheme
}

func (t flSouthernTheme) TitleBar(o models.Offering, s *models.Semester) TitleBar {
	bar := t.genericTheme.TitleBar(o, s)
	bar.Heading = strings.ToUpper(o.Code)
	bar.Subheading = o.Title
	bar.Meta = append([]string{"Florida Southern College, " + s.Title}, bar.Meta...)
	return bar
}

func (t flSouthernTheme) SyllabusSections(o models.Offering) []SyllabusSection {
	sections := t.genericTheme.SyllabusSections(o)
	return append(sections,
		SyllabusSection{Title: "Attendance", Body: "Attendance is expected at every meeting listed in the schedule."},
		SyllabusSection{Title: "Honor Code", Body: "All submitted work falls under the college honor code."},
	)
}

func meetingDays(m models.MeetingMinutes) string {
	names := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	days := make([]string, 0, 7)
	for i, minutes := range m {
		if minutes > 0 {
			days = append(days, names[i])
		}
	}
	if len(days) == 0 {
		return "by arrangement"
	}
	return strings.Join(days, "/")
}

func kindOrCourse(kind models.OfferingKind) models.OfferingKind {
	if kind == "" {
		return models.OfferingKindCourse
	}
	return kind
}
