package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/noah-isme/course-site-api/internal/models"
	"github.com/noah-isme/course-site-api/pkg/export"
	appErrors "github.com/noah-isme/course-site-api/pkg/errors"
)

type offeringViewer interface {
	View(ctx context.Context, id string, rebuild bool) (*OfferingView, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type tableRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type calendarRenderer interface {
	Render(name string, events []export.CalendarEvent, stamp time.Time) ([]byte, error)
}

// Schedule export columns.
const (
	colDay      = "Day"
	colDate     = "Date"
	colTopics   = "Topics"
	colMinutes  = "Minutes"
	colAssigned = "Assigned"
	colDue      = "Due"
)

// ExportService renders an offering schedule as CSV, PDF, XLSX or an iCalendar feed.
type ExportService struct {
	offerings offeringViewer
	csv       csvRenderer
	pdf       tableRenderer
	xlsx      tableRenderer
	ics       calendarRenderer
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService with the default renderers.
func NewExportService(offerings offeringViewer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		offerings: offerings,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		xlsx:      export.NewXLSXExporter(),
		ics:       export.NewICSExporter(""),
		logger:    logger,
		now:       time.Now,
	}
}

// Export loads the offering schedule and renders it in the requested format.
func (s *ExportService) Export(ctx context.Context, offeringID string, format models.ExportFormat) (*models.ExportFile, error) {
	view, err := s.offerings.View(ctx, offeringID, false)
	if err != nil {
		return nil, err
	}
	return s.Render(*view, format)
}

// Render produces the export of an already built offering view.
func (s *ExportService) Render(view OfferingView, format models.ExportFormat) (*models.ExportFile, error) {
	if view.Schedule == nil || view.Semester == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "offering view is incomplete")
	}
	title := fmt.Sprintf("%s %s: %s", view.Offering.Code, view.Offering.Title, view.Semester.Title)
	base := slugify(view.Offering.Code) + "-schedule"

	var (
		data        []byte
		err         error
		contentType string
	)
	switch format {
	case models.ExportFormatCSV:
		data, err = s.csv.Render(ScheduleDataset(view))
		contentType = "text/csv"
	case models.ExportFormatPDF:
		data, err = s.pdf.Render(ScheduleDataset(view), title)
		contentType = "application/pdf"
	case models.ExportFormatXLSX:
		data, err = s.xlsx.Render(ScheduleDataset(view), title)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case models.ExportFormatICS:
		data, err = s.ics.Render(title, CalendarEvents(view), s.now())
		contentType = "text/calendar"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		s.logger.Error("export render failed", zap.String("offering_id", view.Offering.ID), zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &models.ExportFile{
		Filename:    base + "." + string(format),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// ScheduleDataset flattens the schedule into one row per meeting day.
func ScheduleDataset(view OfferingView) export.Dataset {
	assigned, due := assignmentsByDay(view.Schedule.Assignments)
	data := export.Dataset{
		Headers: []string{colDay, colDate, colTopics, colMinutes, colAssigned, colDue},
		Widths:  map[string]float64{colDay: 0.6, colDate: 1.2, colTopics: 4, colMinutes: 0.8, colAssigned: 2, colDue: 2},
	}
	for _, day := range view.Schedule.Days {
		titles := make([]string, 0, len(day.Entries))
		minutes := 0
		for _, entry := range day.Entries {
			titles = append(titles, entryLabel(entry))
			minutes += entry.Minutes
		}
		data.Rows = append(data.Rows, map[string]string{
			colDay:      strconv.Itoa(day.Index),
			colDate:     day.Date.Format("Mon 2006-01-02"),
			colTopics:   strings.Join(titles, "; "),
			colMinutes:  strconv.Itoa(minutes),
			colAssigned: strings.Join(assigned[day.Index], "; "),
			colDue:      strings.Join(due[day.Index], "; "),
		})
	}
	return data
}

// CalendarEvents turns meeting days into timed events and due dates into all-day events.
// Without a meeting start time the meetings become all-day events as well.
func CalendarEvents(view OfferingView) []export.CalendarEvent {
	o := view.Offering
	startMinute, err := clockMinutes(o.MeetingStart, -1)
	timed := err == nil && o.MeetingStart != ""

	events := make([]export.CalendarEvent, 0, len(view.Schedule.Days)+len(view.Schedule.Assignments))
	for _, day := range view.Schedule.Days {
		if len(day.Entries) == 0 {
			continue
		}
		lines := make([]string, 0, len(day.Entries))
		cancelled := ""
		for _, entry := range day.Entries {
			if entry.Kind == models.EntryKindCancelled {
				cancelled = entry.Title
			}
			lines = append(lines, fmt.Sprintf("%s (%d min)", entryLabel(entry), entry.Minutes))
		}
		summary := o.Code
		if cancelled != "" {
			summary = fmt.Sprintf("%s cancelled: %s", o.Code, cancelled)
		}
		event := export.CalendarEvent{
			UID:         fmt.Sprintf("%s-day-%d@course-site", o.ID, day.Index),
			Summary:     summary,
			Description: strings.Join(lines, "\n"),
			Location:    o.Location,
			Start:       day.Date,
			AllDay:      !timed,
		}
		if timed {
			midnight := time.Date(day.Date.Year(), day.Date.Month(), day.Date.Day(), 0, 0, 0, 0, view.Semester.Location())
			event.Start = midnight.Add(time.Duration(startMinute) * time.Minute)
			event.End = event.Start.Add(time.Duration(day.MeetingMinutes) * time.Minute)
		}
		events = append(events, event)
	}

	for _, item := range view.Schedule.Assignments {
		events = append(events, export.CalendarEvent{
			UID:         fmt.Sprintf("%s-%s-%d-due@course-site", o.ID, item.Assignment.Type, item.Index),
			Summary:     fmt.Sprintf("%s: %s due %s", o.Code, assignmentTitle(item), item.DueAt.Format("15:04")),
			Description: item.Assignment.Description,
			Start:       item.DueAt,
			AllDay:      true,
		})
	}
	return events
}

func assignmentsByDay(items []models.AssignmentInOffering) (map[int][]string, map[int][]string) {
	assigned := make(map[int][]string)
	due := make(map[int][]string)
	for _, item := range items {
		title := assignmentTitle(item)
		assigned[item.AssignDay] = append(assigned[item.AssignDay], title)
		due[item.DueDay] = append(due[item.DueDay], title)
	}
	return assigned, due
}

func entryLabel(entry models.ScheduleEntry) string {
	if entry.Parts > 1 {
		return fmt.Sprintf("%s (part %d of %d)", entry.Title, entry.Part, entry.Parts)
	}
	return entry.Title
}

func slugify(value string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(value) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "offering"
	}
	return out
}
