package service

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkHtml "github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"

	"github.com/noah-isme/course-site-api/internal/models"
)

// Page names understood by PageRenderer.
const (
	PageSchedule     = "schedule"
	PageSyllabus     = "syllabus"
	PageAvailability = "availability"
)

// OfferingPages lists the pages published for every offering.
var OfferingPages = []string{PageSchedule, PageSyllabus}

// OfferingView is everything a page needs to describe one offering.
type OfferingView struct {
	Offering models.Offering
	Semester *models.Semester
	Topics   []models.CourseTopic
	Schedule *models.OfferingSchedule
}

type pageData struct {
	Page        string
	Title       string
	Bar         *TitleBar
	Generated   string
	Days        []dayView
	Sections    []sectionView
	Assignments []assignmentView
	Grid        *models.AvailabilityGrid
	Weekdays    []string
}

type dayView struct {
	Index     int
	Date      string
	Weekday   string
	Cancelled bool
	Entries   []entryView
	Assigned  []string
	Due       []string
}

type entryView struct {
	Title   string
	Minutes int
	Kind    string
	Split   string
	Notes   template.HTML
}

type sectionView struct {
	Title string
	Body  template.HTML
}

type assignmentView struct {
	Title       string
	Type        string
	Points      string
	Assigned    string
	Due         string
	Description template.HTML
}

// PageRenderer renders offering pages to HTML.
type PageRenderer struct {
	markdown goldmark.Markdown
	now      func() time.Time
	logger   *zap.Logger
}

// NewPageRenderer builds a renderer with GitHub flavoured Markdown for notes and descriptions.
func NewPageRenderer(logger *zap.Logger) *PageRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageRenderer{
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(goldmarkHtml.WithHardWraps()),
		),
		now:    time.Now,
		logger: logger,
	}
}

// Render produces the named offering page.
func (r *PageRenderer) Render(page string, view OfferingView) ([]byte, error) {
	if view.Semester == nil || view.Schedule == nil {
		return nil, fmt.Errorf("render %s: semester and schedule are required", page)
	}
	switch page {
	case PageSchedule, PageSyllabus:
	default:
		return nil, fmt.Errorf("unknown page %q", page)
	}

	theme := themeFor(view.Offering.Institution)
	bar := theme.TitleBar(view.Offering, view.Semester)
	data := pageData{
		Page:      page,
		Title:     bar.Heading,
		Bar:       &bar,
		Generated: r.now().Format("2006-01-02 15:04"),
	}

	days, err := r.dayViews(view)
	if err != nil {
		return nil, err
	}
	data.Days = days

	if page == PageSyllabus {
		for _, section := range theme.SyllabusSections(view.Offering) {
			body, err := r.toHTML(section.Body)
			if err != nil {
				return nil, err
			}
			data.Sections = append(data.Sections, sectionView{Title: section.Title, Body: body})
		}
		for _, item := range view.Schedule.Assignments {
			description, err := r.toHTML(item.Assignment.Description)
			if err != nil {
				return nil, err
			}
			data.Assignments = append(data.Assignments, assignmentView{
				Title:       assignmentTitle(item),
				Type:        item.Assignment.Type,
				Points:      strconv.FormatFloat(item.Assignment.Points, 'f', -1, 64),
				Assigned:    item.AssignAt.Format("Mon Jan 2 15:04"),
				Due:         item.DueAt.Format("Mon Jan 2 15:04"),
				Description: description,
			})
		}
	}

	return r.execute(page, data)
}

// RenderAvailability produces the weekly availability page.
func (r *PageRenderer) RenderAvailability(title string, grid *models.AvailabilityGrid) ([]byte, error) {
	if grid == nil {
		return nil, fmt.Errorf("render availability: grid is required")
	}
	data := pageData{
		Page:      PageAvailability,
		Title:     title,
		Bar:       &TitleBar{Heading: title},
		Generated: r.now().Format("2006-01-02 15:04"),
		Grid:      grid,
		Weekdays:  []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
	}
	return r.execute(PageAvailability, data)
}

func (r *PageRenderer) execute(page string, data pageData) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := pageTemplates.ExecuteTemplate(buf, page, data); err != nil {
		return nil, fmt.Errorf("execute %s template: %w", page, err)
	}
	r.logger.Debug("page rendered", zap.String("page", page), zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

func (r *PageRenderer) dayViews(view OfferingView) ([]dayView, error) {
	notes := make(map[string]string, len(view.Topics))
	for _, t := range view.Topics {
		notes[t.ID] = t.Notes
	}
	assigned, due := assignmentsByDay(view.Schedule.Assignments)

	out := make([]dayView, 0, len(view.Schedule.Days))
	for _, day := range view.Schedule.Days {
		dv := dayView{
			Index:    day.Index,
			Date:     day.Date.Format("Jan 2"),
			Weekday:  day.Weekday[:3],
			Assigned: assigned[day.Index],
			Due:      due[day.Index],
		}
		for _, entry := range day.Entries {
			ev := entryView{Title: entry.Title, Minutes: entry.Minutes, Kind: string(entry.Kind)}
			if entry.Kind == models.EntryKindCancelled {
				dv.Cancelled = true
			}
			if entry.Parts > 1 {
				ev.Split = fmt.Sprintf("part %d of %d", entry.Part, entry.Parts)
			}
			if entry.Part <= 1 && notes[entry.TopicID] != "" {
				html, err := r.toHTML(notes[entry.TopicID])
				if err != nil {
					return nil, err
				}
				ev.Notes = html
			}
			dv.Entries = append(dv.Entries, ev)
		}
		out = append(out, dv)
	}
	return out, nil
}

func (r *PageRenderer) toHTML(markdown string) (template.HTML, error) {
	if markdown == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	// goldmark escapes raw HTML unless WithUnsafe is set.
	return template.HTML(buf.String()), nil //nolint:gosec
}

func assignmentTitle(item models.AssignmentInOffering) string {
	if item.Assignment.Title != "" {
		return item.Assignment.Title
	}
	return fmt.Sprintf("%s %d", item.Assignment.Type, item.Index+1)
}
