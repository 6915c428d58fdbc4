package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/course-site-api/internal/models"
	appErrors "github.com/noah-isme/course-site-api/pkg/errors"
)

type viewStub struct {
	view *OfferingView
	err  error
}

func (v viewStub) View(ctx context.Context, id string, rebuild bool) (*OfferingView, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.view, nil
}

func builtView(t *testing.T) *OfferingView {
	t.Helper()
	detail := sampleDetail(models.InstitutionGeneric)
	plan, err := PlanOffering(detail, PlanOptions{StrictAssignments: true})
	require.NoError(t, err)
	view := plan.View(detail)
	return &view
}

func newExportServiceForTest(t *testing.T) *ExportService {
	t.Helper()
	svc := NewExportService(viewStub{view: builtView(t)}, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	return svc
}

func TestScheduleDatasetRows(t *testing.T) {
	data := ScheduleDataset(*builtView(t))
	require.NotEmpty(t, data.Rows)

	first := data.Rows[0]
	assert.Equal(t, "0", first[colDay])
	assert.Equal(t, "Mon 2024-01-08", first[colDate])
	assert.Equal(t, "Number systems; Logic gates <AND> (part 1 of 2)", first[colTopics])
	assert.Equal(t, "50", first[colMinutes])
	assert.Equal(t, "Homework 1", first[colAssigned])

	friday := data.Rows[4]
	assert.Equal(t, "Quiz 1", strings.Split(friday[colTopics], "; ")[0])
	assert.Equal(t, "Homework 1", friday[colDue])
}

func TestExportServiceFormats(t *testing.T) {
	svc := newExportServiceForTest(t)
	ctx := context.Background()

	csvFile, err := svc.Export(ctx, "off-1", models.ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "cs-2220-schedule.csv", csvFile.Filename)
	assert.True(t, strings.HasPrefix(string(csvFile.Data), "Day,Date,Topics,Minutes,Assigned,Due\n"))

	pdfFile, err := svc.Export(ctx, "off-1", models.ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", pdfFile.ContentType)
	assert.True(t, bytes.HasPrefix(pdfFile.Data, []byte("%PDF")))

	xlsxFile, err := svc.Export(ctx, "off-1", models.ExportFormatXLSX)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(xlsxFile.Data, []byte("PK")))

	_, err = svc.Export(ctx, "off-1", "docx")
	assertAppCode(t, err, appErrors.ErrValidation.Code)
}

func TestExportServiceCalendarFeed(t *testing.T) {
	svc := newExportServiceForTest(t)

	file, err := svc.Export(context.Background(), "off-1", models.ExportFormatICS)
	require.NoError(t, err)
	feed := string(file.Data)

	assert.Equal(t, "text/calendar", file.ContentType)
	assert.Contains(t, feed, "UID:off-1-day-0@course-site")
	assert.Contains(t, feed, "DTSTART:20240108T100000Z")
	assert.Contains(t, feed, "DTEND:20240108T105000Z")
	assert.Contains(t, feed, "LOCATION:Hyde 222")
	assert.Contains(t, feed, "UID:off-1-homework-0-due@course-site")
	assert.Contains(t, feed, "DTSTART;VALUE=DATE:20240112")
}

func TestCalendarEventsWithoutStartAreAllDay(t *testing.T) {
	view := builtView(t)
	view.Offering.MeetingStart = ""

	events := CalendarEvents(*view)
	require.NotEmpty(t, events)
	for _, ev := range events {
		assert.True(t, ev.AllDay, ev.UID)
	}
}

func TestExportServicePropagatesLookupErrors(t *testing.T) {
	svc := NewExportService(viewStub{err: appErrors.Clone(appErrors.ErrNotFound, "offering not found")}, nil)
	_, err := svc.Export(context.Background(), "missing", models.ExportFormatCSV)
	assertAppCode(t, err, appErrors.ErrNotFound.Code)
}
