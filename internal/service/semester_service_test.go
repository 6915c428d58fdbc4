package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-site-api/internal/dto"
	"github.com/noah-isme/course-site-api/internal/models"
	appErrors "github.com/noah-isme/course-site-api/pkg/errors"
)

func newSemesterFixture() (*SemesterService, *mockSemesterRepo, *memoryCache) {
	repo := &mockSemesterRepo{items: map[string]*models.Semester{"sem-1": testSemester(15)}}
	cache := newMemoryCache()
	return NewSemesterService(repo, cache, nil, nil, "America/New_York"), repo, cache
}

func TestSemesterServiceCreate(t *testing.T) {
	svc, repo, _ := newSemesterFixture()
	ctx := context.Background()

	semester, err := svc.Create(ctx, dto.CreateSemesterRequest{
		Title:       "Fall 2024",
		FirstDay:    "2024-08-26",
		ReadingDays: []string{"2024-12-09"},
	})
	require.NoError(t, err)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "America/New_York", semester.Timezone)
	assert.Equal(t, "America/New_York", semester.FirstDay.Location().String())
	require.Len(t, semester.ReadingDays, 1)

	_, err = svc.Create(ctx, dto.CreateSemesterRequest{Title: "Bad", FirstDay: "2024-08-26", Timezone: "Mars/Olympus"})
	assertAppCode(t, err, appErrors.ErrValidation.Code)

	_, err = svc.Create(ctx, dto.CreateSemesterRequest{Title: "Bad", FirstDay: "26/08/2024"})
	assertAppCode(t, err, appErrors.ErrValidation.Code)

	_, err = svc.Create(ctx, dto.CreateSemesterRequest{Title: "Bad", FirstDay: "2024-08-26", ReadingDays: []string{"2024-08-01"}})
	assertAppCode(t, err, appErrors.ErrValidation.Code)
}

func TestSemesterServiceDayIndexRoundTrip(t *testing.T) {
	svc, _, _ := newSemesterFixture()
	ctx := context.Background()

	resp, err := svc.DayIndex(ctx, "sem-1", "2024-01-17")
	require.NoError(t, err)
	assert.Equal(t, 9, resp.DayIndex)
	assert.Equal(t, "Wednesday", resp.Weekday)

	back, err := svc.DateOf(ctx, "sem-1", resp.DayIndex)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-17", back.Date)

	_, err = svc.DayIndex(ctx, "sem-1", "Jan 17")
	assertAppCode(t, err, appErrors.ErrValidation.Code)

	_, err = svc.DayIndex(ctx, "missing", "2024-01-17")
	assertAppCode(t, err, appErrors.ErrNotFound.Code)
}

func TestSemesterServiceCancelInvalidatesSchedules(t *testing.T) {
	svc, repo, cache := newSemesterFixture()
	ctx := context.Background()
	cache.entries["schedule:sem-1:off-1"] = []byte(`{}`)

	semester, err := svc.Cancel(ctx, "sem-1", dto.SemesterCancellationRequest{Date: "2024-01-15", Reason: "MLK Day"})
	require.NoError(t, err)
	require.Len(t, repo.cancellations, 1)
	assert.Equal(t, []string{"schedule:sem-1:*"}, cache.invalidated)
	assert.Empty(t, cache.entries)

	reason, cancelled := semester.IsCancelled(semester.DateOfDayIndex(7))
	assert.True(t, cancelled)
	assert.Equal(t, "MLK Day", reason)

	resp, err := svc.DateOf(ctx, "sem-1", 7)
	require.NoError(t, err)
	assert.True(t, resp.Cancelled)

	_, err = svc.Cancel(ctx, "sem-1", dto.SemesterCancellationRequest{Date: "2023-12-25", Reason: "Holiday"})
	assertAppCode(t, err, appErrors.ErrValidation.Code)

	_, err = svc.Cancel(ctx, "sem-1", dto.SemesterCancellationRequest{Date: "2024-01-15"})
	assertAppCode(t, err, appErrors.ErrValidation.Code)
}

func TestSemesterServiceDelete(t *testing.T) {
	svc, repo, cache := newSemesterFixture()
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, "sem-1"))
	assert.Empty(t, repo.items)
	assert.Equal(t, []string{"schedule:sem-1:*"}, cache.invalidated)

	err := svc.Delete(ctx, "sem-1")
	assertAppCode(t, err, appErrors.ErrNotFound.Code)
}

func TestSemesterServiceList(t *testing.T) {
	svc, _, _ := newSemesterFixture()

	items, page, err := svc.List(context.Background(), models.SemesterFilter{})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)
	assert.Equal(t, 1, page.TotalCount)
}

func TestSemesterServiceCreateValidatesReadingDays(t *testing.T) {
	repo := &mockSemesterRepo{items: map[string]*models.Semester{}}
	svc := NewSemesterService(repo, nil, nil, nil, "America/New_York")
	ctx := context.Background()

	_, err := svc.Create(ctx, dto.CreateSemesterRequest{Title: "Spring", FirstDay: "2024-01-08", ReadingDays: []string{"2024-01-08"}})
	assertAppCode(t, err, appErrors.ErrValidation.Code)

	semester, err := svc.Create(ctx, dto.CreateSemesterRequest{Title: "Spring", FirstDay: "2024-01-08", ReadingDays: []string{"2024-04-29", "2024-04-30"}})
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", semester.Timezone)
	assert.Equal(t, 17, semester.WeekCount())
	assert.Len(t, repo.created, 1)
}
