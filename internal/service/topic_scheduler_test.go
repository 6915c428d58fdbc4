package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-site-api/internal/models"
)

var weekdayFifty = models.MeetingMinutes{0, 50, 50, 50, 50, 50, 0}

// testSemester starts on Monday 8 January 2024.
func testSemester(weeks int) *models.Semester {
	return &models.Semester{
		ID:           "sem-1",
		Title:        "Spring 2024",
		FirstDay:     time.Date(2024, time.January, 8, 0, 0, 0, 0, time.UTC),
		Timezone:     "UTC",
		WeekOverride: weeks,
	}
}

func topic(id string, minutes int) models.CourseTopic {
	return models.CourseTopic{ID: id, Title: "Topic " + id, Minutes: minutes}
}

type placement struct {
	id      string
	minutes int
}

func placements(t *testing.T, s *TopicSchedule, day int) []placement {
	t.Helper()
	entries, err := s.TopicsOn(day)
	require.NoError(t, err)
	out := make([]placement, 0, len(entries))
	for _, e := range entries {
		out = append(out, placement{id: e.TopicID, minutes: e.Minutes})
	}
	return out
}

func TestTopicScheduleWeekdayPacking(t *testing.T) {
	s, err := NewTopicSchedule(testSemester(15), weekdayFifty)
	require.NoError(t, err)
	s.Enqueue(topic("t1", 40), topic("t2", 60), topic("t3", 30))

	require.NoError(t, s.Build(false))

	assert.Equal(t, []placement{{"t1", 40}, {"t2", 10}}, placements(t, s, 0))
	assert.Equal(t, []placement{{"t2", 50}}, placements(t, s, 1))
	assert.Equal(t, []placement{{"t3", 30}}, placements(t, s, 2))
	assert.Empty(t, placements(t, s, 3))

	day0, _ := s.TopicsOn(0)
	assert.Equal(t, 1, day0[1].Part)
	assert.Equal(t, 2, day0[1].Parts)
	assert.Zero(t, day0[0].Parts)
}

func TestTopicScheduleConservesMinutes(t *testing.T) {
	semester := testSemester(15)
	meeting := models.MeetingMinutes{0, 75, 0, 75, 0, 50, 0}
	s, err := NewTopicSchedule(semester, meeting)
	require.NoError(t, err)

	total := 0
	for i := 0; i < 30; i++ {
		minutes := 20 + (i*37)%110
		total += minutes
		s.Enqueue(topic(fmt.Sprintf("t%d", i), minutes))
	}
	require.NoError(t, s.Pin(2, "Quiz", 30, models.PinKindFixed))

	days, err := s.Days()
	require.NoError(t, err)

	allocated := 0
	for _, day := range days {
		sum := 0
		for _, e := range day.Entries {
			sum += e.Minutes
			if e.Kind == models.EntryKindTopic {
				allocated += e.Minutes
			}
		}
		assert.LessOrEqual(t, sum, meeting.For(semester.WeekdayOfDayIndex(day.Index)), "day %d", day.Index)
	}
	assert.Equal(t, total, allocated)

	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, total, stats.MinutesAllocated)
	assert.Equal(t, 30, stats.MinutesPinned)
}

func TestTopicScheduleBuildIsIdempotent(t *testing.T) {
	s, err := NewTopicSchedule(testSemester(15), weekdayFifty)
	require.NoError(t, err)
	s.Enqueue(topic("a", 120), topic("b", 35), topic("c", 80))

	require.NoError(t, s.Build(false))
	first, err := s.Days()
	require.NoError(t, err)

	require.NoError(t, s.Build(false))
	second, err := s.Days()
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestTopicScheduleOverflowReturnsError(t *testing.T) {
	// One week starting Monday leaves Monday to Saturday: 250 minutes.
	s, err := NewTopicSchedule(testSemester(1), weekdayFifty)
	require.NoError(t, err)
	require.Equal(t, 6, s.Horizon())
	s.Enqueue(topic("a", 200), topic("b", 100))

	err = s.Build(false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrScheduleOverflow))

	_, err = s.Days()
	assert.True(t, errors.Is(err, ErrScheduleOverflow))
}

func TestTopicScheduleSplitsAcrossMeetingDaysOnly(t *testing.T) {
	s, err := NewTopicSchedule(testSemester(15), models.MeetingMinutes{0, 75, 0, 75, 0, 0, 0})
	require.NoError(t, err)
	s.Enqueue(topic("long", 200))

	require.NoError(t, s.Build(false))
	assert.Equal(t, []placement{{"long", 75}}, placements(t, s, 0))
	assert.Empty(t, placements(t, s, 1))
	assert.Equal(t, []placement{{"long", 75}}, placements(t, s, 2))
	assert.Equal(t, []placement{{"long", 50}}, placements(t, s, 7))

	start, err := s.StartDay("long")
	require.NoError(t, err)
	end, err := s.EndDay("long")
	require.NoError(t, err)
	assert.Equal(t, 0, start)
	assert.Equal(t, 7, end)

	day7, _ := s.TopicsOn(7)
	assert.Equal(t, 3, day7[0].Part)
	assert.Equal(t, 3, day7[0].Parts)
}

func TestTopicScheduleSkipsCancelledDays(t *testing.T) {
	semester := testSemester(15)
	semester.CancelDay(semester.DateOfDayIndex(1), "Snow day")

	s, err := NewTopicSchedule(semester, weekdayFifty)
	require.NoError(t, err)
	require.NoError(t, s.CancelMeeting(3, "Conference travel"))
	s.Enqueue(topic("a", 50), topic("b", 50), topic("c", 50))

	require.NoError(t, s.Build(false))
	assert.Equal(t, []placement{{"a", 50}}, placements(t, s, 0))
	assert.Equal(t, []placement{{"b", 50}}, placements(t, s, 2))
	assert.Equal(t, []placement{{"c", 50}}, placements(t, s, 4))

	day1, _ := s.TopicsOn(1)
	require.Len(t, day1, 1)
	assert.Equal(t, models.EntryKindCancelled, day1[0].Kind)
	assert.Equal(t, "Snow day", day1[0].Title)

	assert.True(t, s.IsCancelled(3))
	assert.Equal(t, 2, s.MeetingDayBefore(3))
	assert.Equal(t, 2, s.MeetingDayBefore(4))
	assert.Equal(t, 0, s.MeetingDayBefore(2))
	assert.Equal(t, 0, s.MeetingDayBefore(0))
}

func TestTopicScheduleForcedRebuildMatchesFreshBuild(t *testing.T) {
	s, err := NewTopicSchedule(testSemester(15), weekdayFifty)
	require.NoError(t, err)
	s.Enqueue(topic("a", 40), topic("b", 60), topic("c", 30))
	require.NoError(t, s.Build(false))

	require.NoError(t, s.CancelMeeting(0, "Orientation"))
	require.NoError(t, s.Build(false))
	stale, err := s.StartDay("a")
	require.NoError(t, err)
	assert.Equal(t, 0, stale, "unforced build keeps existing placements")

	require.NoError(t, s.Build(true))
	rebuilt, err := s.Days()
	require.NoError(t, err)

	fresh, err := NewTopicSchedule(testSemester(15), weekdayFifty)
	require.NoError(t, err)
	require.NoError(t, fresh.CancelMeeting(0, "Orientation"))
	fresh.Enqueue(topic("a", 40), topic("b", 60), topic("c", 30))
	expected, err := fresh.Days()
	require.NoError(t, err)

	assert.Equal(t, expected, rebuilt)
	start, err := s.StartDay("a")
	require.NoError(t, err)
	assert.Equal(t, 1, start)
}

func TestTopicScheduleRejectsInvalidPins(t *testing.T) {
	s, err := NewTopicSchedule(testSemester(15), weekdayFifty)
	require.NoError(t, err)

	assert.True(t, errors.Is(s.Pin(0, "Exam", 60, models.PinKindFixed), ErrInvalidPin))
	assert.True(t, errors.Is(s.Pin(5, "Exam", 30, models.PinKindFixed), ErrInvalidPin), "saturday has no meeting")
	assert.True(t, errors.Is(s.Pin(-1, "Exam", 30, models.PinKindFixed), ErrInvalidPin))
	assert.True(t, errors.Is(s.Pin(200, "Exam", 30, models.PinKindFixed), ErrInvalidPin))
	assert.True(t, errors.Is(s.Pin(0, "Exam", 0, models.PinKindFixed), ErrInvalidPin))
	require.NoError(t, s.Pin(0, "Exam", 50, models.PinKindFixed))
	assert.True(t, errors.Is(s.Pin(0, "Review", 1, models.PinKindFixed), ErrInvalidPin))
}

func TestTopicScheduleUnknownTopic(t *testing.T) {
	s, err := NewTopicSchedule(testSemester(15), weekdayFifty)
	require.NoError(t, err)
	s.Enqueue(topic("a", 40))

	_, err = s.StartDay("missing")
	assert.True(t, errors.Is(err, ErrTopicNotScheduled))
}

func TestTopicScheduleAssignsIDsToAnonymousTopics(t *testing.T) {
	s, err := NewTopicSchedule(testSemester(15), weekdayFifty)
	require.NoError(t, err)
	s.Enqueue(models.CourseTopic{Title: "Intro", Minutes: 50}, models.CourseTopic{Title: "Loops", Minutes: 50})

	start, err := s.StartDay("topic-2")
	require.NoError(t, err)
	assert.Equal(t, 1, start)
}
