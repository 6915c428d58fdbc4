package content

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-site-api/internal/models"
)

const sampleCourse = `
semester:
  title: Fall 2024
  first_day: 2024-08-26
  timezone: America/New_York
  week_count: 15
  cancellations:
    - date: 2024-09-02
      reason: Labor Day
offering:
  code: CS 2220
  title: Computer Hardware
  institution: plymouth
  meetings: {mon: 50, Wednesday: 50, FRI: 50}
  meeting_start: "10:00"
  location: Hyde 222
  assignment_times:
    HW: {assign: "09:00", due: "23:59"}
topics:
  - id: intro
    title: Introduction
    minutes: 50
  - title: Number systems
    minutes: 100
pins:
  - day: 4
    title: Quiz 1
    minutes: 20
assignments:
  - type: HW
    title: Homework 1
    assign_day: 0
    due_day: 7
  - type: hw
    title: Homework 2
    anchor: intro
    due_topic: topic-2
    due_offset_days: 2
`

func TestParseAndDetail(t *testing.T) {
	course, err := Parse(strings.NewReader(sampleCourse))
	require.NoError(t, err)

	detail, err := course.Detail()
	require.NoError(t, err)

	assert.Equal(t, "cs-2220", detail.Offering.ID)
	assert.Equal(t, models.InstitutionPlymouth, detail.Offering.Institution)
	assert.Equal(t, models.OfferingKindCourse, detail.Offering.Kind)
	assert.Equal(t, models.MeetingMinutes{0, 50, 0, 50, 0, 50, 0}, detail.Offering.MeetingMinutes)
	assert.Equal(t, "23:59", detail.Offering.AssignmentTimes.For("hw").Due)

	assert.Equal(t, time.Monday, detail.Semester.FirstDay.Weekday())
	reason, cancelled := detail.Semester.IsCancelled(time.Date(2024, 9, 2, 12, 0, 0, 0, detail.Semester.Location()))
	assert.True(t, cancelled)
	assert.Equal(t, "Labor Day", reason)

	require.Len(t, detail.Topics, 2)
	assert.Equal(t, "intro", detail.Topics[0].ID)
	assert.Equal(t, "topic-2", detail.Topics[1].ID)
	assert.Equal(t, 1, detail.Topics[1].Position)

	require.Len(t, detail.Pins, 1)
	assert.Equal(t, models.PinKindFixed, detail.Pins[0].Kind)

	require.Len(t, detail.Assignments, 2)
	assert.Equal(t, "hw", detail.Assignments[1].Type)
	assert.Equal(t, 1, detail.Assignments[1].Position)
	assert.Equal(t, "hw-2", detail.Assignments[1].ID)
	require.NotNil(t, detail.Assignments[1].DueTopicID)
	assert.Equal(t, "topic-2", *detail.Assignments[1].DueTopicID)
	assert.True(t, detail.Assignments[1].IsAnchored())
}

func TestDetailRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"unknown key":      "semester: {first_day: 2024-08-26}\nofering: {}\n",
		"missing first":    "offering: {code: X, meetings: {mon: 50}}\n",
		"bad weekday":      "semester: {first_day: 2024-08-26}\noffering: {code: X, meetings: {funday: 50}}\n",
		"no meetings":      "semester: {first_day: 2024-08-26}\noffering: {code: X}\n",
		"unknown anchor":   "semester: {first_day: 2024-08-26}\noffering: {code: X, meetings: {mon: 50}}\nassignments: [{type: hw, due_topic: nope}]\n",
		"duplicate topic":  "semester: {first_day: 2024-08-26}\noffering: {code: X, meetings: {mon: 50}}\ntopics: [{id: a, title: A, minutes: 5}, {id: a, title: B, minutes: 5}]\n",
		"zero minutes":     "semester: {first_day: 2024-08-26}\noffering: {code: X, meetings: {mon: 50}}\ntopics: [{title: A}]\n",
		"bad institution":  "semester: {first_day: 2024-08-26}\noffering: {code: X, institution: mit, meetings: {mon: 50}}\n",
		"bad meeting time": "semester: {first_day: 2024-08-26}\noffering: {code: X, meeting_start: noon, meetings: {mon: 50}}\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			course, err := Parse(strings.NewReader(body))
			if err == nil {
				_, err = course.Detail()
			}
			assert.Error(t, err)
		})
	}
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "course.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleCourse), 0o644))

	detail, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "CS 2220", detail.Offering.Code)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = Load(empty)
	assert.ErrorContains(t, err, "empty")
}

func TestParseWeekday(t *testing.T) {
	day, err := ParseWeekday(" Thu ")
	require.NoError(t, err)
	assert.Equal(t, time.Thursday, day)

	_, err = ParseWeekday("th")
	assert.Error(t, err)
}
