package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-site-api/internal/models"
)

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func homework(position int, due int, assign *int) models.Assignment {
	return models.Assignment{
		ID:        "hw-" + string(rune('a'+position)),
		Type:      "homework",
		Position:  position,
		Title:     "Homework",
		DueDay:    intPtr(due),
		AssignDay: assign,
	}
}

func resolverFixture(t *testing.T, strict bool, assignments ...models.Assignment) *AssignmentResolver {
	t.Helper()
	schedule, err := NewTopicSchedule(testSemester(15), weekdayFifty)
	require.NoError(t, err)
	schedule.Enqueue(topic("t1", 40), topic("t2", 60), topic("t3", 30), topic("t4", 100))
	return NewAssignmentResolver(schedule, models.AssignmentTimes{"homework": {Assign: "10:00", Due: "17:00"}}, assignments, strict)
}

func TestAssignmentResolverDirectPairsAndSingletons(t *testing.T) {
	r := resolverFixture(t, false,
		homework(0, 7, nil),
		homework(1, 14, intPtr(9)),
		homework(2, 21, nil),
	)

	assign, due, err := r.Days("homework", 0)
	require.NoError(t, err)
	assert.Equal(t, [2]int{0, 7}, [2]int{assign, due})

	assign, due, err = r.Days("Homework", 1)
	require.NoError(t, err)
	assert.Equal(t, [2]int{9, 14}, [2]int{assign, due})

	assign, due, err = r.Days("homework", 2)
	require.NoError(t, err)
	assert.Equal(t, [2]int{15, 21}, [2]int{assign, due})
}

func TestAssignmentResolverUnconfiguredIndexCompatibility(t *testing.T) {
	r := resolverFixture(t, false,
		homework(0, 7, nil),
		homework(1, 14, nil),
		homework(2, 21, nil),
	)

	// Homework #5 when only #0-#2 exist: due equals #2's due day, assigned one day later.
	assign, due, err := r.Days("homework", 5)
	require.NoError(t, err)
	assert.Equal(t, 21, due)
	assert.Equal(t, 22, assign)

	assign, due, err = r.Days("lab", 0)
	require.NoError(t, err)
	assert.Equal(t, [2]int{0, 0}, [2]int{assign, due})
}

func TestAssignmentResolverUnconfiguredIndexStrict(t *testing.T) {
	r := resolverFixture(t, true, homework(0, 7, nil))

	_, _, err := r.Days("homework", 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAssignmentNotConfigured))

	_, _, err = r.Days("homework", -1)
	assert.True(t, errors.Is(err, ErrAssignmentNotConfigured))
}

func TestAssignmentResolverStrictRejectsDueOutsideTerm(t *testing.T) {
	r := resolverFixture(t, true, homework(0, 400, nil))

	_, _, err := r.Days("homework", 0)
	assert.True(t, errors.Is(err, ErrAssignmentNotConfigured))

	compat := resolverFixture(t, false, homework(0, 400, nil))
	_, due, err := compat.Days("homework", 0)
	require.NoError(t, err)
	assert.Equal(t, 400, due)
}

func TestAssignmentResolverAnchoredToTopics(t *testing.T) {
	project := models.Assignment{
		ID:            "p1",
		Type:          "project",
		Title:         "Project 1",
		AnchorTopicID: strPtr("t3"),
		DueTopicID:    strPtr("t3"),
		DueTopicEndID: strPtr("t4"),
		DueOffsetDays: 2,
	}
	r := resolverFixture(t, true, project)

	// t3 starts on day 2 (Wednesday); t4 runs from day 2 to day 4.
	assign, due, err := r.Days("project", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, assign)
	assert.Equal(t, 6, due)
}

func TestAssignmentResolverAnchoredUnknownTopic(t *testing.T) {
	bad := models.Assignment{ID: "p1", Type: "project", DueTopicID: strPtr("missing")}

	strict := resolverFixture(t, true, bad)
	_, _, err := strict.Days("project", 0)
	assert.True(t, errors.Is(err, ErrTopicNotScheduled))

	compat := resolverFixture(t, false, bad)
	assign, due, err := compat.Days("project", 0)
	require.NoError(t, err)
	assert.Equal(t, [2]int{0, 0}, [2]int{assign, due})
}

func TestAssignmentResolverAnchorBeforeFirstMeeting(t *testing.T) {
	reading := models.Assignment{ID: "r1", Type: "reading", AnchorTopicID: strPtr("t1"), DueTopicID: strPtr("t1")}
	r := resolverFixture(t, true, reading)

	assign, due, err := r.Days("reading", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, assign)
	assert.Equal(t, 0, due)
}

func TestAssignmentResolverDatesApplyTimeOfDay(t *testing.T) {
	r := resolverFixture(t, true, homework(0, 7, intPtr(2)))

	assignAt, dueAt, err := r.Dates("homework", 0)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.January, 10, 10, 0, 0, 0, time.UTC), assignAt)
	assert.Equal(t, time.Date(2024, time.January, 15, 17, 0, 0, 0, time.UTC), dueAt)

	lab := models.Assignment{ID: "l1", Type: "lab", DueDay: intPtr(1)}
	r = resolverFixture(t, true, lab)
	_, dueAt, err = r.Dates("lab", 0)
	require.NoError(t, err)
	assert.Equal(t, 23, dueAt.Hour())
	assert.Equal(t, 59, dueAt.Minute())
}

func TestAssignmentResolverResolveAllOrdersByDueDay(t *testing.T) {
	r := resolverFixture(t, true,
		homework(0, 9, nil),
		models.Assignment{ID: "l1", Type: "lab", DueDay: intPtr(3)},
		homework(1, 20, nil),
	)

	all, err := r.ResolveAll()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "l1", all[0].Assignment.ID)
	assert.Equal(t, 9, all[1].DueDay)
	assert.Equal(t, 10, all[2].AssignDay)
}
