package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-site-api/internal/models"
)

func TestOfferingRepositoryFindByIDScansArrays(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOfferingRepository(db)

	rows := sqlmock.NewRows([]string{"id", "semester_id", "code", "title", "institution", "kind", "meeting_minutes", "meeting_start", "location", "assignment_times", "created_at", "updated_at"}).
		AddRow("o1", "s1", "CS 2220", "Computer Hardware", "PLYMOUTH", "COURSE", "{0,50,0,50,0,50,0}", "10:00", "Hyde 222", []byte(`{"homework":{"assign":"10:00","due":"17:00"}}`), time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM offerings WHERE id = $1")).
		WithArgs("o1").
		WillReturnRows(rows)

	offering, err := repo.FindByID(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, models.InstitutionPlymouth, offering.Institution)
	assert.Equal(t, 50, offering.MeetingMinutes.For(time.Wednesday))
	assert.Equal(t, 150, offering.MeetingMinutes.Total())
	assert.Equal(t, "17:00", offering.AssignmentTimes.For("Homework").Due)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferingRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOfferingRepository(db)

	mock.ExpectExec("INSERT INTO offerings").
		WillReturnResult(sqlmock.NewResult(1, 1))

	offering := &models.Offering{SemesterID: "s1", Code: "CS 2220", Title: "Computer Hardware", MeetingMinutes: models.MeetingMinutes{0, 75, 0, 75}}
	require.NoError(t, repo.Create(context.Background(), offering))
	assert.NotEmpty(t, offering.ID)
	assert.NotNil(t, offering.AssignmentTimes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferingRepositoryReplaceTopicsKeepsIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOfferingRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM course_topics WHERE offering_id = $1")).
		WithArgs("o1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO course_topics").
		WithArgs("t-keep", "o1", 0, "Number systems", 40, "").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO course_topics").
		WithArgs(sqlmock.AnyArg(), "o1", 1, "Logic gates", 60, "").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE offerings SET updated_at").
		WithArgs("o1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	topics := []models.CourseTopic{
		{ID: "t-keep", Title: "Number systems", Minutes: 40},
		{Title: "Logic gates", Minutes: 60},
	}
	require.NoError(t, repo.ReplaceTopics(context.Background(), "o1", topics))
	assert.Equal(t, "t-keep", topics[0].ID)
	assert.NotEmpty(t, topics[1].ID)
	assert.Equal(t, 1, topics[1].Position)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferingRepositoryReplaceAssignmentsRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOfferingRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM assignments WHERE offering_id = $1")).
		WithArgs("o1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO assignments").
		WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	due := 4
	err := repo.ReplaceAssignments(context.Background(), "o1", []models.Assignment{{Type: "homework", Title: "Homework 1", DueDay: &due}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Homework 1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferingRepositoryLoadDetail(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOfferingRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM course_topics WHERE offering_id = $1")).
		WithArgs("o1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "offering_id", "position", "title", "minutes", "notes"}).
			AddRow("t1", "o1", 0, "Number systems", 40, ""))
	mock.ExpectQuery(regexp.QuoteMeta("FROM offering_pins WHERE offering_id = $1")).
		WithArgs("o1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "offering_id", "day_index", "title", "minutes", "kind"}).
			AddRow("p1", "o1", 4, "Quiz 1", 20, "FIXED"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM assignments WHERE offering_id = $1")).
		WithArgs("o1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "offering_id", "type", "position", "title", "description", "points", "due_day", "assign_day", "anchor_topic_id", "due_topic_id", "due_topic_end_id", "due_offset_days"}).
			AddRow("a1", "o1", "homework", 0, "Homework 1", "", 10.0, 4, nil, nil, nil, nil, 0))

	offering := &models.Offering{ID: "o1"}
	semester := &models.Semester{ID: "s1", FirstDay: time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)}
	detail, err := repo.LoadDetail(context.Background(), offering, semester)
	require.NoError(t, err)
	require.Len(t, detail.Topics, 1)
	require.Len(t, detail.Pins, 1)
	assert.Equal(t, models.PinKindFixed, detail.Pins[0].Kind)
	require.Len(t, detail.Assignments, 1)
	require.NotNil(t, detail.Assignments[0].DueDay)
	assert.Equal(t, 4, *detail.Assignments[0].DueDay)
	assert.Nil(t, detail.Assignments[0].AssignDay)
	assert.Equal(t, "s1", detail.Semester.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
