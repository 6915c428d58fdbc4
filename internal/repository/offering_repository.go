package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-site-api/internal/models"
)

const offeringColumns = "id, semester_id, code, title, institution, kind, meeting_minutes, meeting_start, location, assignment_times, created_at, updated_at"

const assignmentColumns = "id, offering_id, type, position, title, description, points, due_day, assign_day, anchor_topic_id, due_topic_id, due_topic_end_id, due_offset_days"

// OfferingRepository handles persistence for offerings, their ordered topics,
// pinned entries and assignments.
type OfferingRepository struct {
	db *sqlx.DB
}

// NewOfferingRepository instantiates an offering repository.
func NewOfferingRepository(db *sqlx.DB) *OfferingRepository {
	return &OfferingRepository{db: db}
}

// ListBySemester returns the offerings of a semester ordered by code.
func (r *OfferingRepository) ListBySemester(ctx context.Context, semesterID string) ([]models.Offering, error) {
	query := fmt.Sprintf("SELECT %s FROM offerings WHERE semester_id = $1 ORDER BY code ASC", offeringColumns)
	var offerings []models.Offering
	if err := r.db.SelectContext(ctx, &offerings, query, semesterID); err != nil {
		return nil, fmt.Errorf("list offerings: %w", err)
	}
	return offerings, nil
}

// ListAll returns every offering, used for the availability page.
func (r *OfferingRepository) ListAll(ctx context.Context) ([]models.Offering, error) {
	query := fmt.Sprintf("SELECT %s FROM offerings ORDER BY code ASC", offeringColumns)
	var offerings []models.Offering
	if err := r.db.SelectContext(ctx, &offerings, query); err != nil {
		return nil, fmt.Errorf("list all offerings: %w", err)
	}
	return offerings, nil
}

// FindByID fetches an offering by ID.
func (r *OfferingRepository) FindByID(ctx context.Context, id string) (*models.Offering, error) {
	query := fmt.Sprintf("SELECT %s FROM offerings WHERE id = $1", offeringColumns)
	var offering models.Offering
	if err := r.db.GetContext(ctx, &offering, query, id); err != nil {
		return nil, err
	}
	return &offering, nil
}

// Create inserts a new offering.
func (r *OfferingRepository) Create(ctx context.Context, offering *models.Offering) error {
	if offering.ID == "" {
		offering.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if offering.CreatedAt.IsZero() {
		offering.CreatedAt = now
	}
	offering.UpdatedAt = now
	if offering.AssignmentTimes == nil {
		offering.AssignmentTimes = models.AssignmentTimes{}
	}

	query := `INSERT INTO offerings (` + offeringColumns + `) VALUES (:id, :semester_id, :code, :title, :institution, :kind, :meeting_minutes, :meeting_start, :location, :assignment_times, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, offering); err != nil {
		return fmt.Errorf("create offering: %w", err)
	}
	return nil
}

// Delete removes an offering and everything attached to it.
func (r *OfferingRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM offerings WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete offering: %w", err)
	}
	return nil
}

// ListTopics returns the topics of an offering in queue order.
func (r *OfferingRepository) ListTopics(ctx context.Context, offeringID string) ([]models.CourseTopic, error) {
	const query = `SELECT id, offering_id, position, title, minutes, notes FROM course_topics WHERE offering_id = $1 ORDER BY position ASC`
	var topics []models.CourseTopic
	if err := r.db.SelectContext(ctx, &topics, query, offeringID); err != nil {
		return nil, fmt.Errorf("list course topics: %w", err)
	}
	return topics, nil
}

// ReplaceTopics swaps the ordered topic list of an offering in one transaction.
// Topics that already carry an ID keep it so anchored assignments stay attached.
func (r *OfferingRepository) ReplaceTopics(ctx context.Context, offeringID string, topics []models.CourseTopic) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace topics: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM course_topics WHERE offering_id = $1`, offeringID); err != nil {
		return fmt.Errorf("clear course topics: %w", err)
	}

	const insert = `INSERT INTO course_topics (id, offering_id, position, title, minutes, notes) VALUES ($1, $2, $3, $4, $5, $6)`
	for i := range topics {
		topic := &topics[i]
		if topic.ID == "" {
			topic.ID = uuid.NewString()
		}
		topic.OfferingID = offeringID
		topic.Position = i
		if _, err := tx.ExecContext(ctx, insert, topic.ID, offeringID, topic.Position, topic.Title, topic.Minutes, topic.Notes); err != nil {
			return fmt.Errorf("insert course topic %q: %w", topic.Title, err)
		}
	}

	if err := touchOffering(ctx, tx, offeringID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace topics: %w", err)
	}
	commit = true
	return nil
}

// ListPins returns the pinned entries of an offering ordered by day.
func (r *OfferingRepository) ListPins(ctx context.Context, offeringID string) ([]models.OfferingPin, error) {
	const query = `SELECT id, offering_id, day_index, title, minutes, kind FROM offering_pins WHERE offering_id = $1 ORDER BY day_index ASC, id ASC`
	var pins []models.OfferingPin
	if err := r.db.SelectContext(ctx, &pins, query, offeringID); err != nil {
		return nil, fmt.Errorf("list offering pins: %w", err)
	}
	return pins, nil
}

// AddPin stores a fixed or cancelled entry for one day.
func (r *OfferingRepository) AddPin(ctx context.Context, pin *models.OfferingPin) error {
	if pin.ID == "" {
		pin.ID = uuid.NewString()
	}
	const query = `INSERT INTO offering_pins (id, offering_id, day_index, title, minutes, kind) VALUES (:id, :offering_id, :day_index, :title, :minutes, :kind)`
	if _, err := r.db.NamedExecContext(ctx, query, pin); err != nil {
		return fmt.Errorf("add offering pin: %w", err)
	}
	return nil
}

// ListAssignments returns the assignments of an offering grouped by type and position.
func (r *OfferingRepository) ListAssignments(ctx context.Context, offeringID string) ([]models.Assignment, error) {
	query := fmt.Sprintf("SELECT %s FROM assignments WHERE offering_id = $1 ORDER BY type ASC, position ASC", assignmentColumns)
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, offeringID); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// ReplaceAssignments swaps every assignment of an offering in one transaction.
func (r *OfferingRepository) ReplaceAssignments(ctx context.Context, offeringID string, assignments []models.Assignment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace assignments: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM assignments WHERE offering_id = $1`, offeringID); err != nil {
		return fmt.Errorf("clear assignments: %w", err)
	}

	query := `INSERT INTO assignments (` + assignmentColumns + `) VALUES (:id, :offering_id, :type, :position, :title, :description, :points, :due_day, :assign_day, :anchor_topic_id, :due_topic_id, :due_topic_end_id, :due_offset_days)`
	for i := range assignments {
		assignment := &assignments[i]
		if assignment.ID == "" {
			assignment.ID = uuid.NewString()
		}
		assignment.OfferingID = offeringID
		if _, err := tx.NamedExecContext(ctx, query, assignment); err != nil {
			return fmt.Errorf("insert assignment %q: %w", assignment.Title, err)
		}
	}

	if err := touchOffering(ctx, tx, offeringID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace assignments: %w", err)
	}
	commit = true
	return nil
}

// LoadDetail assembles an offering with its semester, topics, pins and assignments.
func (r *OfferingRepository) LoadDetail(ctx context.Context, offering *models.Offering, semester *models.Semester) (*models.OfferingDetail, error) {
	topics, err := r.ListTopics(ctx, offering.ID)
	if err != nil {
		return nil, err
	}
	pins, err := r.ListPins(ctx, offering.ID)
	if err != nil {
		return nil, err
	}
	assignments, err := r.ListAssignments(ctx, offering.ID)
	if err != nil {
		return nil, err
	}
	return &models.OfferingDetail{
		Offering:    *offering,
		Semester:    *semester,
		Topics:      topics,
		Pins:        pins,
		Assignments: assignments,
	}, nil
}

func touchOffering(ctx context.Context, tx *sqlx.Tx, offeringID string) error {
	if _, err := tx.ExecContext(ctx, `UPDATE offerings SET updated_at = $2 WHERE id = $1`, offeringID, time.Now().UTC()); err != nil {
		return fmt.Errorf("touch offering: %w", err)
	}
	return nil
}
