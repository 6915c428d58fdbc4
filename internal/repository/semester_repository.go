package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/course-site-api/internal/models"
)

const dateLayout = "2006-01-02"

const semesterColumns = "id, title, first_day, timezone, reading_days, week_count, created_at, updated_at"

// SemesterRepository handles persistence for semesters and their cancelled days.
type SemesterRepository struct {
	db *sqlx.DB
}

// NewSemesterRepository instantiates a semester repository.
func NewSemesterRepository(db *sqlx.DB) *SemesterRepository {
	return &SemesterRepository{db: db}
}

type semesterRow struct {
	models.Semester
	ReadingDays pq.StringArray `db:"reading_days"`
}

func (row semesterRow) toModel() (models.Semester, error) {
	semester := row.Semester
	semester.ReadingDays = make([]time.Time, 0, len(row.ReadingDays))
	for _, raw := range row.ReadingDays {
		day, err := time.Parse(dateLayout, raw)
		if err != nil {
			return models.Semester{}, fmt.Errorf("parse reading day %q: %w", raw, err)
		}
		semester.ReadingDays = append(semester.ReadingDays, day)
	}
	return semester, nil
}

// List returns semesters matching provided filters, newest first by default.
func (r *SemesterRepository) List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, int, error) {
	base := "FROM semesters WHERE 1=1"
	var args []interface{}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		base += fmt.Sprintf(" AND title ILIKE $%d", len(args))
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY first_day %s LIMIT %d OFFSET %d", semesterColumns, base, order, size, offset)
	var rows []semesterRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list semesters: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count semesters: %w", err)
	}

	semesters := make([]models.Semester, 0, len(rows))
	for _, row := range rows {
		semester, err := row.toModel()
		if err != nil {
			return nil, 0, err
		}
		semesters = append(semesters, semester)
	}
	return semesters, total, nil
}

// FindByID loads a semester together with its cancellations.
func (r *SemesterRepository) FindByID(ctx context.Context, id string) (*models.Semester, error) {
	query := fmt.Sprintf("SELECT %s FROM semesters WHERE id = $1", semesterColumns)
	var row semesterRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	semester, err := row.toModel()
	if err != nil {
		return nil, err
	}

	cancellations, err := r.ListCancellations(ctx, id)
	if err != nil {
		return nil, err
	}
	semester.Cancellations = cancellations
	return &semester, nil
}

// Create inserts a new semester record.
func (r *SemesterRepository) Create(ctx context.Context, semester *models.Semester) error {
	if semester.ID == "" {
		semester.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if semester.CreatedAt.IsZero() {
		semester.CreatedAt = now
	}
	semester.UpdatedAt = now

	readings := make(pq.StringArray, 0, len(semester.ReadingDays))
	for _, day := range semester.ReadingDays {
		readings = append(readings, day.Format(dateLayout))
	}

	const query = `INSERT INTO semesters (id, title, first_day, timezone, reading_days, week_count, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := r.db.ExecContext(ctx, query,
		semester.ID,
		semester.Title,
		semester.FirstDay.Format(dateLayout),
		semester.Timezone,
		readings,
		semester.WeekOverride,
		semester.CreatedAt,
		semester.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create semester: %w", err)
	}
	return nil
}

// Delete removes a semester; offerings and cancellations cascade.
func (r *SemesterRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM semesters WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete semester: %w", err)
	}
	return nil
}

// ListCancellations returns the cancelled days of a semester in date order.
func (r *SemesterRepository) ListCancellations(ctx context.Context, semesterID string) ([]models.SemesterCancellation, error) {
	const query = `SELECT id, semester_id, date, reason FROM semester_cancellations WHERE semester_id = $1 ORDER BY date ASC`
	var cancellations []models.SemesterCancellation
	if err := r.db.SelectContext(ctx, &cancellations, query, semesterID); err != nil {
		return nil, fmt.Errorf("list semester cancellations: %w", err)
	}
	return cancellations, nil
}

// AddCancellation records a cancelled day, replacing the reason when the day is already cancelled.
func (r *SemesterRepository) AddCancellation(ctx context.Context, cancellation *models.SemesterCancellation) error {
	if cancellation.ID == "" {
		cancellation.ID = uuid.NewString()
	}
	const query = `INSERT INTO semester_cancellations (id, semester_id, date, reason) VALUES ($1, $2, $3, $4)
ON CONFLICT (semester_id, date) DO UPDATE SET reason = EXCLUDED.reason`
	if _, err := r.db.ExecContext(ctx, query, cancellation.ID, cancellation.SemesterID, cancellation.Date.Format(dateLayout), cancellation.Reason); err != nil {
		return fmt.Errorf("add semester cancellation: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `UPDATE semesters SET updated_at = $2 WHERE id = $1`, cancellation.SemesterID, time.Now().UTC()); err != nil {
		return fmt.Errorf("touch semester: %w", err)
	}
	return nil
}
