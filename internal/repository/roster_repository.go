package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-portal-api/internal/models"
)

// RosterRepository handles persistence of courses and enrollments.
type RosterRepository struct {
	db *sqlx.DB
}

// NewRosterRepository constructs the repository.
func NewRosterRepository(db *sqlx.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

// ListCourses returns every stored course.
func (r *RosterRepository) ListCourses(ctx context.Context) ([]models.Course, error) {
	const query = `SELECT subject, faculty, created_at FROM courses ORDER BY subject`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// ListEnrollments returns every enrollment row.
func (r *RosterRepository) ListEnrollments(ctx context.Context) ([]models.Enrollment, error) {
	const query = `SELECT id, student_id, student_name, subject, created_at FROM enrollments ORDER BY subject, student_id`
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}

// FindEnrollmentsByStudent returns the rows for one student.
func (r *RosterRepository) FindEnrollmentsByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	const query = `SELECT id, student_id, student_name, subject, created_at FROM enrollments WHERE student_id = $1 ORDER BY subject`
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID); err != nil {
		return nil, fmt.Errorf("find student enrollments: %w", err)
	}
	return enrollments, nil
}

// MatchStudent performs the portal's case-insensitive substring match on
// roll number and name, returning the first matching row.
func (r *RosterRepository) MatchStudent(ctx context.Context, rollNo, name string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, student_name, subject, created_at FROM enrollments
        WHERE student_id ILIKE '%' || $1 || '%' AND student_name ILIKE '%' || $2 || '%'
        ORDER BY student_id LIMIT 1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, rollNo, name); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// Replace swaps the entire roster inside one transaction. Used by the CSV
// import, which always reloads the full batch.
func (r *RosterRepository) Replace(ctx context.Context, courses []models.Course, enrollments []models.Enrollment) error {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin roster replace: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM enrollments`); err != nil {
		return fmt.Errorf("clear enrollments: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM courses`); err != nil {
		return fmt.Errorf("clear courses: %w", err)
	}

	now := time.Now().UTC()
	for i := range courses {
		if courses[i].CreatedAt.IsZero() {
			courses[i].CreatedAt = now
		}
		if _, err = tx.NamedExecContext(ctx,
			`INSERT INTO courses (subject, faculty, created_at) VALUES (:subject, :faculty, :created_at)`,
			courses[i]); err != nil {
			return fmt.Errorf("insert course %s: %w", courses[i].Subject, err)
		}
	}
	for i := range enrollments {
		if enrollments[i].ID == "" {
			enrollments[i].ID = uuid.NewString()
		}
		if enrollments[i].CreatedAt.IsZero() {
			enrollments[i].CreatedAt = now
		}
		if _, err = tx.NamedExecContext(ctx,
			`INSERT INTO enrollments (id, student_id, student_name, subject, created_at)
             VALUES (:id, :student_id, :student_name, :subject, :created_at)`,
			enrollments[i]); err != nil {
			return fmt.Errorf("insert enrollment: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit roster replace: %w", err)
	}
	return nil
}

// Summary returns aggregate roster counts.
func (r *RosterRepository) Summary(ctx context.Context) (*models.RosterSummary, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM courses) AS courses,
        (SELECT COUNT(DISTINCT student_id) FROM enrollments) AS students,
        (SELECT COUNT(*) FROM enrollments) AS enrollments`
	var summary models.RosterSummary
	row := r.db.QueryRowxContext(ctx, query)
	if err := row.Scan(&summary.Courses, &summary.Students, &summary.Enrollments); err != nil {
		return nil, fmt.Errorf("roster summary: %w", err)
	}
	return &summary, nil
}
