package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/fluencyfusion/marketplace-api/internal/models"
)

// EnrollmentRepository handles persistence of purchase intents.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// ListByEmail returns a user's enrollments joined with course info.
func (r *EnrollmentRepository) ListByEmail(ctx context.Context, email string) ([]models.EnrolledCourseDetail, error) {
	const query = `SELECT e.id, e.user_email, e.course_id, e.created_at,
        c.title AS course_title, c.instructor_name, c.instructor_email, c.price_cents, c.available_seats
        FROM enrolled_courses e
        JOIN courses c ON c.id = e.course_id
        WHERE e.user_email = $1
        ORDER BY e.created_at DESC`
	var enrollments []models.EnrolledCourseDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, email); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.EnrolledCourse, error) {
	const query = `SELECT id, user_email, course_id, created_at FROM enrolled_courses WHERE id = $1`
	var enrollment models.EnrolledCourse
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find enrollment by id: %w", err)
	}
	return &enrollment, nil
}

// Exists checks for an active intent for the user and course.
func (r *EnrollmentRepository) Exists(ctx context.Context, userEmail, courseID string) (bool, error) {
	const query = `SELECT 1 FROM enrolled_courses WHERE user_email = $1 AND course_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, userEmail, courseID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return true, nil
}

// Create persists a new enrollment intent.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.EnrolledCourse) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO enrolled_courses (id, user_email, course_id, created_at)
        VALUES (:id, :user_email, :course_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return ErrAlreadyEnrolled
		}
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// Delete removes an enrollment intent.
func (r *EnrollmentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM enrolled_courses WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	return nil
}
