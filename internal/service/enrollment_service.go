package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fluencyfusion/marketplace-api/internal/models"
	"github.com/fluencyfusion/marketplace-api/internal/repository"
	appErrors "github.com/fluencyfusion/marketplace-api/pkg/errors"
)

type enrollmentRepository interface {
	ListByEmail(ctx context.Context, email string) ([]models.EnrolledCourseDetail, error)
	FindByID(ctx context.Context, id string) (*models.EnrolledCourse, error)
	Exists(ctx context.Context, userEmail, courseID string) (bool, error)
	Create(ctx context.Context, enrollment *models.EnrolledCourse) error
	Delete(ctx context.Context, id string) error
}

type enrollmentCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// EnrollRequest creates a purchase intent for a course seat.
type EnrollRequest struct {
	UserEmail string `json:"user_email" validate:"required,email"`
	CourseID  string `json:"course_id" validate:"required"`
}

// EnrollmentService manages purchase intents.
type EnrollmentService struct {
	repo      enrollmentRepository
	courses   enrollmentCourseReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService creates an instance of EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, courses enrollmentCourseReader, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &EnrollmentService{repo: repo, courses: courses, validator: validate, logger: logger}
}

// ListByEmail returns a user's enrollments with course info.
func (s *EnrollmentService) ListByEmail(ctx context.Context, email string) ([]models.EnrolledCourseDetail, error) {
	enrollments, err := s.repo.ListByEmail(ctx, email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, nil
}

// Enroll records a purchase intent. The target course must exist and be
// approved; duplicate intents for the same user and course are rejected.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (*models.EnrolledCourse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course.Status != models.CourseStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course is not open for enrollment")
	}

	exists, err := s.repo.Exists(ctx, req.UserEmail, req.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "already enrolled in course")
	}

	enrollment := &models.EnrolledCourse{
		UserEmail: req.UserEmail,
		CourseID:  req.CourseID,
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		if errors.Is(err, repository.ErrAlreadyEnrolled) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "already enrolled in course")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}

	s.logger.Info("enrollment created", zap.String("id", enrollment.ID), zap.String("course", enrollment.CourseID))
	return enrollment, nil
}

// Remove deletes a purchase intent. Only the intent's owner may remove it.
func (s *EnrollmentService) Remove(ctx context.Context, id, requesterEmail string) error {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.UserEmail != requesterEmail {
		return appErrors.Clone(appErrors.ErrForbidden, "")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete enrollment")
	}
	return nil
}
