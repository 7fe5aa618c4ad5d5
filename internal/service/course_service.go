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

const catalogCacheKey = "catalog:approved"

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Patch(ctx context.Context, id string, patch repository.CoursePatch) error
	UpdateFeedback(ctx context.Context, id, feedback string) error
	UpdateStatus(ctx context.Context, id string, status models.CourseStatus) error
}

// SubmitCourseRequest is the instructor submission payload. Status is always
// forced to pending regardless of what the client sends.
type SubmitCourseRequest struct {
	Title           string `json:"title" validate:"required"`
	InstructorName  string `json:"instructor_name" validate:"required"`
	InstructorEmail string `json:"instructor_email" validate:"required,email"`
	PriceCents      int64  `json:"price_cents" validate:"gte=0"`
	AvailableSeats  int    `json:"available_seats" validate:"gte=0"`
	ImageURL        string `json:"image_url"`
	Description     string `json:"description"`
}

// PatchCourseRequest updates listing fields. Nil fields are left untouched.
type PatchCourseRequest struct {
	Title          *string `json:"title"`
	InstructorName *string `json:"instructor_name"`
	PriceCents     *int64  `json:"price_cents" validate:"omitempty,gte=0"`
	AvailableSeats *int    `json:"available_seats" validate:"omitempty,gte=0"`
	ImageURL       *string `json:"image_url"`
	Description    *string `json:"description"`
}

// FeedbackRequest attaches reviewer feedback to a listing.
type FeedbackRequest struct {
	Feedback string `json:"feedback" validate:"required"`
}

// CourseService handles the listing catalog and approval workflow.
type CourseService struct {
	repo      courseRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService creates an instance of CourseService.
func NewCourseService(repo courseRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CourseService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// Catalog returns the approved course catalog, served from cache when warm.
func (s *CourseService) Catalog(ctx context.Context) ([]models.Course, error) {
	var cached []models.Course
	if hit, _ := s.cache.Get(ctx, catalogCacheKey, &cached); hit {
		return cached, nil
	}

	courses, _, err := s.repo.List(ctx, models.CourseFilter{Status: models.CourseStatusApproved})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load catalog")
	}

	s.cache.Set(ctx, catalogCacheKey, courses)
	return courses, nil
}

// List returns courses for review with pagination, any status.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return courses, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// ListByInstructor returns every course owned by the instructor email.
func (s *CourseService) ListByInstructor(ctx context.Context, email string) ([]models.Course, error) {
	courses, _, err := s.repo.List(ctx, models.CourseFilter{InstructorEmail: email})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instructor courses")
	}
	return courses, nil
}

// Get returns a course by ID.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Submit creates a pending listing for review.
func (s *CourseService) Submit(ctx context.Context, req SubmitCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course := &models.Course{
		Title:           req.Title,
		InstructorName:  req.InstructorName,
		InstructorEmail: req.InstructorEmail,
		PriceCents:      req.PriceCents,
		AvailableSeats:  req.AvailableSeats,
		Status:          models.CourseStatusPending,
		ImageURL:        req.ImageURL,
		Description:     req.Description,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}

	s.logger.Info("course submitted", zap.String("id", course.ID), zap.String("instructor", course.InstructorEmail))
	return course, nil
}

// Patch updates listing fields and invalidates the catalog cache.
func (s *CourseService) Patch(ctx context.Context, id string, req PatchCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid patch payload")
	}

	patch := repository.CoursePatch{
		Title:          req.Title,
		InstructorName: req.InstructorName,
		PriceCents:     req.PriceCents,
		AvailableSeats: req.AvailableSeats,
		ImageURL:       req.ImageURL,
		Description:    req.Description,
	}
	if err := s.repo.Patch(ctx, id, patch); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to patch course")
	}

	s.cache.Invalidate(ctx, catalogCacheKey)
	return s.Get(ctx, id)
}

// SetFeedback attaches reviewer feedback to a listing.
func (s *CourseService) SetFeedback(ctx context.Context, id string, req FeedbackRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid feedback payload")
	}

	if err := s.repo.UpdateFeedback(ctx, id, req.Feedback); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set feedback")
	}
	return s.Get(ctx, id)
}

// SetStatus transitions a pending course to approved or denied.
func (s *CourseService) SetStatus(ctx context.Context, id string, status models.CourseStatus) (*models.Course, error) {
	if status != models.CourseStatusApproved && status != models.CourseStatusDenied {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown status")
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		case errors.Is(err, repository.ErrInvalidTransition):
			return nil, appErrors.Clone(appErrors.ErrConflict, "course is not pending review")
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update status")
		}
	}

	s.cache.Invalidate(ctx, catalogCacheKey)
	s.logger.Info("course reviewed", zap.String("id", id), zap.String("status", string(status)))
	return s.Get(ctx, id)
}
