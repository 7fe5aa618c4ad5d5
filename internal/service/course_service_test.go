package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluencyfusion/marketplace-api/internal/models"
	"github.com/fluencyfusion/marketplace-api/internal/repository"
	appErrors "github.com/fluencyfusion/marketplace-api/pkg/errors"
)

type courseRepoStub struct {
	courses map[string]*models.Course
	listErr error
}

func (s *courseRepoStub) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	if s.listErr != nil {
		return nil, 0, s.listErr
	}
	var result []models.Course
	for _, c := range s.courses {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.InstructorEmail != "" && c.InstructorEmail != filter.InstructorEmail {
			continue
		}
		result = append(result, *c)
	}
	return result, len(result), nil
}

func (s *courseRepoStub) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := s.courses[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *courseRepoStub) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = "course-new"
	}
	if s.courses == nil {
		s.courses = make(map[string]*models.Course)
	}
	s.courses[course.ID] = course
	return nil
}

func (s *courseRepoStub) Patch(ctx context.Context, id string, patch repository.CoursePatch) error {
	c, ok := s.courses[id]
	if !ok {
		return sql.ErrNoRows
	}
	if patch.Title != nil {
		c.Title = *patch.Title
	}
	if patch.PriceCents != nil {
		c.PriceCents = *patch.PriceCents
	}
	if patch.AvailableSeats != nil {
		c.AvailableSeats = *patch.AvailableSeats
	}
	return nil
}

func (s *courseRepoStub) UpdateFeedback(ctx context.Context, id, feedback string) error {
	c, ok := s.courses[id]
	if !ok {
		return sql.ErrNoRows
	}
	c.Feedback = &feedback
	return nil
}

func (s *courseRepoStub) UpdateStatus(ctx context.Context, id string, status models.CourseStatus) error {
	c, ok := s.courses[id]
	if !ok {
		return sql.ErrNoRows
	}
	if c.Status != models.CourseStatusPending {
		return repository.ErrInvalidTransition
	}
	c.Status = status
	return nil
}

func pendingCourse(id string) *models.Course {
	return &models.Course{
		ID:              id,
		Title:           "Spanish 101",
		InstructorName:  "Elena",
		InstructorEmail: "elena@example.com",
		PriceCents:      4999,
		AvailableSeats:  10,
		Status:          models.CourseStatusPending,
	}
}

func TestCourseServiceCatalogListsApprovedOnly(t *testing.T) {
	repo := &courseRepoStub{courses: map[string]*models.Course{
		"course-1": {ID: "course-1", Status: models.CourseStatusApproved},
		"course-2": {ID: "course-2", Status: models.CourseStatusPending},
	}}
	svc := NewCourseService(repo, nil, nil, nil)

	courses, err := svc.Catalog(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "course-1", courses[0].ID)
}

func TestCourseServiceSubmitForcesPending(t *testing.T) {
	repo := &courseRepoStub{}
	svc := NewCourseService(repo, nil, nil, nil)

	course, err := svc.Submit(context.Background(), SubmitCourseRequest{
		Title:           "Spanish 101",
		InstructorName:  "Elena",
		InstructorEmail: "elena@example.com",
		PriceCents:      4999,
		AvailableSeats:  10,
	})
	require.NoError(t, err)
	assert.Equal(t, models.CourseStatusPending, course.Status)
}

func TestCourseServiceSubmitRejectsNegativePrice(t *testing.T) {
	svc := NewCourseService(&courseRepoStub{}, nil, nil, nil)

	_, err := svc.Submit(context.Background(), SubmitCourseRequest{
		Title:           "Spanish 101",
		InstructorName:  "Elena",
		InstructorEmail: "elena@example.com",
		PriceCents:      -1,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCourseServiceApprovePendingCourse(t *testing.T) {
	repo := &courseRepoStub{courses: map[string]*models.Course{"course-1": pendingCourse("course-1")}}
	svc := NewCourseService(repo, nil, nil, nil)

	course, err := svc.SetStatus(context.Background(), "course-1", models.CourseStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, models.CourseStatusApproved, course.Status)
}

func TestCourseServiceDenyPendingCourse(t *testing.T) {
	repo := &courseRepoStub{courses: map[string]*models.Course{"course-1": pendingCourse("course-1")}}
	svc := NewCourseService(repo, nil, nil, nil)

	course, err := svc.SetStatus(context.Background(), "course-1", models.CourseStatusDenied)
	require.NoError(t, err)
	assert.Equal(t, models.CourseStatusDenied, course.Status)
}

func TestCourseServiceSetStatusRejectsNonPending(t *testing.T) {
	approved := pendingCourse("course-1")
	approved.Status = models.CourseStatusApproved
	repo := &courseRepoStub{courses: map[string]*models.Course{"course-1": approved}}
	svc := NewCourseService(repo, nil, nil, nil)

	_, err := svc.SetStatus(context.Background(), "course-1", models.CourseStatusDenied)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCourseServiceSetStatusUnknownStatus(t *testing.T) {
	svc := NewCourseService(&courseRepoStub{}, nil, nil, nil)

	_, err := svc.SetStatus(context.Background(), "course-1", models.CourseStatus("archived"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCourseServiceSetStatusNotFound(t *testing.T) {
	svc := NewCourseService(&courseRepoStub{}, nil, nil, nil)

	_, err := svc.SetStatus(context.Background(), "missing", models.CourseStatusApproved)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCourseServicePatch(t *testing.T) {
	repo := &courseRepoStub{courses: map[string]*models.Course{"course-1": pendingCourse("course-1")}}
	svc := NewCourseService(repo, nil, nil, nil)

	title := "Spanish 201"
	price := int64(5999)
	course, err := svc.Patch(context.Background(), "course-1", PatchCourseRequest{Title: &title, PriceCents: &price})
	require.NoError(t, err)
	assert.Equal(t, "Spanish 201", course.Title)
	assert.Equal(t, int64(5999), course.PriceCents)
}

func TestCourseServiceSetFeedback(t *testing.T) {
	repo := &courseRepoStub{courses: map[string]*models.Course{"course-1": pendingCourse("course-1")}}
	svc := NewCourseService(repo, nil, nil, nil)

	course, err := svc.SetFeedback(context.Background(), "course-1", FeedbackRequest{Feedback: "needs a syllabus"})
	require.NoError(t, err)
	require.NotNil(t, course.Feedback)
	assert.Equal(t, "needs a syllabus", *course.Feedback)
}

func TestCourseServiceListByInstructor(t *testing.T) {
	repo := &courseRepoStub{courses: map[string]*models.Course{
		"course-1": pendingCourse("course-1"),
		"course-2": {ID: "course-2", InstructorEmail: "other@example.com"},
	}}
	svc := NewCourseService(repo, nil, nil, nil)

	courses, err := svc.ListByInstructor(context.Background(), "elena@example.com")
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "course-1", courses[0].ID)
}
