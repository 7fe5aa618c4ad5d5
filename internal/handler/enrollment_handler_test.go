package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/fluencyfusion/marketplace-api/internal/models"
	"github.com/fluencyfusion/marketplace-api/internal/service"
)

type enrollmentRepoFake struct {
	enrollments map[string]*models.EnrolledCourse
	existing    map[string]bool
	created     []*models.EnrolledCourse
	deleted     []string
}

func (f *enrollmentRepoFake) ListByEmail(ctx context.Context, email string) ([]models.EnrolledCourseDetail, error) {
	var result []models.EnrolledCourseDetail
	for _, e := range f.enrollments {
		if e.UserEmail == email {
			result = append(result, models.EnrolledCourseDetail{EnrolledCourse: *e})
		}
	}
	return result, nil
}

func (f *enrollmentRepoFake) FindByID(ctx context.Context, id string) (*models.EnrolledCourse, error) {
	if e, ok := f.enrollments[id]; ok {
		return e, nil
	}
	return nil, sql.ErrNoRows
}

func (f *enrollmentRepoFake) Exists(ctx context.Context, userEmail, courseID string) (bool, error) {
	return f.existing[userEmail+"|"+courseID], nil
}

func (f *enrollmentRepoFake) Create(ctx context.Context, enrollment *models.EnrolledCourse) error {
	enrollment.ID = "enroll-new"
	f.created = append(f.created, enrollment)
	return nil
}

func (f *enrollmentRepoFake) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type courseReaderFake struct {
	courses map[string]*models.Course
}

func (f courseReaderFake) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := f.courses[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func newEnrollmentHandler(repo *enrollmentRepoFake) *EnrollmentHandler {
	reader := courseReaderFake{courses: map[string]*models.Course{
		"course-1": {ID: "course-1", Status: models.CourseStatusApproved},
	}}
	return NewEnrollmentHandler(service.NewEnrollmentService(repo, reader, nil, nil))
}

func TestEnrollmentHandlerEnrollUsesTokenIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &enrollmentRepoFake{}
	handler := newEnrollmentHandler(repo)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(t, http.MethodPost, "/enrolled", map[string]string{
		"user_email": "victim@example.com",
		"course_id":  "course-1",
	})
	authenticate(c, "dave@example.com")

	handler.Enroll(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "dave@example.com", repo.created[0].UserEmail)
}

func TestEnrollmentHandlerEnrollDuplicateConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &enrollmentRepoFake{existing: map[string]bool{"dave@example.com|course-1": true}}
	handler := newEnrollmentHandler(repo)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(t, http.MethodPost, "/enrolled", map[string]string{"course_id": "course-1"})
	authenticate(c, "dave@example.com")

	handler.Enroll(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestEnrollmentHandlerListMismatchForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newEnrollmentHandler(&enrollmentRepoFake{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/enrolled?email=victim@example.com", nil)
	authenticate(c, "dave@example.com")

	handler.List(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestEnrollmentHandlerListRequiresEmail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newEnrollmentHandler(&enrollmentRepoFake{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/enrolled", nil)
	authenticate(c, "dave@example.com")

	handler.List(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEnrollmentHandlerRemove(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &enrollmentRepoFake{enrollments: map[string]*models.EnrolledCourse{
		"enroll-1": {ID: "enroll-1", UserEmail: "dave@example.com", CourseID: "course-1"},
	}}
	handler := newEnrollmentHandler(repo)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/enrolled/enroll-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "enroll-1"}}
	authenticate(c, "dave@example.com")

	handler.Remove(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"enroll-1"}, repo.deleted)
}

func TestEnrollmentHandlerRemoveForeignForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &enrollmentRepoFake{enrollments: map[string]*models.EnrolledCourse{
		"enroll-1": {ID: "enroll-1", UserEmail: "victim@example.com", CourseID: "course-1"},
	}}
	handler := newEnrollmentHandler(repo)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/enrolled/enroll-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "enroll-1"}}
	authenticate(c, "mallory@example.com")

	handler.Remove(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, repo.deleted)
}

func TestEnrollmentHandlerRemoveRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newEnrollmentHandler(&enrollmentRepoFake{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/enrolled/enroll-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "enroll-1"}}

	handler.Remove(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
