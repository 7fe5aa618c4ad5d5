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

type userRepoFake struct {
	byEmail map[string]*models.User
	byID    map[string]*models.User
	roles   map[string]models.UserRole
	created []*models.User
}

func (f *userRepoFake) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var users []models.User
	for _, u := range f.byEmail {
		users = append(users, *u)
	}
	return users, len(users), nil
}

func (f *userRepoFake) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (f *userRepoFake) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (f *userRepoFake) RoleByEmail(ctx context.Context, email string) (models.UserRole, error) {
	if role, ok := f.roles[email]; ok {
		return role, nil
	}
	return models.RoleNone, sql.ErrNoRows
}

func (f *userRepoFake) Create(ctx context.Context, user *models.User) error {
	f.created = append(f.created, user)
	return nil
}

func (f *userRepoFake) SetRole(ctx context.Context, id string, role models.UserRole) error {
	u, ok := f.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.Role = role
	return nil
}

func (f *userRepoFake) Delete(ctx context.Context, id string) error {
	return nil
}

func newUserHandler(repo *userRepoFake) *UserHandler {
	return NewUserHandler(service.NewUserService(repo, nil, nil))
}

func TestUserHandlerRegisterCreated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newUserHandler(&userRepoFake{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(t, http.MethodPost, "/users", map[string]string{
		"email":     "alice@example.com",
		"full_name": "Alice",
	})

	handler.Register(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "alice@example.com", envelope.Data["email"])
}

func TestUserHandlerRegisterDuplicateAnswers200(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &userRepoFake{byEmail: map[string]*models.User{
		"alice@example.com": {ID: "user-1", Email: "alice@example.com"},
	}}
	handler := newUserHandler(repo)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(t, http.MethodPost, "/users", map[string]string{
		"email":     "alice@example.com",
		"full_name": "Alice",
	})

	handler.Register(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "User already exist", envelope.Data["message"])
	assert.Empty(t, repo.created)
}

func TestUserHandlerRegisterInvalidPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newUserHandler(&userRepoFake{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(t, http.MethodPost, "/users", map[string]string{"email": "not-an-email"})

	handler.Register(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserHandlerCheckAdminMatchingIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &userRepoFake{roles: map[string]models.UserRole{"alice@example.com": models.RoleAdmin}}
	handler := newUserHandler(repo)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/users/admin/alice@example.com", nil)
	c.Params = gin.Params{{Key: "email", Value: "alice@example.com"}}
	authenticate(c, "alice@example.com")

	handler.CheckAdmin(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, true, envelope.Data["admin"])
}

func TestUserHandlerCheckAdminMismatchAnswersFalseNot403(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &userRepoFake{roles: map[string]models.UserRole{"alice@example.com": models.RoleAdmin}}
	handler := newUserHandler(repo)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/users/admin/alice@example.com", nil)
	c.Params = gin.Params{{Key: "email", Value: "alice@example.com"}}
	authenticate(c, "mallory@example.com")

	handler.CheckAdmin(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, false, envelope.Data["admin"])
}

func TestUserHandlerCheckInstructorNonInstructor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newUserHandler(&userRepoFake{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/users/instructor/bob@example.com", nil)
	c.Params = gin.Params{{Key: "email", Value: "bob@example.com"}}
	authenticate(c, "bob@example.com")

	handler.CheckInstructor(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, false, envelope.Data["instructor"])
}

func TestUserHandlerCheckAdminUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newUserHandler(&userRepoFake{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/users/admin/alice@example.com", nil)
	c.Params = gin.Params{{Key: "email", Value: "alice@example.com"}}

	handler.CheckAdmin(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserHandlerPromoteAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &userRepoFake{byID: map[string]*models.User{"user-1": {ID: "user-1", Email: "bob@example.com"}}}
	handler := newUserHandler(repo)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPatch, "/users/admin/user-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "user-1"}}

	handler.PromoteAdmin(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "admin", envelope.Data["role"])
}

func TestUserHandlerPromoteUnknownUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newUserHandler(&userRepoFake{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPatch, "/users/instructor/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.PromoteInstructor(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
