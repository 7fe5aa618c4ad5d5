package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fluencyfusion/marketplace-api/internal/models"
	"github.com/fluencyfusion/marketplace-api/internal/service"
	appErrors "github.com/fluencyfusion/marketplace-api/pkg/errors"
	"github.com/fluencyfusion/marketplace-api/pkg/response"
)

// CourseHandler handles the catalog and approval workflow endpoints.
type CourseHandler struct {
	service *service.CourseService
}

// NewCourseHandler creates a new course handler.
func NewCourseHandler(svc *service.CourseService) *CourseHandler {
	return &CourseHandler{service: svc}
}

// Catalog godoc
// @Summary Public course catalog
// @Description Lists approved courses only
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) Catalog(c *gin.Context) {
	courses, err := h.service.Catalog(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// ListAll godoc
// @Summary List courses of any status
// @Description Review listing for admins
// @Tags Courses
// @Produce json
// @Param status query string false "Status filter"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /courses/all [get]
func (h *CourseHandler) ListAll(c *gin.Context) {
	var filter models.CourseFilter
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}
	filter.Status = models.CourseStatus(c.Query("status"))
	filter.SortBy = c.Query("sort_by")
	filter.SortOrder = c.Query("sort_order")

	courses, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, pagination)
}

// ListByInstructor godoc
// @Summary List an instructor's own courses
// @Description The email query param must match the token identity
// @Tags Courses
// @Produce json
// @Param email query string true "Instructor email"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /coursesByEmail [get]
func (h *CourseHandler) ListByInstructor(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	email := c.Query("email")
	if email == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "email query param is required"))
		return
	}
	// Data-access convention: identity mismatch is a hard 403 here.
	if email != claims.Email {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	courses, err := h.service.ListByInstructor(c.Request.Context(), email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// Submit godoc
// @Summary Submit a course listing
// @Description Creates a listing with status pending
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body service.SubmitCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.SubmitCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	// A listing always belongs to the submitting instructor.
	if req.InstructorEmail != claims.Email {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	course, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Patch updates listing fields on a course owned by the caller.
// PATCH /courses/:id
func (h *CourseHandler) Patch(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	id := c.Param("id")
	course, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if course.InstructorEmail != claims.Email {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	var req service.PatchCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	updated, err := h.service.Patch(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated, nil)
}

// SetFeedback attaches reviewer feedback.
// PATCH /courses/feedback/:id
func (h *CourseHandler) SetFeedback(c *gin.Context) {
	var req service.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	course, err := h.service.SetFeedback(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Approve transitions a pending course to approved.
// PATCH /courses/approve/:id
func (h *CourseHandler) Approve(c *gin.Context) {
	h.setStatus(c, models.CourseStatusApproved)
}

// Deny transitions a pending course to denied.
// PATCH /courses/denied/:id
func (h *CourseHandler) Deny(c *gin.Context) {
	h.setStatus(c, models.CourseStatusDenied)
}

func (h *CourseHandler) setStatus(c *gin.Context, status models.CourseStatus) {
	course, err := h.service.SetStatus(c.Request.Context(), c.Param("id"), status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}
