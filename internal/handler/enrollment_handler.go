package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fluencyfusion/marketplace-api/internal/service"
	appErrors "github.com/fluencyfusion/marketplace-api/pkg/errors"
	"github.com/fluencyfusion/marketplace-api/pkg/response"
)

// EnrollmentHandler handles purchase intent endpoints.
type EnrollmentHandler struct {
	service *service.EnrollmentService
}

// NewEnrollmentHandler creates a new enrollment handler.
func NewEnrollmentHandler(svc *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: svc}
}

// List godoc
// @Summary List a user's enrollments
// @Description The email query param must match the token identity
// @Tags Enrollments
// @Produce json
// @Param email query string true "User email"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /enrolled [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
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
	if email != claims.Email {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	enrollments, err := h.service.ListByEmail(c.Request.Context(), email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, nil)
}

// Enroll records a purchase intent for the authenticated user.
// POST /enrolled
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	// The intent always belongs to the token identity.
	req.UserEmail = claims.Email

	enrollment, err := h.service.Enroll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// Remove deletes a purchase intent owned by the authenticated user.
// DELETE /enrolled/:id
func (h *EnrollmentHandler) Remove(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Remove(c.Request.Context(), c.Param("id"), claims.Email); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
