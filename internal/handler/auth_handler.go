package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fluencyfusion/marketplace-api/internal/models"
	"github.com/fluencyfusion/marketplace-api/internal/service"
	appErrors "github.com/fluencyfusion/marketplace-api/pkg/errors"
	"github.com/fluencyfusion/marketplace-api/pkg/response"
)

// AuthHandler issues bearer tokens.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// IssueToken godoc
// @Summary Issue a bearer token
// @Description Signs a token embedding the asserted email identity
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.TokenRequest true "Identity payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /jwt [post]
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req models.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	token, err := h.service.IssueToken(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, token, nil)
}
