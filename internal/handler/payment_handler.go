package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fluencyfusion/marketplace-api/internal/service"
	appErrors "github.com/fluencyfusion/marketplace-api/pkg/errors"
	"github.com/fluencyfusion/marketplace-api/pkg/response"
)

// PaymentHandler handles payment intents, checkout and receipts.
type PaymentHandler struct {
	service *service.PaymentService
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(svc *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: svc}
}

// CreateIntent godoc
// @Summary Create a payment intent
// @Description Returns the processor client secret for the browser to confirm
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body service.PaymentIntentRequest true "Price payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /create-payment-intent [post]
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	var req service.PaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	secret, err := h.service.CreateIntent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"clientSecret": secret}, nil)
}

// Checkout godoc
// @Summary Complete a purchase
// @Description Atomically records the payment, decrements the seat counter, creates the purchase and deletes the enrollment
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body service.CheckoutRequest true "Payment payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /payments [post]
func (h *PaymentHandler) Checkout(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	// The purchase always belongs to the token identity.
	req.UserEmail = claims.Email

	result, err := h.service.Checkout(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Purchases lists the authenticated user's purchase history.
// GET /purchased
func (h *PaymentHandler) Purchases(c *gin.Context) {
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

	purchases, err := h.service.Purchases(c.Request.Context(), email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, purchases, nil)
}

// Receipt streams a PDF receipt for a payment owned by the caller.
// GET /payments/:id/receipt
func (h *PaymentHandler) Receipt(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	pdf, err := h.service.Receipt(c.Request.Context(), c.Param("id"), claims.Email)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="receipt.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
