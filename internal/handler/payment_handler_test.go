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
	"github.com/fluencyfusion/marketplace-api/internal/repository"
	"github.com/fluencyfusion/marketplace-api/internal/service"
	"github.com/fluencyfusion/marketplace-api/pkg/export"
)

type paymentRepoFake struct {
	checkoutErr  error
	lastCheckout *models.Payment
	payments     map[string]*models.Payment
	purchases    []models.PurchasedCourseDetail
}

func (f *paymentRepoFake) Checkout(ctx context.Context, payment *models.Payment) (*models.PurchasedCourse, error) {
	f.lastCheckout = payment
	if f.checkoutErr != nil {
		return nil, f.checkoutErr
	}
	payment.ID = "pay-new"
	return &models.PurchasedCourse{ID: "pur-new", UserEmail: payment.UserEmail, CourseID: payment.CourseID, PaymentID: payment.ID}, nil
}

func (f *paymentRepoFake) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	if p, ok := f.payments[id]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

func (f *paymentRepoFake) ListPurchasedByEmail(ctx context.Context, email string) ([]models.PurchasedCourseDetail, error) {
	return f.purchases, nil
}

type intentCreatorFake struct {
	secret string
}

func (f *intentCreatorFake) CreatePaymentIntent(amountCents int64, currency string) (string, error) {
	return f.secret, nil
}

func newPaymentHandler(repo *paymentRepoFake) *PaymentHandler {
	svc := service.NewPaymentService(repo, &intentCreatorFake{secret: "pi_secret"}, export.NewPDFExporter(), nil, nil, nil)
	return NewPaymentHandler(svc)
}

func checkoutPayload() map[string]interface{} {
	return map[string]interface{}{
		"user_email":            "dave@example.com",
		"course_id":             "course-1",
		"enrollment_id":         "enroll-1",
		"amount_cents":          4999,
		"seats_at_purchase":     3,
		"stripe_payment_intent": "pi_123",
	}
}

func TestPaymentHandlerCheckout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &paymentRepoFake{}
	handler := newPaymentHandler(repo)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(t, http.MethodPost, "/payments", checkoutPayload())
	authenticate(c, "dave@example.com")

	handler.Checkout(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "dave@example.com", repo.lastCheckout.UserEmail)
}

func TestPaymentHandlerCheckoutUsesTokenIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &paymentRepoFake{}
	handler := newPaymentHandler(repo)

	payload := checkoutPayload()
	payload["user_email"] = "victim@example.com"

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(t, http.MethodPost, "/payments", payload)
	authenticate(c, "dave@example.com")

	handler.Checkout(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "dave@example.com", repo.lastCheckout.UserEmail)
}

func TestPaymentHandlerCheckoutSoldOut(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &paymentRepoFake{checkoutErr: repository.ErrSoldOut}
	handler := newPaymentHandler(repo)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(t, http.MethodPost, "/payments", checkoutPayload())
	authenticate(c, "dave@example.com")

	handler.Checkout(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "SOLD_OUT", envelope.Error["code"])
}

func TestPaymentHandlerCheckoutUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newPaymentHandler(&paymentRepoFake{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(t, http.MethodPost, "/payments", checkoutPayload())

	handler.Checkout(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPaymentHandlerCreateIntent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newPaymentHandler(&paymentRepoFake{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(t, http.MethodPost, "/create-payment-intent", map[string]int64{"price": 4999})

	handler.CreateIntent(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "pi_secret", envelope.Data["clientSecret"])
}

func TestPaymentHandlerPurchasesMismatchForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newPaymentHandler(&paymentRepoFake{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/purchased?email=victim@example.com", nil)
	authenticate(c, "dave@example.com")

	handler.Purchases(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPaymentHandlerReceipt(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &paymentRepoFake{payments: map[string]*models.Payment{
		"pay-1": {ID: "pay-1", UserEmail: "dave@example.com", CourseID: "course-1", AmountCents: 4999},
	}}
	handler := newPaymentHandler(repo)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/payments/pay-1/receipt", nil)
	c.Params = gin.Params{{Key: "id", Value: "pay-1"}}
	authenticate(c, "dave@example.com")

	handler.Receipt(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Body.Bytes())
}

func TestPaymentHandlerReceiptNotOwnerForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &paymentRepoFake{payments: map[string]*models.Payment{
		"pay-1": {ID: "pay-1", UserEmail: "dave@example.com"},
	}}
	handler := newPaymentHandler(repo)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/payments/pay-1/receipt", nil)
	c.Params = gin.Params{{Key: "id", Value: "pay-1"}}
	authenticate(c, "mallory@example.com")

	handler.Receipt(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
