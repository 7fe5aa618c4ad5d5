package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fluencyfusion/marketplace-api/internal/models"
	"github.com/fluencyfusion/marketplace-api/internal/repository"
	appErrors "github.com/fluencyfusion/marketplace-api/pkg/errors"
	"github.com/fluencyfusion/marketplace-api/pkg/export"
)

type paymentRepository interface {
	Checkout(ctx context.Context, payment *models.Payment) (*models.PurchasedCourse, error)
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	ListPurchasedByEmail(ctx context.Context, email string) ([]models.PurchasedCourseDetail, error)
}

type paymentIntentCreator interface {
	CreatePaymentIntent(amountCents int64, currency string) (string, error)
}

type receiptRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// CheckoutRequest is the payment submission payload. SeatsAtPurchase is the
// seat count the client last saw; it is stored on the audit record only.
type CheckoutRequest struct {
	UserEmail           string `json:"user_email" validate:"required,email"`
	CourseID            string `json:"course_id" validate:"required"`
	EnrollmentID        string `json:"enrollment_id" validate:"required"`
	AmountCents         int64  `json:"amount_cents" validate:"gte=0"`
	SeatsAtPurchase     int    `json:"seats_at_purchase" validate:"gte=0"`
	StripePaymentIntent string `json:"stripe_payment_intent"`
}

// PaymentIntentRequest asks the processor for a client secret.
type PaymentIntentRequest struct {
	PriceCents int64 `json:"price" validate:"required,gt=0"`
}

// CheckoutResult reports the committed purchase and its audit record.
type CheckoutResult struct {
	Payment   *models.Payment         `json:"payment"`
	Purchased *models.PurchasedCourse `json:"purchased"`
}

// PaymentService coordinates the enrollment-to-purchase conversion.
type PaymentService struct {
	repo      paymentRepository
	intents   paymentIntentCreator
	receipts  receiptRenderer
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPaymentService creates an instance of PaymentService.
func NewPaymentService(repo paymentRepository, intents paymentIntentCreator, receipts receiptRenderer, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &PaymentService{repo: repo, intents: intents, receipts: receipts, metrics: metrics, validator: validate, logger: logger}
}

// CreateIntent creates a processor payment intent and returns its client
// secret for the browser to confirm.
func (s *PaymentService) CreateIntent(ctx context.Context, req PaymentIntentRequest) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment intent payload")
	}
	if s.intents == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "payment processor is not configured")
	}

	secret, err := s.intents.CreatePaymentIntent(req.PriceCents, "")
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create payment intent")
	}
	return secret, nil
}

// Checkout records the payment and converts the enrollment into a purchase.
// All four writes commit atomically; on any failure nothing is persisted.
func (s *PaymentService) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}

	payment := &models.Payment{
		UserEmail:           req.UserEmail,
		CourseID:            req.CourseID,
		EnrollmentID:        req.EnrollmentID,
		AmountCents:         req.AmountCents,
		SeatsAtPurchase:     req.SeatsAtPurchase,
		StripePaymentIntent: req.StripePaymentIntent,
	}

	start := time.Now()
	purchase, err := s.repo.Checkout(ctx, payment)
	s.observeQuery("checkout", time.Since(start))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrSoldOut):
			s.recordCheckout("sold_out")
			return nil, appErrors.Clone(appErrors.ErrSoldOut, "")
		case errors.Is(err, repository.ErrAlreadyPurchased):
			s.recordCheckout("duplicate")
			return nil, appErrors.Clone(appErrors.ErrConflict, "course already purchased")
		case errors.Is(err, repository.ErrEnrollmentMismatch):
			s.recordCheckout("mismatch")
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		case errors.Is(err, sql.ErrNoRows):
			s.recordCheckout("not_found")
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		default:
			s.recordCheckout("failed")
			s.logger.Error("checkout failed", zap.String("course", req.CourseID), zap.Error(err))
			return nil, appErrors.Wrap(err, appErrors.ErrPurchaseFailed.Code, appErrors.ErrPurchaseFailed.Status, appErrors.ErrPurchaseFailed.Message)
		}
	}

	s.recordCheckout("success")
	s.logger.Info("purchase completed",
		zap.String("payment_id", payment.ID),
		zap.String("course", req.CourseID),
		zap.String("user", req.UserEmail))
	return &CheckoutResult{Payment: payment, Purchased: purchase}, nil
}

// Purchases returns a user's purchase history.
func (s *PaymentService) Purchases(ctx context.Context, email string) ([]models.PurchasedCourseDetail, error) {
	start := time.Now()
	purchases, err := s.repo.ListPurchasedByEmail(ctx, email)
	s.observeQuery("list_purchases", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list purchases")
	}
	return purchases, nil
}

// Receipt renders a PDF receipt for a payment owned by the requester.
func (s *PaymentService) Receipt(ctx context.Context, paymentID, requesterEmail string) ([]byte, error) {
	payment, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	if payment.UserEmail != requesterEmail {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}
	if s.receipts == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "receipt rendering is not configured")
	}

	data := export.Dataset{
		Headers: []string{"Field", "Value"},
		Rows: []map[string]string{
			{"Field": "Payment ID", "Value": payment.ID},
			{"Field": "Course", "Value": payment.CourseID},
			{"Field": "Buyer", "Value": payment.UserEmail},
			{"Field": "Amount", "Value": fmt.Sprintf("$%.2f", float64(payment.AmountCents)/100)},
			{"Field": "Date", "Value": payment.CreatedAt.Format(time.RFC1123)},
		},
	}
	pdf, err := s.receipts.Render(data, "Payment Receipt")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render receipt")
	}
	return pdf, nil
}

func (s *PaymentService) recordCheckout(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordCheckout(outcome)
	}
}

func (s *PaymentService) observeQuery(label string, d time.Duration) {
	if s.metrics != nil {
		s.metrics.ObserveDBQuery(label, d)
	}
}
