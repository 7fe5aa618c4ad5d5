package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fluencyfusion/marketplace-api/internal/models"
)

// PaymentRepository records payments and runs the checkout transaction.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Checkout converts an enrollment into a purchase inside a single
// transaction: the payment audit row, the seat decrement, the purchase row
// and the enrollment delete commit together or not at all.
//
// The seat decrement is conditional on available_seats > 0 evaluated at
// decrement time. Two concurrent checkouts of the last seat serialize on the
// row update and only one sees an affected row; the other rolls back with
// ErrSoldOut, so the counter can never go negative.
func (r *PaymentRepository) Checkout(ctx context.Context, payment *models.Payment) (*models.PurchasedCourse, error) {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin checkout tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var owned int
	err = tx.GetContext(ctx, &owned,
		`SELECT COUNT(*) FROM purchased_courses WHERE user_email = $1 AND course_id = $2`,
		payment.UserEmail, payment.CourseID)
	if err != nil {
		return nil, fmt.Errorf("check existing purchase: %w", err)
	}
	if owned > 0 {
		err = ErrAlreadyPurchased
		return nil, err
	}

	const insertPayment = `INSERT INTO payments (id, user_email, course_id, enrollment_id, amount_cents, seats_at_purchase, stripe_payment_intent, created_at)
        VALUES (:id, :user_email, :course_id, :enrollment_id, :amount_cents, :seats_at_purchase, :stripe_payment_intent, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insertPayment, payment); err != nil {
		return nil, fmt.Errorf("insert payment: %w", err)
	}

	res, execErr := tx.ExecContext(ctx,
		`UPDATE courses SET available_seats = available_seats - 1, updated_at = $2 WHERE id = $1 AND available_seats > 0`,
		payment.CourseID, time.Now().UTC())
	if execErr != nil {
		err = fmt.Errorf("decrement seats: %w", execErr)
		return nil, err
	}
	affected, raErr := res.RowsAffected()
	if raErr != nil {
		err = fmt.Errorf("decrement seats affected rows: %w", raErr)
		return nil, err
	}
	if affected == 0 {
		var exists int
		if scanErr := tx.GetContext(ctx, &exists, `SELECT 1 FROM courses WHERE id = $1`, payment.CourseID); scanErr != nil {
			if scanErr == sql.ErrNoRows {
				err = sql.ErrNoRows
				return nil, err
			}
			err = fmt.Errorf("check course: %w", scanErr)
			return nil, err
		}
		err = ErrSoldOut
		return nil, err
	}

	purchase := &models.PurchasedCourse{
		ID:        uuid.NewString(),
		UserEmail: payment.UserEmail,
		CourseID:  payment.CourseID,
		PaymentID: payment.ID,
		CreatedAt: time.Now().UTC(),
	}
	const insertPurchase = `INSERT INTO purchased_courses (id, user_email, course_id, payment_id, created_at)
        VALUES (:id, :user_email, :course_id, :payment_id, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insertPurchase, purchase); err != nil {
		return nil, fmt.Errorf("insert purchase: %w", err)
	}

	// The delete is keyed to the buyer and course, never to the raw id alone:
	// an enrollment id naming someone else's intent matches nothing and the
	// whole checkout rolls back.
	delRes, delErr := tx.ExecContext(ctx,
		`DELETE FROM enrolled_courses WHERE id = $1 AND user_email = $2 AND course_id = $3`,
		payment.EnrollmentID, payment.UserEmail, payment.CourseID)
	if delErr != nil {
		err = fmt.Errorf("delete enrollment: %w", delErr)
		return nil, err
	}
	removed, delRaErr := delRes.RowsAffected()
	if delRaErr != nil {
		err = fmt.Errorf("delete enrollment affected rows: %w", delRaErr)
		return nil, err
	}
	if removed == 0 {
		err = ErrEnrollmentMismatch
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit checkout tx: %w", err)
	}
	return purchase, nil
}

// FindByID returns a payment audit record.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	const query = `SELECT id, user_email, course_id, enrollment_id, amount_cents, seats_at_purchase, stripe_payment_intent, created_at FROM payments WHERE id = $1`
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find payment by id: %w", err)
	}
	return &payment, nil
}

// ListPurchasedByEmail returns a user's purchases joined with course info.
func (r *PaymentRepository) ListPurchasedByEmail(ctx context.Context, email string) ([]models.PurchasedCourseDetail, error) {
	const query = `SELECT p.id, p.user_email, p.course_id, p.payment_id, p.created_at,
        c.title AS course_title, c.instructor_name, c.price_cents
        FROM purchased_courses p
        JOIN courses c ON c.id = p.course_id
        WHERE p.user_email = $1
        ORDER BY p.created_at DESC`
	var purchases []models.PurchasedCourseDetail
	if err := r.db.SelectContext(ctx, &purchases, query, email); err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	return purchases, nil
}
