package models

import "time"

// Payment is an append-only audit record of a completed transaction.
// SeatsAtPurchase is the seat count the client saw at submission time; it is
// recorded for audit only and never used to compute the new counter.
type Payment struct {
	ID                  string    `db:"id" json:"id"`
	UserEmail           string    `db:"user_email" json:"user_email"`
	CourseID            string    `db:"course_id" json:"course_id"`
	EnrollmentID        string    `db:"enrollment_id" json:"enrollment_id"`
	AmountCents         int64     `db:"amount_cents" json:"amount_cents"`
	SeatsAtPurchase     int       `db:"seats_at_purchase" json:"seats_at_purchase"`
	StripePaymentIntent string    `db:"stripe_payment_intent" json:"stripe_payment_intent,omitempty"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
}

// PurchasedCourse is the finalized, paid entitlement replacing an enrollment.
type PurchasedCourse struct {
	ID        string    `db:"id" json:"id"`
	UserEmail string    `db:"user_email" json:"user_email"`
	CourseID  string    `db:"course_id" json:"course_id"`
	PaymentID string    `db:"payment_id" json:"payment_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PurchasedCourseDetail joins the purchase with its course listing.
type PurchasedCourseDetail struct {
	PurchasedCourse
	CourseTitle    string `db:"course_title" json:"course_title"`
	InstructorName string `db:"instructor_name" json:"instructor_name"`
	PriceCents     int64  `db:"price_cents" json:"price_cents"`
}
