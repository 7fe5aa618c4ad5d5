package repository

import "errors"

// Sentinel errors surfaced by multi-step writes. Services translate these
// into HTTP-aware domain errors.
var (
	// ErrSoldOut is returned when a checkout finds no seats left.
	ErrSoldOut = errors.New("course is sold out")

	// ErrAlreadyPurchased is returned when the user already owns the course.
	ErrAlreadyPurchased = errors.New("course already purchased")

	// ErrAlreadyEnrolled is returned on a duplicate enrollment intent.
	ErrAlreadyEnrolled = errors.New("already enrolled in course")

	// ErrEnrollmentMismatch is returned when the enrollment named in a
	// checkout does not belong to the buyer for that course.
	ErrEnrollmentMismatch = errors.New("enrollment does not belong to buyer")

	// ErrEmailTaken is returned when a registration insert loses the race
	// for an already-registered email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidTransition is returned when a status change is attempted on a
	// course that is no longer pending.
	ErrInvalidTransition = errors.New("course is not pending review")
)
