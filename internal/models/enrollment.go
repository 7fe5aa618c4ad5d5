package models

import "time"

// EnrolledCourse is a user's pending intent to purchase a seat. It is
// destroyed when the checkout converts it into a PurchasedCourse.
type EnrolledCourse struct {
	ID        string    `db:"id" json:"id"`
	UserEmail string    `db:"user_email" json:"user_email"`
	CourseID  string    `db:"course_id" json:"course_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// EnrolledCourseDetail joins the enrollment with its course listing.
type EnrolledCourseDetail struct {
	EnrolledCourse
	CourseTitle     string `db:"course_title" json:"course_title"`
	InstructorName  string `db:"instructor_name" json:"instructor_name"`
	PriceCents      int64  `db:"price_cents" json:"price_cents"`
	AvailableSeats  int    `db:"available_seats" json:"available_seats"`
	InstructorEmail string `db:"instructor_email" json:"instructor_email"`
}
