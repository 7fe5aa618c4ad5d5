package models

import "time"

// CourseStatus tracks the approval workflow for submitted courses.
type CourseStatus string

const (
	CourseStatusPending  CourseStatus = "pending"
	CourseStatusApproved CourseStatus = "approved"
	CourseStatusDenied   CourseStatus = "denied"
)

// Course represents a listing submitted by an instructor.
type Course struct {
	ID              string       `db:"id" json:"id"`
	Title           string       `db:"title" json:"title"`
	InstructorName  string       `db:"instructor_name" json:"instructor_name"`
	InstructorEmail string       `db:"instructor_email" json:"instructor_email"`
	PriceCents      int64        `db:"price_cents" json:"price_cents"`
	AvailableSeats  int          `db:"available_seats" json:"available_seats"`
	Status          CourseStatus `db:"status" json:"status"`
	Feedback        *string      `db:"feedback" json:"feedback,omitempty"`
	ImageURL        string       `db:"image_url" json:"image_url,omitempty"`
	Description     string       `db:"description" json:"description,omitempty"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at" json:"updated_at"`
}

// CourseFilter captures filtering criteria for listing courses.
type CourseFilter struct {
	InstructorEmail string
	Status          CourseStatus
	Page            int
	PageSize        int
	SortBy          string
	SortOrder       string
}
