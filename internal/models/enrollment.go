package models

import "time"

// EnrollmentStatusEnrolled is the only status an active enrollment
// holds; dropped enrollments leave the active set and survive solely
// as history events.
const EnrollmentStatusEnrolled = "enrolled"

// Enrollment action labels recorded in history events.
const (
	EnrollmentActionEnrolled = "enrolled"
	EnrollmentActionDropped  = "dropped"
)

// Enrollment is an active registration of a student in a course. A
// fresh ID is minted per successful enroll; re-enrolling after a drop
// never reuses an old one.
type Enrollment struct {
	ID         string    `json:"id"`
	CourseID   string    `json:"course_id"`
	CourseCode string    `json:"course_code"`
	CourseName string    `json:"course_name"`
	Instructor string    `json:"instructor"`
	Credits    int       `json:"credits"`
	Term       string    `json:"term"`
	EnrolledAt time.Time `json:"enrolled_at"`
	Status     string    `json:"status"`
}

// EnrollmentEvent is one entry of the append-only enrollment history.
type EnrollmentEvent struct {
	Enrollment
	Action string    `json:"action"`
	Date   time.Time `json:"date"`
}
