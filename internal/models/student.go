package models

import "time"

// Student represents a learner together with the aggregates the
// enrollment engine owns: weekly schedule, active enrollments and the
// append-only enrollment history. AcademicHistory is read-only input
// to the prerequisite check.
type Student struct {
	ID               string    `db:"id" json:"id"`
	Number           string    `db:"number" json:"number"`
	FullName         string    `db:"full_name" json:"full_name"`
	Email            string    `db:"email" json:"email"`
	Program          string    `db:"program" json:"program"`
	YearLevel        int       `db:"year_level" json:"year_level"`
	GPA              float64   `db:"gpa" json:"gpa"`
	CreditsCompleted int       `db:"credits_completed" json:"credits_completed"`
	Status           string    `db:"status" json:"status"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`

	Schedule          WeekSchedule      `json:"schedule"`
	Enrollments       []Enrollment      `json:"enrollments"`
	EnrollmentHistory []EnrollmentEvent `json:"enrollment_history"`
	AcademicHistory   []CompletedTerm   `json:"academic_history"`
}

// ActiveEnrollment returns the active enrollment for a course, if any.
func (s *Student) ActiveEnrollment(courseID string) *Enrollment {
	for i := range s.Enrollments {
		if s.Enrollments[i].CourseID == courseID {
			return &s.Enrollments[i]
		}
	}
	return nil
}

// CompletedCourses flattens every course code across all completed terms.
func (s *Student) CompletedCourses() []string {
	var codes []string
	for _, term := range s.AcademicHistory {
		for _, course := range term.Courses {
			codes = append(codes, course.Code)
		}
	}
	return codes
}

// CompletedTerm is one finished term of a student's academic record.
type CompletedTerm struct {
	Term    string            `json:"term"`
	Courses []CompletedCourse `json:"courses"`
}

// CompletedCourse is a graded course inside a completed term.
type CompletedCourse struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Grade   string `json:"grade"`
	Credits int    `json:"credits"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	Program   string
	Status    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
