package models

import "time"

// Course represents an offered course section. The enrolled counter is
// mutated only through the enrollment engine and its repository;
// invariant: 0 <= Enrolled <= Capacity.
type Course struct {
	ID            string        `db:"id" json:"id"`
	Code          string        `db:"code" json:"code"`
	Name          string        `db:"name" json:"name"`
	Instructor    string        `db:"instructor" json:"instructor"`
	Department    string        `db:"department" json:"department"`
	Credits       int           `db:"credits" json:"credits"`
	Capacity      int           `db:"capacity" json:"capacity"`
	Enrolled      int           `db:"enrolled" json:"enrolled"`
	Prerequisites []string      `json:"prerequisites"`
	Meetings      []MeetingSlot `json:"meetings"`
	Program       string        `db:"program" json:"program"`
	YearLevels    []int         `json:"year_levels"`
	Term          string        `db:"term" json:"term"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// HasSeat reports whether the in-memory snapshot still shows room.
func (c *Course) HasSeat() bool {
	return c.Enrolled < c.Capacity
}

// EligibleFor reports whether a course is offered to the student's
// program and year level.
func (c *Course) EligibleFor(program string, yearLevel int) bool {
	if c.Program != program {
		return false
	}
	for _, level := range c.YearLevels {
		if level == yearLevel {
			return true
		}
	}
	return false
}

// CourseFilter describes query params for listing the catalog.
type CourseFilter struct {
	Search     string
	Department string
	Program    string
	Term       string
	YearLevel  int
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
