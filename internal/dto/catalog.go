package dto

import "github.com/unidesk/registrar-api/internal/models"

// CourseOffer annotates a catalog entry with the admission flags the
// enrollment UI renders on each course card.
type CourseOffer struct {
	models.Course
	AlreadyEnrolled      bool     `json:"already_enrolled"`
	AtCapacity           bool     `json:"at_capacity"`
	HasConflict          bool     `json:"has_conflict"`
	MissingPrerequisites []string `json:"missing_prerequisites,omitempty"`
}

// Admissible reports whether an enroll attempt would pass every check.
func (o *CourseOffer) Admissible() bool {
	return !o.AlreadyEnrolled && !o.AtCapacity && !o.HasConflict && len(o.MissingPrerequisites) == 0
}
