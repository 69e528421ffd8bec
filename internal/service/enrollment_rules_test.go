package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/unidesk/registrar-api/internal/models"
)

func TestSpansOverlap(t *testing.T) {
	cases := []struct {
		name               string
		candStart, candEnd string
		occStart, occEnd   string
		want               bool
	}{
		{"inside", "10:00", "11:00", "09:00", "12:00", true},
		{"contains", "09:00", "12:00", "10:00", "11:00", true},
		{"partial overlap", "11:00", "12:00", "10:00", "11:30", true},
		{"touching end counts", "11:30", "12:30", "10:00", "11:30", true},
		{"touching start counts", "09:00", "10:00", "10:00", "11:00", true},
		{"disjoint before", "08:00", "09:30", "10:00", "11:00", false},
		{"disjoint after", "12:00", "13:00", "10:00", "11:00", false},
		{"malformed candidate", "bogus", "11:00", "10:00", "11:00", false},
		{"malformed occupied", "10:00", "11:00", "10:00", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, spansOverlap(tc.candStart, tc.candEnd, tc.occStart, tc.occEnd))
		})
	}
}

func TestHasScheduleConflict(t *testing.T) {
	schedule := models.WeekSchedule{
		"Monday": {
			{CourseID: "c1", TimeStart: "10:00", TimeEnd: "11:30"},
		},
		"Wednesday": {},
	}

	overlapping := []models.MeetingSlot{{Day: "Monday", TimeStart: "11:00", TimeEnd: "12:00"}}
	assert.True(t, HasScheduleConflict(overlapping, schedule))

	touching := []models.MeetingSlot{{Day: "Monday", TimeStart: "11:30", TimeEnd: "12:30"}}
	assert.True(t, HasScheduleConflict(touching, schedule))

	sameTimesOtherDay := []models.MeetingSlot{{Day: "Tuesday", TimeStart: "10:00", TimeEnd: "11:30"}}
	assert.False(t, HasScheduleConflict(sameTimesOtherDay, schedule))

	emptyDay := []models.MeetingSlot{{Day: "Wednesday", TimeStart: "10:00", TimeEnd: "11:30"}}
	assert.False(t, HasScheduleConflict(emptyDay, schedule))

	free := []models.MeetingSlot{{Day: "Monday", TimeStart: "12:00", TimeEnd: "13:00"}}
	assert.False(t, HasScheduleConflict(free, schedule))
}

func TestMissingPrerequisites(t *testing.T) {
	student := &models.Student{
		AcademicHistory: []models.CompletedTerm{
			{Term: "Fall 2024", Courses: []models.CompletedCourse{
				{Code: "CS101", Grade: "A"},
				{Code: "MATH101", Grade: "B+"},
			}},
			{Term: "Spring 2025", Courses: []models.CompletedCourse{
				{Code: "CS102", Grade: "A-"},
			}},
		},
	}

	none := &models.Course{Code: "CS201", Prerequisites: []string{"CS101", "CS102"}}
	assert.Empty(t, MissingPrerequisites(none, student))

	partial := &models.Course{Code: "CS301", Prerequisites: []string{"CS102", "CS201", "MATH201"}}
	assert.Equal(t, []string{"CS201", "MATH201"}, MissingPrerequisites(partial, student))

	noPrereqs := &models.Course{Code: "ART100"}
	assert.Empty(t, MissingPrerequisites(noPrereqs, student))

	blank := &models.Student{}
	assert.Equal(t, []string{"CS101"}, MissingPrerequisites(&models.Course{Prerequisites: []string{"CS101"}}, blank))
}
