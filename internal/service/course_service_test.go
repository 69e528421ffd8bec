package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unidesk/registrar-api/internal/dto"
	"github.com/unidesk/registrar-api/internal/models"
	appErrors "github.com/unidesk/registrar-api/pkg/errors"
)

type mockCourseCatalog struct {
	courses    []models.Course
	lastFilter models.CourseFilter
}

func (m *mockCourseCatalog) FindByID(ctx context.Context, id string) (*models.Course, error) {
	for i := range m.courses {
		if m.courses[i].ID == id {
			return &m.courses[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseCatalog) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	m.lastFilter = filter
	return m.courses, len(m.courses), nil
}

func TestCourseServiceListEligible(t *testing.T) {
	student := fixtureStudent()
	student.Enrollments = []models.Enrollment{{ID: "e1", CourseID: "enrolled-id"}}
	student.Schedule = models.WeekSchedule{
		"Monday": {{CourseID: "enrolled-id", TimeStart: "09:00", TimeEnd: "10:30"}},
	}
	student.AcademicHistory = []models.CompletedTerm{
		{Term: "Spring 2026", Courses: []models.CompletedCourse{{Code: "CS101", Grade: "B"}}},
	}

	open := *fixtureCourse()
	open.ID = "open-id"
	open.Code = "CS210"
	open.Meetings = []models.MeetingSlot{{Day: "Tuesday", TimeStart: "10:00", TimeEnd: "11:30"}}

	enrolled := *fixtureCourse()
	enrolled.ID = "enrolled-id"

	full := *fixtureCourse()
	full.ID = "full-id"
	full.Enrolled = full.Capacity
	full.Meetings = nil

	clashing := *fixtureCourse()
	clashing.ID = "clash-id"
	clashing.Meetings = []models.MeetingSlot{{Day: "Monday", TimeStart: "10:30", TimeEnd: "12:00"}}

	gated := *fixtureCourse()
	gated.ID = "gated-id"
	gated.Meetings = nil
	gated.Prerequisites = []string{"CS101", "CS102"}

	otherProgram := *fixtureCourse()
	otherProgram.ID = "other-id"
	otherProgram.Program = "Biology"

	catalog := &mockCourseCatalog{courses: []models.Course{open, enrolled, full, clashing, gated, otherProgram}}
	students := &mockStudentStore{students: map[string]*models.Student{"s1": student}}
	svc := NewCourseService(catalog, students, nil)

	offers, err := svc.ListEligible(context.Background(), "s1", models.CourseFilter{})
	require.NoError(t, err)

	assert.Equal(t, "Computer Science", catalog.lastFilter.Program)
	assert.Equal(t, 2, catalog.lastFilter.YearLevel)

	require.Len(t, offers, 5)
	byID := map[string]dto.CourseOffer{}
	for _, offer := range offers {
		byID[offer.ID] = offer
	}

	assert.True(t, byID["open-id"].Admissible())
	assert.True(t, byID["enrolled-id"].AlreadyEnrolled)
	assert.True(t, byID["full-id"].AtCapacity)
	assert.True(t, byID["clash-id"].HasConflict)
	assert.Equal(t, []string{"CS102"}, byID["gated-id"].MissingPrerequisites)
	assert.NotContains(t, byID, "other-id")
}

func TestCourseServiceListEligibleStudentNotFound(t *testing.T) {
	svc := NewCourseService(&mockCourseCatalog{}, &mockStudentStore{students: map[string]*models.Student{}}, nil)

	_, err := svc.ListEligible(context.Background(), "missing", models.CourseFilter{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCourseServiceFind(t *testing.T) {
	catalog := &mockCourseCatalog{courses: []models.Course{*fixtureCourse()}}
	svc := NewCourseService(catalog, &mockStudentStore{}, nil)

	course, err := svc.Find(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "CS201", course.Code)

	_, err = svc.Find(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCourseServiceListPagination(t *testing.T) {
	catalog := &mockCourseCatalog{courses: []models.Course{*fixtureCourse()}}
	svc := NewCourseService(catalog, &mockStudentStore{}, nil)

	courses, pagination, err := svc.List(context.Background(), models.CourseFilter{Page: 0, PageSize: 0})
	require.NoError(t, err)
	assert.Len(t, courses, 1)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 1, pagination.TotalCount)
}
