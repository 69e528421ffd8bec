package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unidesk/registrar-api/internal/models"
	appErrors "github.com/unidesk/registrar-api/pkg/errors"
)

type mockStudentStore struct {
	students  map[string]*models.Student
	saveCalls int
	saveErr   error
}

func (m *mockStudentStore) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentStore) SaveAggregates(ctx context.Context, student *models.Student) error {
	m.saveCalls++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.students[student.ID] = student
	return nil
}

type mockCourseStore struct {
	courses    map[string]*models.Course
	reserveOK  bool
	reserveErr error
	reserved   []string
	released   []string
}

func (m *mockCourseStore) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseStore) ReserveSeat(ctx context.Context, id string) (bool, error) {
	if m.reserveErr != nil {
		return false, m.reserveErr
	}
	if m.reserveOK {
		m.reserved = append(m.reserved, id)
	}
	return m.reserveOK, nil
}

func (m *mockCourseStore) ReleaseSeat(ctx context.Context, id string) error {
	m.released = append(m.released, id)
	return nil
}

type mockActivityRecorder struct {
	recorded []models.Activity
}

func (m *mockActivityRecorder) Record(activity models.Activity) {
	m.recorded = append(m.recorded, activity)
}

type mockGridInvalidator struct {
	invalidated []string
}

func (m *mockGridInvalidator) InvalidateStudent(ctx context.Context, studentID string) {
	m.invalidated = append(m.invalidated, studentID)
}

func fixtureCourse() *models.Course {
	return &models.Course{
		ID:         "c1",
		Code:       "CS201",
		Name:       "Data Structures",
		Instructor: "Dr. Chen",
		Credits:    3,
		Capacity:   30,
		Enrolled:   10,
		Term:       "Fall 2026",
		Program:    "Computer Science",
		YearLevels: []int{2},
		Meetings: []models.MeetingSlot{
			{Day: "Monday", TimeStart: "10:00", TimeEnd: "11:30", Location: "Bldg A 101"},
			{Day: "Wednesday", TimeStart: "10:00", TimeEnd: "11:30", Location: "Bldg A 101"},
		},
	}
}

func fixtureStudent() *models.Student {
	return &models.Student{
		ID:        "s1",
		Number:    "2024-0001",
		Program:   "Computer Science",
		YearLevel: 2,
		Schedule:  models.WeekSchedule{},
	}
}

func newTestEnrollmentService(students *mockStudentStore, courses *mockCourseStore, activity *mockActivityRecorder, grids *mockGridInvalidator) *EnrollmentService {
	return NewEnrollmentService(students, courses, activity, grids, StaticColorAssigner{Color: "hsl(210, 70%, 45%)"}, nil, nil, nil)
}

func TestEnrollmentServiceEnroll(t *testing.T) {
	students := &mockStudentStore{students: map[string]*models.Student{"s1": fixtureStudent()}}
	courses := &mockCourseStore{courses: map[string]*models.Course{"c1": fixtureCourse()}, reserveOK: true}
	activity := &mockActivityRecorder{}
	grids := &mockGridInvalidator{}
	svc := newTestEnrollmentService(students, courses, activity, grids)

	outcome, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "s1", CourseID: "c1"})
	require.NoError(t, err)
	require.NotNil(t, outcome.Enrollment)
	assert.NotEmpty(t, outcome.Enrollment.ID)
	assert.Equal(t, models.EnrollmentStatusEnrolled, outcome.Enrollment.Status)
	assert.Equal(t, 11, outcome.Course.Enrolled)

	require.Len(t, outcome.Student.Enrollments, 1)
	require.Len(t, outcome.Student.Schedule["Monday"], 1)
	require.Len(t, outcome.Student.Schedule["Wednesday"], 1)
	slot := outcome.Student.Schedule["Monday"][0]
	assert.Equal(t, "c1", slot.CourseID)
	assert.Equal(t, "hsl(210, 70%, 45%)", slot.Color)
	assert.Equal(t, "Bldg A 101", slot.Location)

	require.Len(t, outcome.Student.EnrollmentHistory, 1)
	assert.Equal(t, models.EnrollmentActionEnrolled, outcome.Student.EnrollmentHistory[0].Action)

	assert.Equal(t, 1, students.saveCalls)
	assert.Equal(t, []string{"c1"}, courses.reserved)
	assert.Empty(t, courses.released)
	require.Len(t, activity.recorded, 1)
	assert.Equal(t, models.ActivityActionEnrolled, activity.recorded[0].Action)
	assert.Equal(t, []string{"s1"}, grids.invalidated)
}

func TestEnrollmentServiceEnrollDuplicate(t *testing.T) {
	student := fixtureStudent()
	student.Enrollments = []models.Enrollment{{ID: "e1", CourseID: "c1", Status: models.EnrollmentStatusEnrolled}}
	students := &mockStudentStore{students: map[string]*models.Student{"s1": student}}
	courses := &mockCourseStore{courses: map[string]*models.Course{"c1": fixtureCourse()}, reserveOK: true}
	svc := newTestEnrollmentService(students, courses, nil, nil)

	_, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "s1", CourseID: "c1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyEnrolled.Code, appErrors.FromError(err).Code)
	assert.Zero(t, students.saveCalls)
	assert.Empty(t, courses.reserved)
	assert.Len(t, student.Enrollments, 1)
	assert.Empty(t, student.EnrollmentHistory)
}

func TestEnrollmentServiceEnrollDuplicateBeforeCapacity(t *testing.T) {
	student := fixtureStudent()
	student.Enrollments = []models.Enrollment{{ID: "e1", CourseID: "c1", Status: models.EnrollmentStatusEnrolled}}
	course := fixtureCourse()
	course.Enrolled = course.Capacity
	students := &mockStudentStore{students: map[string]*models.Student{"s1": student}}
	courses := &mockCourseStore{courses: map[string]*models.Course{"c1": course}}
	svc := newTestEnrollmentService(students, courses, nil, nil)

	_, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "s1", CourseID: "c1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyEnrolled.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceEnrollCourseFull(t *testing.T) {
	course := fixtureCourse()
	course.Enrolled = course.Capacity
	students := &mockStudentStore{students: map[string]*models.Student{"s1": fixtureStudent()}}
	courses := &mockCourseStore{courses: map[string]*models.Course{"c1": course}}
	svc := newTestEnrollmentService(students, courses, nil, nil)

	_, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "s1", CourseID: "c1"})
	require.Error(t, err)
	apiErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrCourseFull.Code, apiErr.Code)
	assert.Equal(t, 409, apiErr.Status)
	assert.Zero(t, students.saveCalls)
}

func TestEnrollmentServiceEnrollScheduleConflict(t *testing.T) {
	student := fixtureStudent()
	student.Schedule = models.WeekSchedule{
		"Monday": {{CourseID: "c9", TimeStart: "11:30", TimeEnd: "13:00"}},
	}
	students := &mockStudentStore{students: map[string]*models.Student{"s1": student}}
	courses := &mockCourseStore{courses: map[string]*models.Course{"c1": fixtureCourse()}, reserveOK: true}
	svc := newTestEnrollmentService(students, courses, nil, nil)

	_, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "s1", CourseID: "c1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrScheduleConflict.Code, appErrors.FromError(err).Code)
	assert.Zero(t, students.saveCalls)
	assert.Empty(t, student.Schedule["Monday"][0].Color)
}

func TestEnrollmentServiceEnrollMissingPrerequisites(t *testing.T) {
	course := fixtureCourse()
	course.Prerequisites = []string{"CS101", "MATH101"}
	student := fixtureStudent()
	student.AcademicHistory = []models.CompletedTerm{
		{Term: "Fall 2025", Courses: []models.CompletedCourse{{Code: "CS101", Grade: "A"}}},
	}
	students := &mockStudentStore{students: map[string]*models.Student{"s1": student}}
	courses := &mockCourseStore{courses: map[string]*models.Course{"c1": course}, reserveOK: true}
	svc := newTestEnrollmentService(students, courses, nil, nil)

	_, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "s1", CourseID: "c1"})
	require.Error(t, err)
	apiErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrMissingPrerequisites.Code, apiErr.Code)
	assert.Equal(t, 412, apiErr.Status)
	assert.Equal(t, []string{"MATH101"}, apiErr.Details)
	assert.Zero(t, students.saveCalls)
}

func TestEnrollmentServiceEnrollLostSeatRace(t *testing.T) {
	students := &mockStudentStore{students: map[string]*models.Student{"s1": fixtureStudent()}}
	courses := &mockCourseStore{courses: map[string]*models.Course{"c1": fixtureCourse()}, reserveOK: false}
	svc := newTestEnrollmentService(students, courses, nil, nil)

	_, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "s1", CourseID: "c1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCourseFull.Code, appErrors.FromError(err).Code)
	assert.Zero(t, students.saveCalls)
	assert.Empty(t, courses.released)
}

func TestEnrollmentServiceEnrollReleasesSeatOnSaveFailure(t *testing.T) {
	students := &mockStudentStore{
		students: map[string]*models.Student{"s1": fixtureStudent()},
		saveErr:  assert.AnError,
	}
	courses := &mockCourseStore{courses: map[string]*models.Course{"c1": fixtureCourse()}, reserveOK: true}
	svc := newTestEnrollmentService(students, courses, nil, nil)

	_, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "s1", CourseID: "c1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
	assert.Equal(t, []string{"c1"}, courses.reserved)
	assert.Equal(t, []string{"c1"}, courses.released)
}

func TestEnrollmentServiceEnrollStudentNotFound(t *testing.T) {
	students := &mockStudentStore{students: map[string]*models.Student{}}
	courses := &mockCourseStore{courses: map[string]*models.Course{"c1": fixtureCourse()}}
	svc := newTestEnrollmentService(students, courses, nil, nil)

	_, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "missing", CourseID: "c1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceDrop(t *testing.T) {
	student := fixtureStudent()
	student.Enrollments = []models.Enrollment{
		{ID: "e1", CourseID: "c1", CourseCode: "CS201", Status: models.EnrollmentStatusEnrolled},
		{ID: "e2", CourseID: "c2", CourseCode: "MATH201", Status: models.EnrollmentStatusEnrolled},
	}
	student.Schedule = models.WeekSchedule{
		"Monday": {
			{CourseID: "c1", TimeStart: "10:00", TimeEnd: "11:30"},
			{CourseID: "c2", TimeStart: "13:00", TimeEnd: "14:30"},
		},
		"Wednesday": {
			{CourseID: "c1", TimeStart: "10:00", TimeEnd: "11:30"},
		},
	}
	student.EnrollmentHistory = []models.EnrollmentEvent{
		{Enrollment: student.Enrollments[0], Action: models.EnrollmentActionEnrolled},
		{Enrollment: student.Enrollments[1], Action: models.EnrollmentActionEnrolled},
	}
	students := &mockStudentStore{students: map[string]*models.Student{"s1": student}}
	courses := &mockCourseStore{courses: map[string]*models.Course{}}
	activity := &mockActivityRecorder{}
	grids := &mockGridInvalidator{}
	svc := newTestEnrollmentService(students, courses, activity, grids)

	outcome, err := svc.Drop(context.Background(), "s1", "e1")
	require.NoError(t, err)
	assert.Equal(t, "e1", outcome.Dropped.ID)

	require.Len(t, outcome.Student.Enrollments, 1)
	assert.Equal(t, "e2", outcome.Student.Enrollments[0].ID)

	// Slots for the dropped course disappear but day keys survive.
	require.Contains(t, outcome.Student.Schedule, "Wednesday")
	assert.Empty(t, outcome.Student.Schedule["Wednesday"])
	require.Len(t, outcome.Student.Schedule["Monday"], 1)
	assert.Equal(t, "c2", outcome.Student.Schedule["Monday"][0].CourseID)

	require.Len(t, outcome.Student.EnrollmentHistory, 3)
	assert.Equal(t, models.EnrollmentActionDropped, outcome.Student.EnrollmentHistory[2].Action)
	assert.Equal(t, "e1", outcome.Student.EnrollmentHistory[2].Enrollment.ID)

	assert.Equal(t, 1, students.saveCalls)
	assert.Equal(t, []string{"c1"}, courses.released)
	require.Len(t, activity.recorded, 1)
	assert.Equal(t, models.ActivityActionDropped, activity.recorded[0].Action)
	assert.Equal(t, []string{"s1"}, grids.invalidated)
}

func TestEnrollmentServiceDropNotFound(t *testing.T) {
	student := fixtureStudent()
	student.Enrollments = []models.Enrollment{{ID: "e1", CourseID: "c1"}}
	students := &mockStudentStore{students: map[string]*models.Student{"s1": student}}
	courses := &mockCourseStore{}
	svc := newTestEnrollmentService(students, courses, nil, nil)

	_, err := svc.Drop(context.Background(), "s1", "nope")
	require.Error(t, err)
	apiErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrEnrollmentNotFound.Code, apiErr.Code)
	assert.Equal(t, 404, apiErr.Status)
	assert.Zero(t, students.saveCalls)
	assert.Empty(t, courses.released)
	assert.Len(t, student.Enrollments, 1)
}

func TestEnrollmentServiceDropThenReenroll(t *testing.T) {
	students := &mockStudentStore{students: map[string]*models.Student{"s1": fixtureStudent()}}
	courses := &mockCourseStore{courses: map[string]*models.Course{"c1": fixtureCourse()}, reserveOK: true}
	svc := newTestEnrollmentService(students, courses, nil, nil)
	ctx := context.Background()

	first, err := svc.Enroll(ctx, EnrollRequest{StudentID: "s1", CourseID: "c1"})
	require.NoError(t, err)

	_, err = svc.Drop(ctx, "s1", first.Enrollment.ID)
	require.NoError(t, err)

	second, err := svc.Enroll(ctx, EnrollRequest{StudentID: "s1", CourseID: "c1"})
	require.NoError(t, err)
	assert.NotEqual(t, first.Enrollment.ID, second.Enrollment.ID)

	student := students.students["s1"]
	require.Len(t, student.EnrollmentHistory, 3)
	assert.Equal(t, models.EnrollmentActionEnrolled, student.EnrollmentHistory[0].Action)
	assert.Equal(t, models.EnrollmentActionDropped, student.EnrollmentHistory[1].Action)
	assert.Equal(t, models.EnrollmentActionEnrolled, student.EnrollmentHistory[2].Action)

	require.Len(t, student.Schedule["Monday"], 1)
	require.Len(t, student.Schedule["Wednesday"], 1)
	assert.Equal(t, "10:00", student.Schedule["Monday"][0].TimeStart)
}

func TestEnrollmentServiceActiveAndHistory(t *testing.T) {
	student := fixtureStudent()
	student.Enrollments = []models.Enrollment{{ID: "e1", CourseID: "c1"}}
	student.EnrollmentHistory = []models.EnrollmentEvent{{Enrollment: student.Enrollments[0], Action: models.EnrollmentActionEnrolled}}
	students := &mockStudentStore{students: map[string]*models.Student{"s1": student}}
	svc := newTestEnrollmentService(students, &mockCourseStore{}, nil, nil)

	active, err := svc.Active(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, active, 1)

	history, err := svc.History(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, history, 1)

	_, err = svc.Active(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
