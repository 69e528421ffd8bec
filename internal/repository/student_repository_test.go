package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unidesk/registrar-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func studentMockRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "number", "full_name", "email", "program", "year_level", "gpa", "credits_completed", "status",
		"schedule", "enrollments", "enrollment_history", "academic_history", "created_at", "updated_at",
	}).AddRow(
		"s1", "2024-0001", "Jordan Reyes", "jordan@unidesk.edu", "Computer Science", 2, 3.4, 45, "active",
		[]byte(`{"Monday":[{"course_id":"c1","course_code":"CS201","time_start":"10:00","time_end":"11:30"}]}`),
		[]byte(`[{"id":"e1","course_id":"c1","course_code":"CS201","status":"enrolled"}]`),
		[]byte(`[{"id":"e1","course_id":"c1","action":"enrolled"}]`),
		[]byte(`[{"term":"Fall 2025","courses":[{"code":"CS101","grade":"A"}]}]`),
		time.Now(), time.Now(),
	)
}

func TestStudentRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("FROM students WHERE id = \\$1").
		WithArgs("s1").
		WillReturnRows(studentMockRows())

	student, err := repo.FindByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Jordan Reyes", student.FullName)
	require.Len(t, student.Schedule["Monday"], 1)
	assert.Equal(t, "CS201", student.Schedule["Monday"][0].CourseCode)
	require.Len(t, student.Enrollments, 1)
	assert.Equal(t, "e1", student.Enrollments[0].ID)
	require.Len(t, student.EnrollmentHistory, 1)
	require.Len(t, student.AcademicHistory, 1)
	assert.Equal(t, "CS101", student.AcademicHistory[0].Courses[0].Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByIDEmptyAggregates(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows([]string{
		"id", "number", "full_name", "email", "program", "year_level", "gpa", "credits_completed", "status",
		"schedule", "enrollments", "enrollment_history", "academic_history", "created_at", "updated_at",
	}).AddRow("s2", "2024-0002", "Sam Okafor", "sam@unidesk.edu", "Biology", 1, 0.0, 0, "active",
		nil, nil, nil, nil, time.Now(), time.Now())
	mock.ExpectQuery("FROM students WHERE id = \\$1").
		WithArgs("s2").
		WillReturnRows(rows)

	student, err := repo.FindByID(context.Background(), "s2")
	require.NoError(t, err)
	assert.NotNil(t, student.Schedule)
	assert.Empty(t, student.Schedule)
	assert.Empty(t, student.Enrollments)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("FROM students WHERE \\(full_name ILIKE \\$1 OR number ILIKE \\$1 OR email ILIKE \\$1\\) AND program = \\$2 ORDER BY full_name ASC LIMIT 20 OFFSET 0").
		WithArgs("%jordan%", "Computer Science").
		WillReturnRows(studentMockRows())
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM students WHERE").
		WithArgs("%jordan%", "Computer Science").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	students, total, err := repo.List(context.Background(), models.StudentFilter{Search: "jordan", Program: "Computer Science"})
	require.NoError(t, err)
	assert.Len(t, students, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositorySaveAggregates(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("UPDATE students").
		WithArgs("s1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	student := &models.Student{
		ID:       "s1",
		Schedule: models.WeekSchedule{"Monday": {}},
	}
	require.NoError(t, repo.SaveAggregates(context.Background(), student))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositorySaveAggregatesMissingStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("UPDATE students").
		WithArgs("ghost", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SaveAggregates(context.Background(), &models.Student{ID: "ghost", Schedule: models.WeekSchedule{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}
