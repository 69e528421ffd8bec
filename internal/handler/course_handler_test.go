package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unidesk/registrar-api/internal/dto"
	"github.com/unidesk/registrar-api/internal/models"
	"github.com/unidesk/registrar-api/internal/service"
)

type fakeCourseCatalog struct {
	courses []models.Course
}

func (f *fakeCourseCatalog) FindByID(ctx context.Context, id string) (*models.Course, error) {
	for i := range f.courses {
		if f.courses[i].ID == id {
			return &f.courses[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeCourseCatalog) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	return f.courses, len(f.courses), nil
}

func TestCourseHandlerListEligible(t *testing.T) {
	students := &fakeStudentStore{students: map[string]*models.Student{
		"s1": {
			ID:        "s1",
			Program:   "Computer Science",
			YearLevel: 2,
			Schedule:  models.WeekSchedule{},
			Enrollments: []models.Enrollment{
				{ID: "e1", CourseID: "taken"},
			},
		},
	}}
	catalog := &fakeCourseCatalog{courses: []models.Course{
		{ID: "open", Code: "CS210", Program: "Computer Science", YearLevels: []int{2}, Capacity: 30, Enrolled: 1},
		{ID: "taken", Code: "CS201", Program: "Computer Science", YearLevels: []int{2}, Capacity: 30, Enrolled: 1},
	}}
	h := NewCourseHandler(service.NewCourseService(catalog, students, nil))

	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/students/s1/courses", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	h.ListEligible(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	var offers []dto.CourseOffer
	require.NoError(t, json.Unmarshal(envelope.Data, &offers))
	require.Len(t, offers, 2)

	byID := map[string]dto.CourseOffer{}
	for _, offer := range offers {
		byID[offer.ID] = offer
	}
	assert.False(t, byID["open"].AlreadyEnrolled)
	assert.True(t, byID["taken"].AlreadyEnrolled)
}

func TestCourseHandlerGetNotFound(t *testing.T) {
	h := NewCourseHandler(service.NewCourseService(&fakeCourseCatalog{}, &fakeStudentStore{}, nil))

	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/courses/ghost", nil)
	c.Params = gin.Params{{Key: "id", Value: "ghost"}}
	h.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
