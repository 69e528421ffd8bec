package service

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/unidesk/registrar-api/internal/dto"
	"github.com/unidesk/registrar-api/internal/models"
	appErrors "github.com/unidesk/registrar-api/pkg/errors"
)

type courseCatalog interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
}

// CourseService serves the course catalog and, per student, the
// eligible-course view with admission annotations.
type CourseService struct {
	courses  courseCatalog
	students studentStore
	logger   *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(courses courseCatalog, students studentStore, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{courses: courses, students: students, logger: logger}
}

// List returns catalog pages with pagination metadata.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return courses, pagination, nil
}

// Find returns a single course snapshot.
func (s *CourseService) Find(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// ListEligible returns the courses offered to the student's program
// and year level, each annotated with the same checks the engine runs
// so the UI can disable inadmissible cards up front.
func (s *CourseService) ListEligible(ctx context.Context, studentID string, filter models.CourseFilter) ([]dto.CourseOffer, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	filter.Program = student.Program
	filter.YearLevel = student.YearLevel
	courses, _, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}

	offers := make([]dto.CourseOffer, 0, len(courses))
	for i := range courses {
		course := courses[i]
		if !course.EligibleFor(student.Program, student.YearLevel) {
			continue
		}
		offer := dto.CourseOffer{
			Course:               course,
			AlreadyEnrolled:      student.ActiveEnrollment(course.ID) != nil,
			AtCapacity:           !course.HasSeat(),
			HasConflict:          HasScheduleConflict(course.Meetings, student.Schedule),
			MissingPrerequisites: MissingPrerequisites(&course, student),
		}
		offers = append(offers, offer)
	}
	return offers, nil
}
