package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unidesk/registrar-api/internal/models"
	appErrors "github.com/unidesk/registrar-api/pkg/errors"
)

type studentStore interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	SaveAggregates(ctx context.Context, student *models.Student) error
}

type courseStore interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ReserveSeat(ctx context.Context, id string) (bool, error)
	ReleaseSeat(ctx context.Context, id string) error
}

type activityRecorder interface {
	Record(activity models.Activity)
}

type gridInvalidator interface {
	InvalidateStudent(ctx context.Context, studentID string)
}

// EnrollRequest identifies the student and candidate course.
type EnrollRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	CourseID  string `json:"course_id" validate:"required"`
}

// EnrollOutcome returns the updated aggregates after a successful enroll.
type EnrollOutcome struct {
	Student    *models.Student    `json:"student"`
	Course     *models.Course     `json:"course"`
	Enrollment *models.Enrollment `json:"enrollment"`
}

// DropOutcome returns the updated aggregates after a successful drop.
type DropOutcome struct {
	Student *models.Student    `json:"student"`
	Dropped *models.Enrollment `json:"dropped"`
}

// EnrollmentService is the enrollment engine: it runs the admission
// checks in order, mutates the student and course aggregates on
// success and keeps the append-only history. Checks never have side
// effects; a rejected attempt leaves every aggregate untouched.
type EnrollmentService struct {
	students  studentStore
	courses   courseStore
	activity  activityRecorder
	grids     gridInvalidator
	colors    ColorAssigner
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService. activity, grids
// and metrics may be nil.
func NewEnrollmentService(students studentStore, courses courseStore, activity activityRecorder, grids gridInvalidator, colors ColorAssigner, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if colors == nil {
		colors = NewHSLColorAssigner(time.Now().UnixNano())
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		students:  students,
		courses:   courses,
		activity:  activity,
		grids:     grids,
		colors:    colors,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// Enroll admits a student into a course. Pre-flight checks run in a
// fixed order so the caller always sees the most specific rejection:
// duplicate, capacity, schedule conflict, prerequisites.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (*EnrollOutcome, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	if rejection := s.admissionCheck(student, course); rejection != nil {
		s.observeDecision("enroll", rejection.Code)
		return nil, rejection
	}

	now := time.Now().UTC()
	enrollment := models.Enrollment{
		ID:         uuid.NewString(),
		CourseID:   course.ID,
		CourseCode: course.Code,
		CourseName: course.Name,
		Instructor: course.Instructor,
		Credits:    course.Credits,
		Term:       course.Term,
		EnrolledAt: now,
		Status:     models.EnrollmentStatusEnrolled,
	}

	schedule := student.Schedule.Clone()
	for _, meeting := range course.Meetings {
		schedule[meeting.Day] = append(schedule[meeting.Day], models.ScheduleSlot{
			CourseID:   course.ID,
			CourseCode: course.Code,
			CourseName: course.Name,
			TimeStart:  meeting.TimeStart,
			TimeEnd:    meeting.TimeEnd,
			Location:   meeting.Location,
			Color:      s.colors.Assign(course.Code),
		})
	}
	student.Schedule = schedule
	student.Enrollments = append(student.Enrollments, enrollment)
	student.EnrollmentHistory = append(student.EnrollmentHistory, models.EnrollmentEvent{
		Enrollment: enrollment,
		Action:     models.EnrollmentActionEnrolled,
		Date:       now,
	})

	// Reserve the seat before persisting the student so a lost race
	// against another session surfaces as COURSE_FULL instead of an
	// overshot counter.
	reserved, err := s.courses.ReserveSeat(ctx, course.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reserve seat")
	}
	if !reserved {
		s.observeDecision("enroll", appErrors.ErrCourseFull.Code)
		return nil, appErrors.Clone(appErrors.ErrCourseFull, "")
	}

	if err := s.students.SaveAggregates(ctx, student); err != nil {
		if releaseErr := s.courses.ReleaseSeat(ctx, course.ID); releaseErr != nil {
			s.logger.Error("failed to release seat after save failure",
				zap.String("course_id", course.ID), zap.Error(releaseErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save student schedule")
	}
	course.Enrolled++

	s.recordActivity(models.ActivityActionEnrolled, student, &enrollment)
	s.invalidateGrid(ctx, student.ID)
	s.observeDecision("enroll", "success")
	s.logger.Info("student enrolled",
		zap.String("student_id", student.ID),
		zap.String("course_code", course.Code),
		zap.String("enrollment_id", enrollment.ID))

	return &EnrollOutcome{Student: student, Course: course, Enrollment: &enrollment}, nil
}

// admissionCheck runs the read-only pre-flight checks in order and
// returns the first rejection, or nil when the enrollment is admissible.
func (s *EnrollmentService) admissionCheck(student *models.Student, course *models.Course) *appErrors.Error {
	if student.ActiveEnrollment(course.ID) != nil {
		return appErrors.Clone(appErrors.ErrAlreadyEnrolled, "")
	}
	if !course.HasSeat() {
		return appErrors.Clone(appErrors.ErrCourseFull, "")
	}

	// The conflict check runs against a draft that already holds empty
	// day lists for any new days the candidate introduces.
	draft := student.Schedule.Clone()
	for _, meeting := range course.Meetings {
		if _, ok := draft[meeting.Day]; !ok {
			draft[meeting.Day] = []models.ScheduleSlot{}
		}
	}
	if HasScheduleConflict(course.Meetings, draft) {
		return appErrors.Clone(appErrors.ErrScheduleConflict, "")
	}

	if missing := MissingPrerequisites(course, student); len(missing) > 0 {
		return appErrors.WithDetails(appErrors.ErrMissingPrerequisites, "", missing)
	}
	return nil
}

// Drop reverses an enrollment: the record leaves the active set, its
// slots leave the schedule on every day and a dropped event is
// appended to the history. The enrollment id is never reused.
func (s *EnrollmentService) Drop(ctx context.Context, studentID, enrollmentID string) (*DropOutcome, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	var dropped *models.Enrollment
	remaining := make([]models.Enrollment, 0, len(student.Enrollments))
	for i := range student.Enrollments {
		if student.Enrollments[i].ID == enrollmentID {
			e := student.Enrollments[i]
			dropped = &e
			continue
		}
		remaining = append(remaining, student.Enrollments[i])
	}
	if dropped == nil {
		s.observeDecision("drop", appErrors.ErrEnrollmentNotFound.Code)
		return nil, appErrors.Clone(appErrors.ErrEnrollmentNotFound, "")
	}

	student.Enrollments = remaining
	schedule := student.Schedule.Clone()
	for day, slots := range schedule {
		kept := slots[:0]
		for _, slot := range slots {
			if slot.CourseID != dropped.CourseID {
				kept = append(kept, slot)
			}
		}
		schedule[day] = kept
	}
	student.Schedule = schedule

	now := time.Now().UTC()
	student.EnrollmentHistory = append(student.EnrollmentHistory, models.EnrollmentEvent{
		Enrollment: *dropped,
		Action:     models.EnrollmentActionDropped,
		Date:       now,
	})

	if err := s.students.SaveAggregates(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save student schedule")
	}

	// The counter release happens after the aggregates are durable; a
	// failure here only leaves a transient overcount that the nightly
	// reconciliation repairs.
	if err := s.courses.ReleaseSeat(ctx, dropped.CourseID); err != nil {
		s.logger.Error("failed to release seat on drop",
			zap.String("course_id", dropped.CourseID), zap.Error(err))
	}

	s.recordActivity(models.ActivityActionDropped, student, dropped)
	s.invalidateGrid(ctx, student.ID)
	s.observeDecision("drop", "success")
	s.logger.Info("enrollment dropped",
		zap.String("student_id", student.ID),
		zap.String("course_code", dropped.CourseCode),
		zap.String("enrollment_id", dropped.ID))

	return &DropOutcome{Student: student, Dropped: dropped}, nil
}

// Active returns the student's current enrollments.
func (s *EnrollmentService) Active(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student.Enrollments, nil
}

// History returns the append-only enroll/drop log, oldest first.
func (s *EnrollmentService) History(ctx context.Context, studentID string) ([]models.EnrollmentEvent, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student.EnrollmentHistory, nil
}

func (s *EnrollmentService) recordActivity(action string, student *models.Student, enrollment *models.Enrollment) {
	if s.activity == nil {
		return
	}
	details, err := json.Marshal(map[string]string{
		"student_id":    student.ID,
		"enrollment_id": enrollment.ID,
		"course_code":   enrollment.CourseCode,
		"course_name":   enrollment.CourseName,
	})
	if err != nil {
		s.logger.Warn("failed to encode activity details", zap.Error(err))
		return
	}
	s.activity.Record(models.Activity{
		Type:    models.ActivityTypeEnrollment,
		Action:  action,
		Details: details,
		Actor:   student.Number,
	})
}

func (s *EnrollmentService) invalidateGrid(ctx context.Context, studentID string) {
	if s.grids == nil {
		return
	}
	s.grids.InvalidateStudent(ctx, studentID)
}

func (s *EnrollmentService) observeDecision(action, outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveEnrollmentDecision(action, outcome)
}
