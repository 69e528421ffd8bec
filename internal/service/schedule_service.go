package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/unidesk/registrar-api/internal/dto"
	"github.com/unidesk/registrar-api/internal/models"
	appErrors "github.com/unidesk/registrar-api/pkg/errors"
	"github.com/unidesk/registrar-api/pkg/export"
)

type scheduleCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type tabularExporter interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfExporter interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ScheduleOptions bound the projected grid.
type ScheduleOptions struct {
	StartHour int
	EndHour   int
	CacheTTL  time.Duration
}

// ScheduleService projects a student's occupied slots into the weekly
// grid the dashboard renders, caching the projection per student.
type ScheduleService struct {
	students studentStore
	cache    scheduleCache
	metrics  *MetricsService
	csv      tabularExporter
	pdf      pdfExporter
	opts     ScheduleOptions
	logger   *zap.Logger
}

// NewScheduleService constructs ScheduleService. cache, metrics and
// the exporters may be nil.
func NewScheduleService(students studentStore, cache scheduleCache, metrics *MetricsService, csv tabularExporter, pdf pdfExporter, opts ScheduleOptions, logger *zap.Logger) *ScheduleService {
	if opts.StartHour <= 0 {
		opts.StartHour = 8
	}
	if opts.EndHour <= opts.StartHour {
		opts.EndHour = opts.StartHour + 10
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{students: students, cache: cache, metrics: metrics, csv: csv, pdf: pdf, opts: opts, logger: logger}
}

func gridCacheKey(studentID string) string {
	return fmt.Sprintf("schedule:grid:%s", studentID)
}

// WeeklyGrid returns the hour-by-day projection for a student and
// whether it was served from cache.
func (s *ScheduleService) WeeklyGrid(ctx context.Context, studentID string) (*dto.ScheduleGridResponse, bool, error) {
	if s.cache != nil {
		var cached dto.ScheduleGridResponse
		if err := s.cache.Get(ctx, gridCacheKey(studentID), &cached); err == nil {
			s.metrics.ObserveCacheLookup(true)
			return &cached, true, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("schedule cache read failed", zap.Error(err))
		}
		s.metrics.ObserveCacheLookup(false)
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	grid := ProjectToGrid(student.ID, student.Schedule, models.Weekdays, s.opts.StartHour, s.opts.EndHour)

	if s.cache != nil {
		if err := s.cache.Set(ctx, gridCacheKey(studentID), grid, s.opts.CacheTTL); err != nil {
			s.logger.Warn("schedule cache write failed", zap.Error(err))
		}
	}
	return grid, false, nil
}

// InvalidateStudent drops the cached grid after an enroll or drop.
func (s *ScheduleService) InvalidateStudent(ctx context.Context, studentID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, gridCacheKey(studentID)); err != nil {
		s.logger.Warn("schedule cache invalidation failed", zap.String("student_id", studentID), zap.Error(err))
	}
}

// ProjectToGrid maps occupied slots onto (day, hour) cells. A slot
// covers an hour cell when hour(TimeStart) <= h < hour(TimeEnd), the
// half-open rule the dashboard grid has always used. The conflict
// check keeps its own closed-interval rule.
func ProjectToGrid(studentID string, schedule models.WeekSchedule, days []string, startHour, endHour int) *dto.ScheduleGridResponse {
	grid := &dto.ScheduleGridResponse{
		StudentID: studentID,
		Days:      days,
		StartHour: startHour,
		EndHour:   endHour,
	}
	for hour := startHour; hour < endHour; hour++ {
		row := dto.GridRow{Hour: hour, Label: dto.HourLabel(hour), Cells: map[string]*dto.GridCell{}}
		for _, day := range days {
			for _, slot := range schedule[day] {
				sh, ok := clockHour(slot.TimeStart)
				if !ok {
					continue
				}
				eh, ok := clockHour(slot.TimeEnd)
				if !ok {
					continue
				}
				if sh <= hour && hour < eh {
					row.Cells[day] = &dto.GridCell{
						CourseID:   slot.CourseID,
						CourseCode: slot.CourseCode,
						CourseName: slot.CourseName,
						TimeStart:  slot.TimeStart,
						TimeEnd:    slot.TimeEnd,
						Location:   slot.Location,
						Color:      slot.Color,
					}
					break
				}
			}
		}
		grid.Rows = append(grid.Rows, row)
	}
	return grid
}

// Export renders the student's schedule as a flat table in the
// requested format ("csv" or "pdf").
func (s *ScheduleService) Export(ctx context.Context, studentID, format string) ([]byte, string, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	dataset := scheduleDataset(student)
	switch format {
	case "csv":
		if s.csv == nil {
			return nil, "", appErrors.Clone(appErrors.ErrValidation, "csv export not configured")
		}
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", nil
	case "pdf":
		if s.pdf == nil {
			return nil, "", appErrors.Clone(appErrors.ErrValidation, "pdf export not configured")
		}
		title := fmt.Sprintf("Weekly Schedule - %s", student.FullName)
		payload, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

func scheduleDataset(student *models.Student) export.Dataset {
	headers := []string{"Day", "Start", "End", "Code", "Course", "Location"}
	var rows []map[string]string
	for _, day := range models.Weekdays {
		slots := append([]models.ScheduleSlot(nil), student.Schedule[day]...)
		sort.SliceStable(slots, func(i, j int) bool {
			a, _ := clockMinutes(slots[i].TimeStart)
			b, _ := clockMinutes(slots[j].TimeStart)
			return a < b
		})
		for _, slot := range slots {
			rows = append(rows, map[string]string{
				"Day":      day,
				"Start":    slot.TimeStart,
				"End":      slot.TimeEnd,
				"Code":     slot.CourseCode,
				"Course":   slot.CourseName,
				"Location": slot.Location,
			})
		}
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
