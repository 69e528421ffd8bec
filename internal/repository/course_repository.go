package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/unidesk/registrar-api/internal/models"
)

// CourseRepository persists the course catalog and its enrollment counters.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

type courseRow struct {
	ID         string    `db:"id"`
	Code       string    `db:"code"`
	Name       string    `db:"name"`
	Instructor string    `db:"instructor"`
	Department string    `db:"department"`
	Credits    int       `db:"credits"`
	Capacity   int       `db:"capacity"`
	Enrolled   int       `db:"enrolled"`
	Program    string    `db:"program"`
	Term       string    `db:"term"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`

	Prerequisites types.JSONText `db:"prerequisites"`
	Meetings      types.JSONText `db:"meetings"`
	YearLevels    types.JSONText `db:"year_levels"`
}

const courseColumns = `id, code, name, instructor, department, credits, capacity, enrolled,
        prerequisites, meetings, program, year_levels, term, created_at, updated_at`

func (row *courseRow) toModel() (*models.Course, error) {
	course := &models.Course{
		ID:         row.ID,
		Code:       row.Code,
		Name:       row.Name,
		Instructor: row.Instructor,
		Department: row.Department,
		Credits:    row.Credits,
		Capacity:   row.Capacity,
		Enrolled:   row.Enrolled,
		Program:    row.Program,
		Term:       row.Term,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
	if len(row.Prerequisites) > 0 {
		if err := json.Unmarshal(row.Prerequisites, &course.Prerequisites); err != nil {
			return nil, fmt.Errorf("decode prerequisites for %s: %w", row.ID, err)
		}
	}
	if len(row.Meetings) > 0 {
		if err := json.Unmarshal(row.Meetings, &course.Meetings); err != nil {
			return nil, fmt.Errorf("decode meetings for %s: %w", row.ID, err)
		}
	}
	if len(row.YearLevels) > 0 {
		if err := json.Unmarshal(row.YearLevels, &course.YearLevels); err != nil {
			return nil, fmt.Errorf("decode year levels for %s: %w", row.ID, err)
		}
	}
	return course, nil
}

// FindByID loads a course snapshot.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE id = $1", courseColumns)
	var row courseRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	return row.toModel()
}

// List returns catalog pages filtered by the provided criteria.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(code ILIKE $%d OR name ILIKE $%d OR instructor ILIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Program != "" {
		conditions = append(conditions, fmt.Sprintf("program = $%d", len(args)+1))
		args = append(args, filter.Program)
	}
	if filter.Term != "" {
		conditions = append(conditions, fmt.Sprintf("term = $%d", len(args)+1))
		args = append(args, filter.Term)
	}
	if filter.YearLevel > 0 {
		conditions = append(conditions, fmt.Sprintf("year_levels @> $%d", len(args)+1))
		args = append(args, fmt.Sprintf("[%d]", filter.YearLevel))
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"code":       "code",
		"name":       "name",
		"department": "department",
		"enrolled":   "enrolled",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "code"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM courses%s ORDER BY %s %s LIMIT %d OFFSET %d",
		courseColumns, clause, orderBy, order, size, offset)

	var rows []courseRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	courses := make([]models.Course, 0, len(rows))
	for i := range rows {
		course, err := rows[i].toModel()
		if err != nil {
			return nil, 0, err
		}
		courses = append(courses, *course)
	}

	countQuery := "SELECT COUNT(*) FROM courses" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// ReserveSeat atomically increments the enrolled counter. It reports
// false without error when capacity is already reached, which makes
// the conditional update the authoritative capacity gate; the
// service's in-memory check is only a fast path for error ordering.
func (r *CourseRepository) ReserveSeat(ctx context.Context, id string) (bool, error) {
	const query = `UPDATE courses SET enrolled = enrolled + 1, updated_at = $2
        WHERE id = $1 AND enrolled < capacity`
	result, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("reserve seat: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reserve seat: %w", err)
	}
	return affected > 0, nil
}

// ReleaseSeat decrements the enrolled counter, floored at zero.
func (r *CourseRepository) ReleaseSeat(ctx context.Context, id string) error {
	const query = `UPDATE courses SET enrolled = GREATEST(enrolled - 1, 0), updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("release seat: %w", err)
	}
	return nil
}

// ReconcileEnrolledCounts recomputes every enrolled counter from the
// student documents. Run periodically to heal drift from crashed
// writes or concurrent sessions. The left join keeps courses with no
// remaining enrollments in scope, so a counter stranded above zero
// after the last drop is reset too.
func (r *CourseRepository) ReconcileEnrolledCounts(ctx context.Context) (int64, error) {
	const query = `WITH counts AS (
            SELECT enr->>'course_id' AS course_id, COUNT(*) AS enrolled
            FROM students s, jsonb_array_elements(s.enrollments) enr
            GROUP BY 1
        )
        UPDATE courses c
        SET enrolled = COALESCE(counts.enrolled, 0)
        FROM courses c2
        LEFT JOIN counts ON counts.course_id = c2.id
        WHERE c.id = c2.id AND c.enrolled <> COALESCE(counts.enrolled, 0)`
	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("reconcile enrolled counts: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reconcile enrolled counts: %w", err)
	}
	return affected, nil
}
