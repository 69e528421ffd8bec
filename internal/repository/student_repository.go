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

// StudentRepository persists student rows together with the
// engine-owned aggregates, stored as jsonb documents.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

type studentRow struct {
	ID               string    `db:"id"`
	Number           string    `db:"number"`
	FullName         string    `db:"full_name"`
	Email            string    `db:"email"`
	Program          string    `db:"program"`
	YearLevel        int       `db:"year_level"`
	GPA              float64   `db:"gpa"`
	CreditsCompleted int       `db:"credits_completed"`
	Status           string    `db:"status"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`

	Schedule          types.JSONText `db:"schedule"`
	Enrollments       types.JSONText `db:"enrollments"`
	EnrollmentHistory types.JSONText `db:"enrollment_history"`
	AcademicHistory   types.JSONText `db:"academic_history"`
}

const studentColumns = `id, number, full_name, email, program, year_level, gpa, credits_completed, status,
        schedule, enrollments, enrollment_history, academic_history, created_at, updated_at`

func (row *studentRow) toModel() (*models.Student, error) {
	student := &models.Student{
		ID:               row.ID,
		Number:           row.Number,
		FullName:         row.FullName,
		Email:            row.Email,
		Program:          row.Program,
		YearLevel:        row.YearLevel,
		GPA:              row.GPA,
		CreditsCompleted: row.CreditsCompleted,
		Status:           row.Status,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
		Schedule:         models.WeekSchedule{},
	}
	if len(row.Schedule) > 0 {
		if err := json.Unmarshal(row.Schedule, &student.Schedule); err != nil {
			return nil, fmt.Errorf("decode schedule for %s: %w", row.ID, err)
		}
	}
	if len(row.Enrollments) > 0 {
		if err := json.Unmarshal(row.Enrollments, &student.Enrollments); err != nil {
			return nil, fmt.Errorf("decode enrollments for %s: %w", row.ID, err)
		}
	}
	if len(row.EnrollmentHistory) > 0 {
		if err := json.Unmarshal(row.EnrollmentHistory, &student.EnrollmentHistory); err != nil {
			return nil, fmt.Errorf("decode enrollment history for %s: %w", row.ID, err)
		}
	}
	if len(row.AcademicHistory) > 0 {
		if err := json.Unmarshal(row.AcademicHistory, &student.AcademicHistory); err != nil {
			return nil, fmt.Errorf("decode academic history for %s: %w", row.ID, err)
		}
	}
	return student, nil
}

// FindByID loads a full student aggregate.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE id = $1", studentColumns)
	var row studentRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	return row.toModel()
}

// List returns students filtered by search term, program and status.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(full_name ILIKE $%d OR number ILIKE $%d OR email ILIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Program != "" {
		conditions = append(conditions, fmt.Sprintf("program = $%d", len(args)+1))
		args = append(args, filter.Program)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"full_name":  "full_name",
		"number":     "number",
		"gpa":        "gpa",
		"created_at": "created_at",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "full_name"
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

	query := fmt.Sprintf("SELECT %s FROM students%s ORDER BY %s %s LIMIT %d OFFSET %d",
		studentColumns, clause, orderBy, order, size, offset)

	var rows []studentRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	students := make([]models.Student, 0, len(rows))
	for i := range rows {
		student, err := rows[i].toModel()
		if err != nil {
			return nil, 0, err
		}
		students = append(students, *student)
	}

	countQuery := "SELECT COUNT(*) FROM students" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// SaveAggregates writes back the engine-owned collections after an
// enroll or drop. Scalar profile fields are not touched here.
func (r *StudentRepository) SaveAggregates(ctx context.Context, student *models.Student) error {
	schedule, err := json.Marshal(student.Schedule)
	if err != nil {
		return fmt.Errorf("encode schedule: %w", err)
	}
	enrollments, err := json.Marshal(student.Enrollments)
	if err != nil {
		return fmt.Errorf("encode enrollments: %w", err)
	}
	history, err := json.Marshal(student.EnrollmentHistory)
	if err != nil {
		return fmt.Errorf("encode enrollment history: %w", err)
	}

	const query = `UPDATE students
        SET schedule = $2, enrollments = $3, enrollment_history = $4, updated_at = $5
        WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, student.ID, schedule, enrollments, history, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save student aggregates: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("save student aggregates: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("save student aggregates: student %s not found", student.ID)
	}
	return nil
}
