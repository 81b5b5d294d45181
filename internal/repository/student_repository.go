package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academy-adp-api/internal/models"
)

const studentColumns = `s.id, s.user_id, s.first_name, s.paternal_surname, s.maternal_surname, s.document_type, s.document_number,
        s.birth_date, s.school_id, s.status, s.created_at, s.updated_at, s.deleted_at`

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns non-deleted students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	base := "FROM students s JOIN users u ON u.id = s.user_id LEFT JOIN schools sc ON sc.id = s.school_id"
	conditions := []string{"s.deleted_at IS NULL"}
	var args []interface{}

	if filter.SchoolID != "" {
		conditions = append(conditions, fmt.Sprintf("s.school_id = $%d", len(args)+1))
		args = append(args, filter.SchoolID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("s.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.first_name || ' ' || s.paternal_surname) LIKE $%d OR s.document_number LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"first_name":       "s.first_name",
		"paternal_surname": "s.paternal_surname",
		"created_at":       "s.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "s.created_at"
	}
	_, size, offset := normalizePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT %s,
        u.username, u.email, sc.name AS school_name
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, studentColumns, base, column, sortOrder(filter.SortOrder), size, offset)

	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a non-deleted student.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students s WHERE s.id = $1 AND s.deleted_at IS NULL`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindDetailByID fetches a non-deleted student with user and school info.
func (r *StudentRepository) FindDetailByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	query := fmt.Sprintf(`SELECT %s,
        u.username, u.email, sc.name AS school_name
        FROM students s JOIN users u ON u.id = s.user_id LEFT JOIN schools sc ON sc.id = s.school_id
        WHERE s.id = $1 AND s.deleted_at IS NULL`, studentColumns)
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, exec sqlx.ExtContext, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	if student.Status == "" {
		student.Status = models.StudentStatusActive
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, user_id, first_name, paternal_surname, maternal_surname, document_type, document_number, birth_date, school_id, status, created_at, updated_at)
        VALUES (:id, :user_id, :first_name, :paternal_surname, :maternal_surname, :document_type, :document_number, :birth_date, :school_id, :status, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, pickExec(r.db, exec), query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// SoftDelete stamps deleted_at; enrollments are left untouched.
func (r *StudentRepository) SoftDelete(ctx context.Context, id string) error {
	const query = `UPDATE students SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("soft delete student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("soft delete student: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListEligibleForCourse returns active students not yet holding an ACTIVE, COMPLETED or PENDING
// enrollment in the course. When prerequisiteID is set the student must also own an APPROVED
// report card for that course.
func (r *StudentRepository) ListEligibleForCourse(ctx context.Context, courseID string, prerequisiteID *string) ([]models.Student, error) {
	args := []interface{}{
		models.StudentStatusActive,
		courseID,
		models.EnrollmentStatusActive,
		models.EnrollmentStatusCompleted,
		models.EnrollmentStatusPending,
	}
	query := fmt.Sprintf(`SELECT %s FROM students s
        WHERE s.deleted_at IS NULL AND s.status = $1
        AND NOT EXISTS (
            SELECT 1 FROM enrollments e
            JOIN groups g ON g.id = e.group_id
            JOIN levels l ON l.id = g.level_id
            WHERE e.student_id = s.id AND l.course_id = $2 AND e.status IN ($3, $4, $5))`, studentColumns)
	if prerequisiteID != nil {
		query += `
        AND EXISTS (
            SELECT 1 FROM report_cards rc
            JOIN enrollments pe ON pe.id = rc.enrollment_id
            JOIN groups pg ON pg.id = pe.group_id
            JOIN levels pl ON pl.id = pg.level_id
            WHERE pe.student_id = s.id AND pl.course_id = $6 AND rc.status = $7)`
		args = append(args, *prerequisiteID, models.ReportCardApproved)
	}
	query += " ORDER BY s.paternal_surname, s.first_name"

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list eligible students: %w", err)
	}
	return students, nil
}
