package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/section-allocator/internal/models"
)

const semesterColumns = `id, name, type, status, preference_open_at, preference_closed_at, created_at, updated_at`

// SemesterRepository reads semesters and their course pivot.
type SemesterRepository struct {
	db *sqlx.DB
}

// NewSemesterRepository constructs the repository.
func NewSemesterRepository(db *sqlx.DB) *SemesterRepository {
	return &SemesterRepository{db: db}
}

func (r *SemesterRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindByID loads a semester.
func (r *SemesterRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Semester, error) {
	query := `SELECT ` + semesterColumns + ` FROM semesters WHERE id = $1`
	var semester models.Semester
	if err := sqlx.GetContext(ctx, r.exec(exec), &semester, query, id); err != nil {
		return nil, err
	}
	return &semester, nil
}

// LockForScheduling loads the semester row with FOR UPDATE, serialising runs on the same semester.
// exec must be a transaction.
func (r *SemesterRepository) LockForScheduling(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Semester, error) {
	query := `SELECT ` + semesterColumns + ` FROM semesters WHERE id = $1 FOR UPDATE`
	var semester models.Semester
	if err := sqlx.GetContext(ctx, exec, &semester, query, id); err != nil {
		return nil, err
	}
	return &semester, nil
}

// ListCourses returns the semester/course pivot rows.
func (r *SemesterRepository) ListCourses(ctx context.Context, exec sqlx.ExtContext, semesterID string) ([]models.SemesterCourse, error) {
	const query = `SELECT semester_id, course_id, sections_required, sections_per_instructor FROM semester_courses WHERE semester_id = $1 ORDER BY course_id`
	var pivots []models.SemesterCourse
	if err := sqlx.SelectContext(ctx, r.exec(exec), &pivots, query, semesterID); err != nil {
		return nil, fmt.Errorf("list semester courses: %w", err)
	}
	return pivots, nil
}
