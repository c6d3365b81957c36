package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/section-allocator/internal/models"
)

const courseColumns = `id, code, name, department_id, credits, hours, sections, office_hours, created_at, updated_at`

// CourseRepository reads the course catalogue.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

func (r *CourseRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListForSemester returns courses linked to the semester, preferred for it, or already scheduled in it.
func (r *CourseRepository) ListForSemester(ctx context.Context, exec sqlx.ExtContext, semesterID string) ([]models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id IN (
    SELECT course_id FROM semester_courses WHERE semester_id = $1
    UNION SELECT course_id FROM instructor_preferences WHERE semester_id = $1
    UNION SELECT course_id FROM sections WHERE semester_id = $1
) ORDER BY code`
	var courses []models.Course
	if err := sqlx.SelectContext(ctx, r.exec(exec), &courses, query, semesterID); err != nil {
		return nil, fmt.Errorf("list semester courses: %w", err)
	}
	return courses, nil
}

// FindByID loads one course.
func (r *CourseRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`
	var course models.Course
	if err := sqlx.GetContext(ctx, r.exec(exec), &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}
