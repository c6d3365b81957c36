package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/section-allocator/internal/models"
)

const instructorColumns = `id, name, email, position, min_credits, deleted_at, created_at, updated_at`

// InstructorRepository reads instructors together with their department memberships.
type InstructorRepository struct {
	db *sqlx.DB
}

// NewInstructorRepository constructs the repository.
func NewInstructorRepository(db *sqlx.DB) *InstructorRepository {
	return &InstructorRepository{db: db}
}

func (r *InstructorRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindByID loads an active instructor. Soft-deleted instructors are reported as sql.ErrNoRows.
func (r *InstructorRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Instructor, error) {
	target := r.exec(exec)
	query := `SELECT ` + instructorColumns + ` FROM instructors WHERE id = $1 AND deleted_at IS NULL`
	var instructor models.Instructor
	if err := sqlx.GetContext(ctx, target, &instructor, query, id); err != nil {
		return nil, err
	}
	list := []models.Instructor{instructor}
	if err := r.attachDepartments(ctx, target, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// ListActive returns every instructor that is not soft-deleted, ordered by name.
func (r *InstructorRepository) ListActive(ctx context.Context, exec sqlx.ExtContext) ([]models.Instructor, error) {
	target := r.exec(exec)
	query := `SELECT ` + instructorColumns + ` FROM instructors WHERE deleted_at IS NULL ORDER BY name, id`
	var instructors []models.Instructor
	if err := sqlx.SelectContext(ctx, target, &instructors, query); err != nil {
		return nil, fmt.Errorf("list instructors: %w", err)
	}
	if err := r.attachDepartments(ctx, target, instructors); err != nil {
		return nil, err
	}
	return instructors, nil
}

func (r *InstructorRepository) attachDepartments(ctx context.Context, exec sqlx.ExtContext, instructors []models.Instructor) error {
	if len(instructors) == 0 {
		return nil
	}
	ids := make([]string, len(instructors))
	index := make(map[string]int, len(instructors))
	for i, instructor := range instructors {
		ids[i] = instructor.ID
		index[instructor.ID] = i
	}

	const query = `SELECT instructor_id, department_id FROM instructor_departments WHERE instructor_id = ANY($1) ORDER BY instructor_id, department_id`
	var rows []models.InstructorDepartment
	if err := sqlx.SelectContext(ctx, exec, &rows, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("list instructor departments: %w", err)
	}
	for _, row := range rows {
		if i, ok := index[row.InstructorID]; ok {
			instructors[i].DepartmentIDs = append(instructors[i].DepartmentIDs, row.DepartmentID)
		}
	}
	return nil
}
