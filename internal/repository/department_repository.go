package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/section-allocator/internal/models"
)

// DepartmentRepository persists academic departments.
type DepartmentRepository struct {
	db *sqlx.DB
}

// NewDepartmentRepository constructs the repository.
func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// List returns every department ordered by code.
func (r *DepartmentRepository) List(ctx context.Context) ([]models.Department, error) {
	const query = `SELECT id, code, name, created_at, updated_at FROM departments ORDER BY code`
	var departments []models.Department
	if err := r.db.SelectContext(ctx, &departments, query); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

// FindByCode loads a department by its business key.
func (r *DepartmentRepository) FindByCode(ctx context.Context, code string) (*models.Department, error) {
	const query = `SELECT id, code, name, created_at, updated_at FROM departments WHERE code = $1`
	var department models.Department
	if err := r.db.GetContext(ctx, &department, query, code); err != nil {
		return nil, err
	}
	return &department, nil
}

// Create inserts a department.
func (r *DepartmentRepository) Create(ctx context.Context, department *models.Department) error {
	if department.ID == "" {
		department.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	department.CreatedAt = now
	department.UpdatedAt = now

	const query = `INSERT INTO departments (id, code, name, created_at, updated_at) VALUES (:id, :code, :name, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, department); err != nil {
		return fmt.Errorf("insert department: %w", err)
	}
	return nil
}
