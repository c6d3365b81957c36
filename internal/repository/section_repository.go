package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/section-allocator/internal/models"
)

const sectionColumns = `id, course_id, semester_id, instructor_id, days, start_time, end_time, room, status, created_at, updated_at`

// SectionRepository persists scheduled sections.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs the repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

func (r *SectionRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a section, assigning an id and timestamps when missing.
func (r *SectionRepository) Create(ctx context.Context, exec sqlx.ExtContext, section *models.Section) error {
	if section == nil {
		return fmt.Errorf("section payload is nil")
	}
	if section.CourseID == "" || section.SemesterID == "" {
		return fmt.Errorf("course_id and semester_id are required")
	}
	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	if section.Status == "" {
		section.Status = models.SectionStatusScheduled
	}
	if !section.Status.Valid() {
		return fmt.Errorf("unknown section status %q", section.Status)
	}
	now := time.Now().UTC()
	if section.CreatedAt.IsZero() {
		section.CreatedAt = now
	}
	if section.UpdatedAt.IsZero() {
		section.UpdatedAt = now
	}

	const query = `INSERT INTO sections (` + sectionColumns + `)
VALUES (:id, :course_id, :semester_id, :instructor_id, :days, :start_time, :end_time, :room, :status, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, section); err != nil {
		return fmt.Errorf("insert section: %w", err)
	}
	return nil
}

// ListBySemester returns every section of the semester in creation order.
func (r *SectionRepository) ListBySemester(ctx context.Context, exec sqlx.ExtContext, semesterID string) ([]models.Section, error) {
	const query = `SELECT ` + sectionColumns + ` FROM sections WHERE semester_id = $1 ORDER BY created_at, id`
	var sections []models.Section
	if err := sqlx.SelectContext(ctx, r.exec(exec), &sections, query, semesterID); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

// FindByID loads one section.
func (r *SectionRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Section, error) {
	const query = `SELECT ` + sectionColumns + ` FROM sections WHERE id = $1`
	var section models.Section
	if err := sqlx.GetContext(ctx, r.exec(exec), &section, query, id); err != nil {
		return nil, err
	}
	return &section, nil
}

// DeleteBySemester removes the semester's whole schedule and reports how many rows went.
func (r *SectionRepository) DeleteBySemester(ctx context.Context, exec sqlx.ExtContext, semesterID string) (int64, error) {
	const query = `DELETE FROM sections WHERE semester_id = $1`
	result, err := r.exec(exec).ExecContext(ctx, query, semesterID)
	if err != nil {
		return 0, fmt.Errorf("delete semester sections: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("semester sections rows affected: %w", err)
	}
	return affected, nil
}

// UpdateInstructor reassigns a section and marks it as manually placed.
func (r *SectionRepository) UpdateInstructor(ctx context.Context, exec sqlx.ExtContext, id string, instructorID *string) error {
	const query = `UPDATE sections SET instructor_id = $1, status = $2, updated_at = $3 WHERE id = $4`
	result, err := r.exec(exec).ExecContext(ctx, query, instructorID, models.SectionStatusManual, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update section instructor: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("section instructor rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
