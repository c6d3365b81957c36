package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/section-allocator/internal/models"
)

// PreferenceRepository reads instructor preferences with their OR'd time slots.
type PreferenceRepository struct {
	db *sqlx.DB
}

// NewPreferenceRepository constructs the repository.
func NewPreferenceRepository(db *sqlx.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

func (r *PreferenceRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListBySemester returns preferences in submission order, each with its slots in stored order.
func (r *PreferenceRepository) ListBySemester(ctx context.Context, exec sqlx.ExtContext, semesterID string) ([]models.InstructorPreference, error) {
	target := r.exec(exec)

	const query = `SELECT id, instructor_id, course_id, semester_id, submitted_at, created_at
FROM instructor_preferences WHERE semester_id = $1 ORDER BY submitted_at ASC, id ASC`
	var preferences []models.InstructorPreference
	if err := sqlx.SelectContext(ctx, target, &preferences, query, semesterID); err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	if len(preferences) == 0 {
		return preferences, nil
	}

	ids := make([]string, len(preferences))
	index := make(map[string]int, len(preferences))
	for i, pref := range preferences {
		ids[i] = pref.ID
		index[pref.ID] = i
	}

	const slotQuery = `SELECT id, preference_id, position, days, start_time
FROM preference_time_slots WHERE preference_id = ANY($1) ORDER BY preference_id, position, id`
	var rows []preferenceSlotRow
	if err := sqlx.SelectContext(ctx, target, &rows, slotQuery, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list preference time slots: %w", err)
	}
	for _, row := range rows {
		if i, ok := index[row.PreferenceID]; ok {
			preferences[i].TimeSlots = append(preferences[i].TimeSlots, row.slot())
		}
	}
	return preferences, nil
}

// preferenceSlotRow keeps days raw so one malformed legacy value does not fail the whole scan.
type preferenceSlotRow struct {
	ID           string            `db:"id"`
	PreferenceID string            `db:"preference_id"`
	Position     int               `db:"position"`
	Days         []byte            `db:"days"`
	StartTime    *models.TimeOfDay `db:"start_time"`
}

func (row preferenceSlotRow) slot() models.PreferenceTimeSlot {
	slot := models.PreferenceTimeSlot{
		ID:           row.ID,
		PreferenceID: row.PreferenceID,
		Position:     row.Position,
		StartTime:    row.StartTime,
	}
	days, err := models.ParseDaySet(row.Days)
	if err != nil {
		slot.DayError = err.Error()
		return slot
	}
	slot.Days = days
	return slot
}
