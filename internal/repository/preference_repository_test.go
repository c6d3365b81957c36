package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/section-allocator/internal/models"
)

func TestPreferenceRepositoryListBySemesterGroupsSlots(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPreferenceRepository(db)

	first := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("FROM instructor_preferences WHERE semester_id = $1 ORDER BY submitted_at ASC, id ASC")).
		WithArgs("sem-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "instructor_id", "course_id", "semester_id", "submitted_at", "created_at"}).
			AddRow("pref-1", "inst-1", "course-1", "sem-1", first, first).
			AddRow("pref-2", "inst-2", "course-1", "sem-1", second, second))
	mock.ExpectQuery(regexp.QuoteMeta("FROM preference_time_slots WHERE preference_id = ANY($1) ORDER BY preference_id, position, id")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "preference_id", "position", "days", "start_time"}).
			AddRow("slot-1", "pref-1", 0, []byte(`["Sunday","Wednesday"]`), []byte("08:30:00")).
			AddRow("slot-2", "pref-1", 1, []byte(`"[\"Monday\"]"`), nil).
			AddRow("slot-3", "pref-2", 0, nil, []byte("10:00:00")))

	prefs, err := repo.ListBySemester(context.Background(), nil, "sem-1")
	require.NoError(t, err)
	require.Len(t, prefs, 2)
	require.Len(t, prefs[0].TimeSlots, 2)
	assert.Equal(t, models.DaySet{time.Sunday, time.Wednesday}, prefs[0].TimeSlots[0].Days)
	assert.Equal(t, models.DaySet{time.Monday}, prefs[0].TimeSlots[1].Days)
	assert.Nil(t, prefs[0].TimeSlots[1].StartTime)
	require.Len(t, prefs[1].TimeSlots, 1)
	assert.True(t, prefs[1].TimeSlots[0].Days.Empty())
	assert.Equal(t, "10:00", prefs[1].TimeSlots[0].StartTime.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPreferenceRepositoryListBySemesterEmptySkipsSlotQuery(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPreferenceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM instructor_preferences")).
		WithArgs("sem-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "instructor_id", "course_id", "semester_id", "submitted_at", "created_at"}))

	prefs, err := repo.ListBySemester(context.Background(), nil, "sem-1")
	require.NoError(t, err)
	assert.Empty(t, prefs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPreferenceRepositoryFlagsBadDaysPerSlot(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPreferenceRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM instructor_preferences")).
		WithArgs("sem-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "instructor_id", "course_id", "semester_id", "submitted_at", "created_at"}).
			AddRow("pref-1", "inst-1", "course-1", "sem-1", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM preference_time_slots")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "preference_id", "position", "days", "start_time"}).
			AddRow("slot-1", "pref-1", 0, []byte(`["Friday"]`), nil).
			AddRow("slot-2", "pref-1", 1, []byte(`["Tuesday","Saturday"]`), []byte("08:30:00")))

	prefs, err := repo.ListBySemester(context.Background(), nil, "sem-1")
	require.NoError(t, err)
	require.Len(t, prefs, 1)
	require.Len(t, prefs[0].TimeSlots, 2)
	assert.Contains(t, prefs[0].TimeSlots[0].DayError, "Friday")
	assert.Nil(t, prefs[0].TimeSlots[0].Days)
	assert.Empty(t, prefs[0].TimeSlots[1].DayError)
	assert.Equal(t, models.DaySet{time.Tuesday, time.Saturday}, prefs[0].TimeSlots[1].Days)
	assert.NoError(t, mock.ExpectationsWereMet())
}
