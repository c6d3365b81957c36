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

var semesterRowColumns = []string{"id", "name", "type", "status", "preference_open_at", "preference_closed_at", "created_at", "updated_at"}

func TestSemesterRepositoryLockForScheduling(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSemesterRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM semesters WHERE id = $1 FOR UPDATE")).
		WithArgs("sem-1").
		WillReturnRows(sqlmock.NewRows(semesterRowColumns).AddRow("sem-1", "Fall 2026", "FALL", "OPEN", nil, nil, now, now))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	semester, err := repo.LockForScheduling(context.Background(), tx, "sem-1")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.Equal(t, models.SemesterTypeFall, semester.Type)
	assert.Equal(t, models.SemesterStatusOpen, semester.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSemesterRepositoryListCourses(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSemesterRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM semester_courses WHERE semester_id = $1 ORDER BY course_id")).
		WithArgs("sem-1").
		WillReturnRows(sqlmock.NewRows([]string{"semester_id", "course_id", "sections_required", "sections_per_instructor"}).
			AddRow("sem-1", "course-1", 4, 2).
			AddRow("sem-1", "course-2", 0, 0))

	pivots, err := repo.ListCourses(context.Background(), nil, "sem-1")
	require.NoError(t, err)
	require.Len(t, pivots, 2)
	assert.Equal(t, 4, pivots[0].SectionsRequired)
	assert.Equal(t, 0, pivots[1].SectionsPerInstructor)
	assert.NoError(t, mock.ExpectationsWereMet())
}
