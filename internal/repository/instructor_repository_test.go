package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/section-allocator/internal/models"
)

var instructorRowColumns = []string{"id", "name", "email", "position", "min_credits", "deleted_at", "created_at", "updated_at"}

func TestInstructorRepositoryListActiveAttachesDepartments(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewInstructorRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM instructors WHERE deleted_at IS NULL ORDER BY name, id")).
		WillReturnRows(sqlmock.NewRows(instructorRowColumns).
			AddRow("inst-1", "Alice", "alice@uni.edu", "DOCTOR", nil, nil, now, now).
			AddRow("inst-2", "Bob", nil, "TA", []byte("6.00"), nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM instructor_departments WHERE instructor_id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"instructor_id", "department_id"}).
			AddRow("inst-1", "dept-cs").
			AddRow("inst-1", "dept-math").
			AddRow("inst-2", "dept-cs"))

	instructors, err := repo.ListActive(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, instructors, 2)
	assert.Equal(t, []string{"dept-cs", "dept-math"}, instructors[0].DepartmentIDs)
	assert.Equal(t, models.PositionTA, instructors[1].Position)
	require.NotNil(t, instructors[1].MinCredits)
	assert.Equal(t, 6.0, *instructors[1].MinCredits)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstructorRepositoryListActiveEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewInstructorRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM instructors WHERE deleted_at IS NULL")).
		WillReturnRows(sqlmock.NewRows(instructorRowColumns))

	instructors, err := repo.ListActive(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, instructors)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstructorRepositoryFindByIDSkipsDeleted(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewInstructorRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM instructors WHERE id = $1 AND deleted_at IS NULL")).
		WithArgs("gone").
		WillReturnRows(sqlmock.NewRows(instructorRowColumns))

	_, err := repo.FindByID(context.Background(), nil, "gone")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
