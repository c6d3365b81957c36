package errors

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	typed := Clone(ErrNotFound, "section not found")
	wrapped := fmt.Errorf("lookup: %w", typed)

	got := FromError(wrapped)
	assert.Equal(t, "NOT_FOUND", got.Code)
	assert.Equal(t, http.StatusNotFound, got.Status)
	assert.Equal(t, "section not found", got.Message)
	assert.Equal(t, "resource not found", ErrNotFound.Message, "clone must not mutate the original")
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	got := FromError(sql.ErrConnDone)
	assert.Equal(t, ErrInternal.Code, got.Code)
	assert.True(t, errors.Is(got, sql.ErrConnDone))
	assert.Nil(t, FromError(nil))
}

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("report: %w", Clone(ErrCacheMiss, "no cached report"))
	assert.True(t, Is(err, ErrCacheMiss))
	assert.False(t, Is(err, ErrNotFound))
	assert.False(t, Is(sql.ErrNoRows, ErrNotFound))

	wrapped := Wrap(sql.ErrNoRows, ErrScheduleFailed.Code, ErrScheduleFailed.Status, "semester missing")
	assert.Equal(t, "semester missing: sql: no rows in result set", wrapped.Error())
}
