package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSemesterAcceptsPreferences(t *testing.T) {
	open := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	closed := time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)
	semester := &Semester{Status: SemesterStatusOpen, PreferenceOpenAt: &open, PreferenceClosedAt: &closed}

	assert.True(t, semester.AcceptsPreferences(open))
	assert.True(t, semester.AcceptsPreferences(open.Add(48*time.Hour)))
	assert.False(t, semester.AcceptsPreferences(open.Add(-time.Minute)))
	assert.False(t, semester.AcceptsPreferences(closed))

	semester.Status = SemesterStatusRunning
	assert.False(t, semester.AcceptsPreferences(open.Add(time.Hour)))
	assert.False(t, (*Semester)(nil).AcceptsPreferences(open))
}

func TestCourseMeetingHours(t *testing.T) {
	assert.Equal(t, 1.5, (&Course{Credits: 3, Hours: 3}).MeetingHours())
	assert.Equal(t, 2.0, (&Course{Credits: 3, Hours: 4}).MeetingHours())
	assert.Equal(t, 1.5, (&Course{Credits: 3}).MeetingHours())
	assert.Zero(t, (*Course)(nil).MeetingHours())
}

func TestInstructorInDepartment(t *testing.T) {
	instructor := &Instructor{DepartmentIDs: []string{"cs", "math"}}
	assert.True(t, instructor.InDepartment("math"))
	assert.False(t, instructor.InDepartment("physics"))
	assert.False(t, instructor.InDepartment(""))
}

func TestSectionStatusValid(t *testing.T) {
	assert.True(t, SectionStatusScheduled.Valid())
	assert.True(t, SectionStatusManual.Valid())
	assert.False(t, SectionStatus("CANCELLED").Valid())
	assert.False(t, SectionStatus("").Valid())
}
