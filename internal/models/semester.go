package models

import "time"

// SemesterType identifies the academic period.
type SemesterType string

const (
	SemesterTypeFall   SemesterType = "FALL"
	SemesterTypeSpring SemesterType = "SPRING"
	SemesterTypeSummer SemesterType = "SUMMER"
)

// SemesterStatus tracks the semester lifecycle: Draft -> Open -> Running -> Closed.
type SemesterStatus string

const (
	SemesterStatusDraft   SemesterStatus = "DRAFT"
	SemesterStatusOpen    SemesterStatus = "OPEN"
	SemesterStatusRunning SemesterStatus = "RUNNING"
	SemesterStatusClosed  SemesterStatus = "CLOSED"
)

// DefaultSectionsPerInstructor applies when the pivot does not set a per-instructor limit.
const DefaultSectionsPerInstructor = 2

// Semester models an academic semester and its preference window.
type Semester struct {
	ID                 string         `db:"id" json:"id"`
	Name               string         `db:"name" json:"name"`
	Type               SemesterType   `db:"type" json:"type"`
	Status             SemesterStatus `db:"status" json:"status"`
	PreferenceOpenAt   *time.Time     `db:"preference_open_at" json:"preference_open_at,omitempty"`
	PreferenceClosedAt *time.Time     `db:"preference_closed_at" json:"preference_closed_at,omitempty"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

// AcceptsPreferences reports whether instructors may still submit preferences at now.
func (s *Semester) AcceptsPreferences(now time.Time) bool {
	if s == nil || s.Status != SemesterStatusOpen {
		return false
	}
	if s.PreferenceOpenAt != nil && now.Before(*s.PreferenceOpenAt) {
		return false
	}
	if s.PreferenceClosedAt != nil && !now.Before(*s.PreferenceClosedAt) {
		return false
	}
	return true
}

// SemesterCourse is the semester/course pivot carrying section demand for the semester.
type SemesterCourse struct {
	SemesterID            string `db:"semester_id" json:"semester_id"`
	CourseID              string `db:"course_id" json:"course_id"`
	SectionsRequired      int    `db:"sections_required" json:"sections_required"`
	SectionsPerInstructor int    `db:"sections_per_instructor" json:"sections_per_instructor"`
}
