package models

import (
	"time"
)

// SectionStatus captures how a section came to exist.
type SectionStatus string

const (
	SectionStatusScheduled SectionStatus = "SCHEDULED"
	SectionStatusManual    SectionStatus = "MANUAL"
)

// Valid reports whether s is one of the known section statuses.
func (s SectionStatus) Valid() bool {
	return s == SectionStatusScheduled || s == SectionStatusManual
}

// Section is a scheduled offering of a course. Standard sections occupy both days of one
// day-pair; office-hours sections have no days, times or room.
type Section struct {
	ID           string        `db:"id" json:"id"`
	CourseID     string        `db:"course_id" json:"course_id"`
	SemesterID   string        `db:"semester_id" json:"semester_id"`
	InstructorID *string       `db:"instructor_id" json:"instructor_id,omitempty"`
	Days         DaySet        `db:"days" json:"days"`
	StartTime    *TimeOfDay    `db:"start_time" json:"start_time,omitempty"`
	EndTime      *TimeOfDay    `db:"end_time" json:"end_time,omitempty"`
	Room         *string       `db:"room" json:"room,omitempty"`
	Status       SectionStatus `db:"status" json:"status"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

// Timed reports whether the section occupies a time range.
func (s *Section) Timed() bool {
	return s != nil && s.StartTime != nil && s.EndTime != nil && !s.Days.Empty()
}

// OwnedBy reports whether instructorID holds the section.
func (s *Section) OwnedBy(instructorID string) bool {
	return s != nil && s.InstructorID != nil && *s.InstructorID == instructorID
}

// SectionConflict pairs two sections of one instructor that overlap on a shared day. Day is
// the first overlapping weekday, Days lists every weekday the pair overlaps on.
type SectionConflict struct {
	InstructorID string       `json:"instructor_id"`
	Day          time.Weekday `json:"day"`
	Days         DaySet       `json:"days,omitempty"`
	First        Section      `json:"first"`
	Second       Section      `json:"second"`
}
