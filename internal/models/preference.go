package models

import "time"

// InstructorPreference records that an instructor is willing to teach a course in a semester.
// SubmittedAt is the allocation ordering key.
type InstructorPreference struct {
	ID           string               `db:"id" json:"id"`
	InstructorID string               `db:"instructor_id" json:"instructor_id"`
	CourseID     string               `db:"course_id" json:"course_id"`
	SemesterID   string               `db:"semester_id" json:"semester_id"`
	SubmittedAt  time.Time            `db:"submitted_at" json:"submitted_at"`
	TimeSlots    []PreferenceTimeSlot `db:"-" json:"time_slots"`
	CreatedAt    time.Time            `db:"created_at" json:"created_at"`
}

// PreferenceTimeSlot is one OR-branch of a preference. Empty Days means any day and a nil
// StartTime means any time. DayError is set when the stored day value could not be normalized;
// such a slot is never placed.
type PreferenceTimeSlot struct {
	ID           string     `db:"id" json:"id"`
	PreferenceID string     `db:"preference_id" json:"preference_id"`
	Position     int        `db:"position" json:"position"`
	Days         DaySet     `db:"days" json:"days"`
	StartTime    *TimeOfDay `db:"start_time" json:"start_time,omitempty"`
	DayError     string     `db:"-" json:"day_error,omitempty"`
}
