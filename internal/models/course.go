package models

import "time"

// Course is a catalogue entry that sections are opened for.
type Course struct {
	ID           string    `db:"id" json:"id"`
	Code         string    `db:"code" json:"code"`
	Name         string    `db:"name" json:"name"`
	DepartmentID string    `db:"department_id" json:"department_id"`
	Credits      float64   `db:"credits" json:"credits"`
	Hours        float64   `db:"hours" json:"hours"`
	Sections     int       `db:"sections" json:"sections"`
	OfficeHours  bool      `db:"office_hours" json:"office_hours"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// MeetingHours is the length of one meeting. A section meets on both days of its pair,
// so the weekly contact hours are split in half.
func (c *Course) MeetingHours() float64 {
	if c == nil {
		return 0
	}
	hours := c.Hours
	if hours <= 0 {
		hours = c.Credits
	}
	return hours / 2
}
