package models

import "time"

// InstructorPosition is the academic title used to derive default credit requirements.
type InstructorPosition string

const (
	PositionInstructor InstructorPosition = "INSTRUCTOR"
	PositionDoctor     InstructorPosition = "DOCTOR"
	PositionLecturer   InstructorPosition = "LECTURER"
	PositionPOP        InstructorPosition = "POP"
	PositionHOD        InstructorPosition = "HOD"
	PositionDean       InstructorPosition = "DEAN"
	PositionTA         InstructorPosition = "TA"
)

// Instructor represents a teaching staff member.
type Instructor struct {
	ID            string             `db:"id" json:"id"`
	Name          string             `db:"name" json:"name"`
	Email         *string            `db:"email" json:"email,omitempty"`
	Position      InstructorPosition `db:"position" json:"position"`
	MinCredits    *float64           `db:"min_credits" json:"min_credits,omitempty"`
	DepartmentIDs []string           `db:"-" json:"department_ids"`
	DeletedAt     *time.Time         `db:"deleted_at" json:"-"`
	CreatedAt     time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `db:"updated_at" json:"updated_at"`
}

// InDepartment reports whether the instructor holds a membership in departmentID.
func (i *Instructor) InDepartment(departmentID string) bool {
	if i == nil || departmentID == "" {
		return false
	}
	for _, id := range i.DepartmentIDs {
		if id == departmentID {
			return true
		}
	}
	return false
}

// InstructorDepartment is a row of the instructor/department membership pivot.
type InstructorDepartment struct {
	InstructorID string `db:"instructor_id"`
	DepartmentID string `db:"department_id"`
}
