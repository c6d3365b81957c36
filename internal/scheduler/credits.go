package scheduler

import (
	"fmt"

	"github.com/noah-isme/section-allocator/internal/dto"
	"github.com/noah-isme/section-allocator/internal/models"
)

const (
	defaultMaxCredits     = 18.0
	defaultMinimumCredits = 12.0
	defaultOverloadFactor = 1.5
)

// PositionMinimumCredits is the default minimum load by position. New positions are added here.
var PositionMinimumCredits = map[models.InstructorPosition]float64{
	models.PositionInstructor: 12,
	models.PositionDoctor:     12,
	models.PositionLecturer:   12,
	models.PositionPOP:        12,
	models.PositionHOD:        9,
	models.PositionDean:       6,
	models.PositionTA:         6,
}

// CreditHourCalculator computes credit loads from the sections in a ledger.
type CreditHourCalculator struct {
	MaxCredits       float64
	DefaultMinimum   float64
	OverloadFactor   float64
	PositionDefaults map[models.InstructorPosition]float64
}

// NewCreditHourCalculator builds a calculator with the institutional defaults.
func NewCreditHourCalculator() *CreditHourCalculator {
	return &CreditHourCalculator{
		MaxCredits:       defaultMaxCredits,
		DefaultMinimum:   defaultMinimumCredits,
		OverloadFactor:   defaultOverloadFactor,
		PositionDefaults: PositionMinimumCredits,
	}
}

// TotalCredits sums course credits over the instructor's sections. Unknown courses count as zero.
func (c *CreditHourCalculator) TotalCredits(l *Ledger, instructorID string) float64 {
	var total float64
	for _, section := range l.InstructorSections(instructorID) {
		if course := l.Course(section.CourseID); course != nil {
			total += course.Credits
		}
	}
	return total
}

// MinimumCredits returns the explicit minimum when positive, else the position default.
func (c *CreditHourCalculator) MinimumCredits(instructor *models.Instructor) float64 {
	if instructor == nil {
		return c.DefaultMinimum
	}
	if instructor.MinCredits != nil && *instructor.MinCredits > 0 {
		return *instructor.MinCredits
	}
	if value, ok := c.PositionDefaults[instructor.Position]; ok {
		return value
	}
	return c.DefaultMinimum
}

// Max returns the hard credit cap, independent of position.
func (c *CreditHourCalculator) Max() float64 {
	return c.MaxCredits
}

// LoadStatus classifies the instructor's current load.
func (c *CreditHourCalculator) LoadStatus(l *Ledger, instructor *models.Instructor) dto.InstructorLoad {
	total := c.TotalCredits(l, instructor.ID)
	minimum := c.MinimumCredits(instructor)
	load := dto.InstructorLoad{
		InstructorID: instructor.ID,
		Name:         instructor.Name,
		Position:     string(instructor.Position),
		Total:        total,
		Minimum:      minimum,
		Maximum:      c.MaxCredits,
		Sections:     len(l.InstructorSections(instructor.ID)),
		Status:       dto.LoadStatusOK,
	}
	switch {
	case total < minimum:
		load.Status = dto.LoadStatusUnderMinimum
		note := fmt.Sprintf("needs %.1f more credit hours to reach minimum of %.1f", minimum-total, minimum)
		load.Notes = &note
	case total > minimum*c.OverloadFactor:
		load.Status = dto.LoadStatusOverloaded
		note := fmt.Sprintf("exceeds recommended load of %.1f by %.1f credit hours", minimum*c.OverloadFactor, total-minimum*c.OverloadFactor)
		load.Notes = &note
	}
	return load
}

// IsUnderloaded reports whether total credits are below the minimum.
func (c *CreditHourCalculator) IsUnderloaded(l *Ledger, instructor *models.Instructor) bool {
	return c.LoadStatus(l, instructor).Status == dto.LoadStatusUnderMinimum
}

// UnderloadedInstructors checks only instructors who submitted a preference for the semester.
func (c *CreditHourCalculator) UnderloadedInstructors(l *Ledger) []dto.InstructorLoad {
	var out []dto.InstructorLoad
	for _, id := range l.PreferenceInstructorIDs() {
		instructor := l.Instructor(id)
		if instructor == nil {
			continue
		}
		load := c.LoadStatus(l, instructor)
		if load.Status == dto.LoadStatusUnderMinimum {
			out = append(out, load)
		}
	}
	return out
}
