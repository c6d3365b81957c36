package scheduler

import (
	"github.com/noah-isme/section-allocator/internal/models"
)

// UnboundedSectionCap is returned when neither the course nor the pivot limits sections.
const UnboundedSectionCap = 999

// HardSectionLimit is the fixed per-instructor ceiling for one course in one semester.
const HardSectionLimit = 2

// SectionQuotaService derives section caps from course and pivot configuration.
type SectionQuotaService struct{}

// NewSectionQuotaService builds the quota service.
func NewSectionQuotaService() *SectionQuotaService {
	return &SectionQuotaService{}
}

// GlobalSectionCap is min(course.sections, pivot.sections_required) over the positive values.
func (q *SectionQuotaService) GlobalSectionCap(l *Ledger, course *models.Course) int {
	courseCap := course.Sections
	required := 0
	if pivot, ok := l.Pivot(course.ID); ok {
		required = pivot.SectionsRequired
	}
	switch {
	case courseCap > 0 && required > 0:
		if courseCap < required {
			return courseCap
		}
		return required
	case courseCap > 0:
		return courseCap
	case required > 0:
		return required
	default:
		return UnboundedSectionCap
	}
}

// RequiredSections is the number of sections the semester expects for course: the pivot's
// sections_required tightened by course.sections. Courses without a positive pivot requirement
// are not required.
func (q *SectionQuotaService) RequiredSections(l *Ledger, course *models.Course) int {
	pivot, ok := l.Pivot(course.ID)
	if !ok || pivot.SectionsRequired <= 0 {
		return 0
	}
	if course.Sections > 0 && course.Sections < pivot.SectionsRequired {
		return course.Sections
	}
	return pivot.SectionsRequired
}

// HasAvailableSectionQuota reports whether needed more sections fit under the cap.
func (q *SectionQuotaService) HasAvailableSectionQuota(l *Ledger, course *models.Course, needed int) bool {
	if needed <= 0 {
		needed = 1
	}
	return len(l.CourseSections(course.ID))+needed <= q.GlobalSectionCap(l, course)
}

// PerInstructorSectionLimit is the pivot's sections_per_instructor, defaulting to 2.
func (q *SectionQuotaService) PerInstructorSectionLimit(l *Ledger, course *models.Course) int {
	if pivot, ok := l.Pivot(course.ID); ok && pivot.SectionsPerInstructor > 0 {
		return pivot.SectionsPerInstructor
	}
	return models.DefaultSectionsPerInstructor
}

// EffectiveInstructorLimit tightens the configurable limit with the hard cap of two.
func (q *SectionQuotaService) EffectiveInstructorLimit(l *Ledger, course *models.Course) int {
	limit := q.PerInstructorSectionLimit(l, course)
	if limit > HardSectionLimit {
		return HardSectionLimit
	}
	return limit
}

// InstructorCourseCount counts the instructor's sections of course.
func (q *SectionQuotaService) InstructorCourseCount(l *Ledger, instructorID, courseID string) int {
	count := 0
	for _, section := range l.InstructorSections(instructorID) {
		if section.CourseID == courseID {
			count++
		}
	}
	return count
}
