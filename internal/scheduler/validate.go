package scheduler

import (
	"sort"

	"github.com/noah-isme/section-allocator/internal/dto"
	"github.com/noah-isme/section-allocator/internal/models"
)

// Validate scans the whole semester for instructor double-bookings and for instructors holding
// more than HardSectionLimit sections of one course.
func Validate(l *Ledger, checker *TimeConflictChecker) dto.ValidationReport {
	report := dto.ValidationReport{
		Conflicts:       []models.SectionConflict{},
		LimitViolations: []dto.SectionLimitViolation{},
	}

	byInstructor := make(map[string][]models.Section)
	for _, section := range l.Sections() {
		if section.InstructorID == nil {
			continue
		}
		byInstructor[*section.InstructorID] = append(byInstructor[*section.InstructorID], section)
	}
	ids := make([]string, 0, len(byInstructor))
	for id := range byInstructor {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		sections := byInstructor[id]
		seen := make(map[[2]string]int)
		for _, day := range TeachingDays {
			for _, conflict := range checker.GetConflicts(sections, day) {
				key := conflictKey(conflict)
				if idx, ok := seen[key]; ok {
					report.Conflicts[idx].Days = append(report.Conflicts[idx].Days, day)
					continue
				}
				conflict.InstructorID = id
				conflict.Days = models.DaySet{day}
				seen[key] = len(report.Conflicts)
				report.Conflicts = append(report.Conflicts, conflict)
			}
		}

		perCourse := make(map[string]int)
		for _, section := range sections {
			perCourse[section.CourseID]++
		}
		for _, courseID := range sortedKeys(perCourse) {
			if count := perCourse[courseID]; count > HardSectionLimit {
				report.LimitViolations = append(report.LimitViolations, dto.SectionLimitViolation{
					InstructorID: id,
					CourseID:     courseID,
					Count:        count,
					Limit:        HardSectionLimit,
				})
			}
		}
	}
	return report
}

// conflictKey identifies a section pair regardless of which one starts first.
func conflictKey(conflict models.SectionConflict) [2]string {
	if conflict.First.ID > conflict.Second.ID {
		return [2]string{conflict.Second.ID, conflict.First.ID}
	}
	return [2]string{conflict.First.ID, conflict.Second.ID}
}
