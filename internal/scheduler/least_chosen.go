package scheduler

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/section-allocator/internal/dto"
	"github.com/noah-isme/section-allocator/internal/models"
)

// LeastChosenFiller is the second pass: it fills courses the FIFO pass left short, least
// requested courses first, giving each to the most underloaded eligible instructors.
type LeastChosenFiller struct {
	credits *CreditHourCalculator
	quota   *SectionQuotaService
	slots   *SlotAssignmentService
	logger  *zap.Logger
}

// NewLeastChosenFiller wires the second pass on top of the slot service.
func NewLeastChosenFiller(credits *CreditHourCalculator, quota *SectionQuotaService, slots *SlotAssignmentService, logger *zap.Logger) *LeastChosenFiller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeastChosenFiller{credits: credits, quota: quota, slots: slots, logger: logger}
}

type candidate struct {
	instructor *models.Instructor
	deficit    float64
}

// Fill attempts each unassigned course once per eligible instructor until its need is met.
func (f *LeastChosenFiller) Fill(ctx context.Context, l *Ledger, unassigned map[string]int) (*dto.LeastChosenResult, error) {
	result := &dto.LeastChosenResult{StillUnassigned: map[string]int{}}

	courseIDs := sortedKeys(unassigned)
	sort.SliceStable(courseIDs, func(i, j int) bool {
		ci, cj := l.PreferenceCount(courseIDs[i]), l.PreferenceCount(courseIDs[j])
		if ci != cj {
			return ci < cj
		}
		return courseCode(l, courseIDs[i]) < courseCode(l, courseIDs[j])
	})

	for _, courseID := range courseIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		course := l.Course(courseID)
		remaining := unassigned[courseID]
		if course == nil || remaining <= 0 {
			continue
		}
		result.CoursesAttempted++

		for _, cand := range f.candidates(l, course) {
			if remaining == 0 {
				break
			}
			section, reason, err := f.slots.AssignToOptimalSlot(ctx, l, cand.instructor, course)
			if err != nil {
				return nil, err
			}
			if section == nil {
				result.Skips = append(result.Skips, dto.SkipRecord{
					InstructorID: cand.instructor.ID,
					CourseID:     course.ID,
					Reason:       reason,
				})
				continue
			}
			result.SectionsAssigned++
			remaining--
		}
		if remaining > 0 {
			result.StillUnassigned[courseID] = remaining
			f.logger.Warn("course_still_unassigned",
				zap.String("course", course.Code),
				zap.Int("missing_sections", remaining),
			)
		}
	}
	return result, nil
}

// candidates lists department members below the per-course limit, most underloaded first.
// An instructor already holding one section qualifies only while underloaded.
func (f *LeastChosenFiller) candidates(l *Ledger, course *models.Course) []candidate {
	limit := f.quota.EffectiveInstructorLimit(l, course)
	var out []candidate
	for _, instructor := range l.Instructors() {
		if !instructor.InDepartment(course.DepartmentID) {
			continue
		}
		count := f.quota.InstructorCourseCount(l, instructor.ID, course.ID)
		if count >= limit {
			continue
		}
		if count == 1 && !f.credits.IsUnderloaded(l, instructor) {
			continue
		}
		out = append(out, candidate{
			instructor: instructor,
			deficit:    f.credits.MinimumCredits(instructor) - f.credits.TotalCredits(l, instructor.ID),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].deficit != out[j].deficit {
			return out[i].deficit > out[j].deficit
		}
		return out[i].instructor.ID < out[j].instructor.ID
	})
	return out
}

func courseCode(l *Ledger, id string) string {
	if course := l.Course(id); course != nil {
		return course.Code
	}
	return id
}
