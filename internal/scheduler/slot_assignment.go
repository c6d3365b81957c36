package scheduler

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/section-allocator/internal/models"
)

// Shuffler randomises candidate order before ranking. *rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// SlotChoice is a concrete day-pair and time range.
type SlotChoice struct {
	Days  models.DaySet
	Start models.TimeOfDay
	End   models.TimeOfDay
}

type slotCandidate struct {
	days       models.DaySet
	start      models.TimeOfDay
	end        models.TimeOfDay
	sameCourse int
	occupancy  int
}

// SlotAssignmentService picks the least contended valid slot for an instructor and course.
type SlotAssignmentService struct {
	checker *TimeConflictChecker
	credits *CreditHourCalculator
	quota   *SectionQuotaService
	random  Shuffler
	logger  *zap.Logger
}

// NewSlotAssignmentService wires the slot search. random must not be shared across goroutines.
func NewSlotAssignmentService(checker *TimeConflictChecker, credits *CreditHourCalculator, quota *SectionQuotaService, random Shuffler, logger *zap.Logger) *SlotAssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SlotAssignmentService{checker: checker, credits: credits, quota: quota, random: random, logger: logger}
}

// FindOptimalSlot ranks the 18 pair/start candidates by same-course contention, then by overall
// occupancy, with random order among ties, and returns the first one the instructor can teach.
// ignoreSectionID excludes a section being replaced from every count and conflict check.
func (s *SlotAssignmentService) FindOptimalSlot(l *Ledger, instructorID string, course *models.Course, ignoreSectionID string) *SlotChoice {
	hours := course.MeetingHours()
	if hours <= 0 {
		return nil
	}
	all := without(l.Sections(), ignoreSectionID)
	own := without(l.InstructorSections(instructorID), ignoreSectionID)

	candidates := make([]slotCandidate, 0, len(DayPairs)*len(StandardStartTimes))
	for _, pair := range DayPairs {
		for _, start := range StandardStartTimes {
			end := s.checker.CalculateEndTime(start, hours)
			candidate := slotCandidate{days: pair, start: start, end: end}
			for _, section := range all {
				if !occupies(section, pair, start, end) {
					continue
				}
				candidate.occupancy++
				if section.CourseID == course.ID {
					candidate.sameCourse++
				}
			}
			candidates = append(candidates, candidate)
		}
	}

	if s.random != nil {
		s.random.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].sameCourse != candidates[j].sameCourse {
			return candidates[i].sameCourse < candidates[j].sameCourse
		}
		return candidates[i].occupancy < candidates[j].occupancy
	})

	for _, candidate := range candidates {
		if !s.checker.IsWithinTeachingDay(candidate.start, candidate.end) {
			continue
		}
		if s.checker.HasConflict(candidate.days, candidate.start, candidate.end, own) {
			continue
		}
		return &SlotChoice{Days: candidate.days, Start: candidate.start, End: candidate.end}
	}
	return nil
}

// AssignToOptimalSlot applies the quota, load and capacity gates and, when they pass, places a
// section in the optimal slot. It returns the created section, or a skip reason.
func (s *SlotAssignmentService) AssignToOptimalSlot(ctx context.Context, l *Ledger, instructor *models.Instructor, course *models.Course) (*models.Section, string, error) {
	if !instructor.InDepartment(course.DepartmentID) {
		return nil, ReasonDepartment, nil
	}
	if !s.quota.HasAvailableSectionQuota(l, course, 1) {
		return nil, ReasonQuota, nil
	}
	count := s.quota.InstructorCourseCount(l, instructor.ID, course.ID)
	limit := s.quota.EffectiveInstructorLimit(l, course)
	if count >= limit {
		return nil, fmt.Sprintf("Section limit reached (%d/%d)", count, limit), nil
	}
	if count >= 1 && !s.credits.IsUnderloaded(l, instructor) {
		return nil, ReasonNotUnderloaded, nil
	}
	if s.credits.TotalCredits(l, instructor.ID)+course.Credits > s.credits.Max() {
		return nil, ReasonCapacity, nil
	}

	section := &models.Section{
		CourseID:     course.ID,
		InstructorID: &instructor.ID,
	}
	if !course.OfficeHours {
		choice := s.FindOptimalSlot(l, instructor.ID, course, "")
		if choice == nil {
			return nil, ReasonNoValidSlot, nil
		}
		section.Days = choice.Days
		section.StartTime = choice.Start.Ptr()
		section.EndTime = choice.End.Ptr()
	}
	if err := l.Place(ctx, section); err != nil {
		return nil, "", fmt.Errorf("place section for course %s: %w", course.Code, err)
	}
	s.logger.Info("section_assigned",
		zap.String("pass", "optimal_slot"),
		zap.String("section_id", section.ID),
		zap.String("instructor_id", instructor.ID),
		zap.String("course", course.Code),
		zap.String("days", section.Days.String()),
		zap.Stringp("start", timeString(section.StartTime)),
	)
	return section, "", nil
}

// occupies reports whether section sits on pair and overlaps [start, end).
func occupies(section models.Section, pair models.DaySet, start, end models.TimeOfDay) bool {
	if !section.Timed() || !section.Days.Equal(pair) {
		return false
	}
	return TimesOverlap(start, end, *section.StartTime, *section.EndTime)
}

func without(sections []models.Section, sectionID string) []models.Section {
	if sectionID == "" {
		return sections
	}
	out := sections[:0:0]
	for _, section := range sections {
		if section.ID != sectionID {
			out = append(out, section)
		}
	}
	return out
}

func timeString(t *models.TimeOfDay) *string {
	if t == nil {
		return nil
	}
	s := t.String()
	return &s
}
