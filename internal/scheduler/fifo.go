package scheduler

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/section-allocator/internal/dto"
	"github.com/noah-isme/section-allocator/internal/models"
)

// Skip reasons reported by the allocation passes.
const (
	ReasonCourseNotFound     = "Course not found"
	ReasonInstructorNotFound = "Instructor not found"
	ReasonDepartment         = "Department qualification"
	ReasonAtMinimum          = "Instructor already meets minimum credit load"
	ReasonSecondSection      = "Already holds a section of this course and meets minimum credit load"
	ReasonNotUnderloaded     = "Second section only granted while underloaded"
	ReasonCapacity           = "Credit capacity exceeded"
	ReasonNoDuration         = "Course has no contact hours"
	ReasonNoTimeSlots        = "Preference has no time slots"
	ReasonQuota              = "Course section quota reached"
	ReasonNoValidSlot        = "No valid time slot"
)

// FifoAllocator is the primary pass: preferences are served strictly in submission order.
type FifoAllocator struct {
	checker *TimeConflictChecker
	credits *CreditHourCalculator
	quota   *SectionQuotaService
	logger  *zap.Logger
}

// NewFifoAllocator wires the allocator.
func NewFifoAllocator(checker *TimeConflictChecker, credits *CreditHourCalculator, quota *SectionQuotaService, logger *zap.Logger) *FifoAllocator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FifoAllocator{checker: checker, credits: credits, quota: quota, logger: logger}
}

// fifoTally accumulates one Allocate call. It never outlives the call.
type fifoTally struct {
	assigned  int
	processed int
	skipped   int
	skips     []dto.SkipRecord
}

func (t *fifoTally) skip(record dto.SkipRecord) {
	t.skipped++
	t.skips = append(t.skips, record)
}

// Allocate walks the ledger's preferences in ascending submission order and places sections.
// Only write failures are returned as errors; every other outcome is a skip.
func (a *FifoAllocator) Allocate(ctx context.Context, l *Ledger) (*dto.AllocationResult, error) {
	tally := &fifoTally{}
	for _, pref := range l.Preferences() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tally.processed++
		placed, record, err := a.allocatePreference(ctx, l, pref)
		if err != nil {
			return nil, err
		}
		if placed > 0 {
			tally.assigned += placed
			continue
		}
		tally.skip(record)
		a.logger.Info("preference_skipped",
			zap.String("preference_id", pref.ID),
			zap.String("instructor_id", pref.InstructorID),
			zap.String("course_id", pref.CourseID),
			zap.String("reason", record.Reason),
			zap.Strings("slot_reasons", record.SlotReasons),
		)
	}

	return &dto.AllocationResult{
		SectionsAssigned:     tally.assigned,
		PreferencesProcessed: tally.processed,
		PreferencesSkipped:   tally.skipped,
		UnassignedCourses:    a.UnassignedCourses(l),
		Skips:                tally.skips,
	}, nil
}

func (a *FifoAllocator) allocatePreference(ctx context.Context, l *Ledger, pref models.InstructorPreference) (int, dto.SkipRecord, error) {
	record := dto.SkipRecord{PreferenceID: pref.ID, InstructorID: pref.InstructorID, CourseID: pref.CourseID}
	skip := func(reason string) (int, dto.SkipRecord, error) {
		record.Reason = reason
		return 0, record, nil
	}

	course := l.Course(pref.CourseID)
	if course == nil {
		return skip(ReasonCourseNotFound)
	}
	instructor := l.Instructor(pref.InstructorID)
	if instructor == nil {
		return skip(ReasonInstructorNotFound)
	}
	if !instructor.InDepartment(course.DepartmentID) {
		return skip(ReasonDepartment)
	}

	count := a.quota.InstructorCourseCount(l, instructor.ID, course.ID)
	total := a.credits.TotalCredits(l, instructor.ID)
	minimum := a.credits.MinimumCredits(instructor)
	limit := a.quota.EffectiveInstructorLimit(l, course)
	switch {
	case count >= limit:
		return skip(fmt.Sprintf("Section limit reached (%d/%d)", count, limit))
	case count >= 1 && total >= minimum:
		return skip(ReasonSecondSection)
	case total >= minimum:
		return skip(ReasonAtMinimum)
	case total+course.Credits > a.credits.Max():
		return skip(ReasonCapacity)
	}

	if course.OfficeHours {
		if !a.quota.HasAvailableSectionQuota(l, course, 1) {
			return skip(ReasonQuota)
		}
		section := &models.Section{CourseID: course.ID, InstructorID: &instructor.ID}
		if err := a.place(ctx, l, section, course, pref); err != nil {
			return 0, record, err
		}
		return 1, record, nil
	}

	hours := course.MeetingHours()
	if hours <= 0 {
		return skip(ReasonNoDuration)
	}
	if len(pref.TimeSlots) == 0 {
		return skip(ReasonNoTimeSlots)
	}

	var placed []models.Section
	quotaExhausted := false
	for i, slot := range pref.TimeSlots {
		if count+len(placed) >= limit {
			break
		}
		if len(placed) > 0 {
			total = a.credits.TotalCredits(l, instructor.ID)
			if total >= minimum || total+course.Credits > a.credits.Max() {
				break
			}
		}
		if !a.quota.HasAvailableSectionQuota(l, course, 1) {
			record.SlotReasons = append(record.SlotReasons, fmt.Sprintf("slot %d: %s", i+1, ReasonQuota))
			quotaExhausted = true
			break
		}

		choice, reason := a.resolveSlot(l, instructor.ID, slot, hours, placed)
		if choice == nil {
			record.SlotReasons = append(record.SlotReasons, fmt.Sprintf("slot %d: %s", i+1, reason))
			continue
		}
		section := &models.Section{
			CourseID:     course.ID,
			InstructorID: &instructor.ID,
			Days:         choice.Days,
			StartTime:    choice.Start.Ptr(),
			EndTime:      choice.End.Ptr(),
		}
		if err := a.place(ctx, l, section, course, pref); err != nil {
			return 0, record, err
		}
		placed = append(placed, *section)
	}

	if len(placed) == 0 {
		if quotaExhausted {
			return skip(ReasonQuota)
		}
		return skip(ReasonNoValidSlot)
	}
	return len(placed), record, nil
}

// resolveSlot turns one OR-branch into a concrete slot, or explains why it cannot.
func (a *FifoAllocator) resolveSlot(l *Ledger, instructorID string, slot models.PreferenceTimeSlot, hours float64, placed []models.Section) (*SlotChoice, string) {
	if slot.DayError != "" {
		return nil, slot.DayError
	}
	pairs := candidatePairs(slot.Days, placed)
	if len(pairs) == 0 {
		return nil, fmt.Sprintf("days %q do not form a teaching day pair", slot.Days.String())
	}

	existing := l.InstructorSections(instructorID)
	reason := "outside teaching window"
	for _, pair := range pairs {
		for _, start := range candidateStarts(slot.StartTime, pair, placed) {
			end := a.checker.CalculateEndTime(start, hours)
			if !a.checker.IsWithinTeachingDay(start, end) {
				continue
			}
			if conflict := firstConflict(pair, start, end, existing); conflict != nil {
				reason = fmt.Sprintf("conflicts with section %s on %s %s", conflict.ID, conflict.Days.String(), timeLabel(conflict.StartTime))
				continue
			}
			return &SlotChoice{Days: pair, Start: start, End: end}, ""
		}
	}
	return nil, reason
}

// candidatePairs expands requested days to pairs. With no days, the pair already used by
// this preference is tried first, then the fixed pairs in order.
func candidatePairs(days models.DaySet, placed []models.Section) []models.DaySet {
	if !days.Empty() {
		var pairs []models.DaySet
		for _, pair := range ExpandDayPairs(days) {
			if IsDayPair(pair) {
				pairs = append(pairs, pair)
			}
		}
		return pairs
	}

	pairs := make([]models.DaySet, 0, len(DayPairs)+1)
	if n := len(placed); n > 0 && IsDayPair(placed[n-1].Days) {
		pairs = append(pairs, placed[n-1].Days)
	}
	for _, pair := range DayPairs {
		if len(pairs) > 0 && pairs[0].Equal(pair) {
			continue
		}
		pairs = append(pairs, pair)
	}
	return pairs
}

// candidateStarts returns the given start, or the end of this preference's previous section on
// pair followed by the standard grid.
func candidateStarts(start *models.TimeOfDay, pair models.DaySet, placed []models.Section) []models.TimeOfDay {
	if start != nil {
		return []models.TimeOfDay{*start}
	}
	starts := make([]models.TimeOfDay, 0, len(StandardStartTimes)+1)
	for i := len(placed) - 1; i >= 0; i-- {
		if placed[i].Timed() && placed[i].Days.Equal(pair) {
			starts = append(starts, *placed[i].EndTime)
			break
		}
	}
	for _, candidate := range StandardStartTimes {
		if len(starts) > 0 && starts[0] == candidate {
			continue
		}
		starts = append(starts, candidate)
	}
	return starts
}

func (a *FifoAllocator) place(ctx context.Context, l *Ledger, section *models.Section, course *models.Course, pref models.InstructorPreference) error {
	if err := l.Place(ctx, section); err != nil {
		return fmt.Errorf("place section for preference %s: %w", pref.ID, err)
	}
	a.logger.Info("section_assigned",
		zap.String("pass", "fifo"),
		zap.String("section_id", section.ID),
		zap.String("preference_id", pref.ID),
		zap.String("instructor_id", pref.InstructorID),
		zap.String("course", course.Code),
		zap.String("days", section.Days.String()),
		zap.Stringp("start", timeString(section.StartTime)),
		zap.Time("submitted_at", pref.SubmittedAt),
	)
	return nil
}

// UnassignedCourses maps course id to the number of required sections still missing. Only
// courses linked to the semester with a positive sections_required are considered.
func (a *FifoAllocator) UnassignedCourses(l *Ledger) map[string]int {
	return unassignedCourses(l, a.quota)
}

func unassignedCourses(l *Ledger, quota *SectionQuotaService) map[string]int {
	out := make(map[string]int)
	for _, pivot := range l.Pivots() {
		course := l.Course(pivot.CourseID)
		if course == nil {
			continue
		}
		if missing := quota.RequiredSections(l, course) - len(l.CourseSections(course.ID)); missing > 0 {
			out[course.ID] = missing
		}
	}
	return out
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func timeLabel(t *models.TimeOfDay) string {
	if t == nil {
		return "-"
	}
	return t.String()
}
