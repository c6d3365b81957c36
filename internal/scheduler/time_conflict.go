package scheduler

import (
	"math"
	"sort"
	"time"

	"github.com/noah-isme/section-allocator/internal/models"
)

// DayPairs are the three fixed couplings every standard section occupies.
var DayPairs = []models.DaySet{
	{time.Sunday, time.Wednesday},
	{time.Monday, time.Thursday},
	{time.Tuesday, time.Saturday},
}

// StandardStartTimes are the slot grid used when a start time is not given.
var StandardStartTimes = []models.TimeOfDay{
	models.NewTimeOfDay(8, 30),
	models.NewTimeOfDay(10, 0),
	models.NewTimeOfDay(11, 30),
	models.NewTimeOfDay(13, 0),
	models.NewTimeOfDay(14, 30),
	models.NewTimeOfDay(16, 0),
}

// TeachingDays lists the weekdays that belong to a pair, in calendar order.
var TeachingDays = []time.Weekday{
	time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Saturday,
}

var (
	defaultDayStart = models.NewTimeOfDay(8, 30)
	defaultDayEnd   = models.NewTimeOfDay(17, 30)
)

// TimeConflictChecker answers day-pair and overlap questions. It holds only the teaching window.
type TimeConflictChecker struct {
	DayStart models.TimeOfDay
	DayEnd   models.TimeOfDay
}

// NewTimeConflictChecker uses the institutional 08:30-17:30 window.
func NewTimeConflictChecker() *TimeConflictChecker {
	return &TimeConflictChecker{DayStart: defaultDayStart, DayEnd: defaultDayEnd}
}

// DayPair returns the pair containing day. Days outside every pair come back as a singleton.
func DayPair(day time.Weekday) models.DaySet {
	for _, pair := range DayPairs {
		if pair.Contains(day) {
			return models.DaySet{pair[0], pair[1]}
		}
	}
	return models.DaySet{day}
}

// IsDayPair reports whether days is exactly one of the fixed pairs.
func IsDayPair(days models.DaySet) bool {
	for _, pair := range DayPairs {
		if pair.Equal(days) {
			return true
		}
	}
	return false
}

// ExpandDayPairs maps each requested day to its pair, keeping first-seen order and dropping duplicates.
func ExpandDayPairs(days models.DaySet) []models.DaySet {
	var pairs []models.DaySet
	for _, day := range days {
		pair := DayPair(day)
		duplicate := false
		for _, existing := range pairs {
			if existing.Equal(pair) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			pairs = append(pairs, pair)
		}
	}
	return pairs
}

// CalculateEndTime adds floor(hours*60) minutes to start.
func (c *TimeConflictChecker) CalculateEndTime(start models.TimeOfDay, hours float64) models.TimeOfDay {
	return start.Add(int(math.Floor(hours * 60)))
}

// TimesOverlap is a half-open interval test: touching boundaries do not overlap.
func TimesOverlap(s1, e1, s2, e2 models.TimeOfDay) bool {
	return s1 < e2 && s2 < e1
}

// HasConflict reports whether any timed section sharing a day with days overlaps [start, end).
func (c *TimeConflictChecker) HasConflict(days models.DaySet, start, end models.TimeOfDay, existing []models.Section) bool {
	return firstConflict(days, start, end, existing) != nil
}

func firstConflict(days models.DaySet, start, end models.TimeOfDay, existing []models.Section) *models.Section {
	for i := range existing {
		section := &existing[i]
		if !section.Timed() || !section.Days.Shares(days) {
			continue
		}
		if TimesOverlap(start, end, *section.StartTime, *section.EndTime) {
			return section
		}
	}
	return nil
}

// IsWithinTeachingDay reports whether [start, end) fits the teaching window.
func (c *TimeConflictChecker) IsWithinTeachingDay(start, end models.TimeOfDay) bool {
	return start >= c.DayStart && end <= c.DayEnd
}

// GetConflicts returns every overlapping pair among sections meeting on day.
func (c *TimeConflictChecker) GetConflicts(sections []models.Section, day time.Weekday) []models.SectionConflict {
	onDay := make([]models.Section, 0, len(sections))
	for _, section := range sections {
		if section.Timed() && section.Days.Contains(day) {
			onDay = append(onDay, section)
		}
	}
	sort.SliceStable(onDay, func(i, j int) bool {
		return *onDay[i].StartTime < *onDay[j].StartTime
	})

	var conflicts []models.SectionConflict
	for i := 0; i < len(onDay); i++ {
		for j := i + 1; j < len(onDay); j++ {
			a, b := onDay[i], onDay[j]
			if !TimesOverlap(*a.StartTime, *a.EndTime, *b.StartTime, *b.EndTime) {
				continue
			}
			conflict := models.SectionConflict{Day: day, First: a, Second: b}
			if a.InstructorID != nil {
				conflict.InstructorID = *a.InstructorID
			}
			conflicts = append(conflicts, conflict)
		}
	}
	return conflicts
}
