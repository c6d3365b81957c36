package scheduler

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/section-allocator/internal/models"
)

var baseSubmission = time.Date(2024, 8, 1, 9, 0, 0, 0, time.UTC)

type recordingWriter struct {
	created []models.Section
	err     error
}

func (w *recordingWriter) CreateSection(_ context.Context, section *models.Section) error {
	if w.err != nil {
		return w.err
	}
	w.created = append(w.created, *section)
	return nil
}

type ledgerBuilder struct {
	data LedgerData
}

func newLedgerBuilder() *ledgerBuilder {
	return &ledgerBuilder{data: LedgerData{Semester: models.Semester{
		ID:     "sem-1",
		Name:   "Fall 2024",
		Type:   models.SemesterTypeFall,
		Status: models.SemesterStatusRunning,
	}}}
}

func (b *ledgerBuilder) instructor(id string, position models.InstructorPosition, minCredits float64, departments ...string) *ledgerBuilder {
	instructor := models.Instructor{ID: id, Name: "Instructor " + id, Position: position, DepartmentIDs: departments}
	if minCredits > 0 {
		instructor.MinCredits = &minCredits
	}
	b.data.Instructors = append(b.data.Instructors, instructor)
	return b
}

func (b *ledgerBuilder) course(id string, credits float64, sections int, department string) *ledgerBuilder {
	b.data.Courses = append(b.data.Courses, models.Course{
		ID:           id,
		Code:         id,
		Name:         "Course " + id,
		DepartmentID: department,
		Credits:      credits,
		Hours:        credits,
		Sections:     sections,
	})
	return b
}

func (b *ledgerBuilder) officeHours(id string, credits float64, department string) *ledgerBuilder {
	b.data.Courses = append(b.data.Courses, models.Course{
		ID: id, Code: id, DepartmentID: department, Credits: credits, OfficeHours: true,
	})
	return b
}

func (b *ledgerBuilder) pivot(courseID string, required, perInstructor int) *ledgerBuilder {
	b.data.Pivots = append(b.data.Pivots, models.SemesterCourse{
		SemesterID:            b.data.Semester.ID,
		CourseID:              courseID,
		SectionsRequired:      required,
		SectionsPerInstructor: perInstructor,
	})
	return b
}

func (b *ledgerBuilder) preference(id, instructorID, courseID string, offset time.Duration, slots ...models.PreferenceTimeSlot) *ledgerBuilder {
	for i := range slots {
		slots[i].PreferenceID = id
		slots[i].Position = i + 1
	}
	b.data.Preferences = append(b.data.Preferences, models.InstructorPreference{
		ID:           id,
		InstructorID: instructorID,
		CourseID:     courseID,
		SemesterID:   b.data.Semester.ID,
		SubmittedAt:  baseSubmission.Add(offset),
		TimeSlots:    slots,
	})
	return b
}

func (b *ledgerBuilder) section(id, courseID, instructorID string, days models.DaySet, start string, hours float64) *ledgerBuilder {
	section := models.Section{
		ID:         id,
		CourseID:   courseID,
		SemesterID: b.data.Semester.ID,
		Days:       days,
		Status:     models.SectionStatusScheduled,
	}
	if instructorID != "" {
		section.InstructorID = &instructorID
	}
	if start != "" {
		begin := models.MustTimeOfDay(start)
		end := begin.Add(int(hours * 60))
		section.StartTime = &begin
		section.EndTime = &end
	}
	b.data.Sections = append(b.data.Sections, section)
	return b
}

func (b *ledgerBuilder) build(writer SectionWriter) *Ledger {
	return NewLedger(b.data, writer)
}

func prefSlot(days models.DaySet, start string) models.PreferenceTimeSlot {
	s := models.PreferenceTimeSlot{Days: days}
	if start != "" {
		s.StartTime = models.MustTimeOfDay(start).Ptr()
	}
	return s
}

func sunWed() models.DaySet { return models.DaySet{time.Sunday, time.Wednesday} }
func monThu() models.DaySet { return models.DaySet{time.Monday, time.Thursday} }
func tueSat() models.DaySet { return models.DaySet{time.Tuesday, time.Saturday} }

func seededEngine(t *testing.T, seed int64) *Engine {
	t.Helper()
	engine := NewEngine(DefaultConfig(), nil).WithRandom(func() Shuffler {
		return rand.New(rand.NewSource(seed))
	})
	require.NotNil(t, engine)
	return engine
}

func sectionsOf(l *Ledger, instructorID, courseID string) []models.Section {
	var out []models.Section
	for _, section := range l.InstructorSections(instructorID) {
		if courseID == "" || section.CourseID == courseID {
			out = append(out, section)
		}
	}
	return out
}
