package scheduler

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/section-allocator/internal/models"
)

// SectionWriter persists sections created during a run.
type SectionWriter interface {
	CreateSection(ctx context.Context, section *models.Section) error
}

// LedgerData is the snapshot of a semester a run starts from.
type LedgerData struct {
	Semester    models.Semester
	Courses     []models.Course
	Pivots      []models.SemesterCourse
	Instructors []models.Instructor
	Preferences []models.InstructorPreference
	Sections    []models.Section
}

// Ledger is the working view of one semester during a run. Sections placed through the
// ledger are written through its SectionWriter before they become visible to later reads.
type Ledger struct {
	semester    models.Semester
	courses     map[string]*models.Course
	pivots      map[string]models.SemesterCourse
	instructors map[string]*models.Instructor
	preferences []models.InstructorPreference
	prefCounts  map[string]int

	sections     []models.Section
	byInstructor map[string][]int
	byCourse     map[string][]int

	writer SectionWriter
	now    func() time.Time
}

// NewLedger indexes data. writer may be nil for read-only use.
func NewLedger(data LedgerData, writer SectionWriter) *Ledger {
	l := &Ledger{
		semester:     data.Semester,
		courses:      make(map[string]*models.Course, len(data.Courses)),
		pivots:       make(map[string]models.SemesterCourse, len(data.Pivots)),
		instructors:  make(map[string]*models.Instructor, len(data.Instructors)),
		prefCounts:   make(map[string]int),
		byInstructor: make(map[string][]int),
		byCourse:     make(map[string][]int),
		writer:       writer,
		now:          func() time.Time { return time.Now().UTC() },
	}
	for i := range data.Courses {
		course := data.Courses[i]
		l.courses[course.ID] = &course
	}
	for _, pivot := range data.Pivots {
		l.pivots[pivot.CourseID] = pivot
	}
	for i := range data.Instructors {
		instructor := data.Instructors[i]
		l.instructors[instructor.ID] = &instructor
	}

	l.preferences = make([]models.InstructorPreference, len(data.Preferences))
	copy(l.preferences, data.Preferences)
	sort.SliceStable(l.preferences, func(i, j int) bool {
		a, b := l.preferences[i], l.preferences[j]
		if !a.SubmittedAt.Equal(b.SubmittedAt) {
			return a.SubmittedAt.Before(b.SubmittedAt)
		}
		return a.ID < b.ID
	})
	for _, pref := range l.preferences {
		l.prefCounts[pref.CourseID]++
	}

	for _, section := range data.Sections {
		l.index(section)
	}
	return l
}

func (l *Ledger) index(section models.Section) {
	idx := len(l.sections)
	l.sections = append(l.sections, section)
	l.byCourse[section.CourseID] = append(l.byCourse[section.CourseID], idx)
	if section.InstructorID != nil {
		l.byInstructor[*section.InstructorID] = append(l.byInstructor[*section.InstructorID], idx)
	}
}

// Semester returns the semester the ledger describes.
func (l *Ledger) Semester() models.Semester { return l.semester }

// Course looks up a course by id.
func (l *Ledger) Course(id string) *models.Course { return l.courses[id] }

// Pivot returns the semester/course pivot and whether one exists.
func (l *Ledger) Pivot(courseID string) (models.SemesterCourse, bool) {
	pivot, ok := l.pivots[courseID]
	return pivot, ok
}

// Pivots returns every pivot row ordered by course id.
func (l *Ledger) Pivots() []models.SemesterCourse {
	out := make([]models.SemesterCourse, 0, len(l.pivots))
	for _, pivot := range l.pivots {
		out = append(out, pivot)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CourseID < out[j].CourseID })
	return out
}

// Instructor looks up an instructor by id.
func (l *Ledger) Instructor(id string) *models.Instructor { return l.instructors[id] }

// Instructors returns all instructors ordered by name then id.
func (l *Ledger) Instructors() []*models.Instructor {
	out := make([]*models.Instructor, 0, len(l.instructors))
	for _, instructor := range l.instructors {
		out = append(out, instructor)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Preferences returns preferences in ascending submission order.
func (l *Ledger) Preferences() []models.InstructorPreference { return l.preferences }

// PreferenceCount is the number of preferences submitted for a course.
func (l *Ledger) PreferenceCount(courseID string) int { return l.prefCounts[courseID] }

// PreferenceInstructorIDs returns the distinct instructors who submitted at least one preference.
func (l *Ledger) PreferenceInstructorIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, pref := range l.preferences {
		if seen[pref.InstructorID] {
			continue
		}
		seen[pref.InstructorID] = true
		ids = append(ids, pref.InstructorID)
	}
	return ids
}

// Sections returns every section of the semester.
func (l *Ledger) Sections() []models.Section {
	out := make([]models.Section, len(l.sections))
	copy(out, l.sections)
	return out
}

// InstructorSections returns the sections held by instructorID.
func (l *Ledger) InstructorSections(instructorID string) []models.Section {
	return l.collect(l.byInstructor[instructorID])
}

// CourseSections returns the sections of courseID.
func (l *Ledger) CourseSections(courseID string) []models.Section {
	return l.collect(l.byCourse[courseID])
}

func (l *Ledger) collect(indexes []int) []models.Section {
	out := make([]models.Section, 0, len(indexes))
	for _, idx := range indexes {
		out = append(out, l.sections[idx])
	}
	return out
}

// Place persists section and makes it visible to subsequent reads.
func (l *Ledger) Place(ctx context.Context, section *models.Section) error {
	now := l.now()
	if section.SemesterID == "" {
		section.SemesterID = l.semester.ID
	}
	if section.Status == "" {
		section.Status = models.SectionStatusScheduled
	}
	if section.CreatedAt.IsZero() {
		section.CreatedAt = now
	}
	section.UpdatedAt = now
	if l.writer != nil {
		if err := l.writer.CreateSection(ctx, section); err != nil {
			return err
		}
	}
	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	l.index(*section)
	return nil
}
