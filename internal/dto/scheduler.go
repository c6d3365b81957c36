package dto

import (
	"time"

	"github.com/noah-isme/section-allocator/internal/models"
)

// GenerateOptions toggles the optional phases of a scheduling run.
type GenerateOptions struct {
	ClearExisting     bool `json:"clearExisting"`
	EnableLeastChosen bool `json:"enableLeastChosen"`
	StrictMode        bool `json:"strictMode"`
}

// DefaultGenerateOptions mirrors the CLI defaults: least-chosen pass on, no clear, lenient validation.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{EnableLeastChosen: true}
}

// GenerateScheduleRequest instructs the scheduler to build a semester schedule.
type GenerateScheduleRequest struct {
	SemesterID string          `json:"semesterId" validate:"required"`
	Options    GenerateOptions `json:"options"`
}

// SkipRecord explains why a preference or candidate produced no section.
type SkipRecord struct {
	PreferenceID string   `json:"preferenceId,omitempty"`
	InstructorID string   `json:"instructorId"`
	CourseID     string   `json:"courseId"`
	Reason       string   `json:"reason"`
	SlotReasons  []string `json:"slotReasons,omitempty"`
}

// AllocationResult summarises the FIFO pass.
type AllocationResult struct {
	SectionsAssigned     int            `json:"sectionsAssigned"`
	PreferencesProcessed int            `json:"preferencesProcessed"`
	PreferencesSkipped   int            `json:"preferencesSkipped"`
	UnassignedCourses    map[string]int `json:"unassignedCourses"`
	Skips                []SkipRecord   `json:"skips"`
}

// LeastChosenResult summarises the second pass.
type LeastChosenResult struct {
	SectionsAssigned int            `json:"sectionsAssigned"`
	CoursesAttempted int            `json:"coursesAttempted"`
	StillUnassigned  map[string]int `json:"stillUnassigned"`
	Skips            []SkipRecord   `json:"skips"`
}

// LoadStatus classifies an instructor's credit load.
type LoadStatus string

const (
	LoadStatusUnderMinimum LoadStatus = "UNDER_MINIMUM"
	LoadStatusOverloaded   LoadStatus = "OVER_LOADED"
	LoadStatusOK           LoadStatus = "OK"
)

// InstructorLoad is the load summary for one instructor in a semester.
type InstructorLoad struct {
	InstructorID string     `json:"instructorId"`
	Name         string     `json:"name"`
	Position     string     `json:"position"`
	Total        float64    `json:"total"`
	Minimum      float64    `json:"minimum"`
	Maximum      float64    `json:"maximum"`
	Sections     int        `json:"sections"`
	Status       LoadStatus `json:"status"`
	Notes        *string    `json:"notes,omitempty"`
}

// SectionLimitViolation flags an instructor holding too many sections of one course.
type SectionLimitViolation struct {
	InstructorID string `json:"instructorId"`
	CourseID     string `json:"courseId"`
	Count        int    `json:"count"`
	Limit        int    `json:"limit"`
}

// ValidationReport lists post-run findings.
type ValidationReport struct {
	Conflicts       []models.SectionConflict `json:"conflicts"`
	LimitViolations []SectionLimitViolation  `json:"limitViolations"`
}

// HasFindings reports whether validation found anything.
func (v ValidationReport) HasFindings() bool {
	return len(v.Conflicts) > 0 || len(v.LimitViolations) > 0
}

// ScheduleStats aggregates counts for a run. All fields are zero on failed runs.
type ScheduleStats struct {
	SectionsCleared      int64          `json:"sectionsCleared"`
	SectionsAssigned     int            `json:"sectionsAssigned"`
	FifoSections         int            `json:"fifoSections"`
	LeastChosenSections  int            `json:"leastChosenSections"`
	PreferencesProcessed int            `json:"preferencesProcessed"`
	PreferencesSkipped   int            `json:"preferencesSkipped"`
	UnassignedCourses    map[string]int `json:"unassignedCourses"`
}

// ScheduleResult is returned by every scheduling run, successful or not.
type ScheduleResult struct {
	SemesterID   string           `json:"semesterId"`
	Options      GenerateOptions  `json:"options"`
	IsValid      bool             `json:"isValid"`
	ErrorMessage *string          `json:"errorMessage,omitempty"`
	Stats        ScheduleStats    `json:"stats"`
	Skips        []SkipRecord     `json:"skips"`
	Underloaded  []InstructorLoad `json:"underloaded"`
	Validation   ValidationReport `json:"validation"`
	StartedAt    time.Time        `json:"startedAt"`
	FinishedAt   time.Time        `json:"finishedAt"`
}

// RequiresAdminIntervention is true when instructors remain underloaded or validation failed.
func (r *ScheduleResult) RequiresAdminIntervention() bool {
	if r == nil {
		return false
	}
	return len(r.Underloaded) > 0 || !r.IsValid || r.Validation.HasFindings()
}

// ScheduleEntry is a denormalised section row for reports and exports.
type ScheduleEntry struct {
	SectionID      string            `json:"sectionId"`
	CourseID       string            `json:"courseId"`
	CourseCode     string            `json:"courseCode"`
	CourseName     string            `json:"courseName"`
	InstructorID   *string           `json:"instructorId,omitempty"`
	InstructorName string            `json:"instructorName,omitempty"`
	Days           models.DaySet     `json:"days"`
	StartTime      *models.TimeOfDay `json:"startTime,omitempty"`
	EndTime        *models.TimeOfDay `json:"endTime,omitempty"`
	Room           *string           `json:"room,omitempty"`
	OfficeHours    bool              `json:"officeHours"`
}

// ScheduleReport is the per-instructor load and conflict summary of a semester.
type ScheduleReport struct {
	SemesterID          string                   `json:"semesterId"`
	SemesterName        string                   `json:"semesterName"`
	TotalSections       int                      `json:"totalSections"`
	AssignedSections    int                      `json:"assignedSections"`
	UnassignedSections  int                      `json:"unassignedSections"`
	OfficeHoursSections int                      `json:"officeHoursSections"`
	UnderloadedCount    int                      `json:"underloadedCount"`
	OverloadedCount     int                      `json:"overloadedCount"`
	Instructors         []InstructorLoad         `json:"instructors"`
	Conflicts           []models.SectionConflict `json:"conflicts"`
	LimitViolations     []SectionLimitViolation  `json:"limitViolations"`
	Entries             []ScheduleEntry          `json:"entries"`
}

// OverrideAssignmentRequest reassigns one section to another instructor.
type OverrideAssignmentRequest struct {
	InstructorID string `json:"instructorId" validate:"required"`
}

// ExportScheduleQuery selects the export format.
type ExportScheduleQuery struct {
	Format string `form:"format" json:"format" validate:"omitempty,oneof=csv pdf xlsx table grid"`
}

// ScheduleJobPayload is the queued form of a scheduling run.
type ScheduleJobPayload struct {
	JobID       string          `json:"jobId"`
	SemesterID  string          `json:"semesterId" validate:"required"`
	Options     GenerateOptions `json:"options"`
	RequestedAt time.Time       `json:"requestedAt"`
}

// Scheduler event names published on the events channel.
const (
	EventScheduleGenerated    = "schedule_generated"
	EventScheduleCleared      = "schedule_cleared"
	EventAssignmentOverridden = "assignment_overridden"
)

// ScheduleEvent is the notification payload sent after a committed write.
type ScheduleEvent struct {
	Event                     string    `json:"event"`
	SemesterID                string    `json:"semesterId"`
	SectionID                 string    `json:"sectionId,omitempty"`
	SectionsAssigned          int       `json:"sectionsAssigned"`
	SectionsCleared           int64     `json:"sectionsCleared,omitempty"`
	Underloaded               int       `json:"underloaded"`
	RequiresAdminIntervention bool      `json:"requiresAdminIntervention"`
	OccurredAt                time.Time `json:"occurredAt"`
}
